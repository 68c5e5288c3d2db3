package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tkingovr/reqguard/api"
	"github.com/tkingovr/reqguard/internal/config"
	"github.com/tkingovr/reqguard/internal/counter"
	"github.com/tkingovr/reqguard/internal/filter"
	"github.com/tkingovr/reqguard/internal/geo"
	"github.com/tkingovr/reqguard/internal/proxy"
)

func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		cfg, err := config.LoadDefault()
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// pipeline holds the live filter chain and the resources behind it.
type pipeline struct {
	chain    *filter.Chain
	resolver geo.Resolver
	counter  counter.Counter
	closeGeo func() error
}

func openPipeline(ctx context.Context, cfg *config.Config) (*pipeline, error) {
	resolver, closeGeo, err := cfg.OpenResolver()
	if err != nil {
		return nil, fmt.Errorf("opening geo resolver: %w", err)
	}
	c, err := cfg.OpenCounter(ctx)
	if err != nil {
		closeGeo()
		return nil, fmt.Errorf("opening rate counter: %w", err)
	}

	chainCfg := cfg.ChainConfig()
	chainCfg.Logger = logger
	chainCfg.Resolver = resolver
	chainCfg.Counter = c

	chain := filter.BuildChain(chainCfg)
	logger.Info("pipeline ready",
		"filters", chain.Filters(),
		"countries", cfg.Countries.Codes(),
		"rate_backend", cfg.Backend,
	)
	return &pipeline{
		chain:    chain,
		resolver: resolver,
		counter:  c,
		closeGeo: closeGeo,
	}, nil
}

// dryRunChecker evaluates each synthetic request on a fresh chain with its
// own in-memory counter. Checks never touch the live rate budget and always
// see the first hit of a window.
type dryRunChecker struct {
	cfg      *config.Config
	resolver geo.Resolver
}

func newDryRunChecker(cfg *config.Config, resolver geo.Resolver) *dryRunChecker {
	return &dryRunChecker{cfg: cfg, resolver: resolver}
}

func (d *dryRunChecker) Evaluate(ctx context.Context, req api.CheckRequest) (*api.CheckResponse, error) {
	mem := counter.NewMemory(counter.WithCleanupInterval(0))
	defer mem.Close()

	chainCfg := d.cfg.ChainConfig()
	chainCfg.Logger = logger
	chainCfg.Resolver = d.resolver
	chainCfg.Counter = mem
	guard := proxy.NewGuard(filter.BuildChain(chainCfg), logger, proxy.WithTrustProxy(d.cfg.TrustProxy))
	return guard.Evaluate(ctx, req)
}

func (p *pipeline) Close() error {
	return errors.Join(p.counter.Close(), p.closeGeo())
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("shutting down")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
