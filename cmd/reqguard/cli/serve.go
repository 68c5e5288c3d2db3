package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tkingovr/reqguard/internal/audit"
	"github.com/tkingovr/reqguard/internal/dashboard"
	"github.com/tkingovr/reqguard/internal/metrics"
	"github.com/tkingovr/reqguard/internal/proxy"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the filtering proxy + web dashboard",
	Long: `Start both the filtering reverse proxy and the web dashboard together.
This is the recommended way to run reqguard.`,
	Example: `  reqguard serve -c reqguard.yaml
  reqguard serve --target http://localhost:4000`,
	RunE: runServe,
}

func init() {
	addProxyFlags(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyProxyFlags(cfg); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	p, err := openPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	auditStore, err := audit.NewJSONLStore(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("creating audit store: %w", err)
	}
	defer auditStore.Close()

	rec := metrics.New()
	guard := proxy.NewGuard(p.chain, logger,
		proxy.WithTrustProxy(cfg.TrustProxy),
		proxy.WithAudit(auditStore),
		proxy.WithMetrics(rec),
	)
	front, err := proxy.NewProxy(cfg.Target, guard, logger)
	if err != nil {
		return err
	}

	dash := dashboard.NewServer(cfg.DashboardAddr, auditStore, logger,
		dashboard.WithChecker(newDryRunChecker(cfg, p.resolver)),
		dashboard.WithConfig(cfg),
		dashboard.WithMetrics(rec.Handler()),
	)
	go func() {
		if err := dash.ListenAndServe(ctx); err != nil {
			logger.Error("dashboard error", "error", err)
		}
	}()

	logger.Info("starting serve mode",
		"listen", cfg.Listen,
		"target", cfg.Target.String(),
		"dashboard", cfg.DashboardAddr,
	)
	return front.ListenAndServe(ctx, cfg.Listen)
}
