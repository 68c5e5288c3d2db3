package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/tkingovr/reqguard/internal/audit"
	"github.com/tkingovr/reqguard/internal/config"
	"github.com/tkingovr/reqguard/internal/metrics"
	"github.com/tkingovr/reqguard/internal/proxy"
)

var (
	proxyTarget string
	proxyListen string
)

var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Start the filtering reverse proxy",
	Long: `Start an HTTP reverse proxy that runs every inbound request through
the filter pipeline and forwards only accepted requests to the target.`,
	Example: `  reqguard proxy --target http://localhost:4000 --listen :3000
  reqguard proxy -c reqguard.yaml`,
	RunE: runProxy,
}

func init() {
	addProxyFlags(proxyCmd)
	rootCmd.AddCommand(proxyCmd)
}

func addProxyFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&proxyTarget, "target", "", "upstream URL (overrides config)")
	cmd.Flags().StringVar(&proxyListen, "listen", "", "listen address (overrides config)")
}

// applyProxyFlags resolves the listen address and upstream from flags and
// config.
func applyProxyFlags(cfg *config.Config) error {
	if proxyListen != "" {
		cfg.Listen = proxyListen
	}
	if proxyTarget != "" {
		u, err := url.Parse(proxyTarget)
		if err != nil || u.Host == "" {
			return fmt.Errorf("invalid --target %q", proxyTarget)
		}
		cfg.Target = u
	}
	if cfg.Target == nil {
		return fmt.Errorf("an upstream target is required (--target, config target or REQGUARD_TARGET)")
	}
	return nil
}

func runProxy(cmd *cobra.Command, args []string) error {
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

	guard := proxy.NewGuard(p.chain, logger,
		proxy.WithTrustProxy(cfg.TrustProxy),
		proxy.WithAudit(auditStore),
		proxy.WithMetrics(metrics.New()),
	)
	front, err := proxy.NewProxy(cfg.Target, guard, logger)
	if err != nil {
		return err
	}
	return front.ListenAndServe(ctx, cfg.Listen)
}
