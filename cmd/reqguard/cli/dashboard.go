package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tkingovr/reqguard/internal/audit"
	"github.com/tkingovr/reqguard/internal/dashboard"
)

var (
	dashAddr   string
	dashLogDir string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Start the web dashboard only (no proxy)",
	Long: `Start the web dashboard for viewing request decisions and the active
configuration. Reads from existing audit log files.`,
	Example: `  reqguard dashboard -l :8080 -a ~/.reqguard/logs
  reqguard dashboard -c reqguard.yaml`,
	RunE: runDashboard,
}

func init() {
	dashboardCmd.Flags().StringVarP(&dashAddr, "listen", "l", "", "dashboard listen address (overrides config)")
	dashboardCmd.Flags().StringVarP(&dashLogDir, "audit-dir", "a", "", "audit log directory")
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dashAddr != "" {
		cfg.DashboardAddr = dashAddr
	}
	if dashLogDir != "" {
		cfg.LogDir = dashLogDir
	}

	auditStore, err := audit.NewJSONLStore(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("creating audit store: %w", err)
	}
	defer auditStore.Close()

	resolver, closeGeo, err := cfg.OpenResolver()
	if err != nil {
		return fmt.Errorf("opening geo resolver: %w", err)
	}
	defer closeGeo()

	ctx, cancel := signalContext()
	defer cancel()

	dash := dashboard.NewServer(cfg.DashboardAddr, auditStore, logger,
		dashboard.WithChecker(newDryRunChecker(cfg, resolver)),
		dashboard.WithConfig(cfg),
	)
	return dash.ListenAndServe(ctx)
}
