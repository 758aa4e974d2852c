package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netemlab/natctl/internal/policy"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report the router's forwarding and translation state",
	Long: "Status reports whether IPv4 forwarding is enabled and whether the\n" +
		"natctl-owned packet-filter chains are present on this host.",
	SilenceUsage: true,
	RunE:         runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.LogLevel).With("router", cfg.RouterName)

	applier := policy.NewApplier(policy.NewNftablesController(logger), cfg.Policy, logger)
	st, err := applier.ReadStatus()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "forwarding enabled: %v\n", st.ForwardingEnabled)
	fmt.Fprintf(cmd.OutOrStdout(), "translation chains present: %v\n", st.ChainsPresent)
	return nil
}
