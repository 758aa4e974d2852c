package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netemlab/natctl/internal/policy"
)

var teardownCmd = &cobra.Command{
	Use:   "teardown",
	Short: "Remove the natctl-owned chains and disable forwarding",
	Long: "Teardown deletes the natctl-owned packet-filter table and disables\n" +
		"IPv4 forwarding. It attempts both even if one fails.",
	SilenceUsage: true,
	RunE:         runTeardown,
}

func init() {
	rootCmd.AddCommand(teardownCmd)
}

func runTeardown(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.LogLevel).With("router", cfg.RouterName)

	applier := policy.NewApplier(policy.NewNftablesController(logger), cfg.Policy, logger)
	if err := applier.Teardown(); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "translation chains removed, forwarding disabled")
	return nil
}
