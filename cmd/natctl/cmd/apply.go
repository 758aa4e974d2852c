package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/netemlab/natctl/internal/netif"
	"github.com/netemlab/natctl/internal/policy"
	"github.com/netemlab/natctl/internal/router"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply the router's NAT and forwarding policy",
	Long: "Apply enables IPv4 forwarding, resets the natctl-owned packet-filter\n" +
		"chains, and installs one source-translation rule per configured subnet,\n" +
		"in that order. Any configured interface addresses are assigned first.",
	SilenceUsage: true,
	RunE:         runApply,
}

func init() {
	applyCmd.Flags().StringVar(&egress, "egress", "", "egress interface name (overrides config)")
	applyCmd.Flags().StringArrayVar(&subnets, "subnet", nil, "client subnet in CIDR form, repeatable (overrides config)")
	applyCmd.Flags().StringVar(&snatAddr, "snat", "", "translate to this fixed address instead of masquerading (overrides config)")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.LogLevel).With("router", cfg.RouterName)

	if err := cfg.Validate(); err != nil {
		return err
	}

	if len(cfg.Network.Interfaces) > 0 {
		mgr := netif.NewManager(netif.NewNetlinkController(logger), cfg.Network, logger)
		if err := mgr.Setup(); err != nil {
			return err
		}
	}

	applier := policy.NewApplier(policy.NewNftablesController(logger), cfg.Policy, logger)
	installed, err := applier.Apply()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "installed %d translation rule(s) out %s\n", installed, cfg.Policy.EgressInterface)
	return nil
}

// loadConfig reads the configuration file if it exists and layers any CLI
// flag overrides on top. A missing file is not an error when flags supply
// the policy, so apply works on hosts without /etc/natctl. Any other stat
// failure is reported rather than silently falling back to defaults.
func loadConfig() (*router.Config, error) {
	var cfg *router.Config
	_, err := os.Stat(cfgFile)
	switch {
	case err == nil:
		cfg, err = router.ParseConfig(cfgFile)
		if err != nil {
			return nil, err
		}
	case errors.Is(err, fs.ErrNotExist):
		cfg = &router.Config{}
		cfg.ApplyDefaults()
	default:
		return nil, fmt.Errorf("natctl: stat config %s: %w", cfgFile, err)
	}
	applyFlagOverrides(cfg)
	return cfg, nil
}

func applyFlagOverrides(cfg *router.Config) {
	if routerName != "" {
		cfg.RouterName = routerName
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if egress != "" {
		cfg.Policy.EgressInterface = egress
	}
	if len(subnets) > 0 {
		cfg.Policy.Subnets = subnets
	}
	if snatAddr != "" {
		cfg.Policy.SNATAddress = snatAddr
	}
}
