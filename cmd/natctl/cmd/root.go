// Package cmd implements the natctl CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/netemlab/natctl/internal/netif"
	"github.com/netemlab/natctl/internal/policy"
)

// Exit codes. Invalid configuration is distinguished from execution failures
// so callers can tell a correctable input error from an environment problem.
const (
	exitFailure       = 1
	exitConfigInvalid = 2
)

var (
	cfgFile    string
	logLevel   string
	routerName string
	egress     string
	subnets    []string
	snatAddr   string
)

// Build info set from main.
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

// SetVersionInfo sets the version info from build-time ldflags.
func SetVersionInfo(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	rootCmd.Version = buildVersion
	rootCmd.SetVersionTemplate(fmt.Sprintf("natctl version {{.Version}}\ncommit: %s\nbuilt: %s\n", buildCommit, buildDate))
}

var rootCmd = &cobra.Command{
	Use:   "natctl",
	Short: "natctl manages a router node's NAT and forwarding posture",
	Long: "natctl (re)establishes a simulated router's address-translation and\n" +
		"forwarding posture from a declarative description of its client subnets\n" +
		"and egress interface: it enables IP forwarding, resets its own\n" +
		"packet-filter chains, and installs one masquerade rule per subnet.",
	// No Run function, prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "/etc/natctl/config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error; overrides config)")
	rootCmd.PersistentFlags().StringVar(&routerName, "name", "", "router node name, used for logging (overrides config)")

	rootCmd.Version = buildVersion
	rootCmd.SetVersionTemplate(fmt.Sprintf("natctl version {{.Version}}\ncommit: %s\nbuilt: %s\n", buildCommit, buildDate))
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, policy.ErrConfigInvalid) || errors.Is(err, netif.ErrConfigInvalid) {
		return exitConfigInvalid
	}
	return exitFailure
}

func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
