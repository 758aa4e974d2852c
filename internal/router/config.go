// Package router holds the top-level configuration for one router node.
package router

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/netemlab/natctl/internal/netif"
	"github.com/netemlab/natctl/internal/policy"
)

const (
	// DefaultRouterName is used in logs when no name is configured.
	DefaultRouterName = "router"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"
)

// Config is the top-level configuration for one router node. It aggregates
// the subsystem configurations and is populated from a YAML file via
// ParseConfig, with CLI flag overrides layered on top by the caller.
type Config struct {
	// RouterName identifies the router node. Used only for logging.
	// Default: "router"
	RouterName string `yaml:"router_name"`

	// LogLevel is the log level: "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	Policy  policy.Config `yaml:"policy"`
	Network netif.Config  `yaml:"network"`
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.RouterName == "" {
		c.RouterName = DefaultRouterName
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Validate checks the aggregate configuration. Policy validation is repeated
// by the applier before it touches host state; validating here lets the CLI
// fail before any interface is configured.
func (c *Config) Validate() error {
	if err := c.Policy.Validate(); err != nil {
		return err
	}
	if err := c.Network.Validate(); err != nil {
		return err
	}
	return nil
}

// ParseConfig reads a YAML configuration file and returns a Config with
// defaults applied. Validation is left to the caller so flag overrides can
// be layered on first.
func ParseConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("router: config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("router: config: parse %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}
