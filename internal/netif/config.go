// Package netif assigns addresses to a router node's interfaces before the
// translation policy is applied, mirroring how the node is brought up in the
// emulated testbed.
package netif

import (
	"errors"
	"fmt"
	"net"
)

// ErrConfigInvalid marks errors caused by malformed interface configuration.
var ErrConfigInvalid = errors.New("invalid interface configuration")

// Interface declares one router interface and the CIDR address to assign.
type Interface struct {
	// Name is the interface name, e.g. "r1-eth0".
	Name string `yaml:"name"`

	// Address is the interface address in CIDR form, e.g. "10.0.0.254/24".
	Address string `yaml:"address"`
}

// Config holds the declared router interfaces. An empty list disables
// interface setup entirely.
type Config struct {
	Interfaces []Interface `yaml:"interfaces"`
}

// Validate checks every declared interface.
// All failures wrap ErrConfigInvalid.
func (c *Config) Validate() error {
	for _, ifc := range c.Interfaces {
		if ifc.Name == "" {
			return fmt.Errorf("netif: config: interface name must not be empty: %w", ErrConfigInvalid)
		}
		if _, _, err := net.ParseCIDR(ifc.Address); err != nil {
			return fmt.Errorf("netif: config: interface %q: address %q: %v: %w", ifc.Name, ifc.Address, err, ErrConfigInvalid)
		}
	}
	return nil
}
