// Package policy establishes a router node's address-translation and
// forwarding posture from a declarative description of its client subnets
// and egress interface.
package policy

import (
	"fmt"
	"net"
)

// maxInterfaceNameLen is IFNAMSIZ minus the null terminator; the kernel
// rejects longer interface names.
const maxInterfaceNameLen = 15

// Config describes the translation posture of one router: the egress
// interface toward the shared central subnet and the client subnets whose
// outbound traffic is translated through it.
type Config struct {
	// EgressInterface is the interface translated traffic exits through.
	EgressInterface string `yaml:"egress_interface"`

	// Subnets are the client subnets to translate, in IPv4 CIDR form.
	// Order is preserved for reproducible diagnostics; it does not affect
	// correctness.
	Subnets []string `yaml:"subnets"`

	// SNATAddress optionally pins translation to a fixed IPv4 source
	// address. Empty selects masquerade, translating to the egress
	// interface's own address.
	SNATAddress string `yaml:"snat_address"`
}

// Validate checks the config before any host state is touched. A malformed
// entry fails the whole operation so bad input never partially applies.
// All failures wrap ErrConfigInvalid.
func (c *Config) Validate() error {
	if c.EgressInterface == "" {
		return fmt.Errorf("policy: config: egress interface must not be empty: %w", ErrConfigInvalid)
	}
	if len(c.EgressInterface) > maxInterfaceNameLen {
		return fmt.Errorf("policy: config: egress interface %q is longer than %d bytes: %w", c.EgressInterface, maxInterfaceNameLen, ErrConfigInvalid)
	}
	if len(c.Subnets) == 0 {
		return fmt.Errorf("policy: config: subnet list must not be empty: %w", ErrConfigInvalid)
	}
	for _, subnet := range c.Subnets {
		if err := validateIPv4CIDR(subnet); err != nil {
			return fmt.Errorf("policy: config: subnet %q: %v: %w", subnet, err, ErrConfigInvalid)
		}
	}
	if c.SNATAddress != "" {
		ip := net.ParseIP(c.SNATAddress)
		if ip == nil || ip.To4() == nil {
			return fmt.Errorf("policy: config: snat address %q is not an IPv4 address: %w", c.SNATAddress, ErrConfigInvalid)
		}
	}
	return nil
}

// validateIPv4CIDR rejects anything net.ParseCIDR rejects, plus IPv6 prefixes.
func validateIPv4CIDR(s string) error {
	ip, _, err := net.ParseCIDR(s)
	if err != nil {
		return err
	}
	if ip.To4() == nil {
		return fmt.Errorf("not an IPv4 prefix")
	}
	return nil
}
