//go:build linux

package netif

import (
	"errors"
	"fmt"
	"log/slog"
	"syscall"

	"github.com/vishvananda/netlink"
)

// NetlinkController implements LinkController using Linux netlink.
type NetlinkController struct {
	logger *slog.Logger
}

// NewNetlinkController returns a new NetlinkController.
func NewNetlinkController(logger *slog.Logger) *NetlinkController {
	return &NetlinkController{logger: logger}
}

// ConfigureAddress adds a CIDR address to the named interface.
// Idempotent: EEXIST from the kernel is success.
func (c *NetlinkController) ConfigureAddress(name, address string) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return fmt.Errorf("netif: configure address: lookup interface %q: %w", name, err)
	}

	addr, err := netlink.ParseAddr(address)
	if err != nil {
		return fmt.Errorf("netif: configure address: parse %q: %w", address, err)
	}

	if err := netlink.AddrAdd(link, addr); err != nil {
		// EEXIST means the address is already assigned.
		if errors.Is(err, syscall.EEXIST) {
			c.logger.Debug("address already present, idempotent success",
				"component", "netif",
				"interface", name,
				"address", address,
			)
			return nil
		}
		return fmt.Errorf("netif: configure address %q on %q: %w", address, name, err)
	}

	c.logger.Debug("address configured",
		"component", "netif",
		"interface", name,
		"address", address,
	)
	return nil
}

// SetUp brings the named interface up.
func (c *NetlinkController) SetUp(name string) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return fmt.Errorf("netif: set up: lookup interface %q: %w", name, err)
	}

	if err := netlink.LinkSetUp(link); err != nil {
		return fmt.Errorf("netif: set up %q: %w", name, err)
	}

	c.logger.Debug("interface brought up",
		"component", "netif",
		"interface", name,
	)
	return nil
}
