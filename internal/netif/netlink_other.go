//go:build !linux

package netif

import (
	"errors"
	"log/slog"
)

// errUnsupported is returned by every operation on non-Linux platforms.
var errUnsupported = errors.New("netif: netlink is only supported on linux")

// NetlinkController is the Linux link controller. This stub keeps the CLI
// buildable on other platforms for development; every operation fails.
type NetlinkController struct {
	logger *slog.Logger
}

// NewNetlinkController returns a new NetlinkController stub.
func NewNetlinkController(logger *slog.Logger) *NetlinkController {
	return &NetlinkController{logger: logger}
}

func (c *NetlinkController) ConfigureAddress(string, string) error { return errUnsupported }
func (c *NetlinkController) SetUp(string) error                    { return errUnsupported }
