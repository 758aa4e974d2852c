//go:build !linux

package policy

import (
	"errors"
	"log/slog"
)

// errUnsupported is returned by every operation on non-Linux platforms.
var errUnsupported = errors.New("policy: nftables is only supported on linux")

// NftablesController is the Linux packet-filter controller. This stub keeps
// the CLI buildable on other platforms for development; every operation
// fails.
type NftablesController struct {
	logger *slog.Logger
}

// NewNftablesController returns a new NftablesController stub.
func NewNftablesController(logger *slog.Logger) *NftablesController {
	return &NftablesController{logger: logger}
}

func (c *NftablesController) SetForwarding(bool) error             { return errUnsupported }
func (c *NftablesController) ResetChains() error                   { return errUnsupported }
func (c *NftablesController) AddTranslation(TranslationRule) error { return errUnsupported }
func (c *NftablesController) DeleteChains() error                  { return errUnsupported }
func (c *NftablesController) ForwardingEnabled() (bool, error)     { return false, errUnsupported }
func (c *NftablesController) ChainsPresent() (bool, error)         { return false, errUnsupported }
