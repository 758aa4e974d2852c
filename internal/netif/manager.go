package netif

import (
	"fmt"
	"log/slog"
)

// Manager assigns declared addresses to router interfaces and brings them
// up. Setup is fail-fast: interfaces are configured in declaration order and
// the first failure halts the sequence.
type Manager struct {
	ctrl   LinkController
	cfg    Config
	logger *slog.Logger
}

// NewManager creates a Manager.
func NewManager(ctrl LinkController, cfg Config, logger *slog.Logger) *Manager {
	return &Manager{
		ctrl:   ctrl,
		cfg:    cfg,
		logger: logger.With("component", "netif"),
	}
}

// Setup configures every declared interface: assign the address, then bring
// the link up. A no-op when no interfaces are declared.
func (m *Manager) Setup() error {
	for _, ifc := range m.cfg.Interfaces {
		if err := m.ctrl.ConfigureAddress(ifc.Name, ifc.Address); err != nil {
			return fmt.Errorf("netif: setup: %w", err)
		}
		if err := m.ctrl.SetUp(ifc.Name); err != nil {
			return fmt.Errorf("netif: setup: %w", err)
		}
	}

	if len(m.cfg.Interfaces) > 0 {
		m.logger.Info("router interfaces configured", "count", len(m.cfg.Interfaces))
	}
	return nil
}
