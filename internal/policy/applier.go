package policy

import (
	"errors"
	"fmt"
	"log/slog"
)

// Applier makes the router's live packet-filtering state match the declared
// Config, unconditionally, from a known-clean baseline. It is single-shot
// and assumes exclusive access to the host's networking state for the
// duration of one call; it provides no locking of its own.
type Applier struct {
	ctrl   NetController
	cfg    Config
	logger *slog.Logger
}

// NewApplier creates an Applier. The config is read-only input; Apply never
// mutates it.
func NewApplier(ctrl NetController, cfg Config, logger *slog.Logger) *Applier {
	return &Applier{
		ctrl:   ctrl,
		cfg:    cfg,
		logger: logger.With("component", "policy"),
	}
}

// Apply establishes the translation and forwarding posture in four strictly
// ordered steps: enable forwarding, flush owned chains, install one
// translation rule per subnet, report. A failing step halts the sequence and
// is returned as a *StepError; nothing is retried. Returns the number of
// rules installed.
//
// Re-running Apply yields the same end state as a single run: the flush step
// removes everything a prior run installed before rules are rebuilt, so a
// caller may safely retry the whole operation after a failure.
func (a *Applier) Apply() (int, error) {
	if err := a.cfg.Validate(); err != nil {
		return 0, err
	}

	if err := a.ctrl.SetForwarding(true); err != nil {
		return 0, &StepError{Step: StepEnableForwarding, Err: err}
	}

	if err := a.ctrl.ResetChains(); err != nil {
		return 0, &StepError{Step: StepFlush, Err: err}
	}

	installed := 0
	for _, subnet := range a.cfg.Subnets {
		rule := TranslationRule{
			Subnet:       subnet,
			OutInterface: a.cfg.EgressInterface,
			SNATAddress:  a.cfg.SNATAddress,
		}
		if err := a.ctrl.AddTranslation(rule); err != nil {
			return installed, &StepError{Step: StepInstallRule, Subnet: subnet, Err: err}
		}
		installed++
	}

	a.logger.Info("translation policy applied",
		"egress_iface", a.cfg.EgressInterface,
		"rules", installed,
	)
	return installed, nil
}

// Teardown removes the owned chains and disables forwarding. Cleanup
// continues past individual failures; errors are aggregated.
func (a *Applier) Teardown() error {
	var errs []error

	if err := a.ctrl.DeleteChains(); err != nil {
		a.logger.Error("teardown: delete chains failed", "error", err)
		errs = append(errs, err)
	}
	if err := a.ctrl.SetForwarding(false); err != nil {
		a.logger.Error("teardown: disable forwarding failed", "error", err)
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Status is the live posture of the forwarding switch and owned chains.
type Status struct {
	ForwardingEnabled bool
	ChainsPresent     bool
}

// ReadStatus queries the controller for the current posture.
func (a *Applier) ReadStatus() (Status, error) {
	fwd, err := a.ctrl.ForwardingEnabled()
	if err != nil {
		return Status{}, fmt.Errorf("policy: status: forwarding: %w", err)
	}
	present, err := a.ctrl.ChainsPresent()
	if err != nil {
		return Status{}, fmt.Errorf("policy: status: chains: %w", err)
	}
	return Status{ForwardingEnabled: fwd, ChainsPresent: present}, nil
}
