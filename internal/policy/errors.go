package policy

import (
	"errors"
	"fmt"
)

// ErrConfigInvalid marks errors caused by malformed caller input. Such
// errors are detected before any external call, so no host state has been
// touched when one is returned.
var ErrConfigInvalid = errors.New("invalid configuration")

// Step identifies one of the ordered stages of Applier.Apply.
type Step string

const (
	StepEnableForwarding Step = "enable-forwarding"
	StepFlush            Step = "flush"
	StepInstallRule      Step = "install-rule"
)

// StepError reports which apply step failed and, for rule installation, the
// subnet whose rule could not be installed. Steps after the failing one were
// never attempted.
type StepError struct {
	Step   Step
	Subnet string // set only for StepInstallRule
	Err    error
}

func (e *StepError) Error() string {
	if e.Subnet != "" {
		return fmt.Sprintf("policy: step %s: subnet %s: %v", e.Step, e.Subnet, e.Err)
	}
	return fmt.Sprintf("policy: step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
