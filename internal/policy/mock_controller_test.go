package policy

import (
	"fmt"
	"io"
	"log/slog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// call records one controller invocation with its stringified arguments.
type call struct {
	Method string
	Args   []string
}

// mockNetController records calls and keeps a persistent in-memory ruleset
// so idempotence can be verified across successive Apply calls.
type mockNetController struct {
	calls []call

	// simulated external state
	forwarding    bool
	chainsPresent bool
	ruleset       []TranslationRule

	// injected failures
	setForwardingErr error
	resetErr         error
	addErrFor        map[string]error
	deleteErr        error
	statusErr        error
}

func (m *mockNetController) SetForwarding(enabled bool) error {
	m.calls = append(m.calls, call{Method: "SetForwarding", Args: []string{fmt.Sprintf("%t", enabled)}})
	if m.setForwardingErr != nil {
		return m.setForwardingErr
	}
	m.forwarding = enabled
	return nil
}

func (m *mockNetController) ResetChains() error {
	m.calls = append(m.calls, call{Method: "ResetChains"})
	if m.resetErr != nil {
		return m.resetErr
	}
	m.ruleset = nil
	m.chainsPresent = true
	return nil
}

func (m *mockNetController) AddTranslation(rule TranslationRule) error {
	m.calls = append(m.calls, call{Method: "AddTranslation", Args: []string{rule.Subnet, rule.OutInterface, rule.SNATAddress}})
	if err := m.addErrFor[rule.Subnet]; err != nil {
		return err
	}
	m.ruleset = append(m.ruleset, rule)
	return nil
}

func (m *mockNetController) DeleteChains() error {
	m.calls = append(m.calls, call{Method: "DeleteChains"})
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.ruleset = nil
	m.chainsPresent = false
	return nil
}

func (m *mockNetController) ForwardingEnabled() (bool, error) {
	m.calls = append(m.calls, call{Method: "ForwardingEnabled"})
	if m.statusErr != nil {
		return false, m.statusErr
	}
	return m.forwarding, nil
}

func (m *mockNetController) ChainsPresent() (bool, error) {
	m.calls = append(m.calls, call{Method: "ChainsPresent"})
	if m.statusErr != nil {
		return false, m.statusErr
	}
	return m.chainsPresent, nil
}

// callsFor returns the recorded calls for one method, in order.
func (m *mockNetController) callsFor(method string) []call {
	var out []call
	for _, c := range m.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Compile-time check that the mock implements NetController.
var _ NetController = (*mockNetController)(nil)
