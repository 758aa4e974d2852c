package policy

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func testConfig() Config {
	return Config{
		EgressInterface: "r1-eth0",
		Subnets:         []string{"10.0.1.0/24", "10.0.2.0/24"},
	}
}

func TestApplier_Apply_TwoSubnets(t *testing.T) {
	ctrl := &mockNetController{}
	applier := NewApplier(ctrl, testConfig(), discardLogger())

	installed, err := applier.Apply()
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if installed != 2 {
		t.Errorf("installed = %d, want 2", installed)
	}

	if !ctrl.forwarding {
		t.Error("forwarding switch should be enabled")
	}
	if len(ctrl.ruleset) != 2 {
		t.Fatalf("ruleset has %d rules, want 2", len(ctrl.ruleset))
	}
	for i, want := range []string{"10.0.1.0/24", "10.0.2.0/24"} {
		if ctrl.ruleset[i].Subnet != want {
			t.Errorf("ruleset[%d].Subnet = %q, want %q", i, ctrl.ruleset[i].Subnet, want)
		}
		if ctrl.ruleset[i].OutInterface != "r1-eth0" {
			t.Errorf("ruleset[%d].OutInterface = %q, want r1-eth0", i, ctrl.ruleset[i].OutInterface)
		}
	}
}

func TestApplier_Apply_OrderingInvariant(t *testing.T) {
	ctrl := &mockNetController{}
	applier := NewApplier(ctrl, testConfig(), discardLogger())

	if _, err := applier.Apply(); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	wantOrder := []string{"SetForwarding", "ResetChains", "AddTranslation", "AddTranslation"}
	if len(ctrl.calls) != len(wantOrder) {
		t.Fatalf("recorded %d calls, want %d: %v", len(ctrl.calls), len(wantOrder), ctrl.calls)
	}
	for i, want := range wantOrder {
		if ctrl.calls[i].Method != want {
			t.Errorf("calls[%d] = %s, want %s", i, ctrl.calls[i].Method, want)
		}
	}
	if ctrl.calls[0].Args[0] != "true" {
		t.Errorf("first call should enable forwarding, got args %v", ctrl.calls[0].Args)
	}
}

func TestApplier_Apply_Idempotent(t *testing.T) {
	ctrl := &mockNetController{}
	applier := NewApplier(ctrl, testConfig(), discardLogger())

	if _, err := applier.Apply(); err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	after1 := append([]TranslationRule(nil), ctrl.ruleset...)

	if _, err := applier.Apply(); err != nil {
		t.Fatalf("second Apply: %v", err)
	}

	if !reflect.DeepEqual(ctrl.ruleset, after1) {
		t.Errorf("ruleset after second Apply = %v, want %v", ctrl.ruleset, after1)
	}
	if !ctrl.forwarding {
		t.Error("forwarding should remain enabled")
	}
}

func TestApplier_Apply_Cardinality(t *testing.T) {
	for _, n := range []int{1, 2, 3} {
		cfg := Config{EgressInterface: "r1-eth0"}
		for i := 0; i < n; i++ {
			cfg.Subnets = append(cfg.Subnets, fmt.Sprintf("10.0.%d.0/24", i+1))
		}

		ctrl := &mockNetController{}
		applier := NewApplier(ctrl, cfg, discardLogger())

		installed, err := applier.Apply()
		if err != nil {
			t.Fatalf("n=%d: Apply: %v", n, err)
		}
		if installed != n {
			t.Errorf("n=%d: installed = %d", n, installed)
		}
		if len(ctrl.ruleset) != n {
			t.Errorf("n=%d: ruleset has %d rules", n, len(ctrl.ruleset))
		}
		for _, r := range ctrl.ruleset {
			if r.OutInterface != "r1-eth0" {
				t.Errorf("n=%d: rule %v references %q, want r1-eth0", n, r.Subnet, r.OutInterface)
			}
		}
	}
}

func TestApplier_Apply_EmptySubnets_NoExternalCalls(t *testing.T) {
	ctrl := &mockNetController{}
	cfg := Config{EgressInterface: "r1-eth0", Subnets: nil}
	applier := NewApplier(ctrl, cfg, discardLogger())

	_, err := applier.Apply()
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("Apply error = %v, want ErrConfigInvalid", err)
	}
	if len(ctrl.calls) != 0 {
		t.Errorf("expected zero external calls, got %v", ctrl.calls)
	}
}

func TestApplier_Apply_MalformedCIDR_NoExternalCalls(t *testing.T) {
	for _, bad := range []string{"10.0.1/24", "999.0.0.0/24", "10.0.1.0/33", "10.0.1.0", "2001:db8::/64"} {
		ctrl := &mockNetController{}
		cfg := Config{
			EgressInterface: "r1-eth0",
			Subnets:         []string{"10.0.1.0/24", bad},
		}
		applier := NewApplier(ctrl, cfg, discardLogger())

		_, err := applier.Apply()
		if !errors.Is(err, ErrConfigInvalid) {
			t.Errorf("subnet %q: Apply error = %v, want ErrConfigInvalid", bad, err)
		}
		if len(ctrl.calls) != 0 {
			t.Errorf("subnet %q: expected zero external calls, got %v", bad, ctrl.calls)
		}
	}
}

func TestApplier_Apply_EmptyEgress_NoExternalCalls(t *testing.T) {
	ctrl := &mockNetController{}
	cfg := Config{Subnets: []string{"10.0.1.0/24"}}
	applier := NewApplier(ctrl, cfg, discardLogger())

	_, err := applier.Apply()
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("Apply error = %v, want ErrConfigInvalid", err)
	}
	if len(ctrl.calls) != 0 {
		t.Errorf("expected zero external calls, got %v", ctrl.calls)
	}
}

func TestApplier_Apply_ForwardingFailureHaltsSequence(t *testing.T) {
	ctrl := &mockNetController{setForwardingErr: fmt.Errorf("injected error")}
	applier := NewApplier(ctrl, testConfig(), discardLogger())

	_, err := applier.Apply()

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("Apply error = %v, want *StepError", err)
	}
	if stepErr.Step != StepEnableForwarding {
		t.Errorf("failed step = %s, want %s", stepErr.Step, StepEnableForwarding)
	}
	if len(ctrl.callsFor("ResetChains")) != 0 || len(ctrl.callsFor("AddTranslation")) != 0 {
		t.Errorf("no step after enable-forwarding should run, got %v", ctrl.calls)
	}
}

func TestApplier_Apply_FlushFailureHaltsSequence(t *testing.T) {
	ctrl := &mockNetController{resetErr: fmt.Errorf("injected error")}
	applier := NewApplier(ctrl, testConfig(), discardLogger())

	_, err := applier.Apply()

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("Apply error = %v, want *StepError", err)
	}
	if stepErr.Step != StepFlush {
		t.Errorf("failed step = %s, want %s", stepErr.Step, StepFlush)
	}
	if stepErr.Subnet != "" {
		t.Errorf("flush failure should not name a subnet, got %q", stepErr.Subnet)
	}

	// Forwarding-enable was already made exactly once; zero installs attempted.
	if got := len(ctrl.callsFor("SetForwarding")); got != 1 {
		t.Errorf("SetForwarding called %d times, want 1", got)
	}
	if got := len(ctrl.callsFor("AddTranslation")); got != 0 {
		t.Errorf("AddTranslation called %d times, want 0", got)
	}
}

func TestApplier_Apply_InstallFailureNamesSubnet(t *testing.T) {
	ctrl := &mockNetController{
		addErrFor: map[string]error{"10.0.2.0/24": fmt.Errorf("injected error")},
	}
	applier := NewApplier(ctrl, testConfig(), discardLogger())

	installed, err := applier.Apply()

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("Apply error = %v, want *StepError", err)
	}
	if stepErr.Step != StepInstallRule {
		t.Errorf("failed step = %s, want %s", stepErr.Step, StepInstallRule)
	}
	if stepErr.Subnet != "10.0.2.0/24" {
		t.Errorf("failing subnet = %q, want 10.0.2.0/24", stepErr.Subnet)
	}
	if installed != 1 {
		t.Errorf("installed = %d, want 1 (the rule before the failure)", installed)
	}
}

func TestApplier_Apply_SNATAddressPropagated(t *testing.T) {
	cfg := testConfig()
	cfg.SNATAddress = "10.0.0.254"

	ctrl := &mockNetController{}
	applier := NewApplier(ctrl, cfg, discardLogger())

	if _, err := applier.Apply(); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	for _, r := range ctrl.ruleset {
		if r.SNATAddress != "10.0.0.254" {
			t.Errorf("rule for %s has SNATAddress %q, want 10.0.0.254", r.Subnet, r.SNATAddress)
		}
	}
}

func TestApplier_Teardown(t *testing.T) {
	ctrl := &mockNetController{}
	applier := NewApplier(ctrl, testConfig(), discardLogger())

	if _, err := applier.Apply(); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := applier.Teardown(); err != nil {
		t.Fatalf("Teardown: %v", err)
	}

	if ctrl.chainsPresent {
		t.Error("chains should be removed after Teardown")
	}
	if ctrl.forwarding {
		t.Error("forwarding should be disabled after Teardown")
	}
}

func TestApplier_Teardown_ContinuesPastFailures(t *testing.T) {
	ctrl := &mockNetController{deleteErr: fmt.Errorf("injected error")}
	applier := NewApplier(ctrl, testConfig(), discardLogger())

	err := applier.Teardown()
	if err == nil {
		t.Fatal("Teardown should return error")
	}

	// Forwarding disable is still attempted after the delete failure.
	fwdCalls := ctrl.callsFor("SetForwarding")
	if len(fwdCalls) != 1 || fwdCalls[0].Args[0] != "false" {
		t.Errorf("expected one SetForwarding(false) call, got %v", fwdCalls)
	}
}

func TestApplier_ReadStatus(t *testing.T) {
	ctrl := &mockNetController{}
	applier := NewApplier(ctrl, testConfig(), discardLogger())

	if _, err := applier.Apply(); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	status, err := applier.ReadStatus()
	if err != nil {
		t.Fatalf("ReadStatus: %v", err)
	}
	if !status.ForwardingEnabled {
		t.Error("ForwardingEnabled = false, want true")
	}
	if !status.ChainsPresent {
		t.Error("ChainsPresent = false, want true")
	}
}

func TestApplier_ReadStatus_Error(t *testing.T) {
	ctrl := &mockNetController{statusErr: fmt.Errorf("injected error")}
	applier := NewApplier(ctrl, testConfig(), discardLogger())

	if _, err := applier.ReadStatus(); err == nil {
		t.Fatal("ReadStatus should return error")
	}
}
