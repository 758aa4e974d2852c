package policy

// TranslationRule is one source-translation rule in the postrouting
// translation chain. Immutable once constructed.
type TranslationRule struct {
	Subnet       string // IPv4 CIDR whose source addresses are translated
	OutInterface string // egress interface the rule is scoped to
	SNATAddress  string // fixed source address; empty = masquerade
}

// NetController abstracts the host networking and packet-filter primitives
// the applier drives, so the apply logic can be tested against a
// substitutable fake.
type NetController interface {
	// SetForwarding sets the host-level IPv4 forwarding switch.
	// Setting an already-set switch is a no-op success.
	SetForwarding(enabled bool) error

	// ResetChains flushes every chain this tool owns (filter, translation
	// and packet-marking), removing any custom chains, so that rule
	// installation starts from a known-empty baseline.
	ResetChains() error

	// AddTranslation appends one translation rule to the postrouting
	// translation chain.
	AddTranslation(rule TranslationRule) error

	// DeleteChains removes every chain this tool owns.
	// Idempotent: deleting absent chains returns nil.
	DeleteChains() error

	// ForwardingEnabled reports the current state of the forwarding switch.
	ForwardingEnabled() (bool, error)

	// ChainsPresent reports whether the tool's chains are installed.
	ChainsPresent() (bool, error)
}
