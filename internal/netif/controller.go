package netif

// LinkController abstracts OS-level link operations for testability.
type LinkController interface {
	// ConfigureAddress adds a CIDR address to the named interface.
	// Idempotent: adding an already-present address returns nil.
	ConfigureAddress(name, address string) error

	// SetUp brings the named interface up.
	SetUp(name string) error
}
