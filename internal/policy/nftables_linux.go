//go:build linux

package policy

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"

	"github.com/google/nftables"
	"github.com/google/nftables/expr"
	"golang.org/x/sys/unix"
)

// tableName is the nftables table natctl owns. Every chain and rule the tool
// installs lives in this table, so a reset never disturbs foreign rulesets.
const tableName = "natctl"

// Chains within the owned table.
const (
	filterChainName = "forward"
	natChainName    = "postrouting"
	mangleChainName = "premark"
)

// ipForwardSysctl is the host-level IPv4 forwarding switch.
const ipForwardSysctl = "/proc/sys/net/ipv4/ip_forward"

// NftablesController implements NetController using the Linux nftables
// subsystem via the google/nftables netlink library, plus the ip_forward
// sysctl for the forwarding switch.
type NftablesController struct {
	logger *slog.Logger
}

// NewNftablesController returns a new NftablesController.
func NewNftablesController(logger *slog.Logger) *NftablesController {
	return &NftablesController{logger: logger}
}

// SetForwarding writes the host-level IPv4 forwarding switch. Writing an
// already-set value is a no-op for the kernel.
func (c *NftablesController) SetForwarding(enabled bool) error {
	value := "0"
	if enabled {
		value = "1"
	}
	if err := os.WriteFile(ipForwardSysctl, []byte(value), 0o644); err != nil {
		return fmt.Errorf("policy: sysctl %s: %w", ipForwardSysctl, err)
	}

	c.logger.Debug("forwarding switch set",
		"component", "policy",
		"enabled", enabled,
	)
	return nil
}

// ForwardingEnabled reads the forwarding switch.
func (c *NftablesController) ForwardingEnabled() (bool, error) {
	data, err := os.ReadFile(ipForwardSysctl)
	if err != nil {
		return false, fmt.Errorf("policy: sysctl %s: %w", ipForwardSysctl, err)
	}
	return strings.TrimSpace(string(data)) == "1", nil
}

// ResetChains deletes the owned table if present and recreates it with empty
// filter, translation and packet-marking base chains, in one batch. Rule
// installation afterwards starts from a known-empty baseline.
func (c *NftablesController) ResetChains() error {
	conn, err := nftables.New()
	if err != nil {
		return fmt.Errorf("policy: nftables: reset chains: %w", err)
	}

	existing, err := findTable(conn)
	if err != nil {
		return fmt.Errorf("policy: nftables: reset chains: list tables: %w", err)
	}
	if existing != nil {
		conn.DelTable(existing)
	}

	table := conn.AddTable(&nftables.Table{
		Family: nftables.TableFamilyIPv4,
		Name:   tableName,
	})
	conn.AddChain(&nftables.Chain{
		Name:     filterChainName,
		Table:    table,
		Type:     nftables.ChainTypeFilter,
		Hooknum:  nftables.ChainHookForward,
		Priority: nftables.ChainPriorityFilter,
	})
	conn.AddChain(&nftables.Chain{
		Name:     natChainName,
		Table:    table,
		Type:     nftables.ChainTypeNAT,
		Hooknum:  nftables.ChainHookPostrouting,
		Priority: nftables.ChainPriorityNATSource,
	})
	conn.AddChain(&nftables.Chain{
		Name:     mangleChainName,
		Table:    table,
		Type:     nftables.ChainTypeFilter,
		Hooknum:  nftables.ChainHookPrerouting,
		Priority: nftables.ChainPriorityMangle,
	})

	if err := conn.Flush(); err != nil {
		return fmt.Errorf("policy: nftables: reset chains: %w", err)
	}

	c.logger.Debug("owned chains reset",
		"component", "policy",
		"table", tableName,
	)
	return nil
}

// AddTranslation appends one source-translation rule to the postrouting
// chain, matching the egress interface and the subnet's source addresses.
func (c *NftablesController) AddTranslation(rule TranslationRule) error {
	conn, err := nftables.New()
	if err != nil {
		return fmt.Errorf("policy: nftables: add translation: %w", err)
	}

	table := conn.AddTable(&nftables.Table{
		Family: nftables.TableFamilyIPv4,
		Name:   tableName,
	})
	chain := conn.AddChain(&nftables.Chain{
		Name:     natChainName,
		Table:    table,
		Type:     nftables.ChainTypeNAT,
		Hooknum:  nftables.ChainHookPostrouting,
		Priority: nftables.ChainPriorityNATSource,
	})

	exprs, err := buildTranslationExprs(rule)
	if err != nil {
		return fmt.Errorf("policy: nftables: add translation: %w", err)
	}
	conn.AddRule(&nftables.Rule{
		Table: table,
		Chain: chain,
		Exprs: exprs,
	})

	if err := conn.Flush(); err != nil {
		return fmt.Errorf("policy: nftables: add translation for %q: %w", rule.Subnet, err)
	}

	c.logger.Debug("translation rule installed",
		"component", "policy",
		"subnet", rule.Subnet,
		"egress_iface", rule.OutInterface,
	)
	return nil
}

// DeleteChains removes the owned table and everything in it.
// Idempotent: a missing table is success.
func (c *NftablesController) DeleteChains() error {
	conn, err := nftables.New()
	if err != nil {
		return fmt.Errorf("policy: nftables: delete chains: %w", err)
	}

	existing, err := findTable(conn)
	if err != nil {
		return fmt.Errorf("policy: nftables: delete chains: list tables: %w", err)
	}
	if existing == nil {
		c.logger.Debug("owned table not found, nothing to delete",
			"component", "policy",
			"table", tableName,
		)
		return nil
	}

	conn.DelTable(existing)
	if err := conn.Flush(); err != nil {
		return fmt.Errorf("policy: nftables: delete chains: %w", err)
	}

	c.logger.Debug("owned table deleted",
		"component", "policy",
		"table", tableName,
	)
	return nil
}

// ChainsPresent reports whether the owned table exists.
func (c *NftablesController) ChainsPresent() (bool, error) {
	conn, err := nftables.New()
	if err != nil {
		return false, fmt.Errorf("policy: nftables: chains present: %w", err)
	}
	existing, err := findTable(conn)
	if err != nil {
		return false, fmt.Errorf("policy: nftables: chains present: list tables: %w", err)
	}
	return existing != nil, nil
}

// findTable returns the owned table if it exists, nil otherwise.
func findTable(conn *nftables.Conn) (*nftables.Table, error) {
	tables, err := conn.ListTablesOfFamily(nftables.TableFamilyIPv4)
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		if t.Name == tableName {
			return t, nil
		}
	}
	return nil, nil
}

// buildTranslationExprs converts a TranslationRule into nftables match
// expressions and a NAT verdict.
// nft equivalent: oifname "r1-eth0" ip saddr 10.0.1.0/24 counter masquerade
func buildTranslationExprs(rule TranslationRule) ([]expr.Any, error) {
	if len(rule.OutInterface) > maxInterfaceNameLen {
		return nil, fmt.Errorf("interface name %q is longer than %d bytes", rule.OutInterface, maxInterfaceNameLen)
	}

	exprs := []expr.Any{
		&expr.Meta{Key: expr.MetaKeyOIFNAME, Register: 1},
		&expr.Cmp{
			Op:       expr.CmpOpEq,
			Register: 1,
			Data:     ifaceNameBytes(rule.OutInterface),
		},
	}

	srcExprs, err := buildSourceMatchExprs(rule.Subnet)
	if err != nil {
		return nil, fmt.Errorf("source subnet %q: %w", rule.Subnet, err)
	}
	exprs = append(exprs, srcExprs...)

	exprs = append(exprs, &expr.Counter{})

	if rule.SNATAddress == "" {
		exprs = append(exprs, &expr.Masq{})
		return exprs, nil
	}

	snatIP := net.ParseIP(rule.SNATAddress)
	if snatIP == nil || snatIP.To4() == nil {
		return nil, fmt.Errorf("snat address %q is not an IPv4 address", rule.SNATAddress)
	}
	exprs = append(exprs,
		&expr.Immediate{
			Register: 1,
			Data:     snatIP.To4(),
		},
		&expr.NAT{
			Type:       expr.NATTypeSourceNAT,
			Family:     unix.NFPROTO_IPV4,
			RegAddrMin: 1,
		},
	)
	return exprs, nil
}

// buildSourceMatchExprs creates payload + cmp expressions matching the IPv4
// source address against a CIDR. Offset 12 is the source address in the IPv4
// header. /32 prefixes use an exact compare; everything else masks first.
func buildSourceMatchExprs(subnet string) ([]expr.Any, error) {
	_, ipNet, err := net.ParseCIDR(subnet)
	if err != nil {
		return nil, err
	}

	ones, bits := ipNet.Mask.Size()
	if bits != 32 {
		return nil, fmt.Errorf("non-IPv4 CIDR %q", subnet)
	}

	payload := &expr.Payload{
		DestRegister: 1,
		Base:         expr.PayloadBaseNetworkHeader,
		Offset:       12,
		Len:          4,
	}

	if ones == 32 {
		return []expr.Any{
			payload,
			&expr.Cmp{
				Op:       expr.CmpOpEq,
				Register: 1,
				Data:     ipNet.IP.To4(),
			},
		}, nil
	}

	// Mask the source address before comparing against the network address.
	return []expr.Any{
		payload,
		&expr.Bitwise{
			SourceRegister: 1,
			DestRegister:   1,
			Len:            4,
			Mask:           []byte(ipNet.Mask),
			Xor:            []byte{0x00, 0x00, 0x00, 0x00},
		},
		&expr.Cmp{
			Op:       expr.CmpOpEq,
			Register: 1,
			Data:     ipNet.IP.To4(),
		},
	}, nil
}

// ifaceNameBytes returns the interface name as a null-terminated byte slice
// for nftables expression matching. The name must be at most 15 bytes
// (IFNAMSIZ minus the terminator); callers check the length first.
func ifaceNameBytes(name string) []byte {
	buf := make([]byte, 16)
	copy(buf, name)
	return buf[:len(name)+1]
}
