// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux
// +build linux

package firewall

import (
	"fmt"
	"net"
	"sync"

	"github.com/google/nftables"
	"github.com/google/nftables/expr"

	nxerrors "github.com/hapara-fail/nx53/internal/errors"
	"github.com/hapara-fail/nx53/internal/logging"
)

// tableName and the four set names tag every rule this backend owns,
// so Flush never touches a host's unrelated nftables state.
const (
	tableName    = "nx53"
	chainName    = "input"
	setAllowedV4 = "nx53_allowed_v4"
	setAllowedV6 = "nx53_allowed_v6"
	setBlockedV4 = "nx53_blocked_v4"
	setBlockedV6 = "nx53_blocked_v6"
)

// NFTablesBackend drives the host packet filter over native netlink
// via google/nftables, rather than shelling out to the nft binary.
// Allow-set lookups are installed ahead of the block-set lookups in
// the input chain, so an allow rule always outranks a block rule for
// the same address.
type NFTablesBackend struct {
	mu     sync.Mutex
	conn   *nftables.Conn
	logger *logging.Logger

	table     *nftables.Table
	chain     *nftables.Chain
	allowedV4 *nftables.Set
	allowedV6 *nftables.Set
	blockedV4 *nftables.Set
	blockedV6 *nftables.Set
}

// NewNFTablesBackend opens a netlink connection and provisions the
// nx53 table, chain, and sets, reusing them when they already exist.
// The four lookup rules are not reconciled: each call appends another
// copy of them to the input chain.
func NewNFTablesBackend(logger *logging.Logger) (*NFTablesBackend, error) {
	if logger == nil {
		logger = logging.New(logging.DefaultConfig())
	}
	conn, err := nftables.New()
	if err != nil {
		return nil, nxerrors.FirewallErr("connect", err)
	}

	b := &NFTablesBackend{conn: conn, logger: logger.WithComponent("firewall")}
	if err := b.provision(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *NFTablesBackend) provision() error {
	b.table = b.conn.AddTable(&nftables.Table{Name: tableName, Family: nftables.TableFamilyINet})

	policy := nftables.ChainPolicyAccept
	b.chain = b.conn.AddChain(&nftables.Chain{
		Name:     chainName,
		Table:    b.table,
		Type:     nftables.ChainTypeFilter,
		Hooknum:  nftables.ChainHookInput,
		Priority: nftables.ChainPriorityFilter,
		Policy:   &policy,
	})

	b.allowedV4 = &nftables.Set{Table: b.table, Name: setAllowedV4, KeyType: nftables.TypeIPAddr}
	b.allowedV6 = &nftables.Set{Table: b.table, Name: setAllowedV6, KeyType: nftables.TypeIP6Addr}
	b.blockedV4 = &nftables.Set{Table: b.table, Name: setBlockedV4, KeyType: nftables.TypeIPAddr}
	b.blockedV6 = &nftables.Set{Table: b.table, Name: setBlockedV6, KeyType: nftables.TypeIP6Addr}
	for _, s := range []*nftables.Set{b.allowedV4, b.allowedV6, b.blockedV4, b.blockedV6} {
		if err := b.conn.AddSet(s, nil); err != nil {
			return nxerrors.FirewallErr("provision set "+s.Name, err)
		}
	}

	// Allow rules first: they must outrank block rules for the same IP.
	b.conn.AddRule(lookupRule(b.table, b.chain, b.allowedV4, 12, 4, expr.VerdictAccept))
	b.conn.AddRule(lookupRule(b.table, b.chain, b.allowedV6, 8, 16, expr.VerdictAccept))
	b.conn.AddRule(lookupRule(b.table, b.chain, b.blockedV4, 12, 4, expr.VerdictDrop))
	b.conn.AddRule(lookupRule(b.table, b.chain, b.blockedV6, 8, 16, expr.VerdictDrop))

	if err := b.conn.Flush(); err != nil {
		return nxerrors.FirewallErr("provision", err)
	}
	return nil
}

// lookupRule builds a rule matching the network-header source address
// against set, issuing verdict on a match. offset/length select the
// source-address field within the IPv4 or IPv6 header (12/4 for IPv4
// saddr, 8/16 for IPv6 saddr).
func lookupRule(table *nftables.Table, chain *nftables.Chain, set *nftables.Set, offset, length uint32, verdict expr.VerdictKind) *nftables.Rule {
	return &nftables.Rule{
		Table: table,
		Chain: chain,
		Exprs: []expr.Any{
			&expr.Payload{
				DestRegister: 1,
				Base:         expr.PayloadBaseNetworkHeader,
				Offset:       offset,
				Len:          length,
			},
			&expr.Lookup{
				SourceRegister: 1,
				SetName:        set.Name,
				SetID:          set.ID,
			},
			&expr.Verdict{Kind: verdict},
		},
	}
}

func setElement(ip net.IP) ([]nftables.SetElement, error) {
	return []nftables.SetElement{{Key: []byte(ip)}}, nil
}

func parseIP(addr string) (ip net.IP, isV4 bool, err error) {
	parsed := net.ParseIP(addr)
	if parsed == nil {
		return nil, false, fmt.Errorf("invalid IP address %q", addr)
	}
	if v4 := parsed.To4(); v4 != nil {
		return v4, true, nil
	}
	return parsed.To16(), false, nil
}

// BlockIP implements Backend.
func (b *NFTablesBackend) BlockIP(addr string) error {
	ip, isV4, err := parseIP(addr)
	if err != nil {
		return nxerrors.FirewallErr("block_ip", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	set := b.blockedV6
	if isV4 {
		set = b.blockedV4
	}
	elems, _ := setElement(ip)
	if err := b.conn.SetAddElements(set, elems); err != nil {
		return nxerrors.FirewallErr("block_ip", err)
	}
	if err := b.conn.Flush(); err != nil {
		return nxerrors.FirewallErr("block_ip", err)
	}
	b.logger.Warn("blocked ip", "ip", addr)
	return nil
}

// AllowIP implements Backend.
func (b *NFTablesBackend) AllowIP(addr string) error {
	ip, isV4, err := parseIP(addr)
	if err != nil {
		return nxerrors.FirewallErr("allow_ip", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	set := b.allowedV6
	if isV4 {
		set = b.allowedV4
	}
	elems, _ := setElement(ip)
	if err := b.conn.SetAddElements(set, elems); err != nil {
		return nxerrors.FirewallErr("allow_ip", err)
	}
	if err := b.conn.Flush(); err != nil {
		return nxerrors.FirewallErr("allow_ip", err)
	}
	b.logger.Info("allowed ip", "ip", addr)
	return nil
}

// Flush implements Backend.
func (b *NFTablesBackend) Flush(target FlushTarget) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	sets := []*nftables.Set{b.blockedV4, b.blockedV6}
	if target == All {
		sets = append(sets, b.allowedV4, b.allowedV6)
	}
	for _, s := range sets {
		elems, err := b.conn.GetSetElements(s)
		if err != nil {
			continue
		}
		if len(elems) == 0 {
			continue
		}
		if err := b.conn.SetDeleteElements(s, elems); err != nil {
			return nxerrors.FirewallErr("flush", err)
		}
	}
	if err := b.conn.Flush(); err != nil {
		return nxerrors.FirewallErr("flush", err)
	}
	b.logger.Info("flushed firewall rules", "target", target)
	return nil
}
