// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cli

import "fmt"

// Allow implements `nx53 allow <ip-or-domain>`.
//
// This only installs a firewall allow rule; it does not reach into a
// running daemon's inspector state. A CLI invocation is a separate
// one-shot process with no shared memory with the daemon, so an
// allowed IP that the inspector has already latched is_blocked=true
// for will still pass traffic thanks to nftables' allow-outranks-block
// ordering, but the inspector's own decision on the next packet is
// unaffected until it independently clears the latch (ban expiry or
// escape hatch). See DESIGN.md for the full writeup of this
// divergence.
func Allow(args []string) error {
	if err := RequirePrivilege("allow"); err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: nx53 allow <ip-or-domain>")
	}
	ip, err := ResolveTarget(args[0])
	if err != nil {
		return err
	}

	fw, err := NewBackend()
	if err != nil {
		return err
	}
	if err := fw.AllowIP(ip); err != nil {
		return err
	}
	fmt.Printf("allowed %s (%s)\n", args[0], ip)
	return nil
}
