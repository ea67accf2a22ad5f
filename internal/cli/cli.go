// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package cli implements the nx53 subcommand surface: one file per
// verb, dispatched by a plain switch on the first command-line argument
// in main rather than by a flag-parsing framework.
package cli

import (
	"fmt"
	"net"

	nxerrors "github.com/hapara-fail/nx53/internal/errors"
	"github.com/hapara-fail/nx53/internal/firewall"
)

// RequirePrivilege fails with a PrivilegeError unless the process is
// running as root. Called at the top of every command that mutates
// the firewall or runs the daemon.
func RequirePrivilege(cmd string) error {
	if geteuid() != 0 {
		return nxerrors.PrivilegeErr(cmd)
	}
	return nil
}

// ResolveTarget accepts either a literal IP address or a domain name.
// A domain is resolved via DNS and its first address is used; block
// and allow both need this since an operator may want to ban a domain
// without knowing its current IP.
func ResolveTarget(target string) (string, error) {
	if ip := net.ParseIP(target); ip != nil {
		return ip.String(), nil
	}
	addrs, err := net.LookupIP(target)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", target, err)
	}
	for _, a := range addrs {
		return a.String(), nil
	}
	return "", fmt.Errorf("no addresses found for %q", target)
}

// NewBackend constructs the platform firewall backend. Factored out
// so every mutating command shares one construction path.
func NewBackend() (firewall.Backend, error) {
	return firewall.NewNFTablesBackend(nil)
}
