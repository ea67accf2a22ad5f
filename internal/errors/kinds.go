// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package errors

// The detection engine's error-handling design names six error kinds,
// each with its own propagation policy (see the doc comments on their
// constructors below). They layer on top of the generic Kind
// taxonomy above rather than replacing it.
const (
	KindConfigParse Kind = iota + 100
	KindPrivilege
	KindInterface
	KindCapture
	KindParse
	KindFirewall
)

// ConfigParseError wraps a config decode failure. Fatal at startup
// with a clear diagnostic.
func ConfigParseError(err error) error {
	return Wrap(err, KindConfigParse, "failed to parse configuration")
}

// PrivilegeErr indicates a privileged command was invoked by a
// non-root user. Fatal, with an instruction to elevate.
func PrivilegeErr(cmd string) error {
	return Errorf(KindPrivilege, "%s requires root privileges; re-run with sudo", cmd)
}

// InterfaceErr indicates a missing or invalid capture interface.
// Fatal at startup.
func InterfaceErr(iface string, err error) error {
	return Wrap(err, KindInterface, "invalid capture interface "+iface)
}

// CaptureErr indicates a non-timeout packet-capture read failure. The
// capture loop exits and the process exits non-zero so a supervisor
// restarts it.
func CaptureErr(err error) error {
	return Wrap(err, KindCapture, "packet capture failed")
}

// ParseErr indicates a malformed, truncated, or zero-question DNS
// packet. Swallowed at the capture loop: the packet is dropped and
// debug-logged, never fatal.
func ParseErr(err error) error {
	return Wrap(err, KindParse, "failed to parse DNS packet")
}

// FirewallErr indicates a backend rejected a block/allow/flush call.
// Logged; not retried; inspector state is left unchanged so a later
// packet re-triggers the same decision.
func FirewallErr(op string, err error) error {
	return Wrap(err, KindFirewall, "firewall "+op+" failed")
}
