// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package capture binds a network interface to the inspector and
// firewall backend: it is the traffic monitor that pumps frames
// through the parser, consults the inspector, and forwards block
// decisions to the firewall.
package capture

import (
	"context"
	"regexp"
	"time"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/pcap"
	"github.com/vishvananda/netlink"

	nxerrors "github.com/hapara-fail/nx53/internal/errors"
	"github.com/hapara-fail/nx53/internal/firewall"
	"github.com/hapara-fail/nx53/internal/logging"
	"github.com/hapara-fail/nx53/internal/parser"
)

const (
	snapLen     = 65535
	readTimeout = time.Second
	bpfFilter   = "udp port 53 or tcp port 53"
)

// interfaceNamePattern bounds the characters accepted in an interface
// name before it is handed to the capture library.
var interfaceNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,256}$`)

// Inspector is the subset of *inspector.Inspector the capture loop
// drives. Declared locally so capture never imports the config
// package transitively just to construct one for tests.
type Inspector interface {
	InspectReason(sourceIP, queryName, queryType string, hasType bool, packetSize int) (bool, string)
	MarkTCPValidated(ip string) bool
}

// ValidateInterface checks iface against the allowed character class
// and confirms it exists on the host via netlink before any capture
// library call touches it.
func ValidateInterface(iface string) error {
	if !interfaceNamePattern.MatchString(iface) {
		return nxerrors.InterfaceErr(iface, errInvalidName)
	}
	if _, err := netlink.LinkByName(iface); err != nil {
		return nxerrors.InterfaceErr(iface, err)
	}
	return nil
}

// Loop owns the pcap handle and the blocking single-threaded read
// loop: the capture thread never suspends on a cooperative-runtime
// primitive, it only blocks on the packet-capture syscall, and it
// exits on its next read-timeout once ctx is canceled.
type Loop struct {
	handle        *pcap.Handle
	insp          Inspector
	fw            firewall.Backend
	logger        *logging.Logger
	onBlock       func(ip, reason string)
	onPass        func()
	onParseError  func()
	onFirewallErr func(op string)
}

// NewLoop opens iface in promiscuous mode with the DNS BPF filter
// applied and returns a Loop ready to Run.
func NewLoop(iface string, insp Inspector, fw firewall.Backend, logger *logging.Logger) (*Loop, error) {
	if err := ValidateInterface(iface); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.New(logging.DefaultConfig())
	}

	inactive, err := pcap.NewInactiveHandle(iface)
	if err != nil {
		return nil, nxerrors.CaptureErr(err)
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(snapLen); err != nil {
		return nil, nxerrors.CaptureErr(err)
	}
	if err := inactive.SetPromisc(true); err != nil {
		return nil, nxerrors.CaptureErr(err)
	}
	if err := inactive.SetTimeout(readTimeout); err != nil {
		return nil, nxerrors.CaptureErr(err)
	}

	handle, err := inactive.Activate()
	if err != nil {
		return nil, nxerrors.CaptureErr(err)
	}
	if err := handle.SetBPFFilter(bpfFilter); err != nil {
		handle.Close()
		return nil, nxerrors.CaptureErr(err)
	}

	return &Loop{
		handle: handle,
		insp:   insp,
		fw:     fw,
		logger: logger.WithComponent("capture"),
	}, nil
}

// Close releases the pcap handle. The blocking read loop exits on its
// next read-timeout once the handle is gone.
func (l *Loop) Close() {
	l.handle.Close()
}

// Run reads packets until ctx is canceled or a non-timeout capture
// error occurs, in which case it returns that error so the caller can
// exit the process non-zero for a supervisor restart.
func (l *Loop) Run(ctx context.Context) error {
	src := gopacket.NewPacketSource(l.handle, l.handle.LinkType())
	src.DecodeOptions = gopacket.DecodeOptions{Lazy: true, NoCopy: true}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		packet, err := src.NextPacket()
		if err != nil {
			if err == pcap.NextErrorTimeoutExpired {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			l.logger.Error("capture read failed", "error", err)
			return nxerrors.CaptureErr(err)
		}

		l.handlePacket(packet)
	}
}

func (l *Loop) handlePacket(packet gopacket.Packet) {
	q, err := parser.Parse(packet)
	if err != nil {
		l.logger.Debug("dropped unparsable packet", "error", err)
		if l.onParseError != nil {
			l.onParseError()
		}
		return
	}

	if q.IsTCP {
		l.insp.MarkTCPValidated(q.SourceIP)
	}

	blocked, reason := l.insp.InspectReason(q.SourceIP, q.Name, q.Type, q.HasType, q.Size)
	if !blocked {
		if l.onPass != nil {
			l.onPass()
		}
		return
	}

	if l.onBlock != nil {
		l.onBlock(q.SourceIP, reason)
	}
	if err := l.fw.BlockIP(q.SourceIP); err != nil {
		l.logger.Error("firewall block failed", "ip", q.SourceIP, "error", err)
		if l.onFirewallErr != nil {
			l.onFirewallErr("block_ip")
		}
		return
	}
	l.logger.Warn("blocked source", "ip", q.SourceIP, "query", q.Name, "reason", reason)
}

// OnBlock registers a callback invoked whenever Inspect returns block,
// before the firewall call is made, with the Reason that fired. Used
// by metrics wiring.
func (l *Loop) OnBlock(fn func(ip, reason string)) {
	l.onBlock = fn
}

// OnPass registers a callback invoked whenever a successfully parsed
// query is allowed through.
func (l *Loop) OnPass(fn func()) {
	l.onPass = fn
}

// OnParseError registers a callback invoked whenever a captured packet
// fails to parse as a DNS query.
func (l *Loop) OnParseError(fn func()) {
	l.onParseError = fn
}

// OnFirewallError registers a callback invoked whenever a firewall
// backend call fails, tagged with the operation that failed.
func (l *Loop) OnFirewallError(fn func(op string)) {
	l.onFirewallErr = fn
}
