// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package parser turns a raw captured link-layer frame into the
// structured query record the inspector consumes. It is a pure
// function with no state of its own.
package parser

import (
	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/miekg/dns"

	nxerrors "github.com/hapara-fail/nx53/internal/errors"
)

// Query is the structured result of parsing one DNS request frame.
type Query struct {
	SourceIP string
	Name     string
	Type     string
	HasType  bool
	IsTCP    bool
	Size     int
}

// tcpLengthPrefixSize is the 2-byte length prefix every DNS-over-TCP
// message carries ahead of the message itself (RFC 1035 §4.2.2).
const tcpLengthPrefixSize = 2

// Parse decodes packet into a Query. It accepts IPv4 and IPv6 carrying
// UDP or TCP payloads (ports are not checked here; the capture filter
// limits traffic to port 53), rejects response packets (QR bit set),
// and reports only the first question. Any other shape — non-IP
// packets, truncated captures, malformed DNS, zero questions — is
// reported as a ParseError and must not be treated as fatal by the
// caller.
func Parse(packet gopacket.Packet) (Query, error) {
	var srcIP string
	var payload []byte
	var isTCP bool

	if ipv4 := packet.Layer(layers.LayerTypeIPv4); ipv4 != nil {
		srcIP = ipv4.(*layers.IPv4).SrcIP.String()
	} else if ipv6 := packet.Layer(layers.LayerTypeIPv6); ipv6 != nil {
		srcIP = ipv6.(*layers.IPv6).SrcIP.String()
	} else {
		return Query{}, nxerrors.ParseErr(errNoIPLayer)
	}

	switch {
	case packet.Layer(layers.LayerTypeUDP) != nil:
		udp := packet.Layer(layers.LayerTypeUDP).(*layers.UDP)
		payload = udp.Payload
	case packet.Layer(layers.LayerTypeTCP) != nil:
		tcp := packet.Layer(layers.LayerTypeTCP).(*layers.TCP)
		isTCP = true
		if len(tcp.Payload) < tcpLengthPrefixSize {
			return Query{}, nxerrors.ParseErr(errTruncated)
		}
		payload = tcp.Payload[tcpLengthPrefixSize:]
	default:
		return Query{}, nxerrors.ParseErr(errNoTransportLayer)
	}

	if len(payload) == 0 {
		return Query{}, nxerrors.ParseErr(errTruncated)
	}

	msg := new(dns.Msg)
	if err := msg.Unpack(payload); err != nil {
		return Query{}, nxerrors.ParseErr(err)
	}
	if msg.Response {
		return Query{}, nxerrors.ParseErr(errIsResponse)
	}
	if len(msg.Question) == 0 {
		return Query{}, nxerrors.ParseErr(errNoQuestion)
	}

	q := msg.Question[0]
	typeName, hasType := dns.TypeToString[q.Qtype]

	return Query{
		SourceIP: srcIP,
		Name:     normalizeName(q.Name),
		Type:     typeName,
		HasType:  hasType,
		IsTCP:    isTCP,
		Size:     len(packet.Data()),
	}, nil
}

// normalizeName lowercases a DNS question name and strips the
// trailing root dot miekg/dns always appends, so the per-domain
// counter keys on the exact lowercase query name with no suffix
// normalization.
func normalizeName(name string) string {
	if len(name) > 0 && name[len(name)-1] == '.' {
		name = name[:len(name)-1]
	}
	return toLower(name)
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
