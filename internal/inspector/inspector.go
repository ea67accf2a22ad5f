// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package inspector implements the stateful query classifier: the
// per-source and per-domain behavioral models that turn a stream of
// parsed DNS queries into block/pass decisions. It is the detection
// engine's core and the only component that owns mutable shared state.
package inspector

import (
	"strings"
	"time"

	"github.com/hapara-fail/nx53/internal/clock"
	"github.com/hapara-fail/nx53/internal/config"
	"github.com/hapara-fail/nx53/internal/logging"
)

// Inspector is the process-wide shared classifier. It is constructed
// once from an immutable config.Config snapshot and lives until
// process exit; there is no hidden static instance and no hot-reload
// path.
type Inspector struct {
	cfg     config.Config
	clock   clock.Clock
	log     *logging.Logger
	ips     *ipShardSet
	domains *domainCounterSet
}

// NewInspector builds an Inspector bound to cfg. Use SetClock in tests
// to swap in a clock.MockClock before driving Inspect.
func NewInspector(cfg config.Config, log *logging.Logger) *Inspector {
	if log == nil {
		log = logging.New(logging.DefaultConfig())
	}
	return &Inspector{
		cfg:     cfg,
		clock:   clock.Real(),
		log:     log.WithComponent("inspector"),
		ips:     newIPShardSet(),
		domains: newDomainCounterSet(),
	}
}

// SetClock overrides the time source. Exists so tests can drive the
// ban ladder and window expiry deterministically.
func (insp *Inspector) SetClock(c clock.Clock) {
	insp.clock = c
}

func (insp *Inspector) now() time.Time {
	return insp.clock.Now()
}

// TrackedIPCount reports how many source IPs currently have state.
func (insp *Inspector) TrackedIPCount() int { return insp.ips.len() }

// TrackedDomainCount reports how many distinct domains have been
// counted.
func (insp *Inspector) TrackedDomainCount() int { return insp.domains.len() }

// Snapshot exposes a read-only copy of the state for ip, for tests and
// other callers that inspect classification.
func (insp *Inspector) Snapshot(ip string) (Snapshot, bool) {
	return insp.ips.snapshot(ip)
}

// statelessBlock evaluates the type-based filters that never touch
// per-IP state. queryType is only consulted when hasType is true — a
// parser that could not determine a mnemonic leaves these filters
// inert rather than guessing.
func (insp *Inspector) statelessBlock(queryType string, hasType bool, packetSize int) bool {
	if !hasType {
		return false
	}
	f := insp.cfg.Filters
	qt := strings.ToUpper(queryType)

	if qt == "ANY" && f.BlockAnyQueries {
		return true
	}
	if qt == "TXT" && f.BlockLargeTXT && packetSize > f.TXTMaxSize {
		return true
	}
	for _, blocked := range f.BlockedQueryTypes {
		if strings.EqualFold(blocked, qt) {
			return true
		}
	}
	return false
}

// Inspect runs the full decision order over one parsed query and
// reports whether the source should be blocked. queryType
// and hasType together model an optional query type: a parser that
// could not classify the question passes hasType=false and every
// stateless filter is skipped for that packet.
func (insp *Inspector) Inspect(sourceIP, queryName, queryType string, hasType bool, packetSize int) bool {
	blocked, _ := insp.InspectReason(sourceIP, queryName, queryType, hasType, packetSize)
	return blocked
}

// InspectReason is Inspect plus the Reason that produced the decision,
// for callers (metrics, audit logging) that want to attribute a block
// to the detector that fired rather than just the boolean outcome.
func (insp *Inspector) InspectReason(sourceIP, queryName, queryType string, hasType bool, packetSize int) (bool, Reason) {
	now := insp.now()

	// 1. Stateless filters.
	if insp.statelessBlock(queryType, hasType, packetSize) {
		insp.log.Warn("blocked by stateless filter", "ip", sourceIP, "query", queryName, "type", queryType)
		return true, ReasonStatelessFilter
	}

	// 2. Volumetric counter update.
	count := insp.domains.increment(queryName)
	isHighVolume := count > insp.cfg.Threshold()

	blocked := false
	reason := ReasonPass
	insp.ips.withLock(sourceIP,
		func() *ipState {
			st := newIPState(now, queryName)
			st.totalQueryBytes = uint64(packetSize)
			return st
		},
		func(st *ipState, existed bool) {
			if !existed {
				// 3. First-contact rule.
				if isHighVolume {
					st.isBlocked = true
					blocked = true
					reason = ReasonFirstContact
					insp.log.Warn("blocked on first contact (hot domain)", "ip", sourceIP, "query", queryName)
				}
				return
			}

			// 4. Existing state path, under this IP's lock.
			blocked, reason = insp.inspectExisting(st, now, sourceIP, queryName, isHighVolume, packetSize)
		},
	)
	return blocked, reason
}

// inspectExisting implements the per-packet decision sub-steps for an
// IP that already has state. Called with the owning shard's lock held.
func (insp *Inspector) inspectExisting(st *ipState, now time.Time, sourceIP, queryName string, isHighVolume bool, packetSize int) (bool, Reason) {
	f := insp.cfg.Filters
	rl := insp.cfg.RateLimit

	// 4.1 Update bookkeeping.
	st.lastSeen = now
	st.totalQueryBytes += uint64(packetSize)
	st.uniqueDomains[queryName] = struct{}{}

	// 4.2 Ban expiry.
	if st.bannedUntil != nil {
		if now.After(*st.bannedUntil) {
			st.bannedUntil = nil
			st.isBlocked = false
		} else {
			return true, ReasonBanActive
		}
	}

	// 4.3 Reflection pattern.
	if f.DetectReflectionPatterns &&
		now.Sub(st.firstSeen) < 60*time.Second &&
		len(st.uniqueDomains) <= 2 &&
		st.rateWindowCount > 20 &&
		!st.tcpValidated {
		st.isBlocked = true
		until := now.Add(time.Duration(rl.SecondOffenseDurationSecs) * time.Second)
		st.bannedUntil = &until
		insp.log.Warn("blocked by reflection detector", "ip", sourceIP)
		return true, ReasonReflection
	}

	// 4.4 Subdomain entropy.
	if f.SubdomainEntropyThreshold > 0 {
		entropy := subdomainEntropy(st.uniqueDomains)
		if entropy > f.SubdomainEntropyThreshold && len(st.uniqueDomains) > 10 && !st.tcpValidated {
			st.isBlocked = true
			insp.log.Warn("blocked by entropy detector", "ip", sourceIP, "entropy", entropy)
			return true, ReasonEntropy
		}
	}

	// 4.5 Escape hatch.
	if st.isBlocked && queryName != st.firstQuery && !isHighVolume {
		st.isLegit = true
		st.isBlocked = false
		insp.log.Info("escape hatch: ip rehabilitated", "ip", sourceIP)
		return false, ReasonPass
	}

	// 4.6 Still blocked.
	if st.isBlocked {
		return true, ReasonBanActive
	}

	// 4.7 Auto-whitelist.
	if !st.isLegit && now.Sub(st.firstSeen) > time.Duration(insp.cfg.AutoWhitelistDays)*24*time.Hour {
		st.isLegit = true
	}

	// 4.8 TCP validation expiry.
	if st.tcpValidated && st.tcpValidationTime != nil &&
		now.Sub(*st.tcpValidationTime) > time.Duration(f.TCPValidationTTLHours)*time.Hour {
		st.tcpValidated = false
		st.tcpValidationTime = nil
	}

	// 4.9 Response Rate Limiting.
	if f.EnableRRL {
		if now.Sub(st.rrlWindowStart) >= time.Second {
			st.rrlWindowStart = now
			st.rrlCount = 0
		}
		st.rrlCount++
		if st.rrlCount > f.RRLResponsesPerSec {
			slip := f.RRLSlipRatio > 0 && st.rrlCount%f.RRLSlipRatio == 0
			if !slip {
				return true, ReasonRRL
			}
		}
	}

	// 4.10 Per-IP rate limit.
	if rl.Enabled {
		if now.Sub(st.rateWindowStart) >= time.Second {
			st.rateWindowStart = now
			st.rateWindowCount = 0
		}
		st.rateWindowCount++
		if st.rateWindowCount > rl.RequestsPerSec {
			until := now.Add(offenseDuration(rl, st.offenseCount+1))
			st.bannedUntil = &until
			st.offenseCount++
			st.isBlocked = true
			insp.log.Warn("blocked by rate limiter", "ip", sourceIP, "offense", st.offenseCount)
			return true, ReasonRateLimit
		}
	}

	// 4.11 Already legit.
	if st.isLegit {
		return false, ReasonPass
	}

	// 4.12 Passive legitimization.
	if queryName != st.firstQuery && !isHighVolume {
		st.isLegit = true
	}
	return false, ReasonPass
}

// offenseDuration implements the ban ladder: the first offense uses
// FirstOffenseDurationSecs, every offense after it uses
// SecondOffenseDurationSecs. offenseNumber is 1-indexed (the offense
// about to be recorded, not the existing count).
func offenseDuration(rl config.RateLimit, offenseNumber uint) time.Duration {
	if offenseNumber <= 1 {
		return time.Duration(rl.FirstOffenseDurationSecs) * time.Second
	}
	return time.Duration(rl.SecondOffenseDurationSecs) * time.Second
}

// MarkTCPValidated stamps ip as proven non-spoofed via an observed
// TCP/53 query. It never creates state: an IP with no prior UDP
// traffic has nothing to validate yet.
func (insp *Inspector) MarkTCPValidated(ip string) bool {
	now := insp.now()
	return insp.ips.peek(ip, func(st *ipState) bool {
		st.tcpValidated = true
		st.tcpValidationTime = &now
		return true
	})
}

// RecordResponseSize accumulates an estimated response size for ip
// and applies the amplification-ratio detector. It reports whether
// this call caused the amplification detector to fire.
func (insp *Inspector) RecordResponseSize(ip string, bytes uint64) bool {
	f := insp.cfg.Filters
	fired := false
	insp.ips.peek(ip, func(st *ipState) bool {
		st.totalResponseBytes += bytes
		if st.totalQueryBytes > 0 &&
			st.totalResponseBytes > 10_000 &&
			!st.tcpValidated &&
			float64(st.totalResponseBytes)/float64(st.totalQueryBytes) > f.AmplificationRatioLimit {
			st.isBlocked = true
			fired = true
		}
		return true
	})
	if fired {
		insp.log.Warn("blocked by amplification ratio detector", "ip", ip)
	}
	return fired
}
