// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package inspector

import "time"

// ipState is the per-source record the inspector keeps for each
// observed query source. All fields are mutated only while the owning
// shard's lock is held; the whole per-packet decision block runs
// inside one critical section so no detector ever observes a torn
// snapshot.
type ipState struct {
	firstSeen    time.Time
	lastSeen     time.Time
	firstQuery   string
	isLegit      bool
	isBlocked    bool
	bannedUntil  *time.Time
	offenseCount uint

	rateWindowStart time.Time
	rateWindowCount uint64

	rrlWindowStart time.Time
	rrlCount       uint64

	totalQueryBytes    uint64
	totalResponseBytes uint64

	uniqueDomains map[string]struct{}

	tcpValidated      bool
	tcpValidationTime *time.Time
}

func newIPState(now time.Time, firstQuery string) *ipState {
	return &ipState{
		firstSeen:       now,
		lastSeen:        now,
		firstQuery:      firstQuery,
		rateWindowStart: now,
		rateWindowCount: 1,
		rrlWindowStart:  now,
		rrlCount:        1,
		uniqueDomains:   map[string]struct{}{firstQuery: {}},
	}
}

// Snapshot is a read-only copy of an ipState exposed to callers that
// need to inspect current classification without holding the shard
// lock (e.g. tests).
type Snapshot struct {
	FirstSeen          time.Time
	LastSeen           time.Time
	FirstQuery         string
	IsLegit            bool
	IsBlocked          bool
	BannedUntil        *time.Time
	OffenseCount       uint
	TotalQueryBytes    uint64
	TotalResponseBytes uint64
	UniqueDomainCount  int
	TCPValidated       bool
}

func (s *ipState) snapshot() Snapshot {
	var banned *time.Time
	if s.bannedUntil != nil {
		t := *s.bannedUntil
		banned = &t
	}
	return Snapshot{
		FirstSeen:          s.firstSeen,
		LastSeen:           s.lastSeen,
		FirstQuery:         s.firstQuery,
		IsLegit:            s.isLegit,
		IsBlocked:          s.isBlocked,
		BannedUntil:        banned,
		OffenseCount:       s.offenseCount,
		TotalQueryBytes:    s.totalQueryBytes,
		TotalResponseBytes: s.totalResponseBytes,
		UniqueDomainCount:  len(s.uniqueDomains),
		TCPValidated:       s.tcpValidated,
	}
}
