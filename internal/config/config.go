// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package config loads the immutable threshold/toggle snapshot the
// inspector is constructed from. It is read once at startup and never
// mutated afterward — there is no hot-reload path, since the inspector
// itself has no concept of reconfiguration mid-run.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	nxerrors "github.com/hapara-fail/nx53/internal/errors"
)

// Mode selects which parts of the engine are active.
type Mode string

const (
	ModeIntelligent Mode = "intelligent"
	ModeManual      Mode = "manual"
	ModeHybrid      Mode = "hybrid"
)

// Profile names a canned domain-counter threshold.
type Profile string

const (
	ProfileHome       Profile = "Home"
	ProfileSchool     Profile = "School"
	ProfileEnterprise Profile = "Enterprise"
	ProfileDatacenter Profile = "Datacenter"
	ProfileCustom     Profile = "Custom"
)

// profileThresholds maps a named profile to its domain-counter threshold.
var profileThresholds = map[Profile]uint64{
	ProfileHome:       10_000,
	ProfileSchool:     50_000,
	ProfileEnterprise: 100_000,
	ProfileDatacenter: 1_000_000,
}

// RateLimit configures the per-IP request-rate limiter and its ban ladder.
type RateLimit struct {
	Enabled                   bool   `toml:"enabled"`
	RequestsPerSec            uint64 `toml:"requests_per_sec"`
	FirstOffenseDurationSecs  uint64 `toml:"first_offense_duration_secs"`
	SecondOffenseDurationSecs uint64 `toml:"second_offense_duration_secs"`
}

// DefaultRateLimit returns the ban ladder defaults: 60s first offense,
// 300s second offense and beyond.
func DefaultRateLimit() RateLimit {
	return RateLimit{
		Enabled:                   true,
		RequestsPerSec:            10,
		FirstOffenseDurationSecs:  60,
		SecondOffenseDurationSecs: 300,
	}
}

// Filters configures the stateless and stateful detector toggles.
type Filters struct {
	BlockAnyQueries           bool     `toml:"block_any_queries"`
	BlockLargeTXT             bool     `toml:"block_large_txt"`
	TXTMaxSize                int      `toml:"txt_max_size"`
	BlockedQueryTypes         []string `toml:"blocked_query_types"`
	EnableRRL                 bool     `toml:"enable_rrl"`
	RRLResponsesPerSec        uint64   `toml:"rrl_responses_per_sec"`
	RRLSlipRatio              uint64   `toml:"rrl_slip_ratio"`
	TCPValidationEnabled      bool     `toml:"tcp_validation_enabled"`
	TCPValidationTTLHours     uint64   `toml:"tcp_validation_ttl_hours"`
	AmplificationRatioLimit   float64  `toml:"amplification_ratio_limit"`
	SubdomainEntropyThreshold float64  `toml:"subdomain_entropy_threshold"`
	DetectReflectionPatterns  bool     `toml:"detect_reflection_patterns"`
}

// DefaultFilters returns the out-of-the-box filter set: ANY and large
// TXT blocked, AXFR/IXFR blocked (never RRSIG/DNSKEY), RRL and TCP
// validation on, entropy detection on.
func DefaultFilters() Filters {
	return Filters{
		BlockAnyQueries:           true,
		BlockLargeTXT:             true,
		TXTMaxSize:                1024,
		BlockedQueryTypes:         []string{"AXFR", "IXFR"},
		EnableRRL:                 true,
		RRLResponsesPerSec:        5,
		RRLSlipRatio:              2,
		TCPValidationEnabled:      true,
		TCPValidationTTLHours:     24,
		AmplificationRatioLimit:   5.0,
		SubdomainEntropyThreshold: 3.5,
		DetectReflectionPatterns:  true,
	}
}

// Config is the full inspector configuration snapshot.
type Config struct {
	Mode              Mode      `toml:"mode"`
	Profile           Profile   `toml:"profile"`
	ThresholdOverride *uint64   `toml:"threshold_override"`
	RateLimit         RateLimit `toml:"rate_limit"`
	Filters           Filters   `toml:"filters"`
	AutoWhitelistDays uint64    `toml:"auto_whitelist_days"`
}

// Default returns the out-of-the-box configuration: hybrid mode, the
// School profile (50k), and the filter/rate-limit defaults above.
func Default() Config {
	return Config{
		Mode:              ModeHybrid,
		Profile:           ProfileSchool,
		RateLimit:         DefaultRateLimit(),
		Filters:           DefaultFilters(),
		AutoWhitelistDays: 7,
	}
}

// Threshold resolves the effective per-domain request threshold:
// ThresholdOverride wins if set, otherwise the named Profile's value,
// falling back to the School profile if Profile is unset or unknown.
func (c Config) Threshold() uint64 {
	if c.ThresholdOverride != nil {
		return *c.ThresholdOverride
	}
	if t, ok := profileThresholds[c.Profile]; ok {
		return t
	}
	return profileThresholds[ProfileSchool]
}

// configPaths are tried in order; the first one that exists wins.
var configPaths = []string{"config.toml", "/etc/nx53/config.toml"}

// Load walks configPaths and decodes the first file found. If none
// exist, it returns the default configuration and found=false so the
// caller can log a warning rather than fail.
func Load() (cfg Config, path string, found bool, err error) {
	for _, p := range configPaths {
		data, readErr := os.ReadFile(p)
		if readErr != nil {
			if os.IsNotExist(readErr) {
				continue
			}
			return Config{}, p, false, nxerrors.ConfigParseError(readErr)
		}
		cfg = Default()
		if decErr := toml.Unmarshal(data, &cfg); decErr != nil {
			return Config{}, p, false, nxerrors.ConfigParseError(fmt.Errorf("%s: %w", p, decErr))
		}
		return cfg, p, true, nil
	}
	return Default(), "", false, nil
}
