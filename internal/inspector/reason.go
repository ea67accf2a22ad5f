// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package inspector

// Reason labels which detector produced a block (or pass) decision.
// It is additive to the core boolean contract: metrics and logging
// consult it, but nothing in the decision order itself branches on it.
// Declared as an alias of string, not a distinct named type, so callers
// across package boundaries (capture's locally-declared Inspector
// interface) can consume it without importing this package just to
// name its type.
type Reason = string

const (
	ReasonPass            Reason = "pass"
	ReasonStatelessFilter Reason = "stateless_filter"
	ReasonFirstContact    Reason = "first_contact"
	ReasonBanActive       Reason = "ban_active"
	ReasonReflection      Reason = "reflection_pattern"
	ReasonEntropy         Reason = "subdomain_entropy"
	ReasonRateLimit       Reason = "rate_limit"
	ReasonRRL             Reason = "rrl"
	ReasonAmplification   Reason = "amplification_ratio"
)
