// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// ImpactLevel classifies how much a data conflict matters to continuity of
// care. It selects the resolution strategy.
type ImpactLevel int

const (
	ImpactMinimal ImpactLevel = iota
	ImpactModerate
	ImpactSignificant
	ImpactCritical
)

func (l ImpactLevel) String() string {
	switch l {
	case ImpactCritical:
		return "critical"
	case ImpactSignificant:
		return "significant"
	case ImpactModerate:
		return "moderate"
	default:
		return "minimal"
	}
}

// ConflictState is the lifecycle of a ConflictRecord. Records are created
// by the detector in StateDetected and mutated only by the resolver.
type ConflictState string

const (
	StateDetected            ConflictState = "detected"
	StateAnalyzed            ConflictState = "analyzed"
	StateAutoResolved        ConflictState = "auto_resolved"
	StateAIRecommended       ConflictState = "ai_recommended"
	StatePendingUserGuidance ConflictState = "pending_user_guidance"
	StateResolved            ConflictState = "resolved"
	StateApplied             ConflictState = "applied"
)

// ResolutionStrategy is the closed set of ways a conflict can be resolved.
// New strategies are compiler-checked additions: every switch over this
// type carries an explicit default that fails loudly.
type ResolutionStrategy string

const (
	StrategyCrisisPriority      ResolutionStrategy = "crisis_priority"
	StrategyTherapeuticPriority ResolutionStrategy = "therapeutic_priority"
	StrategyAssistedMerge       ResolutionStrategy = "assisted_merge"
	StrategyTimestampPriority   ResolutionStrategy = "timestamp_priority"
)

// ConflictVersion is one side of a divergence: the payload a particular
// device advanced the record to, plus the context needed to rank it.
type ConflictVersion struct {
	DeviceID     string         `json:"device_id"`
	Version      int64          `json:"version"`
	Payload      map[string]any `json:"payload"`
	CrisisActive bool           `json:"crisis_active"`
	Timestamp    time.Time      `json:"timestamp"`
}

// ConflictContext snapshots the conditions at detection time.
type ConflictContext struct {
	CrisisActive   bool          `json:"crisis_active"`
	CrisisLevel    CrisisLevel   `json:"crisis_level"`
	NetworkLatency time.Duration `json:"network_latency"`
	DetectedAt     time.Time     `json:"detected_at"`
}

// Resolution is the resolver's verdict for a conflict.
type Resolution struct {
	Strategy   ResolutionStrategy `json:"strategy"`
	WinnerIdx  int                `json:"winner_idx"` // index into Versions; -1 for merges
	Merged     map[string]any     `json:"merged,omitempty"`
	Confidence float64            `json:"confidence"`
	ResolvedAt time.Time          `json:"resolved_at"`
}

// ConflictRecord tracks one detected divergence from detection through
// application. Archived once applied.
type ConflictRecord struct {
	ID          string            `json:"id"`
	Key         EntityKey         `json:"key"`
	BaseVersion int64             `json:"base_version"`
	Versions    []ConflictVersion `json:"versions"`
	Context     ConflictContext   `json:"context"`
	Impact      ImpactLevel       `json:"impact"`
	State       ConflictState     `json:"state"`
	Resolution  *Resolution       `json:"resolution,omitempty"`
}

// Winner returns the winning version after resolution. ok is false while
// the record is unresolved or when the resolution produced a merge.
func (c *ConflictRecord) Winner() (ConflictVersion, bool) {
	if c.Resolution == nil || c.Resolution.WinnerIdx < 0 ||
		c.Resolution.WinnerIdx >= len(c.Versions) {
		return ConflictVersion{}, false
	}
	return c.Versions[c.Resolution.WinnerIdx], true
}
