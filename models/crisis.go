// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// CrisisLevel is the graded severity classification attached to data or
// sessions. It drives scheduling priority and emergency-access policy.
type CrisisLevel int

const (
	CrisisNone CrisisLevel = iota
	CrisisWatch
	CrisisElevated
	CrisisHigh
	CrisisCritical
	CrisisEmergency
)

func (l CrisisLevel) String() string {
	switch l {
	case CrisisWatch:
		return "watch"
	case CrisisElevated:
		return "elevated"
	case CrisisHigh:
		return "high"
	case CrisisCritical:
		return "critical"
	case CrisisEmergency:
		return "emergency"
	default:
		return "none"
	}
}

// ParseCrisisLevel maps a wire-format level name to its CrisisLevel value.
// Unknown names map to CrisisNone.
func ParseCrisisLevel(s string) CrisisLevel {
	switch s {
	case "watch":
		return CrisisWatch
	case "elevated":
		return CrisisElevated
	case "high":
		return CrisisHigh
	case "critical":
		return CrisisCritical
	case "emergency":
		return CrisisEmergency
	default:
		return CrisisNone
	}
}

// MaxResponseTimeHighAndAbove is the hard ceiling on the required response
// time for any operation at CrisisHigh or above.
const MaxResponseTimeHighAndAbove = 200 * time.Millisecond

// EmergencyAccess describes which normal rules an emergency context may
// bypass. Critical-PII categories are never bypassed regardless of these
// flags; that exclusion is enforced by the sanitizer, not here.
type EmergencyAccess struct {
	BypassPIIRules bool `json:"bypass_pii_rules"`
	NotifyContacts bool `json:"notify_contacts"`
}

// SafetyValidation records when and how the crisis status carried by an
// envelope was determined.
type SafetyValidation struct {
	ValidatedAt time.Time `json:"validated_at"`
	Method      string    `json:"method"` // e.g. "phq9_score", "clinician_override"
	Score       int       `json:"score,omitempty"`
}

// CrisisEnvelope wraps a payload with its crisis classification and the
// response-time contract derived from it.
//
// Invariants:
//   - Level >= CrisisHigh implies RequiredResponse <= 200ms (Normalize
//     clamps it).
//   - Level == CrisisEmergency permits bypass of non-critical PII rules
//     only; government-ID and payment-card categories are never bypassed.
type CrisisEnvelope struct {
	Level            CrisisLevel      `json:"level"`
	Access           EmergencyAccess  `json:"access"`
	Validation       SafetyValidation `json:"validation"`
	RequiredResponse time.Duration    `json:"required_response_ms"`
}

// Normalize enforces the envelope invariants in place: a zero
// RequiredResponse is filled from the level's default, and levels at
// CrisisHigh or above are clamped to MaxResponseTimeHighAndAbove.
func (e *CrisisEnvelope) Normalize() {
	if e.RequiredResponse <= 0 {
		e.RequiredResponse = e.Level.defaultResponse()
	}
	if e.Level >= CrisisHigh && e.RequiredResponse > MaxResponseTimeHighAndAbove {
		e.RequiredResponse = MaxResponseTimeHighAndAbove
	}
}

// Active reports whether the envelope carries any crisis signal at all.
func (e *CrisisEnvelope) Active() bool {
	return e != nil && e.Level > CrisisNone
}

// SchedulingPriority maps a crisis level to the scheduler lane it must be
// served from.
func (e *CrisisEnvelope) SchedulingPriority() Priority {
	if e == nil {
		return PriorityNormal
	}
	switch {
	case e.Level >= CrisisEmergency:
		return PriorityEmergency
	case e.Level >= CrisisHigh:
		return PriorityCrisis
	case e.Level >= CrisisWatch:
		return PriorityHigh
	default:
		return PriorityNormal
	}
}

func (l CrisisLevel) defaultResponse() time.Duration {
	switch {
	case l >= CrisisEmergency:
		return 100 * time.Millisecond
	case l >= CrisisHigh:
		return MaxResponseTimeHighAndAbove
	case l >= CrisisWatch:
		return 2 * time.Second
	default:
		return 30 * time.Second
	}
}
