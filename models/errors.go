package models

import "errors"

// Failure taxonomy of the sync engine. Callers match with [errors.Is];
// lower layers wrap these sentinels with contextual detail.
var (
	// ErrValidation is returned for a malformed operation or payload.
	ErrValidation = errors.New("validation failed")

	// ErrPIIViolation is returned when critical PII is detected in a
	// context that attempts to carry it through. It is always fatal to the
	// operation and is never bypassed, including under emergency access.
	ErrPIIViolation = errors.New("critical PII violation")

	// ErrEncryption is returned when key material is unavailable or an
	// encryption layer fails. Operations failing encryption must not reach
	// the scheduler.
	ErrEncryption = errors.New("encryption failed")

	// ErrNetwork is returned for transient transport failures. Retried
	// with bounded backoff for NORMAL/LOW; CRISIS/EMERGENCY operations use
	// a small retry budget and escalate on exhaustion.
	ErrNetwork = errors.New("network failure")

	// ErrSLAViolation records a latency breach. It is not fatal to the
	// operation itself; it triggers escalation out of band.
	ErrSLAViolation = errors.New("sla violated")

	// ErrConflictUnresolved is returned when no resolution strategy
	// produced a confident outcome for a version conflict.
	ErrConflictUnresolved = errors.New("conflict unresolved")

	// ErrCompliance is returned when an audit entry or retention policy
	// cannot be satisfied. Always fatal, never dropped.
	ErrCompliance = errors.New("compliance requirement unsatisfied")
)
