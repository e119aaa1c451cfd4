package models

import "time"

// DataClassification drives the retention period of an audit entry. It is
// computed at write time and never retroactively changed.
type DataClassification string

const (
	ClassificationGeneral   DataClassification = "general"
	ClassificationSensitive DataClassification = "sensitive"
	ClassificationClinical  DataClassification = "clinical"
)

// RetentionPeriod returns how long entries of this classification are
// retained. Clinical-tier data is kept seven years for regulatory reasons.
func (c DataClassification) RetentionPeriod() time.Duration {
	const year = 365 * 24 * time.Hour
	switch c {
	case ClassificationClinical:
		return 7 * year
	case ClassificationSensitive:
		return 3 * year
	default:
		return 1 * year
	}
}

// ClassifyEntity maps an entity type to its data classification.
func ClassifyEntity(t EntityType) DataClassification {
	switch t {
	case EntityCrisisPlan, EntitySafetyPlan, EntityAssessment:
		return ClassificationClinical
	case EntityCheckIn, EntityJournalEntry:
		return ClassificationSensitive
	default:
		return ClassificationGeneral
	}
}

// AuditOutcome is the final state an operation reached.
type AuditOutcome string

const (
	OutcomeCompleted AuditOutcome = "completed"
	OutcomeFailed    AuditOutcome = "failed"
	OutcomeRejected  AuditOutcome = "rejected"
	OutcomeEscalated AuditOutcome = "escalated"
	OutcomeConflict  AuditOutcome = "conflict_resolved"
)

// AuditEntry is one immutable row in the append-only compliance log.
// Sequence is assigned by the recorder and is strictly increasing within a
// store. Entries are never mutated or deleted during normal operation.
type AuditEntry struct {
	ID              string             `json:"id"`
	Sequence        int64              `json:"sequence"`
	OperationID     string             `json:"operation_id"`
	UserID          string             `json:"user_id"`
	DeviceID        string             `json:"device_id"`
	Outcome         AuditOutcome       `json:"outcome"`
	Detail          string             `json:"detail,omitempty"`
	Duration        time.Duration      `json:"duration"`
	Classification  DataClassification `json:"classification"`
	RetentionUntil  time.Time          `json:"retention_until"`
	RegulatoryTags  []string           `json:"regulatory_tags,omitempty"`
	EmergencyAccess bool               `json:"emergency_access"`
	CreatedAt       time.Time          `json:"created_at"`
}
