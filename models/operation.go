package models

import (
	"fmt"
	"time"
)

// OperationKind discriminates the direction of a sync operation.
type OperationKind string

const (
	KindUpload   OperationKind = "upload"
	KindDownload OperationKind = "download"
	KindBatch    OperationKind = "batch"
)

// EntityType names the fixed set of record kinds the engine synchronizes.
type EntityType string

const (
	EntityAssessment   EntityType = "assessment"
	EntityCheckIn      EntityType = "check_in"
	EntityCrisisPlan   EntityType = "crisis_plan"
	EntitySafetyPlan   EntityType = "safety_plan"
	EntityJournalEntry EntityType = "journal_entry"
	EntityUIPreference EntityType = "ui_preference"
)

// Metadata identifies the logical record a sync operation moves and the
// optimistic-concurrency version it carries.
type Metadata struct {
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	UserID     string     `json:"user_id"`
	DeviceID   string     `json:"device_id"`
	Version    int64      `json:"version"`
	CreatedAt  time.Time  `json:"created_at"`
	Checksum   string     `json:"checksum"`
}

// EntityKey identifies the logical record independent of version. Version
// monotonicity is tracked per key.
type EntityKey struct {
	EntityType EntityType
	EntityID   string
}

func (k EntityKey) String() string {
	return string(k.EntityType) + "/" + k.EntityID
}

// Constraints bound the execution of a single operation.
type Constraints struct {
	MaxSizeBytes   int64         `json:"max_size_bytes"`
	MaxDuration    time.Duration `json:"max_duration_ms"`
	RequiresOnline bool          `json:"requires_online"`
	AllowPartial   bool          `json:"allow_partial"`
}

// SyncOperation is the unit of work moved by the engine. Payload is opaque
// at this layer: it has already been sanitized and encrypted by the time an
// operation reaches the scheduler.
//
// Invariant: Metadata.Version is monotonically increasing per
// (EntityType, EntityID). A consumer must never apply an operation whose
// version is not a strict successor of the last applied version for that
// key, unless an explicit merge resolution supersedes the comparison.
type SyncOperation struct {
	ID          string          `json:"id"`
	Kind        OperationKind   `json:"kind"`
	Priority    Priority        `json:"priority"`
	Payload     []byte          `json:"payload"`
	Metadata    Metadata        `json:"metadata"`
	Constraints Constraints     `json:"constraints"`
	Crisis      *CrisisEnvelope `json:"crisis,omitempty"`
}

// Key returns the entity key the operation targets.
func (op *SyncOperation) Key() EntityKey {
	return EntityKey{EntityType: op.Metadata.EntityType, EntityID: op.Metadata.EntityID}
}

// CrisisFlagged reports whether the operation carries an active crisis
// envelope or is queued in a crisis lane.
func (op *SyncOperation) CrisisFlagged() bool {
	return op.Crisis.Active() || op.Priority.IsCrisis()
}

// ResponseTimeRequirement is the SLA for this operation: the crisis
// envelope's contract when present, otherwise the priority-class default.
func (op *SyncOperation) ResponseTimeRequirement() time.Duration {
	if op.Crisis.Active() && op.Crisis.RequiredResponse > 0 {
		return op.Crisis.RequiredResponse
	}
	return op.Priority.DefaultResponseTime()
}

// Deadline is the cooperative-cancellation budget for executing the
// operation. Zero MaxDuration falls back to the SLA requirement so every
// operation always carries a deadline.
func (op *SyncOperation) Deadline() time.Duration {
	if op.Constraints.MaxDuration > 0 {
		return op.Constraints.MaxDuration
	}
	return op.ResponseTimeRequirement()
}

// Validate checks the structural invariants every operation must satisfy
// before it may enter the pipeline.
func (op *SyncOperation) Validate() error {
	switch {
	case op.ID == "":
		return fmt.Errorf("%w: missing operation id", ErrValidation)
	case op.Kind != KindUpload && op.Kind != KindDownload && op.Kind != KindBatch:
		return fmt.Errorf("%w: unknown operation kind %q", ErrValidation, op.Kind)
	case !op.Priority.Valid():
		return fmt.Errorf("%w: invalid priority %d", ErrValidation, op.Priority)
	case op.Metadata.EntityType == "":
		return fmt.Errorf("%w: missing entity type", ErrValidation)
	case op.Metadata.EntityID == "":
		return fmt.Errorf("%w: missing entity id", ErrValidation)
	case op.Metadata.UserID == "":
		return fmt.Errorf("%w: missing user id", ErrValidation)
	case op.Metadata.Version < 0:
		return fmt.Errorf("%w: negative version %d", ErrValidation, op.Metadata.Version)
	}
	if op.Constraints.MaxSizeBytes > 0 && int64(len(op.Payload)) > op.Constraints.MaxSizeBytes {
		return fmt.Errorf("%w: payload %d bytes exceeds limit %d",
			ErrValidation, len(op.Payload), op.Constraints.MaxSizeBytes)
	}
	if op.Crisis != nil {
		op.Crisis.Normalize()
	}
	return nil
}
