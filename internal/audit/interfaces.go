package audit

import (
	"context"
	"time"

	"github.com/havenmind/syncd/models"
)

// Query filters the compliance log. Zero fields match everything.
type Query struct {
	UserID      string
	DeviceID    string
	OperationID string
	Outcome     models.AuditOutcome
	Since       time.Time
	Until       time.Time
	Limit       int
}

// Recorder is the append-only compliance log. Entries cannot be updated
// or deleted once written; the only removal path is PurgeExpired, which
// drops entries whose retention period has fully elapsed.
//
//go:generate mockgen -source=interfaces.go -destination=../mock/mock_audit.go -package=mock
type Recorder interface {
	// Record appends one entry, assigning ID, Sequence, CreatedAt and
	// RetentionUntil when unset, and returns the stored entry.
	Record(ctx context.Context, entry models.AuditEntry) (models.AuditEntry, error)

	// List returns matching entries in ascending sequence order.
	List(ctx context.Context, q Query) ([]models.AuditEntry, error)

	// PurgeExpired removes entries with RetentionUntil before now and
	// reports how many were dropped.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
