// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/internal/utils"
	"github.com/havenmind/syncd/models"
)

// Entry IDs are v7 UUIDs so the raw rows sort by creation time even
// outside the Sequence ordering the recorders maintain.
var idGenerator = utils.NewUUIDGenerator()

// memoryRecorder is the in-process Recorder used on-device and in tests.
// Entries live in insertion order; Sequence is assigned under the lock so
// it is strictly increasing even with concurrent writers.
type memoryRecorder struct {
	logger *logger.Logger

	mu      sync.RWMutex
	seq     int64
	entries []models.AuditEntry
	ids     map[string]struct{}
}

// NewMemoryRecorder constructs an in-memory append-only Recorder.
func NewMemoryRecorder(log *logger.Logger) Recorder {
	return &memoryRecorder{
		logger: log,
		ids:    make(map[string]struct{}),
	}
}

func (r *memoryRecorder) Record(_ context.Context, entry models.AuditEntry) (models.AuditEntry, error) {
	if err := normalize(&entry); err != nil {
		return models.AuditEntry{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.ids[entry.ID]; dup {
		return models.AuditEntry{}, fmt.Errorf("%w: id %s", ErrDuplicateEntry, entry.ID)
	}

	r.seq++
	entry.Sequence = r.seq
	r.entries = append(r.entries, entry)
	r.ids[entry.ID] = struct{}{}

	return entry, nil
}

func (r *memoryRecorder) List(_ context.Context, q Query) ([]models.AuditEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.AuditEntry, 0)
	for _, e := range r.entries {
		if !matches(e, q) {
			continue
		}
		out = append(out, e)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (r *memoryRecorder) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.entries[:0]
	var dropped int64
	for _, e := range r.entries {
		if e.RetentionUntil.Before(now) {
			delete(r.ids, e.ID)
			dropped++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept

	if dropped > 0 {
		r.logger.Info().Int64("dropped", dropped).Msg("purged expired audit entries")
	}
	return dropped, nil
}

// normalize fills the server-assigned fields and validates the rest. The
// retention horizon is derived from the classification at write time and
// never recomputed.
func normalize(entry *models.AuditEntry) error {
	if entry.OperationID == "" || entry.UserID == "" || entry.DeviceID == "" || entry.Outcome == "" {
		return ErrInvalidEntry
	}
	if entry.ID == "" {
		entry.ID = idGenerator.Generate()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if entry.Classification == "" {
		entry.Classification = models.ClassificationGeneral
	}
	if entry.RetentionUntil.IsZero() {
		entry.RetentionUntil = entry.CreatedAt.Add(entry.Classification.RetentionPeriod())
	}
	return nil
}

func matches(e models.AuditEntry, q Query) bool {
	if q.UserID != "" && e.UserID != q.UserID {
		return false
	}
	if q.DeviceID != "" && e.DeviceID != q.DeviceID {
		return false
	}
	if q.OperationID != "" && e.OperationID != q.OperationID {
		return false
	}
	if q.Outcome != "" && e.Outcome != q.Outcome {
		return false
	}
	if !q.Since.IsZero() && e.CreatedAt.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && !e.CreatedAt.Before(q.Until) {
		return false
	}
	return true
}
