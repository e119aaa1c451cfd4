// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package conflict

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/models"
)

// appliedState is the last applied version for one entity key, with the
// snapshot needed to build a ConflictRecord when a later writer collides
// with it.
type appliedState struct {
	version  int64
	snapshot models.ConflictVersion
}

// Detector owns the per-key version state and produces ConflictRecords on
// version mismatch. It is the single writer of that state: every apply
// must go through MarkApplied.
type Detector struct {
	logger *logger.Logger

	mu      sync.Mutex
	applied map[models.EntityKey]appliedState
}

func NewDetector(log *logger.Logger) *Detector {
	return &Detector{
		logger:  log,
		applied: make(map[models.EntityKey]appliedState),
	}
}

// Check inspects an incoming version for key. It returns nil when the
// incoming version is a strict successor of the last applied one (or when
// the key has never been applied); otherwise it returns a new
// ConflictRecord in StateDetected carrying both divergent versions.
func (d *Detector) Check(key models.EntityKey, incoming models.ConflictVersion, cctx models.ConflictContext) *models.ConflictRecord {
	d.mu.Lock()
	last, seen := d.applied[key]
	d.mu.Unlock()

	if !seen || incoming.Version == last.version+1 {
		return nil
	}

	if cctx.DetectedAt.IsZero() {
		cctx.DetectedAt = time.Now()
	}

	rec := &models.ConflictRecord{
		ID:          uuid.NewString(),
		Key:         key,
		BaseVersion: baseVersion(last.version, incoming.Version),
		Versions:    []models.ConflictVersion{last.snapshot, incoming},
		Context:     cctx,
		State:       models.StateDetected,
	}

	d.logger.Warn().
		Str("conflict_id", rec.ID).
		Str("entity_key", key.String()).
		Int64("applied_version", last.version).
		Int64("incoming_version", incoming.Version).
		Msg("version conflict detected")

	return rec
}

// MarkApplied records that version is now the last applied state for key.
// Returns an error when the version would move backwards without a
// superseding merge resolution; callers pass supersede=true only when a
// resolver verdict replaces the version comparison.
func (d *Detector) MarkApplied(key models.EntityKey, version models.ConflictVersion, supersede bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	last, seen := d.applied[key]
	if seen && version.Version <= last.version && !supersede {
		return fmt.Errorf("%w: version %d is not greater than applied %d for %s",
			models.ErrValidation, version.Version, last.version, key)
	}

	d.applied[key] = appliedState{version: version.Version, snapshot: version}
	return nil
}

// LastApplied returns the last applied version number for key.
func (d *Detector) LastApplied(key models.EntityKey) (int64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	last, seen := d.applied[key]
	return last.version, seen
}

// baseVersion is the common ancestor both writers advanced from.
func baseVersion(applied, incoming int64) int64 {
	base := applied
	if incoming-1 < base {
		base = incoming - 1
	}
	if base < 0 {
		base = 0
	}
	return base
}
