// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/havenmind/syncd/internal/adapter"
	"github.com/havenmind/syncd/internal/audit"
	"github.com/havenmind/syncd/internal/config"
	"github.com/havenmind/syncd/internal/conflict"
	"github.com/havenmind/syncd/internal/crypto"
	"github.com/havenmind/syncd/internal/device"
	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/internal/sanitize"
	"github.com/havenmind/syncd/internal/scheduler"
	"github.com/havenmind/syncd/internal/sla"
	"github.com/havenmind/syncd/internal/utils"
	"github.com/havenmind/syncd/models"
)

// EngineDeps carries the collaborators a sync engine orchestrates.
type EngineDeps struct {
	Sanitizer *sanitize.Sanitizer
	Gate      crypto.EncryptionGate
	Monitor   *sla.Monitor
	Detector  *conflict.Detector
	Resolver  *conflict.Resolver
	Registry  *device.Registry
	Fanout    *device.Fanout
	Recorder  audit.Recorder
	Backend   adapter.BackendAdapter
}

type syncEngine struct {
	sanitizer *sanitize.Sanitizer
	gate      crypto.EncryptionGate
	sched     *scheduler.Scheduler
	pool      *scheduler.Pool
	monitor   *sla.Monitor
	detector  *conflict.Detector
	resolver  *conflict.Resolver
	registry  *device.Registry
	fanout    *device.Fanout
	recorder  audit.Recorder
	backend   adapter.BackendAdapter

	hashKey string
	logger  *logger.Logger

	closed atomic.Bool
}

// NewSyncEngine builds the engine and its worker pool. The pool sizes come
// from schedCfg; escalate receives deadline-expiry escalations raised by
// the pool itself (typically the same sink the SLA monitor delivers to).
func NewSyncEngine(deps EngineDeps, schedCfg config.Scheduler, hashKey string, escalate scheduler.EscalateFunc, log *logger.Logger) SyncEngine {
	e := &syncEngine{
		sanitizer: deps.Sanitizer,
		gate:      deps.Gate,
		monitor:   deps.Monitor,
		detector:  deps.Detector,
		resolver:  deps.Resolver,
		registry:  deps.Registry,
		fanout:    deps.Fanout,
		recorder:  deps.Recorder,
		backend:   deps.Backend,
		hashKey:   hashKey,
		logger:    log,
	}

	e.sched = scheduler.New(schedCfg.QueueCapacity, log)
	e.pool = scheduler.NewPool(e.sched, e.run, escalate, scheduler.PoolConfig{
		Workers:       schedCfg.Workers,
		CrisisWorkers: schedCfg.CrisisWorkers,
		BatchSize:     schedCfg.BatchSize,
	}, log)

	return e
}

// Start implements [SyncEngine].
func (e *syncEngine) Start(ctx context.Context) {
	e.pool.Start(ctx)
}

// Stop implements [SyncEngine]. Safe to call more than once.
func (e *syncEngine) Stop() {
	if e.closed.Swap(true) {
		return
	}
	e.sched.Close()
	e.pool.Stop()
	e.monitor.Wait()
	e.fanout.Wait()
}

// Submit implements [SyncEngine].
func (e *syncEngine) Submit(ctx context.Context, op *models.SyncOperation, payload map[string]any) error {
	if op == nil {
		return ErrValidationNoOperation
	}
	if e.closed.Load() {
		return ErrEngineClosed
	}
	if payload == nil {
		return ErrValidationNoPayloadProvided
	}

	if err := op.Validate(); err != nil {
		e.audit(ctx, op, models.OutcomeRejected, err.Error(), 0, false)
		return fmt.Errorf("validate operation: %w", err)
	}

	// A crisis envelope lifts the scheduling lane; it never demotes one.
	if op.Crisis.Active() {
		op.Crisis.Normalize()
		if p := op.Crisis.SchedulingPriority(); p > op.Priority {
			op.Priority = p
		}
	}

	classification := models.ClassifyEntity(op.Metadata.EntityType)

	clean, report, err := e.sanitizer.Sanitize(payload, sanitize.Context{
		Kind:        op.Kind,
		EntityType:  op.Metadata.EntityType,
		Therapeutic: classification == models.ClassificationClinical,
		Emergency:   op.Crisis.Active() && op.Crisis.Access.BypassPIIRules,
	})
	if err != nil {
		e.audit(ctx, op, models.OutcomeRejected, err.Error(), 0, false)
		return fmt.Errorf("sanitize payload: %w", err)
	}
	if len(report.Removed) > 0 || len(report.Redacted) > 0 {
		e.logger.Debug().
			Str("operation_id", op.ID).
			Int("removed_fields", len(report.Removed)).
			Int("redacted_fields", len(report.Redacted)).
			Msg("payload sanitized")
	}

	plain, err := json.Marshal(clean)
	if err != nil {
		return fmt.Errorf("encode sanitized payload: %w", err)
	}

	envelope, err := e.gate.Encrypt(plain, e.registry.Tier(op.Metadata.UserID), classification)
	if err != nil {
		e.audit(ctx, op, models.OutcomeRejected, err.Error(), 0, false)
		return fmt.Errorf("encrypt payload: %w", err)
	}

	blob, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	op.Payload = blob
	op.Metadata.Checksum = utils.HashString(string(blob), e.hashKey)
	if op.Metadata.CreatedAt.IsZero() {
		op.Metadata.CreatedAt = time.Now()
	}

	if err := e.sched.Enqueue(op); err != nil {
		e.audit(ctx, op, models.OutcomeRejected, err.Error(), 0, false)
		return fmt.Errorf("enqueue operation: %w", err)
	}
	return nil
}

// run is the pool executor: one dequeued operation, measured against its
// SLA, with device stats and the audit trail updated on every outcome.
func (e *syncEngine) run(ctx context.Context, op *models.SyncOperation) error {
	var outcome models.AuditOutcome
	var detail string

	elapsed, err := e.monitor.Measure(ctx, op, func(ctx context.Context) error {
		var execErr error
		outcome, detail, execErr = e.execute(ctx, op)
		return execErr
	})

	e.registry.Touch(op.Metadata.UserID, op.Metadata.DeviceID, elapsed, err == nil)

	emergency := false
	if err != nil && op.CrisisFlagged() {
		if errors.Is(err, models.ErrNetwork) {
			e.monitor.EscalateFailure(op, models.ReasonRetriesExhausted, elapsed)
		}
		e.crisisFallback(ctx, op, err)
		outcome, detail, emergency = models.OutcomeEscalated, err.Error(), true
	}

	// The audit entry gates completion: an operation whose entry cannot be
	// recorded is a compliance failure, and its version is never marked
	// applied.
	if auditErr := e.audit(ctx, op, outcome, detail, elapsed, emergency); auditErr != nil {
		if err == nil {
			err = auditErr
		}
		return err
	}
	if err == nil && outcome == models.OutcomeCompleted {
		e.markApplied(op)
	}
	return err
}

func (e *syncEngine) execute(ctx context.Context, op *models.SyncOperation) (models.AuditOutcome, string, error) {
	resp, err := e.backend.Push(ctx, models.PushRequest{
		UserID:     op.Metadata.UserID,
		DeviceID:   op.Metadata.DeviceID,
		Operations: []*models.SyncOperation{op},
	})
	if err != nil {
		if errors.Is(err, adapter.ErrConflict) {
			return e.resolveConflict(ctx, op, 0)
		}
		return models.OutcomeFailed, err.Error(), fmt.Errorf("push operation: %w", err)
	}

	for _, ack := range resp.Acks {
		if ack.OperationID == op.ID && !ack.Applied {
			return e.resolveConflict(ctx, op, ack.ServerVersion)
		}
	}

	// The applied version is recorded by run after the audit entry lands.
	return models.OutcomeCompleted, "", nil
}

// resolveConflict runs the resolution ladder for a push the backend
// rejected: fetch the server's divergent version, let the detector build
// the record, resolve it, and push the winning payload as a superseding
// version.
func (e *syncEngine) resolveConflict(ctx context.Context, op *models.SyncOperation, serverVersion int64) (models.AuditOutcome, string, error) {
	key := op.Key()

	localPayload, err := e.decryptPayload(op.Payload)
	if err != nil {
		return models.OutcomeFailed, err.Error(), fmt.Errorf("decrypt local version: %w", err)
	}

	incoming := models.ConflictVersion{
		DeviceID:     op.Metadata.DeviceID,
		Version:      op.Metadata.Version,
		Payload:      localPayload,
		CrisisActive: op.CrisisFlagged(),
		Timestamp:    versionTimestamp(op),
	}

	if remote, ok := e.fetchServerVersion(ctx, op); ok {
		_ = e.detector.MarkApplied(key, remote, true)
	} else if serverVersion > 0 {
		_ = e.detector.MarkApplied(key, models.ConflictVersion{
			Version:   serverVersion,
			Timestamp: time.Now(),
		}, true)
	}

	rec := e.detector.Check(key, incoming, models.ConflictContext{
		CrisisActive: op.CrisisFlagged(),
		CrisisLevel:  crisisLevel(op),
		DetectedAt:   time.Now(),
	})
	if rec == nil {
		err := fmt.Errorf("%w: backend rejected version %d for %s without a divergent baseline",
			models.ErrConflictUnresolved, op.Metadata.Version, key)
		return models.OutcomeFailed, err.Error(), err
	}

	if _, err := e.resolver.Resolve(ctx, rec); err != nil {
		return models.OutcomeFailed, err.Error(), fmt.Errorf("resolve conflict %s: %w", rec.ID, err)
	}
	if err := e.resolver.Apply(rec); err != nil {
		return models.OutcomeFailed, err.Error(), fmt.Errorf("apply resolution %s: %w", rec.ID, err)
	}

	winnerPayload := rec.Resolution.Merged
	if w, ok := rec.Winner(); ok {
		winnerPayload = w.Payload
	}
	nextVersion := supersedingVersion(rec)

	if err := e.pushResolved(ctx, op, winnerPayload, nextVersion); err != nil {
		return models.OutcomeFailed, err.Error(), err
	}

	_ = e.detector.MarkApplied(key, models.ConflictVersion{
		DeviceID:     op.Metadata.DeviceID,
		Version:      nextVersion,
		Payload:      winnerPayload,
		CrisisActive: op.CrisisFlagged(),
		Timestamp:    time.Now(),
	}, true)

	e.logger.Info().
		Str("conflict_id", rec.ID).
		Str("entity_key", key.String()).
		Str("strategy", string(rec.Resolution.Strategy)).
		Int64("superseding_version", nextVersion).
		Msg("conflict resolved")

	return models.OutcomeConflict, string(rec.Resolution.Strategy), nil
}

// pushResolved re-encrypts the winning payload and pushes it as the
// superseding version. One attempt only: a second rejection means another
// writer won the race and the next push will start a fresh resolution.
func (e *syncEngine) pushResolved(ctx context.Context, op *models.SyncOperation, payload map[string]any, version int64) error {
	plain, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode resolved payload: %w", err)
	}

	classification := models.ClassifyEntity(op.Metadata.EntityType)
	envelope, err := e.gate.Encrypt(plain, e.registry.Tier(op.Metadata.UserID), classification)
	if err != nil {
		return fmt.Errorf("encrypt resolved payload: %w", err)
	}
	blob, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encode resolved envelope: %w", err)
	}

	resolved := *op
	resolved.Payload = blob
	resolved.Metadata.Version = version
	resolved.Metadata.Checksum = utils.HashString(string(blob), e.hashKey)

	resp, err := e.backend.Push(ctx, models.PushRequest{
		UserID:     resolved.Metadata.UserID,
		DeviceID:   resolved.Metadata.DeviceID,
		Operations: []*models.SyncOperation{&resolved},
	})
	if err != nil {
		return fmt.Errorf("push resolved version: %w", err)
	}
	for _, ack := range resp.Acks {
		if ack.OperationID == resolved.ID && !ack.Applied {
			return fmt.Errorf("%w: superseding version %d rejected for %s",
				models.ErrConflictUnresolved, version, op.Key())
		}
	}
	return nil
}

// fetchServerVersion pulls the backend's current version for the
// operation's entity key so the resolver can rank real payloads instead of
// a bare version number.
func (e *syncEngine) fetchServerVersion(ctx context.Context, op *models.SyncOperation) (models.ConflictVersion, bool) {
	resp, err := e.backend.Pull(ctx, models.PullRequest{
		UserID:        op.Metadata.UserID,
		DeviceID:      op.Metadata.DeviceID,
		SinceVersions: map[string]int64{op.Key().String(): 0},
	})
	if err != nil {
		e.logger.Warn().Err(err).Str("entity_key", op.Key().String()).
			Msg("could not fetch server version for conflict resolution")
		return models.ConflictVersion{}, false
	}

	for _, remote := range resp.Operations {
		if remote == nil || remote.Key() != op.Key() {
			continue
		}
		payload, err := e.decryptPayload(remote.Payload)
		if err != nil {
			e.logger.Warn().Err(err).Str("entity_key", op.Key().String()).
				Msg("could not decrypt server version")
			payload = nil
		}
		return models.ConflictVersion{
			DeviceID:     remote.Metadata.DeviceID,
			Version:      remote.Metadata.Version,
			Payload:      payload,
			CrisisActive: remote.CrisisFlagged(),
			Timestamp:    versionTimestamp(remote),
		}, true
	}
	return models.ConflictVersion{}, false
}

// Pull implements [SyncEngine].
func (e *syncEngine) Pull(ctx context.Context, req models.PullRequest) (models.PullResponse, error) {
	if e.closed.Load() {
		return models.PullResponse{}, ErrEngineClosed
	}

	resp, err := e.backend.Pull(ctx, req)
	if err != nil {
		return models.PullResponse{}, fmt.Errorf("pull operations: %w", err)
	}

	// The backend's versions are authoritative for pulled state.
	for _, op := range resp.Operations {
		if op == nil {
			continue
		}
		_ = e.detector.MarkApplied(op.Key(), models.ConflictVersion{
			DeviceID:     op.Metadata.DeviceID,
			Version:      op.Metadata.Version,
			CrisisActive: op.CrisisFlagged(),
			Timestamp:    versionTimestamp(op),
		}, true)
	}
	return resp, nil
}

// RegisterDevice implements [SyncEngine]. Registration is offline-first:
// the local registry is the source of truth and the backend enrollment is
// best-effort.
func (e *syncEngine) RegisterDevice(ctx context.Context, req models.RegisterDeviceRequest) (models.RegisterDeviceResponse, error) {
	evicted, err := e.registry.Register(req.Tier, req.Device)
	if err != nil {
		return models.RegisterDeviceResponse{}, fmt.Errorf("register device: %w", err)
	}

	if _, err := e.backend.RegisterDevice(ctx, req); err != nil {
		e.logger.Warn().Err(err).
			Str("device_id", req.Device.ID).
			Msg("backend device enrollment failed, device registered locally")
	}

	registered, _ := e.registry.Get(req.Device.UserID, req.Device.ID)
	return models.RegisterDeviceResponse{Registered: registered, Evicted: evicted}, nil
}

// EmergencyResources implements [SyncEngine].
func (e *syncEngine) EmergencyResources() models.EmergencyResources {
	return models.DefaultEmergencyResources()
}

// crisisFallback is the path of last resort for a crisis-flagged operation
// the engine could not deliver: alert the user's other devices and surface
// the offline resource set.
func (e *syncEngine) crisisFallback(ctx context.Context, op *models.SyncOperation, cause error) {
	resources := e.EmergencyResources()
	started := e.fanout.Broadcast(ctx, device.CrisisAlert{
		UserID:         op.Metadata.UserID,
		SourceDeviceID: op.Metadata.DeviceID,
		Level:          crisisLevel(op),
	})

	e.logger.Error().
		Err(cause).
		Str("operation_id", op.ID).
		Int("alerted_devices", started).
		Int("offline_hotlines", len(resources.Hotlines)).
		Msg("crisis operation failed, falling back to offline resources")
}

func (e *syncEngine) markApplied(op *models.SyncOperation) {
	err := e.detector.MarkApplied(op.Key(), models.ConflictVersion{
		DeviceID:     op.Metadata.DeviceID,
		Version:      op.Metadata.Version,
		CrisisActive: op.CrisisFlagged(),
		Timestamp:    versionTimestamp(op),
	}, false)
	if err != nil {
		e.logger.Warn().Err(err).Str("operation_id", op.ID).Msg("could not record applied version")
	}
}

func (e *syncEngine) audit(ctx context.Context, op *models.SyncOperation, outcome models.AuditOutcome, detail string, elapsed time.Duration, emergency bool) error {
	classification := models.ClassifyEntity(op.Metadata.EntityType)

	entry := models.AuditEntry{
		OperationID:     op.ID,
		UserID:          op.Metadata.UserID,
		DeviceID:        op.Metadata.DeviceID,
		Outcome:         outcome,
		Detail:          detail,
		Duration:        elapsed,
		Classification:  classification,
		EmergencyAccess: emergency,
	}
	if classification == models.ClassificationClinical {
		entry.RegulatoryTags = []string{"hipaa"}
	}

	if _, err := e.recorder.Record(ctx, entry); err != nil {
		e.logger.Error().Err(err).
			Str("operation_id", op.ID).
			Msg("could not record audit entry")
		return fmt.Errorf("%w: record audit entry: %v", models.ErrCompliance, err)
	}
	return nil
}

func (e *syncEngine) decryptPayload(blob []byte) (map[string]any, error) {
	var envelope models.EncryptedEnvelope
	if err := json.Unmarshal(blob, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	plain, err := e.gate.Decrypt(&envelope)
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := json.Unmarshal(plain, &payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return payload, nil
}

func crisisLevel(op *models.SyncOperation) models.CrisisLevel {
	if op.Crisis != nil {
		return op.Crisis.Level
	}
	if op.Priority.IsCrisis() {
		return models.CrisisHigh
	}
	return models.CrisisNone
}

func versionTimestamp(op *models.SyncOperation) time.Time {
	if !op.Metadata.CreatedAt.IsZero() {
		return op.Metadata.CreatedAt
	}
	return time.Now()
}

// supersedingVersion is one past the highest version seen by either side
// of the conflict, so the resolved write is a strict successor everywhere.
func supersedingVersion(rec *models.ConflictRecord) int64 {
	var max int64
	for _, v := range rec.Versions {
		if v.Version > max {
			max = v.Version
		}
	}
	return max + 1
}
