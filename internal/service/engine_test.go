// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/havenmind/syncd/internal/config"
	"github.com/havenmind/syncd/internal/conflict"
	"github.com/havenmind/syncd/internal/crypto"
	"github.com/havenmind/syncd/internal/device"
	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/internal/mock"
	"github.com/havenmind/syncd/internal/sanitize"
	"github.com/havenmind/syncd/internal/sla"
	"github.com/havenmind/syncd/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type engineFixture struct {
	engine      SyncEngine
	backend     *mock.MockBackendAdapter
	recorder    *mock.MockRecorder
	detector    *conflict.Detector
	registry    *device.Registry
	gate        crypto.EncryptionGate
	alerts      chan device.CrisisAlert
	escalations chan models.EscalationRequest
}

func newEngineFixture(t *testing.T, ctrl *gomock.Controller) *engineFixture {
	t.Helper()
	log := logger.Nop()

	policy := crypto.DefaultRotationPolicy()
	ring, err := crypto.NewKeyring("fixture-master-secret", policy)
	require.NoError(t, err)
	gate, err := crypto.NewEncryptionGate(ring, policy, log)
	require.NoError(t, err)

	alerts := make(chan device.CrisisAlert, 8)
	notifier := device.NotifierFunc(func(_ context.Context, _ models.DeviceRecord, alert device.CrisisAlert) error {
		alerts <- alert
		return nil
	})

	registry := device.NewRegistry(log)
	detector := conflict.NewDetector(log)
	backend := mock.NewMockBackendAdapter(ctrl)
	recorder := mock.NewMockRecorder(ctrl)

	escalations := make(chan models.EscalationRequest, 8)
	sink := sla.SinkFunc(func(_ context.Context, req models.EscalationRequest) error {
		escalations <- req
		return nil
	})

	engine := NewSyncEngine(EngineDeps{
		Sanitizer: sanitize.NewSanitizer(),
		Gate:      gate,
		Monitor:   sla.NewMonitor(sink, log),
		Detector:  detector,
		Resolver:  conflict.NewResolver(conflict.NewFieldMergeAdvisor(), 0, log),
		Registry:  registry,
		Fanout:    device.NewFanout(registry, notifier, log),
		Recorder:  recorder,
		Backend:   backend,
	}, config.Scheduler{QueueCapacity: 16, Workers: 1, CrisisWorkers: 1, BatchSize: 4},
		"testhashkey", func(models.EscalationRequest) {}, log)

	return &engineFixture{
		engine:      engine,
		backend:     backend,
		recorder:    recorder,
		detector:    detector,
		registry:    registry,
		gate:        gate,
		alerts:      alerts,
		escalations: escalations,
	}
}

func (f *engineFixture) registerDevices(t *testing.T) {
	t.Helper()
	_, err := f.registry.Register(models.TierPremium, models.DeviceRecord{
		ID: "phone", UserID: "user-1",
		Capabilities: models.DeviceCapabilities{SupportsPush: true},
		Preferences:  models.DevicePreferences{CrisisAlerts: true},
	})
	require.NoError(t, err)
	_, err = f.registry.Register(models.TierPremium, models.DeviceRecord{
		ID: "tablet", UserID: "user-1",
		Capabilities: models.DeviceCapabilities{SupportsPush: true},
		Preferences:  models.DevicePreferences{CrisisAlerts: true},
	})
	require.NoError(t, err)
}

// encryptedFor builds a payload blob the fixture's gate can decrypt, the
// way a backend would return one on pull.
func (f *engineFixture) encryptedFor(t *testing.T, payload map[string]any, tier models.SubscriptionTier, et models.EntityType) []byte {
	t.Helper()
	plain, err := json.Marshal(payload)
	require.NoError(t, err)
	envelope, err := f.gate.Encrypt(plain, tier, models.ClassifyEntity(et))
	require.NoError(t, err)
	blob, err := json.Marshal(envelope)
	require.NoError(t, err)
	return blob
}

func checkinOp(id string, version int64) *models.SyncOperation {
	return &models.SyncOperation{
		ID:       id,
		Kind:     models.KindUpload,
		Priority: models.PriorityNormal,
		Metadata: models.Metadata{
			EntityType: models.EntityCheckIn,
			EntityID:   "checkin-1",
			UserID:     "user-1",
			DeviceID:   "phone",
			Version:    version,
			CreatedAt:  time.Now(),
		},
	}
}

func awaitAudit(t *testing.T, ch <-chan models.AuditEntry) models.AuditEntry {
	t.Helper()
	select {
	case entry := <-ch:
		return entry
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit entry")
		return models.AuditEntry{}
	}
}

// auditCapture wires the mock recorder to forward every entry to a channel.
func auditCapture(f *engineFixture) <-chan models.AuditEntry {
	ch := make(chan models.AuditEntry, 8)
	f.recorder.EXPECT().
		Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, entry models.AuditEntry) (models.AuditEntry, error) {
			ch <- entry
			return entry, nil
		}).
		AnyTimes()
	return ch
}

// ── Submit pipeline ─────────────────────────────────────────────────────────

func TestSyncEngine_SubmitSanitizesEncryptsAndCompletes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)
	f.registerDevices(t)
	audits := auditCapture(f)

	pushed := make(chan models.PushRequest, 1)
	f.backend.EXPECT().
		Push(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req models.PushRequest) (models.PushResponse, error) {
			pushed <- req
			return models.PushResponse{
				Acks:   []models.PushAck{{OperationID: req.Operations[0].ID, Applied: true, ServerVersion: req.Operations[0].Metadata.Version}},
				Length: 1,
			}, nil
		})

	op := checkinOp("op-1", 1)
	payload := map[string]any{
		"mood":        7,
		"note":        "slept well",
		"ssn":         "123-45-6789",
		"card_number": "4111111111111111",
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.engine.Start(ctx)
	defer f.engine.Stop()

	require.NoError(t, f.engine.Submit(ctx, op, payload))

	var req models.PushRequest
	select {
	case req = <-pushed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for push")
	}

	require.Len(t, req.Operations, 1)
	sent := req.Operations[0]
	assert.NotEmpty(t, sent.Metadata.Checksum)

	// The wire payload is an encrypted envelope; critical PII must be
	// gone after decryption.
	var envelope models.EncryptedEnvelope
	require.NoError(t, json.Unmarshal(sent.Payload, &envelope))
	assert.Equal(t, models.TierPremium, envelope.Tier)

	plain, err := f.gate.Decrypt(&envelope)
	require.NoError(t, err)
	var clean map[string]any
	require.NoError(t, json.Unmarshal(plain, &clean))
	assert.Contains(t, clean, "mood")
	assert.Contains(t, clean, "note")
	assert.NotContains(t, clean, "ssn")
	assert.NotContains(t, clean, "card_number")

	entry := awaitAudit(t, audits)
	assert.Equal(t, models.OutcomeCompleted, entry.Outcome)
	assert.Equal(t, "op-1", entry.OperationID)
	assert.Equal(t, models.ClassificationSensitive, entry.Classification)
}

func TestSyncEngine_SubmitRejectsInvalidOperation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)
	audits := auditCapture(f)

	op := checkinOp("", 1) // missing id

	err := f.engine.Submit(context.Background(), op, map[string]any{"mood": 5})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)

	entry := awaitAudit(t, audits)
	assert.Equal(t, models.OutcomeRejected, entry.Outcome)
}

func TestSyncEngine_SubmitNilArguments(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)

	err := f.engine.Submit(context.Background(), nil, map[string]any{"mood": 5})
	assert.ErrorIs(t, err, ErrValidationNoOperation)

	err = f.engine.Submit(context.Background(), checkinOp("op-1", 1), nil)
	assert.ErrorIs(t, err, ErrValidationNoPayloadProvided)
}

func TestSyncEngine_SubmitAfterStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)
	f.engine.Stop()

	err := f.engine.Submit(context.Background(), checkinOp("op-1", 1), map[string]any{"mood": 5})
	assert.ErrorIs(t, err, ErrEngineClosed)
}

func TestSyncEngine_CrisisEnvelopeLiftsPriority(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)
	f.registerDevices(t)
	audits := auditCapture(f)

	pushed := make(chan *models.SyncOperation, 1)
	f.backend.EXPECT().
		Push(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req models.PushRequest) (models.PushResponse, error) {
			pushed <- req.Operations[0]
			return models.PushResponse{
				Acks: []models.PushAck{{OperationID: req.Operations[0].ID, Applied: true}},
			}, nil
		})

	op := checkinOp("op-crisis", 1)
	op.Crisis = &models.CrisisEnvelope{Level: models.CrisisHigh}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.engine.Start(ctx)
	defer f.engine.Stop()

	require.NoError(t, f.engine.Submit(ctx, op, map[string]any{"mood": 1}))

	select {
	case sent := <-pushed:
		assert.Equal(t, models.PriorityCrisis, sent.Priority)
		assert.Equal(t, models.MaxResponseTimeHighAndAbove, sent.Crisis.RequiredResponse)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for push")
	}

	entry := awaitAudit(t, audits)
	assert.Equal(t, models.OutcomeCompleted, entry.Outcome)
}

// ── Conflict resolution ─────────────────────────────────────────────────────

func TestSyncEngine_ConflictResolvedWithSupersedingVersion(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)
	f.registerDevices(t)
	audits := auditCapture(f)

	// Disjoint edits over a shared base: the tablet tagged the entry, the
	// phone logged sleep. A field merge keeps both.
	serverPayload := map[string]any{"mood": 2.0, "note": "rough day", "energy": 3.0, "tags": "evening"}
	localPayload := map[string]any{"mood": 2.0, "note": "rough day", "energy": 3.0, "sleep_hours": 6.5}
	serverBlob := f.encryptedFor(t, serverPayload, models.TierPremium, models.EntityCheckIn)

	// First push rejected: the backend already holds version 5.
	first := f.backend.EXPECT().
		Push(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req models.PushRequest) (models.PushResponse, error) {
			return models.PushResponse{
				Acks: []models.PushAck{{OperationID: req.Operations[0].ID, Applied: false, ServerVersion: 5}},
			}, nil
		})

	f.backend.EXPECT().
		Pull(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req models.PullRequest) (models.PullResponse, error) {
			remote := checkinOp("op-server", 5)
			remote.Metadata.DeviceID = "tablet"
			remote.Metadata.CreatedAt = time.Now().Add(-time.Hour)
			remote.Payload = serverBlob
			return models.PullResponse{Operations: []*models.SyncOperation{remote}, Length: 1}, nil
		})

	// The superseding push must carry a version past both sides.
	resolvedPush := make(chan *models.SyncOperation, 1)
	f.backend.EXPECT().
		Push(gomock.Any(), gomock.Any()).
		After(first).
		DoAndReturn(func(_ context.Context, req models.PushRequest) (models.PushResponse, error) {
			resolvedPush <- req.Operations[0]
			return models.PushResponse{
				Acks: []models.PushAck{{OperationID: req.Operations[0].ID, Applied: true}},
			}, nil
		})

	op := checkinOp("op-local", 5) // same version as server: divergent writers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.engine.Start(ctx)
	defer f.engine.Stop()

	require.NoError(t, f.engine.Submit(ctx, op, localPayload))

	select {
	case sent := <-resolvedPush:
		assert.Equal(t, int64(6), sent.Metadata.Version)

		var envelope models.EncryptedEnvelope
		require.NoError(t, json.Unmarshal(sent.Payload, &envelope))
		plain, err := f.gate.Decrypt(&envelope)
		require.NoError(t, err)
		var merged map[string]any
		require.NoError(t, json.Unmarshal(plain, &merged))
		assert.Contains(t, merged, "tags")
		assert.Contains(t, merged, "sleep_hours")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for superseding push")
	}

	entry := awaitAudit(t, audits)
	assert.Equal(t, models.OutcomeConflict, entry.Outcome)
	assert.Equal(t, string(models.StrategyAssistedMerge), entry.Detail)

	applied, ok := f.detector.LastApplied(models.EntityKey{EntityType: models.EntityCheckIn, EntityID: "checkin-1"})
	assert.True(t, ok)
	assert.Equal(t, int64(6), applied)
}

// ── Crisis fallback ─────────────────────────────────────────────────────────

func TestSyncEngine_CrisisFailureFansOutAndEscalates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)
	f.registerDevices(t)
	audits := auditCapture(f)

	f.backend.EXPECT().
		Push(gomock.Any(), gomock.Any()).
		Return(models.PushResponse{}, fmt.Errorf("%w: connection refused", models.ErrNetwork))

	op := checkinOp("op-crisis-fail", 1)
	op.Crisis = &models.CrisisEnvelope{Level: models.CrisisCritical}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.engine.Start(ctx)

	require.NoError(t, f.engine.Submit(ctx, op, map[string]any{"mood": 0}))

	entry := awaitAudit(t, audits)
	assert.Equal(t, models.OutcomeEscalated, entry.Outcome)
	assert.True(t, entry.EmergencyAccess)

	f.engine.Stop() // waits for fanout delivery

	select {
	case alert := <-f.alerts:
		assert.Equal(t, "user-1", alert.UserID)
		assert.Equal(t, "phone", alert.SourceDeviceID)
		assert.Equal(t, models.CrisisCritical, alert.Level)
	default:
		t.Fatal("expected a crisis alert on the opted-in device")
	}
}

func TestSyncEngine_CrisisRetryExhaustionEscalatesThroughSink(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)
	f.registerDevices(t)
	auditCapture(f)

	// The push fails terminally well inside the 200ms requirement, so the
	// latency path never fires and the exhausted retry budget must raise
	// the escalation on its own.
	f.backend.EXPECT().
		Push(gomock.Any(), gomock.Any()).
		Return(models.PushResponse{}, fmt.Errorf("%w: connection refused", models.ErrNetwork))

	op := checkinOp("op-crisis-exhausted", 1)
	op.Crisis = &models.CrisisEnvelope{Level: models.CrisisHigh}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.engine.Start(ctx)

	require.NoError(t, f.engine.Submit(ctx, op, map[string]any{"mood": 1}))

	f.engine.Stop() // waits for escalation delivery

	select {
	case req := <-f.escalations:
		assert.Equal(t, "op-crisis-exhausted", req.OperationID)
		assert.Equal(t, models.ReasonRetriesExhausted, req.Reason)
	default:
		t.Fatal("expected an escalation after the crisis push exhausted its retries")
	}
	assert.Empty(t, f.escalations, "exactly one escalation per operation")
}

func TestSyncEngine_AuditFailureIsComplianceFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)
	f.registerDevices(t)

	f.backend.EXPECT().
		Push(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req models.PushRequest) (models.PushResponse, error) {
			return models.PushResponse{
				Acks:   []models.PushAck{{OperationID: req.Operations[0].ID, Applied: true}},
				Length: 1,
			}, nil
		})
	f.recorder.EXPECT().
		Record(gomock.Any(), gomock.Any()).
		Return(models.AuditEntry{}, errors.New("audit store unavailable"))

	op := checkinOp("op-audit-down", 3)
	err := f.engine.(*syncEngine).run(context.Background(), op)

	require.ErrorIs(t, err, models.ErrCompliance)

	// Without a durable audit entry the version is never marked applied.
	_, ok := f.detector.LastApplied(op.Key())
	assert.False(t, ok)
}

func TestSyncEngine_NonCrisisFailureDoesNotFanOut(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)
	f.registerDevices(t)
	audits := auditCapture(f)

	f.backend.EXPECT().
		Push(gomock.Any(), gomock.Any()).
		Return(models.PushResponse{}, errors.New("boom"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.engine.Start(ctx)

	require.NoError(t, f.engine.Submit(ctx, checkinOp("op-fail", 1), map[string]any{"mood": 5}))

	entry := awaitAudit(t, audits)
	assert.Equal(t, models.OutcomeFailed, entry.Outcome)
	assert.False(t, entry.EmergencyAccess)

	f.engine.Stop()
	assert.Empty(t, f.alerts)
}

// ── Pull and device registration ────────────────────────────────────────────

func TestSyncEngine_PullMarksVersionsApplied(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)

	remote := checkinOp("op-remote", 4)
	remote.Metadata.DeviceID = "tablet"

	f.backend.EXPECT().
		Pull(gomock.Any(), gomock.Any()).
		Return(models.PullResponse{Operations: []*models.SyncOperation{remote}, Length: 1}, nil)

	resp, err := f.engine.Pull(context.Background(), models.PullRequest{UserID: "user-1", DeviceID: "phone"})
	require.NoError(t, err)
	assert.Len(t, resp.Operations, 1)

	applied, ok := f.detector.LastApplied(remote.Key())
	assert.True(t, ok)
	assert.Equal(t, int64(4), applied)
}

func TestSyncEngine_RegisterDeviceSurvivesBackendFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)

	f.backend.EXPECT().
		RegisterDevice(gomock.Any(), gomock.Any()).
		Return(models.RegisterDeviceResponse{}, errors.New("backend down"))

	resp, err := f.engine.RegisterDevice(context.Background(), models.RegisterDeviceRequest{
		Device: models.DeviceRecord{ID: "phone", UserID: "user-1"},
		Tier:   models.TierFree,
	})
	require.NoError(t, err)
	assert.Equal(t, "phone", resp.Registered.ID)
	assert.Nil(t, resp.Evicted)

	_, ok := f.registry.Get("user-1", "phone")
	assert.True(t, ok)
}

func TestSyncEngine_RegisterDeviceReportsEviction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)

	f.backend.EXPECT().
		RegisterDevice(gomock.Any(), gomock.Any()).
		Return(models.RegisterDeviceResponse{}, nil).
		Times(3)

	for _, id := range []string{"phone", "tablet"} {
		_, err := f.engine.RegisterDevice(context.Background(), models.RegisterDeviceRequest{
			Device: models.DeviceRecord{ID: id, UserID: "user-1"},
			Tier:   models.TierFree,
		})
		require.NoError(t, err)
	}

	// Free tier caps at two devices: the third registration evicts.
	resp, err := f.engine.RegisterDevice(context.Background(), models.RegisterDeviceRequest{
		Device: models.DeviceRecord{ID: "web", UserID: "user-1"},
		Tier:   models.TierFree,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Evicted)
}

func TestSyncEngine_EmergencyResourcesAlwaysAvailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)
	f.engine.Stop() // resources must not depend on a running engine

	res := f.engine.EmergencyResources()
	assert.NotEmpty(t, res.Hotlines)
	assert.NotEmpty(t, res.Techniques)
}
