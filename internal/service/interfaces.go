// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package service wires the sync pipeline together: sanitization,
// tiered encryption, priority scheduling, conflict resolution, SLA
// monitoring, and compliance auditing.
//
// The central abstraction is [SyncEngine]. A submitted operation flows
// through sanitize → encrypt → enqueue; a reserved worker pool drains the
// queue and pushes batches to the backend, detecting and resolving version
// conflicts along the way. Every terminal outcome lands in the audit log.
package service

import (
	"context"

	"github.com/havenmind/syncd/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/sync_engine_mock.go -package=mock

// SyncEngine is the device-facing facade of the sync pipeline.
type SyncEngine interface {
	// Start launches the worker pool. The engine accepts submissions
	// before Start, but nothing executes until the pool is running.
	Start(ctx context.Context)

	// Stop drains and shuts down the engine: the queue stops accepting
	// work, in-flight operations finish, and pending escalations and
	// crisis notifications are delivered before Stop returns.
	Stop()

	// Submit runs the intake pipeline for one operation: validation,
	// crisis priority lift, PII sanitization of payload, tiered
	// encryption, and enqueueing. The sanitized-and-encrypted result
	// replaces op.Payload before the operation enters the scheduler.
	//
	// Returns models.ErrPIIViolation if payload cannot be sanitized
	// safely, models.ErrEncryption if the gate rejects the payload, or a
	// scheduler error if the queue is full. Rejections are audited.
	Submit(ctx context.Context, op *models.SyncOperation, payload map[string]any) error

	// Pull fetches operations the device has not yet applied and records
	// their versions as applied so subsequent pushes conflict-check
	// against the right baseline.
	Pull(ctx context.Context, req models.PullRequest) (models.PullResponse, error)

	// RegisterDevice enrolls a device locally and, best-effort, with the
	// backend. The response names any device evicted under the
	// subscription tier limit.
	RegisterDevice(ctx context.Context, req models.RegisterDeviceRequest) (models.RegisterDeviceResponse, error)

	// EmergencyResources returns the offline-safe crisis fallback set.
	// It never fails and requires no connectivity.
	EmergencyResources() models.EmergencyResources
}
