// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides transport-layer abstractions for communicating with
// the sync backend.
//
// The primary abstraction is [BackendAdapter], which decouples the sync engine
// from the underlying protocol. The package ships an HTTP/REST implementation
// ([NewHTTPBackendAdapter]) built on resty.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic error
// handling (e.g. [ErrConflict] for 409, [ErrUnauthorized] for 401). Transport
// failures that never produced a response wrap [models.ErrNetwork], which the
// engine treats as retryable.
package adapter

import (
	"context"

	"github.com/havenmind/syncd/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/backend_adapter_mock.go -package=mock

// BackendAdapter defines transport-agnostic communication with the sync
// backend. Implementations are responsible for serialisation, authentication
// header management, retry policy, and mapping transport-level errors to the
// sentinel values defined in this package.
//
// Retry behaviour is priority-aware: batches containing a crisis or emergency
// operation fail fast so the engine can fall back to local crisis handling,
// while routine batches retry with bounded exponential backoff.
type BackendAdapter interface {
	// SetToken stores the bearer token that will be attached to all subsequent
	// authenticated requests.
	SetToken(token string)

	// Token returns the bearer token currently stored in the adapter, or an
	// empty string if no token has been set yet.
	Token() string

	// Push sends a batch of sync operations to the backend. A transport
	// integrity hash covering the payload is computed and attached to the
	// request automatically. Returns the per-operation acknowledgements, or
	// [ErrConflict] (wrapped) if the backend detects a version conflict for
	// the whole batch.
	Push(ctx context.Context, req models.PushRequest) (models.PushResponse, error)

	// Pull retrieves operations the device has not yet applied for the entity
	// keys named in req.SinceVersions. An empty map requests everything the
	// backend holds for the user.
	Pull(ctx context.Context, req models.PullRequest) (models.PullResponse, error)

	// RegisterDevice enrolls a device into the user's registry on the backend.
	// The response reports the registered record and any device that was
	// evicted to make room under the subscription tier limit.
	RegisterDevice(ctx context.Context, req models.RegisterDeviceRequest) (models.RegisterDeviceResponse, error)
}
