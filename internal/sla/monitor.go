// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package sla measures end-to-end operation latency against the required
// response time and raises escalation events on violation.
//
// Escalation is automatic: callers wrap execution in Measure and never
// escalate by hand. It is also best-effort: a failing or panicking sink
// is logged and never surfaces back into the measured operation's path.
// Non-crisis operations that miss their SLA are logged, not escalated.
package sla

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/models"
)

//go:generate mockgen -source=monitor.go -destination=../mock/sla_mock.go -package=mock

// Sink receives escalation requests. Implementations must be safe for
// concurrent use; delivery errors are reported back for logging only.
type Sink interface {
	Escalate(ctx context.Context, req models.EscalationRequest) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, req models.EscalationRequest) error

func (f SinkFunc) Escalate(ctx context.Context, req models.EscalationRequest) error {
	return f(ctx, req)
}

// Monitor wraps operation execution with latency measurement. One monitor
// serves the whole engine; it owns its violation bookkeeping and is safe
// for concurrent use.
type Monitor struct {
	sink   Sink
	logger *logger.Logger

	mu        sync.Mutex
	escalated map[string]struct{}
	wg        sync.WaitGroup
}

func NewMonitor(sink Sink, log *logger.Logger) *Monitor {
	return &Monitor{
		sink:      sink,
		logger:    log,
		escalated: make(map[string]struct{}),
	}
}

// Measure runs fn, records its latency, and applies the SLA policy for
// op. The measured error is returned unchanged: an SLA violation never
// blocks or fails the operation's own completion.
func (m *Monitor) Measure(ctx context.Context, op *models.SyncOperation, fn func(ctx context.Context) error) (time.Duration, error) {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	// The violation report is discarded here: it escalated already and
	// must not surface as the operation's own error.
	_ = m.Observe(op, elapsed)
	return elapsed, err
}

// Observe applies the SLA policy to an already-measured latency. Exposed
// separately from Measure so the policy boundary can be exercised without
// wall-clock sleeps.
//
// The returned error wraps [models.ErrSLAViolation] when the latency
// exceeded the requirement. It is informational: the violation never fails
// the measured operation, and callers that only want the escalation side
// effect may discard it.
func (m *Monitor) Observe(op *models.SyncOperation, elapsed time.Duration) error {
	required := op.ResponseTimeRequirement()
	if elapsed <= required {
		return nil
	}

	violation := fmt.Errorf("%w: %s took %s, required %s", models.ErrSLAViolation, op.ID, elapsed, required)

	if !op.CrisisFlagged() {
		m.logger.Warn().
			Str("operation_id", op.ID).
			Dur("elapsed", elapsed).
			Dur("required", required).
			Msg("sla missed on non-crisis operation")
		return violation
	}

	if !m.markEscalated(op.ID) {
		return violation
	}

	req := models.EscalationRequest{
		OperationID:   op.ID,
		Level:         escalationLevel(op),
		Reason:        models.ReasonResponseTimeExceeded,
		Elapsed:       elapsed,
		Attempts:      1,
		ImmediateRisk: op.Crisis.Active() && op.Crisis.Level >= models.CrisisCritical,
		RaisedAt:      time.Now(),
	}

	m.wg.Add(1)
	go m.deliver(req)
	return violation
}

// EscalateFailure raises an escalation for a crisis-flagged operation that
// failed terminally, typically on an exhausted retry budget. It shares the
// once-per-operation bookkeeping with Observe, so an operation that
// already escalated for latency does not escalate a second time.
func (m *Monitor) EscalateFailure(op *models.SyncOperation, reason models.EscalationReason, elapsed time.Duration) {
	if !op.CrisisFlagged() || !m.markEscalated(op.ID) {
		return
	}

	m.wg.Add(1)
	go m.deliver(models.EscalationRequest{
		OperationID:   op.ID,
		Level:         escalationLevel(op),
		Reason:        reason,
		Elapsed:       elapsed,
		Attempts:      1,
		ImmediateRisk: op.Crisis.Active() && op.Crisis.Level >= models.CrisisCritical,
		RaisedAt:      time.Now(),
	})
}

// markEscalated claims the single escalation slot for an operation.
func (m *Monitor) markEscalated(opID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, done := m.escalated[opID]; done {
		return false
	}
	m.escalated[opID] = struct{}{}
	return true
}

// Wait blocks until every in-flight escalation delivery has finished.
// Used on shutdown and in tests.
func (m *Monitor) Wait() {
	m.wg.Wait()
}

// deliver pushes one escalation to the sink. Failures and panics are
// contained here: escalation is best-effort and must never propagate into
// the measured operation's caller.
func (m *Monitor) deliver(req models.EscalationRequest) {
	defer m.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().
				Str("operation_id", req.OperationID).
				Any("panic", r).
				Msg("escalation sink panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.sink.Escalate(ctx, req); err != nil {
		m.logger.Err(err).
			Str("operation_id", req.OperationID).
			Str("reason", string(req.Reason)).
			Msg("escalation delivery failed")
		return
	}

	m.logger.Info().
		Str("operation_id", req.OperationID).
		Str("level", string(req.Level)).
		Str("reason", string(req.Reason)).
		Dur("elapsed", req.Elapsed).
		Msg("escalation raised")
}

// escalationLevel derives who is pulled in from the crisis envelope.
func escalationLevel(op *models.SyncOperation) models.EscalationLevel {
	switch {
	case op.Crisis.Active() && op.Crisis.Level >= models.CrisisEmergency:
		return models.EscalationEmergencyServices
	case op.Crisis.Active() && op.Crisis.Level >= models.CrisisCritical:
		return models.EscalationClinical
	default:
		return models.EscalationAutomated
	}
}
