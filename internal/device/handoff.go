// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/internal/utils"
	"github.com/havenmind/syncd/models"
)

// HandoffBroker coordinates transferring an in-progress session from one
// of a user's devices to another. The offer carries a short-lived signed
// token; the target must present it when accepting. An offer the target
// does not answer within the timeout resolves to HandoffTimeout and the
// source resumes the session locally.
type HandoffBroker struct {
	registry *Registry
	issuer   string
	signKey  string
	timeout  time.Duration
	logger   *logger.Logger

	mu      sync.Mutex
	pending map[string]chan models.HandoffStatus
}

func NewHandoffBroker(registry *Registry, issuer, signKey string, timeout time.Duration, log *logger.Logger) *HandoffBroker {
	if timeout <= 0 {
		timeout = models.DefaultHandoffTimeout
	}
	return &HandoffBroker{
		registry: registry,
		issuer:   issuer,
		signKey:  signKey,
		timeout:  timeout,
		logger:   log,
		pending:  make(map[string]chan models.HandoffStatus),
	}
}

// Offer validates a handoff and returns the message ready for delivery
// to the target device, with the token minted and OfferedAt stamped. The
// caller then delivers the message and waits on Await.
func (b *HandoffBroker) Offer(userID string, msg models.HandoffMessage) (models.HandoffMessage, error) {
	if msg.SessionID == "" {
		return msg, fmt.Errorf("%w: handoff offer has no session id", models.ErrValidation)
	}
	if msg.SourceDeviceID == msg.TargetDeviceID {
		return msg, fmt.Errorf("%w: handoff source and target are the same device", models.ErrValidation)
	}

	source, ok := b.registry.Get(userID, msg.SourceDeviceID)
	if !ok {
		return msg, fmt.Errorf("%w: source device %s is not registered", models.ErrValidation, msg.SourceDeviceID)
	}
	if !source.Capabilities.CanOriginateHandoff {
		return msg, fmt.Errorf("%w: device %s cannot originate handoffs", models.ErrValidation, msg.SourceDeviceID)
	}

	target, ok := b.registry.Get(userID, msg.TargetDeviceID)
	if !ok {
		return msg, fmt.Errorf("%w: target device %s is not registered", models.ErrValidation, msg.TargetDeviceID)
	}
	if !target.Capabilities.CanAcceptHandoff {
		return msg, fmt.Errorf("%w: device %s cannot accept handoffs", models.ErrValidation, msg.TargetDeviceID)
	}

	token, err := utils.GenerateHandoffToken(b.issuer, msg.SessionID, msg.TargetDeviceID, b.timeout, b.signKey)
	if err != nil {
		return msg, fmt.Errorf("mint handoff token: %w", err)
	}
	msg.Token = token
	msg.OfferedAt = time.Now()

	b.mu.Lock()
	if _, dup := b.pending[msg.SessionID]; dup {
		b.mu.Unlock()
		return msg, fmt.Errorf("%w: session %s already has an open handoff offer", models.ErrValidation, msg.SessionID)
	}
	b.pending[msg.SessionID] = make(chan models.HandoffStatus, 1)
	b.mu.Unlock()

	b.logger.Info().
		Str("session_id", msg.SessionID).
		Str("session_type", string(msg.SessionType)).
		Str("source_device", msg.SourceDeviceID).
		Str("target_device", msg.TargetDeviceID).
		Msg("session handoff offered")

	return msg, nil
}

// Await blocks until the target answers the offer, the timeout elapses,
// or ctx is cancelled. Timeout and cancellation both resolve to
// HandoffTimeout so the source resumes the session locally.
func (b *HandoffBroker) Await(ctx context.Context, sessionID string) (models.HandoffStatus, error) {
	b.mu.Lock()
	answer, ok := b.pending[sessionID]
	b.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: no open handoff offer for session %s", models.ErrValidation, sessionID)
	}
	defer b.clear(sessionID)

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case status := <-answer:
		return status, nil
	case <-timer.C:
	case <-ctx.Done():
	}

	b.logger.Warn().
		Str("session_id", sessionID).
		Dur("timeout", b.timeout).
		Msg("handoff offer unanswered, session resumes on source device")
	return models.HandoffTimeout, nil
}

// Accept records the target device picking up the session. The token
// must be the one minted for this session and device.
func (b *HandoffBroker) Accept(sessionID, deviceID, token string) error {
	tokenSession, tokenDevice, err := utils.ValidateHandoffToken(token, b.signKey, b.issuer)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	if tokenSession != sessionID || tokenDevice != deviceID {
		return fmt.Errorf("%w: handoff token was minted for another session or device", models.ErrValidation)
	}
	return b.answer(sessionID, models.HandoffAccepted)
}

// Reject records the target declining the offer.
func (b *HandoffBroker) Reject(sessionID string) error {
	return b.answer(sessionID, models.HandoffRejected)
}

func (b *HandoffBroker) answer(sessionID string, status models.HandoffStatus) error {
	b.mu.Lock()
	answer, ok := b.pending[sessionID]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: no open handoff offer for session %s", models.ErrValidation, sessionID)
	}

	select {
	case answer <- status:
		return nil
	default:
		return fmt.Errorf("%w: handoff offer for session %s was already answered", models.ErrValidation, sessionID)
	}
}

func (b *HandoffBroker) clear(sessionID string) {
	b.mu.Lock()
	delete(b.pending, sessionID)
	b.mu.Unlock()
}
