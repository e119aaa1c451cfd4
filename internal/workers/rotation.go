// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"sync"
	"time"

	"github.com/havenmind/syncd/internal/crypto"
	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/models"
)

// rotationWorker periodically checks the age of every tier's key
// generation and rotates the ones past their policy ceiling. Rotation is
// bounded so a stuck derivation cannot pile up ticks.
type rotationWorker struct {
	interval time.Duration
	ring     crypto.Keyring
	policy   crypto.RotationPolicy
	logger   *logger.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func newRotationWorker(interval time.Duration, ring crypto.Keyring, policy crypto.RotationPolicy, log *logger.Logger) *rotationWorker {
	return &rotationWorker{
		interval: interval,
		ring:     ring,
		policy:   policy,
		logger:   log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (w *rotationWorker) Run() {
	go func() {
		defer close(w.done)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				w.sweep()
			case <-w.stop:
				return
			}
		}
	}()
}

func (w *rotationWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}

func (w *rotationWorker) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), w.interval)
	defer cancel()

	for _, tier := range []models.SubscriptionTier{models.TierFree, models.TierPremium, models.TierClinical} {
		generation, rotatedAt := w.ring.Generation(tier)
		age := time.Since(rotatedAt)
		if age < w.policy.MaxAge(tier) {
			continue
		}

		if err := w.ring.Rotate(ctx, tier); err != nil {
			w.logger.Err(err).
				Str("tier", string(tier)).
				Int("generation", generation).
				Msg("tier key rotation failed")
			continue
		}

		w.logger.Info().
			Str("tier", string(tier)).
			Int("old_generation", generation).
			Dur("key_age", age).
			Msg("tier key rotated")
	}
}
