// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/argon2"

	"github.com/havenmind/syncd/models"
)

// RotationPolicy is the maximum key age per tier before the clinical
// rotation check starts rejecting encrypt calls.
type RotationPolicy struct {
	Clinical time.Duration
	Premium  time.Duration
	Free     time.Duration
}

// DefaultRotationPolicy matches the compliance posture of each tier:
// clinical keys rotate daily, premium weekly, free monthly.
func DefaultRotationPolicy() RotationPolicy {
	return RotationPolicy{
		Clinical: 24 * time.Hour,
		Premium:  7 * 24 * time.Hour,
		Free:     30 * 24 * time.Hour,
	}
}

// MaxAge returns the rotation ceiling for tier.
func (p RotationPolicy) MaxAge(tier models.SubscriptionTier) time.Duration {
	switch tier {
	case models.TierClinical:
		return p.Clinical
	case models.TierPremium:
		return p.Premium
	default:
		return p.Free
	}
}

// tierKey is one derived key generation for a tier.
type tierKey struct {
	key        []byte
	generation int
	rotatedAt  time.Time
}

// keyring is the private implementation of [Keyring]. Per-tier keys are
// derived from a master secret with Argon2id; each rotation bumps the
// generation and re-derives. The previous generation is retained so
// envelopes encrypted just before a rotation still decrypt.
type keyring struct {
	masterSecret []byte
	policy       RotationPolicy

	// Argon2id tuning parameters, as recommended by OWASP (2024).
	argonTime    uint32
	argonMemory  uint32
	argonThreads uint8
	argonKeyLen  uint32

	mu       sync.RWMutex
	current  map[models.SubscriptionTier]*tierKey
	previous map[models.SubscriptionTier]*tierKey
}

// NewKeyring derives generation-1 keys for every tier from masterSecret.
// An empty master secret is rejected: a keyring without material would turn
// every encrypt call into an ErrEncryption at the gate.
func NewKeyring(masterSecret string, policy RotationPolicy) (Keyring, error) {
	if masterSecret == "" {
		return nil, fmt.Errorf("%w: master secret is empty", models.ErrEncryption)
	}

	k := &keyring{
		masterSecret: []byte(masterSecret),
		policy:       policy,
		argonTime:    1,
		argonMemory:  64 * 1024, // 64 MiB
		argonThreads: 4,
		argonKeyLen:  32, // 256 bits
		current:      make(map[models.SubscriptionTier]*tierKey),
		previous:     make(map[models.SubscriptionTier]*tierKey),
	}

	for _, tier := range []models.SubscriptionTier{models.TierFree, models.TierPremium, models.TierClinical} {
		k.current[tier] = k.derive(tier, 1)
	}
	return k, nil
}

// Rotate implements [Keyring]. Derivation runs off-lock: Argon2id takes
// tens of milliseconds, and the scheduler's encrypt path must not wait on
// it. Only the final map swap takes the write lock.
func (k *keyring) Rotate(ctx context.Context, tier models.SubscriptionTier) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("rotate %s: %w", tier, err)
	}

	k.mu.RLock()
	cur, ok := k.current[tier]
	k.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: no key material for tier %q", models.ErrEncryption, tier)
	}

	next := k.derive(tier, cur.generation+1)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("rotate %s: %w", tier, err)
	}

	k.mu.Lock()
	k.previous[tier] = k.current[tier]
	k.current[tier] = next
	k.mu.Unlock()

	return nil
}

// Generation implements [Keyring].
func (k *keyring) Generation(tier models.SubscriptionTier) (int, time.Time) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	cur, ok := k.current[tier]
	if !ok {
		return 0, time.Time{}
	}
	return cur.generation, cur.rotatedAt
}

// material returns the tier key for a specific generation. Only the
// current and previous generations are available; older envelopes must be
// re-encrypted by a full sync before their generation is retired.
func (k *keyring) material(tier models.SubscriptionTier, generation int) (*tierKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if cur, ok := k.current[tier]; ok && cur.generation == generation {
		return cur, nil
	}
	if prev, ok := k.previous[tier]; ok && prev.generation == generation {
		return prev, nil
	}
	return nil, fmt.Errorf("%w: no key for tier %q generation %d", models.ErrEncryption, tier, generation)
}

// derive computes the Argon2id tier key for a generation. The salt is
// SHA-256(tier ‖ generation): deterministic, so the same master secret
// always reproduces the same generation key across restarts.
func (k *keyring) derive(tier models.SubscriptionTier, generation int) *tierKey {
	salt := sha256.Sum256([]byte(string(tier) + ":" + strconv.Itoa(generation)))
	key := argon2.IDKey(k.masterSecret, salt[:16], k.argonTime, k.argonMemory, k.argonThreads, k.argonKeyLen)
	return &tierKey{key: key, generation: generation, rotatedAt: time.Now()}
}

// layerKey derives the per-layer subkey from a tier key via HMAC-SHA256.
// The layer name domain-separates the three envelope layers so they are
// cryptographically independent even within one generation.
func layerKey(tk *tierKey, layer models.EncryptionLayer) []byte {
	h := hmac.New(sha256.New, tk.key)
	h.Write([]byte("layer:" + string(layer)))
	return h.Sum(nil)
}
