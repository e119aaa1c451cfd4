// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/models"
)

// tieredGate is the private implementation of [EncryptionGate].
type tieredGate struct {
	keys   *keyring
	policy RotationPolicy
	logger *logger.Logger
}

// NewEncryptionGate constructs an [EncryptionGate] over ring. ring must
// have been produced by [NewKeyring]; the gate reaches into its key
// material directly so that layer unwrapping never round-trips through a
// public interface.
func NewEncryptionGate(ring Keyring, policy RotationPolicy, log *logger.Logger) (EncryptionGate, error) {
	kr, ok := ring.(*keyring)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported keyring implementation %T", models.ErrEncryption, ring)
	}
	return &tieredGate{keys: kr, policy: policy, logger: log}, nil
}

// layersForTier returns the layer stack applied to a tier, innermost
// first. The content layer is mandatory for everyone.
func layersForTier(tier models.SubscriptionTier) []models.EncryptionLayer {
	if tier == models.TierPremium || tier == models.TierClinical {
		return []models.EncryptionLayer{models.LayerContent, models.LayerContext, models.LayerTransport}
	}
	return []models.EncryptionLayer{models.LayerContent}
}

func complianceForTier(tier models.SubscriptionTier) models.ComplianceLevel {
	switch tier {
	case models.TierClinical:
		return models.ComplianceHIPAA
	case models.TierPremium:
		return models.ComplianceEnhanced
	default:
		return models.ComplianceStandard
	}
}

// Encrypt implements [EncryptionGate].
func (g *tieredGate) Encrypt(payload []byte, tier models.SubscriptionTier, classification models.DataClassification) (*models.EncryptedEnvelope, error) {
	if !tier.Valid() {
		return nil, fmt.Errorf("%w: unknown subscription tier %q", models.ErrEncryption, tier)
	}

	tk, err := g.currentKey(tier)
	if err != nil {
		return nil, err
	}

	// Clinical rotation policy: encrypting under an overdue key is a
	// compliance failure, not a warning.
	if tier == models.TierClinical {
		if age := time.Since(tk.rotatedAt); age > g.policy.MaxAge(tier) {
			return nil, fmt.Errorf("%w: clinical key generation %d is %s old, rotation overdue",
				models.ErrEncryption, tk.generation, age.Round(time.Second))
		}
	}

	layers := layersForTier(tier)
	blob := payload
	for _, layer := range layers {
		blob, err = seal(layerKey(tk, layer), blob)
		if err != nil {
			return nil, fmt.Errorf("%w: seal %s layer: %w", models.ErrEncryption, layer, err)
		}
	}

	g.logger.Debug().
		Str("tier", string(tier)).
		Int("layers", len(layers)).
		Int("key_generation", tk.generation).
		Msg("payload encrypted")

	return &models.EncryptedEnvelope{
		Layers:         layers,
		Blob:           base64.StdEncoding.EncodeToString(blob),
		Tier:           tier,
		Classification: classification,
		KeyGeneration:  tk.generation,
		Compliance:     complianceForTier(tier),
		EncryptedAt:    time.Now(),
	}, nil
}

// Decrypt implements [EncryptionGate]. Layers are unwrapped in reverse of
// the order they were applied.
func (g *tieredGate) Decrypt(envelope *models.EncryptedEnvelope) ([]byte, error) {
	if envelope == nil || len(envelope.Layers) == 0 {
		return nil, fmt.Errorf("%w: empty envelope", models.ErrEncryption)
	}

	tk, err := g.keys.material(envelope.Tier, envelope.KeyGeneration)
	if err != nil {
		return nil, err
	}

	blob, err := base64.StdEncoding.DecodeString(envelope.Blob)
	if err != nil {
		return nil, fmt.Errorf("%w: decode envelope blob: %w", models.ErrEncryption, err)
	}

	for i := len(envelope.Layers) - 1; i >= 0; i-- {
		blob, err = open(layerKey(tk, envelope.Layers[i]), blob)
		if err != nil {
			return nil, fmt.Errorf("%w: open %s layer: %w", models.ErrEncryption, envelope.Layers[i], err)
		}
	}
	return blob, nil
}

func (g *tieredGate) currentKey(tier models.SubscriptionTier) (*tierKey, error) {
	g.keys.mu.RLock()
	defer g.keys.mu.RUnlock()

	tk, ok := g.keys.current[tier]
	if !ok {
		return nil, fmt.Errorf("%w: no key material for tier %q", models.ErrEncryption, tier)
	}
	return tk, nil
}

// seal encrypts plaintext with AES-256-GCM under key. A random 12-byte
// nonce is prepended to the ciphertext: blob = nonce ‖ ciphertext.
func seal(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return append(nonce, gcm.Seal(nil, nonce, plaintext, nil)...), nil
}

// open reverses seal. An authentication-tag mismatch almost always means
// the wrong key generation was selected for the envelope.
func open(key, blob []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(blob) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := blob[:nonceSize], blob[nonceSize:]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
