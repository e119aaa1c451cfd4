package crypto

import (
	"context"
	"time"

	"github.com/havenmind/syncd/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/crypto_mock.go -package=mock

// EncryptionGate wraps sanitized payloads in one to three independent
// AES-256-GCM layers depending on subscription tier:
//
//	content    : always present
//	context    : premium and clinical
//	transport  : premium and clinical
//
// The clinical tier additionally enforces the key-rotation policy and
// records a compliance level on the output. If required key material is
// unavailable the call fails with models.ErrEncryption and the operation
// must not proceed to the scheduler.
type EncryptionGate interface {
	// Encrypt produces the layered envelope for payload. Layer count and
	// compliance level are derived from tier; the retention classification
	// is carried through for the audit recorder.
	Encrypt(payload []byte, tier models.SubscriptionTier, classification models.DataClassification) (*models.EncryptedEnvelope, error)

	// Decrypt unwraps every layer of envelope and returns the original
	// sanitized payload. Envelopes encrypted under a rotated-out key
	// generation fail with models.ErrEncryption.
	Decrypt(envelope *models.EncryptedEnvelope) ([]byte, error)
}

// Keyring owns the per-tier key material. Rotation is a maintenance
// operation: it derives a fresh generation off-lock and swaps it in, so
// in-flight encrypt and decrypt calls are never blocked behind key
// derivation.
type Keyring interface {
	// Rotate derives the next key generation for tier. Bounded by ctx;
	// the previous generation stays available for decryption.
	Rotate(ctx context.Context, tier models.SubscriptionTier) error

	// Generation returns the current key generation for tier and the time
	// it was rotated in.
	Generation(tier models.SubscriptionTier) (int, time.Time)
}
