package models

import "time"

// EncryptionLayer names one independent layer of the tiered envelope.
type EncryptionLayer string

const (
	LayerContent   EncryptionLayer = "content"
	LayerContext   EncryptionLayer = "context"
	LayerTransport EncryptionLayer = "transport"
)

// ComplianceLevel records the regulatory posture of an encrypted envelope.
type ComplianceLevel string

const (
	ComplianceStandard ComplianceLevel = "standard"
	ComplianceEnhanced ComplianceLevel = "enhanced"
	ComplianceHIPAA    ComplianceLevel = "hipaa"
)

// EncryptedEnvelope is the output of the tiered encryption gate: the
// payload wrapped in one to three AES-256-GCM layers, innermost first in
// Layers. Blob is base64 of the outermost layer's nonce-prefixed
// ciphertext.
type EncryptedEnvelope struct {
	Layers         []EncryptionLayer  `json:"layers"`
	Blob           string             `json:"blob"`
	Tier           SubscriptionTier   `json:"tier"`
	Classification DataClassification `json:"classification"`
	KeyGeneration  int                `json:"key_generation"`
	Compliance     ComplianceLevel    `json:"compliance"`
	EncryptedAt    time.Time          `json:"encrypted_at"`
}
