package models

import "time"

// SubscriptionTier gates encryption depth, device limits and retention.
type SubscriptionTier string

const (
	TierFree     SubscriptionTier = "free"
	TierPremium  SubscriptionTier = "premium"
	TierClinical SubscriptionTier = "clinical"
)

// DeviceLimit is the maximum number of registered devices per tier.
// Registering beyond the limit evicts the least-recently-active device.
func (t SubscriptionTier) DeviceLimit() int {
	switch t {
	case TierClinical:
		return 10
	case TierPremium:
		return 5
	default:
		return 2
	}
}

// Valid reports whether t is a known tier.
func (t SubscriptionTier) Valid() bool {
	return t == TierFree || t == TierPremium || t == TierClinical
}

// DeviceCapabilities describes what a registered device can participate in.
type DeviceCapabilities struct {
	CanOriginateHandoff bool `json:"can_originate_handoff"`
	CanAcceptHandoff    bool `json:"can_accept_handoff"`
	SupportsPush        bool `json:"supports_push"`
}

// DevicePreferences holds per-device sync settings.
type DevicePreferences struct {
	SyncInterval time.Duration `json:"sync_interval"`
	CrisisAlerts bool          `json:"crisis_alerts"`
}

// DeviceStats is the rolling performance record updated after every
// operation the device originates.
type DeviceStats struct {
	AvgLatency   time.Duration `json:"avg_latency"`
	Reliability  float64       `json:"reliability"` // 0..1, EWMA of success
	Operations   int64         `json:"operations"`
	LastActiveAt time.Time     `json:"last_active_at"`
}

// DeviceRecord is one entry in the cross-device registry.
type DeviceRecord struct {
	ID           string             `json:"id"`
	UserID       string             `json:"user_id"`
	Name         string             `json:"name"`
	Platform     string             `json:"platform"` // "ios", "android", "web"
	Capabilities DeviceCapabilities `json:"capabilities"`
	Preferences  DevicePreferences  `json:"preferences"`
	Stats        DeviceStats        `json:"stats"`
	RegisteredAt time.Time          `json:"registered_at"`
}
