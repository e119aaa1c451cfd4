// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// PushRequest carries one or more sync operations from a device to the
// backend. Payloads inside the operations are already sanitized and
// encrypted; the backend never sees plaintext therapeutic content.
type PushRequest struct {
	// UserID is the owner of every operation in the batch.
	UserID string `json:"user_id"`

	// DeviceID is the originating device.
	DeviceID string `json:"device_id"`

	// Operations is the batch being pushed, in enqueue order.
	Operations []*SyncOperation `json:"operations"`

	// Length is the total number of entries in Operations.
	Length int `json:"length"`
}

// PushAck is the backend's per-operation verdict for a push.
type PushAck struct {
	// OperationID identifies the acknowledged operation.
	OperationID string `json:"operation_id"`

	// Applied reports whether the backend accepted and applied the
	// operation's version.
	Applied bool `json:"applied"`

	// ServerVersion is the version the backend now holds for the
	// operation's entity key. When Applied is false this is the version
	// that conflicted with the pushed one.
	ServerVersion int64 `json:"server_version"`
}

// PushResponse acknowledges a PushRequest batch.
type PushResponse struct {
	Acks []PushAck `json:"acks"`

	// Length is the total number of entries in Acks.
	Length int `json:"length"`
}

// PullRequest asks the backend for operations newer than what the device
// has seen for the given entity keys.
type PullRequest struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id"`

	// SinceVersions maps entity key strings to the last version the
	// device has applied. An empty map requests everything.
	SinceVersions map[string]int64 `json:"since_versions,omitempty"`
}

// PullResponse returns the operations the device is missing.
type PullResponse struct {
	Operations []*SyncOperation `json:"operations"`

	// Length is the total number of entries in Operations.
	Length int `json:"length"`
}

// RegisterDeviceRequest enrolls a device into the user's registry.
type RegisterDeviceRequest struct {
	Device DeviceRecord     `json:"device"`
	Tier   SubscriptionTier `json:"tier"`
}

// RegisterDeviceResponse reports the registration outcome, including any
// device that was evicted to make room under the tier limit.
type RegisterDeviceResponse struct {
	Registered DeviceRecord  `json:"registered"`
	Evicted    *DeviceRecord `json:"evicted,omitempty"`
}
