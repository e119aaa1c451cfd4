// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/models"
)

// Registry is the in-memory cross-device registry. It enforces the
// per-tier device limit: registering past the limit evicts the
// least-recently-active device rather than rejecting the new one, so a
// user who just bought a new phone is never locked out.
type Registry struct {
	logger *logger.Logger

	mu      sync.RWMutex
	tiers   map[string]models.SubscriptionTier
	devices map[string]map[string]*models.DeviceRecord // userID -> deviceID -> record
}

func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		logger:  log,
		tiers:   make(map[string]models.SubscriptionTier),
		devices: make(map[string]map[string]*models.DeviceRecord),
	}
}

// Register adds rec to the user's registry under the given tier. When
// the tier limit is already reached, the least-recently-active device is
// evicted and returned so callers can notify it. Re-registering an
// existing device updates it in place and never evicts.
func (r *Registry) Register(tier models.SubscriptionTier, rec models.DeviceRecord) (*models.DeviceRecord, error) {
	if !tier.Valid() {
		return nil, fmt.Errorf("%w: unknown subscription tier %q", models.ErrValidation, tier)
	}
	if rec.ID == "" || rec.UserID == "" {
		return nil, fmt.Errorf("%w: device registration requires device and user ids", models.ErrValidation)
	}
	if rec.RegisteredAt.IsZero() {
		rec.RegisteredAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tiers[rec.UserID] = tier
	perUser := r.devices[rec.UserID]
	if perUser == nil {
		perUser = make(map[string]*models.DeviceRecord)
		r.devices[rec.UserID] = perUser
	}

	var evicted *models.DeviceRecord
	if prev, exists := perUser[rec.ID]; exists {
		// Update in place: the rolling stats and original registration
		// time belong to the registry, not the caller.
		rec.Stats = prev.Stats
		rec.RegisteredAt = prev.RegisteredAt
	} else if len(perUser) >= tier.DeviceLimit() {
		evicted = r.evictIdlestLocked(perUser)
	}

	perUser[rec.ID] = &rec

	r.logger.Info().
		Str("user_id", rec.UserID).
		Str("device_id", rec.ID).
		Str("tier", string(tier)).
		Bool("evicted", evicted != nil).
		Msg("device registered")

	return evicted, nil
}

// evictIdlestLocked removes and returns the least-recently-active device.
// Devices with no recorded activity fall back to their registration time.
func (r *Registry) evictIdlestLocked(perUser map[string]*models.DeviceRecord) *models.DeviceRecord {
	var victim *models.DeviceRecord
	for _, d := range perUser {
		if victim == nil || lastActive(d).Before(lastActive(victim)) {
			victim = d
		}
	}
	if victim != nil {
		delete(perUser, victim.ID)
		r.logger.Warn().
			Str("user_id", victim.UserID).
			Str("device_id", victim.ID).
			Time("last_active", lastActive(victim)).
			Msg("device limit reached, evicting least recently active device")
	}
	return victim
}

func lastActive(d *models.DeviceRecord) time.Time {
	if d.Stats.LastActiveAt.IsZero() {
		return d.RegisteredAt
	}
	return d.Stats.LastActiveAt
}

// Get returns the registered device, or false when unknown.
func (r *Registry) Get(userID, deviceID string) (models.DeviceRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[userID][deviceID]
	if !ok {
		return models.DeviceRecord{}, false
	}
	return *d, true
}

// List returns all of the user's registered devices in unspecified order.
func (r *Registry) List(userID string) []models.DeviceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.DeviceRecord, 0, len(r.devices[userID]))
	for _, d := range r.devices[userID] {
		out = append(out, *d)
	}
	return out
}

// Remove unregisters the device. Removing an unknown device is a no-op.
func (r *Registry) Remove(userID, deviceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.devices[userID], deviceID)
}

// Sweep removes every device whose last activity is older than the idle
// horizon and returns the pruned records. Devices that never completed an
// operation age from their registration time instead.
func (r *Registry) Sweep(horizon time.Duration) []models.DeviceRecord {
	cutoff := time.Now().Add(-horizon)

	r.mu.Lock()
	defer r.mu.Unlock()

	var pruned []models.DeviceRecord
	for userID, perUser := range r.devices {
		for deviceID, d := range perUser {
			if lastActive(d).After(cutoff) {
				continue
			}
			pruned = append(pruned, *d)
			delete(perUser, deviceID)
		}
		if len(perUser) == 0 {
			delete(r.devices, userID)
			delete(r.tiers, userID)
		}
	}
	return pruned
}

// Tier returns the user's subscription tier, defaulting to free for
// users who never registered a device.
func (r *Registry) Tier(userID string) models.SubscriptionTier {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if t, ok := r.tiers[userID]; ok {
		return t
	}
	return models.TierFree
}

// Touch folds one finished operation into the device's rolling stats:
// latency is averaged over the operation count and reliability is an
// exponentially weighted success rate.
func (r *Registry) Touch(userID, deviceID string, latency time.Duration, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[userID][deviceID]
	if !ok {
		return
	}

	s := &d.Stats
	s.Operations++
	s.AvgLatency += (latency - s.AvgLatency) / time.Duration(s.Operations)

	const alpha = 0.2
	outcome := 0.0
	if success {
		outcome = 1.0
	}
	if s.Operations == 1 {
		s.Reliability = outcome
	} else {
		s.Reliability = alpha*outcome + (1-alpha)*s.Reliability
	}
	s.LastActiveAt = time.Now()
}
