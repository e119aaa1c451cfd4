package workers

import (
	"context"
	"testing"
	"time"

	"github.com/havenmind/syncd/internal/audit"
	"github.com/havenmind/syncd/internal/config"
	"github.com/havenmind/syncd/internal/crypto"
	"github.com/havenmind/syncd/internal/device"
	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotationWorker_RotatesExpiredTiers(t *testing.T) {
	// A zero-duration policy makes every key immediately overdue.
	policy := crypto.RotationPolicy{Clinical: 0, Premium: 0, Free: 0}
	ring, err := crypto.NewKeyring("rotation-test-secret", policy)
	require.NoError(t, err)

	worker := newRotationWorker(10*time.Millisecond, ring, policy, logger.Nop())
	worker.Run()
	defer worker.Stop()

	require.Eventually(t, func() bool {
		for _, tier := range []models.SubscriptionTier{models.TierFree, models.TierPremium, models.TierClinical} {
			if generation, _ := ring.Generation(tier); generation < 2 {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRotationWorker_LeavesFreshKeysAlone(t *testing.T) {
	policy := crypto.DefaultRotationPolicy()
	ring, err := crypto.NewKeyring("rotation-test-secret", policy)
	require.NoError(t, err)

	worker := newRotationWorker(10*time.Millisecond, ring, policy, logger.Nop())
	worker.Run()

	time.Sleep(60 * time.Millisecond)
	worker.Stop()

	for _, tier := range []models.SubscriptionTier{models.TierFree, models.TierPremium, models.TierClinical} {
		generation, _ := ring.Generation(tier)
		assert.Equal(t, 1, generation)
	}
}

func TestRetentionWorker_PurgesExpiredEntries(t *testing.T) {
	log := logger.Nop()
	recorder := audit.NewMemoryRecorder(log)

	// RetentionUntil in the past makes the entry immediately purgeable.
	_, err := recorder.Record(context.Background(), models.AuditEntry{
		OperationID:    "op-old",
		UserID:         "user-1",
		DeviceID:       "phone",
		Outcome:        models.OutcomeCompleted,
		RetentionUntil: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	worker := newRetentionWorker(10*time.Millisecond, recorder, log)
	worker.Run()
	defer worker.Stop()

	require.Eventually(t, func() bool {
		entries, err := recorder.List(context.Background(), audit.Query{UserID: "user-1"})
		require.NoError(t, err)
		return len(entries) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNewWorkers_Defaults(t *testing.T) {
	policy := crypto.DefaultRotationPolicy()
	ring, err := crypto.NewKeyring("rotation-test-secret", policy)
	require.NoError(t, err)

	ws := NewWorkers(
		config.Workers{},
		ring,
		policy,
		audit.NewMemoryRecorder(logger.Nop()),
		device.NewRegistry(logger.Nop()),
		logger.Nop(),
	)

	require.Len(t, ws.workers, 3)
	ws.Run()
	ws.Stop()
}

func TestStatsWorker_PrunesIdleDevices(t *testing.T) {
	log := logger.Nop()
	registry := device.NewRegistry(log)

	_, err := registry.Register(models.TierPremium, models.DeviceRecord{
		ID:     "phone",
		UserID: "user-1",
	})
	require.NoError(t, err)

	// A zero horizon makes every device immediately idle.
	worker := newStatsWorker(10*time.Millisecond, 0, registry, log)
	worker.Run()
	defer worker.Stop()

	require.Eventually(t, func() bool {
		return len(registry.List("user-1")) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
