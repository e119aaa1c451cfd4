package device

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/models"
)

type captureNotifier struct {
	mu        sync.Mutex
	delivered []string
}

func (c *captureNotifier) Notify(_ context.Context, target models.DeviceRecord, _ CrisisAlert) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delivered = append(c.delivered, target.ID)
	return nil
}

func (c *captureNotifier) targets() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.delivered...)
}

func TestFanout_BroadcastsToOptedInDevices(t *testing.T) {
	r := NewRegistry(logger.Nop())

	push := models.DeviceCapabilities{SupportsPush: true}
	devices := []models.DeviceRecord{
		{ID: "phone", UserID: "user-1", Capabilities: push, Preferences: models.DevicePreferences{CrisisAlerts: true}},
		{ID: "tablet", UserID: "user-1", Capabilities: push, Preferences: models.DevicePreferences{CrisisAlerts: true}},
		{ID: "muted", UserID: "user-1", Capabilities: push, Preferences: models.DevicePreferences{CrisisAlerts: false}},
		{ID: "web", UserID: "user-1", Preferences: models.DevicePreferences{CrisisAlerts: true}}, // no push
	}
	for _, d := range devices {
		_, err := r.Register(models.TierPremium, d)
		require.NoError(t, err)
	}

	sink := &captureNotifier{}
	f := NewFanout(r, sink, logger.Nop())

	started := f.Broadcast(context.Background(), CrisisAlert{
		UserID:         "user-1",
		SourceDeviceID: "phone",
		Level:          models.CrisisHigh,
	})
	f.Wait()

	assert.Equal(t, 1, started, "only the opted-in push-capable tablet remains after excluding the source")
	assert.Equal(t, []string{"tablet"}, sink.targets())
}

func TestFanout_FailureAndPanicAreContained(t *testing.T) {
	r := NewRegistry(logger.Nop())
	_, err := r.Register(models.TierFree, models.DeviceRecord{
		ID: "tablet", UserID: "user-1",
		Capabilities: models.DeviceCapabilities{SupportsPush: true},
		Preferences:  models.DevicePreferences{CrisisAlerts: true},
	})
	require.NoError(t, err)

	boom := NotifierFunc(func(context.Context, models.DeviceRecord, CrisisAlert) error {
		panic("transport blew up")
	})
	f := NewFanout(r, boom, logger.Nop())

	started := f.Broadcast(context.Background(), CrisisAlert{UserID: "user-1", SourceDeviceID: "phone", Level: models.CrisisCritical})
	f.Wait()
	assert.Equal(t, 1, started)
}

func TestFanout_StampsRaisedAt(t *testing.T) {
	r := NewRegistry(logger.Nop())
	_, err := r.Register(models.TierFree, models.DeviceRecord{
		ID: "tablet", UserID: "user-1",
		Capabilities: models.DeviceCapabilities{SupportsPush: true},
		Preferences:  models.DevicePreferences{CrisisAlerts: true},
	})
	require.NoError(t, err)

	got := make(chan CrisisAlert, 1)
	f := NewFanout(r, NotifierFunc(func(_ context.Context, _ models.DeviceRecord, a CrisisAlert) error {
		got <- a
		return nil
	}), logger.Nop())

	f.Broadcast(context.Background(), CrisisAlert{UserID: "user-1", SourceDeviceID: "phone", Level: models.CrisisHigh})
	f.Wait()

	select {
	case alert := <-got:
		assert.False(t, alert.RaisedAt.IsZero())
	case <-time.After(time.Second):
		t.Fatal("alert was not delivered")
	}
}
