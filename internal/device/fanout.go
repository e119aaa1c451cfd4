package device

import (
	"context"
	"sync"
	"time"

	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/models"
)

// CrisisAlert is the notification fanned out to a user's other devices
// when a crisis-flagged operation is processed.
type CrisisAlert struct {
	UserID         string             `json:"user_id"`
	SourceDeviceID string             `json:"source_device_id"`
	Level          models.CrisisLevel `json:"level"`
	RaisedAt       time.Time          `json:"raised_at"`
}

// Notifier delivers a crisis alert to one device. Push transport lives
// behind this interface.
//
//go:generate mockgen -source=fanout.go -destination=../mock/mock_notifier.go -package=mock
type Notifier interface {
	Notify(ctx context.Context, target models.DeviceRecord, alert CrisisAlert) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, target models.DeviceRecord, alert CrisisAlert) error

func (f NotifierFunc) Notify(ctx context.Context, target models.DeviceRecord, alert CrisisAlert) error {
	return f(ctx, target, alert)
}

// Fanout broadcasts crisis alerts to the devices that opted in. Delivery
// is best-effort and concurrent; a slow or failing device never delays
// the others or the operation that raised the alert.
type Fanout struct {
	registry *Registry
	notifier Notifier
	logger   *logger.Logger
	wg       sync.WaitGroup
}

func NewFanout(registry *Registry, notifier Notifier, log *logger.Logger) *Fanout {
	return &Fanout{registry: registry, notifier: notifier, logger: log}
}

// Broadcast sends alert to every push-capable device of the user that
// enabled crisis alerts, except the device that raised it. Returns the
// number of deliveries started.
func (f *Fanout) Broadcast(ctx context.Context, alert CrisisAlert) int {
	if alert.RaisedAt.IsZero() {
		alert.RaisedAt = time.Now()
	}

	started := 0
	for _, d := range f.registry.List(alert.UserID) {
		if d.ID == alert.SourceDeviceID {
			continue
		}
		if !d.Preferences.CrisisAlerts || !d.Capabilities.SupportsPush {
			continue
		}

		started++
		f.wg.Add(1)
		go f.deliver(ctx, d, alert)
	}

	f.logger.Info().
		Str("user_id", alert.UserID).
		Str("crisis_level", alert.Level.String()).
		Int("targets", started).
		Msg("crisis alert fan-out")

	return started
}

func (f *Fanout) deliver(ctx context.Context, target models.DeviceRecord, alert CrisisAlert) {
	defer f.wg.Done()
	defer func() {
		if rec := recover(); rec != nil {
			f.logger.Error().
				Any("panic", rec).
				Str("device_id", target.ID).
				Msg("crisis alert notifier panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := f.notifier.Notify(ctx, target, alert); err != nil {
		f.logger.Err(err).
			Str("user_id", alert.UserID).
			Str("device_id", target.ID).
			Msg("crisis alert delivery failed")
	}
}

// Wait blocks until in-flight deliveries finish. Used on shutdown and in
// tests.
func (f *Fanout) Wait() {
	f.wg.Wait()
}
