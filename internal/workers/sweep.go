package workers

import (
	"sync"
	"time"

	"github.com/havenmind/syncd/internal/device"
	"github.com/havenmind/syncd/internal/logger"
)

// statsWorker periodically prunes registry entries for devices that have
// been idle past the horizon, so a user's abandoned phones stop counting
// against the tier device limit.
type statsWorker struct {
	interval time.Duration
	horizon  time.Duration
	registry *device.Registry
	logger   *logger.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func newStatsWorker(interval, horizon time.Duration, registry *device.Registry, log *logger.Logger) *statsWorker {
	return &statsWorker{
		interval: interval,
		horizon:  horizon,
		registry: registry,
		logger:   log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (w *statsWorker) Run() {
	go func() {
		defer close(w.done)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				w.sweep()
			case <-w.stop:
				return
			}
		}
	}()
}

func (w *statsWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}

func (w *statsWorker) sweep() {
	pruned := w.registry.Sweep(w.horizon)
	for _, d := range pruned {
		w.logger.Info().
			Str("user_id", d.UserID).
			Str("device_id", d.ID).
			Dur("idle_horizon", w.horizon).
			Msg("idle device pruned from registry")
	}
}
