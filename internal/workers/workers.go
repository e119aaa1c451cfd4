package workers

import (
	"time"

	"github.com/havenmind/syncd/internal/audit"
	"github.com/havenmind/syncd/internal/config"
	"github.com/havenmind/syncd/internal/crypto"
	"github.com/havenmind/syncd/internal/device"
	"github.com/havenmind/syncd/internal/logger"
)

const (
	defaultRotationInterval  = time.Hour
	defaultRetentionInterval = 24 * time.Hour
	defaultSweepInterval     = 24 * time.Hour
	defaultIdleHorizon       = 90 * 24 * time.Hour
)

type Workers struct {
	workers []Worker
}

// NewWorkers builds the maintenance workers the engine runs alongside the
// scheduler pool: periodic tier key rotation, audit retention purging, and
// pruning of long-idle devices from the registry.
func NewWorkers(cfg config.Workers, ring crypto.Keyring, policy crypto.RotationPolicy, recorder audit.Recorder, registry *device.Registry, log *logger.Logger) *Workers {
	rotationInterval := cfg.RotationInterval
	if rotationInterval <= 0 {
		rotationInterval = defaultRotationInterval
	}
	retentionInterval := cfg.RetentionInterval
	if retentionInterval <= 0 {
		retentionInterval = defaultRetentionInterval
	}
	sweepInterval := cfg.SweepInterval
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}
	idleHorizon := cfg.DeviceIdleHorizon
	if idleHorizon <= 0 {
		idleHorizon = defaultIdleHorizon
	}

	return &Workers{
		workers: []Worker{
			newRotationWorker(rotationInterval, ring, policy, log),
			newRetentionWorker(retentionInterval, recorder, log),
			newStatsWorker(sweepInterval, idleHorizon, registry, log),
		},
	}
}

func (w *Workers) Run() {
	for _, worker := range w.workers {
		worker.Run()
	}
}

func (w *Workers) Stop() {
	for i := len(w.workers) - 1; i >= 0; i-- {
		if stopper, ok := w.workers[i].(Stopper); ok {
			stopper.Stop()
		}
	}
}
