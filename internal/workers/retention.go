package workers

import (
	"context"
	"sync"
	"time"

	"github.com/havenmind/syncd/internal/audit"
	"github.com/havenmind/syncd/internal/logger"
)

// retentionWorker periodically purges audit entries whose retention
// period has fully elapsed.
type retentionWorker struct {
	interval time.Duration
	recorder audit.Recorder
	logger   *logger.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func newRetentionWorker(interval time.Duration, recorder audit.Recorder, log *logger.Logger) *retentionWorker {
	return &retentionWorker{
		interval: interval,
		recorder: recorder,
		logger:   log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (w *retentionWorker) Run() {
	go func() {
		defer close(w.done)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				w.purge()
			case <-w.stop:
				return
			}
		}
	}()
}

func (w *retentionWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}

func (w *retentionWorker) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), w.interval)
	defer cancel()

	purged, err := w.recorder.PurgeExpired(ctx, time.Now())
	if err != nil {
		w.logger.Err(err).Msg("audit retention purge failed")
		return
	}
	if purged > 0 {
		w.logger.Info().Int64("purged", purged).Msg("expired audit entries purged")
	}
}
