// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/models"
)

// Executor runs one dequeued operation. The context carries the
// operation's deadline; implementations must honor cancellation.
type Executor func(ctx context.Context, op *models.SyncOperation) error

// EscalateFunc receives escalation requests raised by the pool itself
// (crisis deadline expiry). Delivery must be non-blocking for the caller.
type EscalateFunc func(models.EscalationRequest)

// PoolConfig sizes the worker pool.
type PoolConfig struct {
	// Workers is the number of general workers serving all lanes
	// highest-first.
	Workers int

	// CrisisWorkers is the reserved capacity: these workers serve only
	// the EMERGENCY and CRISIS lanes and stay idle otherwise. At least
	// one is always kept so lower-lane backlog cannot starve crisis
	// traffic.
	CrisisWorkers int

	// BatchSize bounds how many NORMAL/LOW operations a general worker
	// drains per dequeue.
	BatchSize int
}

func (c *PoolConfig) normalize() {
	if c.Workers < 1 {
		c.Workers = 4
	}
	if c.CrisisWorkers < 1 {
		c.CrisisWorkers = 1
	}
	if c.BatchSize < 1 {
		c.BatchSize = 10
	}
}

// Pool drains a Scheduler with a bounded set of worker goroutines. It is
// idle until Start is called.
type Pool struct {
	sched    *Scheduler
	exec     Executor
	escalate EscalateFunc
	cfg      PoolConfig
	logger   *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPool creates a Pool over sched. escalate may be nil when the caller
// routes crisis deadline expiry elsewhere.
func NewPool(sched *Scheduler, exec Executor, escalate EscalateFunc, cfg PoolConfig, log *logger.Logger) *Pool {
	cfg.normalize()
	if escalate == nil {
		escalate = func(models.EscalationRequest) {}
	}
	return &Pool{
		sched:    sched,
		exec:     exec,
		escalate: escalate,
		cfg:      cfg,
		logger:   log,
	}
}

// Start stops any previous run, then launches the reserved crisis workers
// and the general workers. Workers exit when ctx is cancelled or Stop is
// called.
func (p *Pool) Start(ctx context.Context) {
	p.Stop()

	p.mu.Lock()
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.cfg.CrisisWorkers; i++ {
		p.wg.Add(1)
		go p.runCrisisWorker(runCtx)
	}
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.runGeneralWorker(runCtx)
	}
	p.mu.Unlock()

	p.logger.Info().
		Int("workers", p.cfg.Workers).
		Int("crisis_workers", p.cfg.CrisisWorkers).
		Msg("worker pool started")
}

// Stop cancels all workers and blocks until they exit. Safe to call when
// the pool is not running.
func (p *Pool) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
}

func (p *Pool) runCrisisWorker(ctx context.Context) {
	defer p.wg.Done()
	for {
		op, err := p.sched.NextCrisis(ctx)
		if err != nil {
			return
		}
		p.runOne(ctx, op)
	}
}

func (p *Pool) runGeneralWorker(ctx context.Context) {
	defer p.wg.Done()
	for {
		batch, err := p.sched.NextBatch(ctx, p.cfg.BatchSize)
		if err != nil {
			return
		}
		for _, op := range batch {
			if ctx.Err() != nil {
				return
			}
			p.runOne(ctx, op)
		}
	}
}

// runOne executes a single operation under its deadline. Crisis-flagged
// operations that expire their deadline escalate immediately instead of
// waiting for a retry cycle.
func (p *Pool) runOne(ctx context.Context, op *models.SyncOperation) {
	opCtx, cancel := context.WithTimeout(ctx, op.Deadline())
	defer cancel()

	start := time.Now()
	err := p.exec(opCtx, op)
	elapsed := time.Since(start)

	if err == nil {
		return
	}

	expired := errors.Is(err, context.DeadlineExceeded) || errors.Is(opCtx.Err(), context.DeadlineExceeded)
	if expired && op.CrisisFlagged() {
		p.escalate(models.EscalationRequest{
			OperationID:   op.ID,
			Level:         models.EscalationClinical,
			Reason:        models.ReasonDeadlineExpired,
			Elapsed:       elapsed,
			Attempts:      1,
			ImmediateRisk: op.Crisis.Active() && op.Crisis.Level >= models.CrisisCritical,
			RaisedAt:      time.Now(),
		})
	}

	p.logger.Err(err).
		Str("operation_id", op.ID).
		Str("priority", op.Priority.String()).
		Dur("elapsed", elapsed).
		Bool("deadline_expired", expired).
		Msg("operation execution failed")
}
