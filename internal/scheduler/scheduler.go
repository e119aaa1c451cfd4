// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/models"
)

var (
	// ErrQueueFull is returned by Enqueue when the scheduler has reached
	// its total capacity. Crisis-lane operations are exempt: safety
	// traffic is admitted even over capacity.
	ErrQueueFull = errors.New("scheduler queue is full")

	// ErrClosed is returned once the scheduler has been shut down.
	ErrClosed = errors.New("scheduler is closed")
)

// queued is one lane entry. seq preserves global FIFO order for tie-breaks
// inside a lane.
type queued struct {
	op         *models.SyncOperation
	seq        uint64
	enqueuedAt time.Time
}

// Scheduler is the multi-level priority queue. The zero value is not
// usable; construct with New.
type Scheduler struct {
	logger   *logger.Logger
	capacity int

	mu     sync.Mutex
	lanes  [models.PriorityCount][]queued
	seq    uint64
	total  int
	closed bool

	// wake is a 1-slot signal channel: Enqueue nudges it, blocked
	// consumers drain it and re-check the lanes.
	wake chan struct{}
}

// New constructs a Scheduler bounded to capacity queued operations.
// capacity <= 0 means unbounded.
func New(capacity int, log *logger.Logger) *Scheduler {
	return &Scheduler{
		logger:   log,
		capacity: capacity,
		wake:     make(chan struct{}, 1),
	}
}

// Enqueue validates op and places it into the lane matching its priority
// class. FIFO order within the lane is preserved.
func (s *Scheduler) Enqueue(op *models.SyncOperation) error {
	if err := op.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.capacity > 0 && s.total >= s.capacity && !op.Priority.IsCrisis() {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d operations queued", ErrQueueFull, s.total)
	}

	s.seq++
	s.lanes[op.Priority] = append(s.lanes[op.Priority], queued{
		op:         op,
		seq:        s.seq,
		enqueuedAt: time.Now(),
	})
	s.total++
	s.mu.Unlock()

	s.logger.Debug().
		Str("operation_id", op.ID).
		Str("priority", op.Priority.String()).
		Msg("operation enqueued")

	s.signal()
	return nil
}

// Next returns the highest-priority queued operation, blocking until one
// is available or ctx is cancelled. Within a lane, earliest enqueue wins.
// Next never returns a NORMAL or LOW operation while an EMERGENCY or
// CRISIS operation is queued.
func (s *Scheduler) Next(ctx context.Context) (*models.SyncOperation, error) {
	return s.wait(ctx, models.PriorityLow)
}

// NextCrisis is Next restricted to the EMERGENCY and CRISIS lanes. It is
// the dequeue path of the reserved workers, which must stay idle rather
// than pick up lower-priority backlog.
func (s *Scheduler) NextCrisis(ctx context.Context) (*models.SyncOperation, error) {
	return s.wait(ctx, models.PriorityCrisis)
}

// NextBatch dequeues like Next but, when the head of the queue is NORMAL
// or LOW, drains up to max operations from those two lanes in one call so
// the pool can execute them as a batch. HIGH and above are never batched.
func (s *Scheduler) NextBatch(ctx context.Context, max int) ([]*models.SyncOperation, error) {
	if max < 1 {
		max = 1
	}
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil, ErrClosed
		}
		if first, ok := s.popLocked(models.PriorityLow); ok {
			batch := []*models.SyncOperation{first}
			if first.Priority <= models.PriorityNormal {
				for len(batch) < max {
					op, ok := s.popLaneRangeLocked(models.PriorityLow, models.PriorityNormal)
					if !ok {
						break
					}
					batch = append(batch, op)
				}
			}
			remaining := s.total
			s.mu.Unlock()
			if remaining > 0 {
				s.signal()
			}
			return batch, nil
		}
		s.mu.Unlock()

		if err := s.block(ctx); err != nil {
			return nil, err
		}
	}
}

// Len returns the total number of queued operations.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// LaneLen returns the number of operations queued in one lane.
func (s *Scheduler) LaneLen(p models.Priority) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !p.Valid() {
		return 0
	}
	return len(s.lanes[p])
}

// Close shuts the scheduler down. Queued operations are dropped; blocked
// consumers return ErrClosed.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	for i := range s.lanes {
		s.lanes[i] = nil
	}
	s.total = 0
	s.mu.Unlock()
	s.signal()
}

// wait blocks until an operation at or above minPriority is available.
func (s *Scheduler) wait(ctx context.Context, minPriority models.Priority) (*models.SyncOperation, error) {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil, ErrClosed
		}
		op, ok := s.popLocked(minPriority)
		remaining := s.total
		s.mu.Unlock()

		if ok {
			// Other consumers may still have work waiting; pass the
			// signal along so none of them sleeps through it.
			if remaining > 0 {
				s.signal()
			}
			return op, nil
		}

		if err := s.block(ctx); err != nil {
			return nil, err
		}
	}
}

// popLocked removes and returns the head of the highest non-empty lane at
// or above minPriority. Caller holds s.mu.
func (s *Scheduler) popLocked(minPriority models.Priority) (*models.SyncOperation, bool) {
	for p := models.PriorityEmergency; p >= minPriority; p-- {
		if len(s.lanes[p]) == 0 {
			continue
		}
		head := s.lanes[p][0]
		s.lanes[p] = s.lanes[p][1:]
		s.total--
		return head.op, true
	}
	return nil, false
}

// popLaneRangeLocked pops the head of the highest non-empty lane within
// [lo, hi] only. Used for NORMAL/LOW batching. Caller holds s.mu.
func (s *Scheduler) popLaneRangeLocked(lo, hi models.Priority) (*models.SyncOperation, bool) {
	for p := hi; p >= lo; p-- {
		if len(s.lanes[p]) == 0 {
			continue
		}
		head := s.lanes[p][0]
		s.lanes[p] = s.lanes[p][1:]
		s.total--
		return head.op, true
	}
	return nil, false
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) block(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.wake:
		return nil
	}
}
