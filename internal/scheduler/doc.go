// Package scheduler implements the priority scheduler for sync operations:
// a five-lane multi-level queue (EMERGENCY > CRISIS > HIGH > NORMAL > LOW)
// with FIFO order inside each lane, and a worker pool that serves it.
//
// EMERGENCY and CRISIS lanes are served by dedicated reserved workers that
// never pick up lower-priority work, so queued NORMAL/LOW backlog can never
// delay a crisis operation. General workers serve all lanes highest-first
// and batch NORMAL/LOW operations.
//
// All queue state is owned by the Scheduler and guarded by a single mutex;
// producers on any goroutine may call Enqueue concurrently.
package scheduler
