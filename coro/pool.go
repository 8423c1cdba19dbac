package coro

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// workerPool runs exec_thread closures off the scheduler thread, bounded to
// a fixed number of concurrent workers (FIFO admission beyond that via the
// semaphore's own wait queue). Only present on the host build; the
// microcontroller target has neither threads nor a pool to run closures on.
type workerPool struct {
	sched *Scheduler
	sem   *semaphore.Weighted
}

func newWorkerPool(sched *Scheduler, capacity int64) *workerPool {
	return &workerPool{sched: sched, sem: semaphore.NewWeighted(capacity)}
}

func (p *workerPool) submit(co *Coroutine, f func() any) {
	go func() {
		_ = p.sem.Acquire(context.Background(), 1)
		defer p.sem.Release(1)
		result := f()
		co.execResult = result
		p.sched.markResolved()
		p.sched.WakeExternal(co)
	}()
}

// ExecThread runs f on the bounded worker pool and suspends the coroutine
// until it completes, returning f's result. The closure runs off-scheduler
// so it may block without stalling any other coroutine.
func (c *Coroutine) ExecThread(f func() any) any {
	c.sched.pool.submit(c, f)
	c.park(parkRequest{kind: parkExecThread})
	return c.execResult
}
