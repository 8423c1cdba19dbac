// Package coro implements a cooperative, single-thread-driven coroutine
// scheduler: channels, select, sleep timers, and a thread-safe external-wake
// path for producers that live outside the scheduler (a worker-pool
// callback, an interrupt-like external source). Each Coroutine is backed by
// its own goroutine that only makes progress when the scheduler resumes it;
// this gives genuinely cooperative semantics — FIFO resumption, deadlock
// detection, single-writer access to scheduler state — on top of goroutines
// acting as stacks, matching a design built for a single-core target that
// can't assume a preemptive runtime.
package coro

import (
	"container/heap"
	"errors"
	"sync"
	"time"
)

// ErrDeadlock is returned by Run when no coroutine is ready, none are
// sleeping, and nothing is pending an external wake or outstanding fd/
// worker-pool completion: the scheduler has nothing left to do and never
// will without outside intervention.
var ErrDeadlock = errors.New("coro: deadlock, no coroutine can make progress")

// Scheduler owns every coroutine's lifecycle and the three lists a step
// drains from: ready (FIFO), sleeping (ordered by wake time), and
// pending-wake (the thread-safe hand-off from external contexts).
type Scheduler struct {
	mu          sync.Mutex
	ready       []*Coroutine
	sleeping    sleepHeap
	pendingWake []*Coroutine
	all         map[*Coroutine]struct{}
	outstanding int // fd waits + exec_thread submissions not yet resolved

	wakeSignal chan struct{}

	pool   *workerPool
	poller *fdPoller
}

// NewScheduler creates an empty scheduler. Call Spawn to add coroutines and
// Run to drive them.
func NewScheduler() *Scheduler {
	s := &Scheduler{
		all:        make(map[*Coroutine]struct{}),
		wakeSignal: make(chan struct{}, 1),
	}
	s.pool = newWorkerPool(s, 256)
	s.poller = newFDPoller(s)
	return s
}

// Spawn creates a new coroutine running fn and places it on the ready list.
// fn receives the Coroutine handle it should use for every suspension point.
func (s *Scheduler) Spawn(fn func(co *Coroutine)) *Coroutine {
	co := &Coroutine{
		sched:  s,
		resume: make(chan struct{}),
		parked: make(chan parkRequest),
		state:  StateReady,
	}

	s.mu.Lock()
	s.all[co] = struct{}{}
	s.ready = append(s.ready, co)
	s.mu.Unlock()

	go func() {
		<-co.resume
		fn(co)
		co.parked <- parkRequest{kind: parkTerminated}
	}()

	return co
}

// WakeExternal enqueues co onto the pending-wake list and signals the
// scheduler. Safe to call from any goroutine, including ones outside any
// coroutine (a worker-pool callback, a poller, a test harness standing in
// for an interrupt handler).
func (s *Scheduler) WakeExternal(co *Coroutine) {
	s.mu.Lock()
	s.pendingWake = append(s.pendingWake, co)
	s.mu.Unlock()
	select {
	case s.wakeSignal <- struct{}{}:
	default:
	}
}

// Run drives the scheduler until every coroutine has terminated or a
// deadlock is detected.
func (s *Scheduler) Run() error {
	for {
		done, err := s.step()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (s *Scheduler) drainPendingWake() {
	s.mu.Lock()
	woken := s.pendingWake
	s.pendingWake = nil
	for _, co := range woken {
		if co.state != StateTerminated {
			co.state = StateReady
			s.ready = append(s.ready, co)
		}
	}
	s.mu.Unlock()
}

func (s *Scheduler) wakeDueSleepers(now time.Time) {
	s.mu.Lock()
	for s.sleeping.Len() > 0 && !s.sleeping[0].wakeAt.After(now) {
		co := heap.Pop(&s.sleeping).(*Coroutine)
		co.state = StateReady
		s.ready = append(s.ready, co)
	}
	s.mu.Unlock()
}

// step runs one resumption of the front-of-ready coroutine (or waits for a
// sleeper/external wake if the ready list is momentarily empty), returning
// done=true once every coroutine has terminated.
func (s *Scheduler) step() (done bool, err error) {
	s.drainPendingWake()
	s.wakeDueSleepers(time.Now())

	s.mu.Lock()
	if len(s.all) == 0 {
		s.mu.Unlock()
		return true, nil
	}
	if len(s.ready) == 0 {
		nextWake, hasSleeper := s.nextWakeLocked()
		outstanding := s.outstanding
		s.mu.Unlock()

		if !hasSleeper && outstanding == 0 {
			return false, ErrDeadlock
		}
		s.waitForWake(nextWake, hasSleeper)
		return false, nil
	}

	co := s.ready[0]
	s.ready = s.ready[1:]
	s.mu.Unlock()

	co.resume <- struct{}{}
	req := <-co.parked

	switch req.kind {
	case parkYield:
		s.mu.Lock()
		co.state = StateReady
		s.ready = append(s.ready, co)
		s.mu.Unlock()
	case parkSleep:
		s.mu.Lock()
		co.state = StateSleeping
		co.wakeAt = req.wakeAt
		heap.Push(&s.sleeping, co)
		s.mu.Unlock()
	case parkMonitor:
		s.mu.Lock()
		co.state = StateWaitingOnMonitor
		s.mu.Unlock()
	case parkWaitFD, parkExecThread:
		s.mu.Lock()
		co.state = StateWaitingOnFD
		s.outstanding++
		s.mu.Unlock()
	case parkTerminated:
		s.mu.Lock()
		co.state = StateTerminated
		delete(s.all, co)
		s.mu.Unlock()
	}
	return false, nil
}

func (s *Scheduler) nextWakeLocked() (time.Time, bool) {
	if s.sleeping.Len() == 0 {
		return time.Time{}, false
	}
	return s.sleeping[0].wakeAt, true
}

func (s *Scheduler) waitForWake(nextWake time.Time, hasSleeper bool) {
	if !hasSleeper {
		<-s.wakeSignal
		return
	}
	d := time.Until(nextWake)
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-s.wakeSignal:
	case <-t.C:
	}
}

// markResolved is called by the poller/pool when an
// outstanding wait completes, independent of the coroutine's own wake
// (which still flows through WakeExternal); they keep the deadlock check
// honest about work in flight.
func (s *Scheduler) markResolved() {
	s.mu.Lock()
	if s.outstanding > 0 {
		s.outstanding--
	}
	s.mu.Unlock()
}
