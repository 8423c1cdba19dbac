package coro

import "time"

// State is the set a coroutine occupies exactly one of at any time.
type State int

const (
	StateReady State = iota
	StateSleeping
	StateWaitingOnMonitor
	StateWaitingOnFD
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateSleeping:
		return "sleeping"
	case StateWaitingOnMonitor:
		return "waiting-on-monitor"
	case StateWaitingOnFD:
		return "waiting-on-fd"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

type parkKind int

const (
	parkYield parkKind = iota
	parkSleep
	parkMonitor
	parkWaitFD
	parkExecThread
	parkTerminated
)

type parkRequest struct {
	kind   parkKind
	wakeAt time.Time
}

// Coroutine is the scheduler's handle to one cooperative task. Its body
// function receives this handle and suspends by calling one of its methods;
// there is no other way to yield control back to the scheduler.
type Coroutine struct {
	sched *Scheduler

	resume chan struct{}   // scheduler -> coroutine goroutine: proceed one step
	parked chan parkRequest // coroutine goroutine -> scheduler: how it suspended

	state State

	// heap bookkeeping for the sleep list
	wakeAt    time.Time
	heapIndex int

	// results of the last exec_thread / wait_file suspension, set by the
	// pool/poller before waking this coroutine and read immediately after
	// the matching park() returns.
	execResult any
	fdResult   FDResult
}

// State reports the coroutine's current scheduler state.
func (c *Coroutine) State() State { return c.state }

// Scheduler returns the scheduler this coroutine was spawned on.
func (c *Coroutine) Scheduler() *Scheduler { return c.sched }

func (c *Coroutine) park(req parkRequest) {
	c.parked <- req
	<-c.resume
}

// Yield suspends the coroutine and places it back at the end of the ready
// list; this is the only suspension point with no other effect.
func (c *Coroutine) Yield() {
	c.park(parkRequest{kind: parkYield})
}

// Sleep suspends the coroutine until at least d has elapsed.
func (c *Coroutine) Sleep(d time.Duration) {
	c.park(parkRequest{kind: parkSleep, wakeAt: time.Now().Add(d)})
}

// parkOnMonitor suspends until some external event (a channel becoming
// receivable/sendable, an external wake) moves this coroutine back onto the
// ready list via Scheduler.WakeExternal.
func (c *Coroutine) parkOnMonitor() {
	c.park(parkRequest{kind: parkMonitor})
}

// sleepHeap implements container/heap.Interface, ordering coroutines by
// wake time; this is the scheduler's sleep list.
type sleepHeap []*Coroutine

func (h sleepHeap) Len() int { return len(h) }
func (h sleepHeap) Less(i, j int) bool { return h[i].wakeAt.Before(h[j].wakeAt) }
func (h sleepHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}

func (h *sleepHeap) Push(x any) {
	co := x.(*Coroutine)
	co.heapIndex = len(*h)
	*h = append(*h, co)
}

func (h *sleepHeap) Pop() any {
	old := *h
	n := len(old)
	co := old[n-1]
	old[n-1] = nil
	co.heapIndex = -1
	*h = old[:n-1]
	return co
}
