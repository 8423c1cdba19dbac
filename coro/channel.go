package coro

import "sync/atomic"

// waiter is a single coroutine's registration on one or more channels'
// wait lists (plural when used from Select). The first channel to find a
// value wins the CAS on fired and wakes the coroutine; every other channel
// the coroutine was registered on is a no-op from then on.
type waiter struct {
	co    *Coroutine
	fired atomic.Bool
}

func (w *waiter) tryFire() bool { return w.fired.CompareAndSwap(false, true) }

// Channel is a bounded FIFO queue between coroutines, with an optional
// second, lock-free single-producer ring for callers outside any
// coroutine (a worker-pool result, an interrupt-like external source).
// Only the coroutine consumer drains either queue; only coroutines
// registered via Select/Receive ever wait on it.
type Channel[T any] struct {
	sched *Scheduler

	mu      chanMutex
	buf     []T
	cap     int
	closed  bool
	recvers []*waiter
	senders []*waiter

	ext *spscRing[T]
}

// NewChannel creates a channel of the given buffered capacity (0 is legal
// and means every send must find a waiting receiver — not meaningfully
// different here from capacity 1 given the scheduler's cooperative, single-
// resumption-at-a-time model).
func NewChannel[T any](sched *Scheduler, capacity int) *Channel[T] {
	return &Channel[T]{sched: sched, cap: capacity}
}

// NewChannelWithExternalRing is NewChannel plus a lock-free ring of the
// given size for SendExternalNoBlock, for producers that are not
// coroutines (e.g. a callback running on a worker-pool goroutine).
func NewChannelWithExternalRing[T any](sched *Scheduler, capacity, ringSize int) *Channel[T] {
	c := NewChannel[T](sched, capacity)
	c.ext = newSPSCRing[T](ringSize)
	return c
}

// Send blocks until v is accepted or the channel is closed. Sending on a
// closed channel panics, matching the language's own built-in channels.
func (c *Channel[T]) Send(co *Coroutine, v T) {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			panic("coro: send on closed channel")
		}
		if len(c.buf) < c.cap || c.cap == 0 && len(c.recvers) > 0 {
			c.buf = append(c.buf, v)
			w := c.popWaiter(&c.recvers)
			c.mu.Unlock()
			if w != nil {
				c.sched.WakeExternal(w.co)
			}
			return
		}
		w := &waiter{co: co}
		c.senders = append(c.senders, w)
		c.mu.Unlock()
		co.parkOnMonitor()
	}
}

// TryReceive attempts a non-blocking receive. ok is false if nothing was
// available; closed is true only once the channel is closed and drained.
func (c *Channel[T]) TryReceive() (value T, ok bool, closed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ext != nil {
		if v, got := c.ext.pop(); got {
			c.wakeOneSenderLocked()
			return v, true, false
		}
	}
	if len(c.buf) > 0 {
		v := c.buf[0]
		c.buf = c.buf[1:]
		c.wakeOneSenderLocked()
		return v, true, false
	}
	if c.closed {
		var zero T
		return zero, false, true
	}
	var zero T
	return zero, false, false
}

func (c *Channel[T]) wakeOneSenderLocked() {
	w := c.popWaiter(&c.senders)
	if w != nil {
		c.sched.WakeExternal(w.co)
	}
}

// Receive blocks until a value is available or the channel closes.
func (c *Channel[T]) Receive(co *Coroutine) (value T, closed bool) {
	for {
		if v, ok, closed := c.TryReceive(); ok || closed {
			return v, closed
		}
		c.mu.Lock()
		w := &waiter{co: co}
		c.recvers = append(c.recvers, w)
		c.mu.Unlock()
		co.parkOnMonitor()
	}
}

// SendExternalNoBlock pushes v onto the lock-free external ring from any
// goroutine, coroutine or not. On a full ring the newest value is dropped
// (the producer never blocks, the contract this ring exists to provide).
// Requires the channel to have been created with NewChannelWithExternalRing.
func (c *Channel[T]) SendExternalNoBlock(v T) bool {
	if c.ext == nil {
		panic("coro: SendExternalNoBlock on a channel with no external ring")
	}
	ok := c.ext.push(v)
	if ok {
		c.mu.Lock()
		w := c.popWaiter(&c.recvers)
		c.mu.Unlock()
		if w != nil {
			c.sched.WakeExternal(w.co)
		}
	}
	return ok
}

// Close marks the channel closed and wakes every waiter so they can observe
// it.
func (c *Channel[T]) Close() {
	c.mu.Lock()
	c.closed = true
	recvers := c.recvers
	senders := c.senders
	c.recvers = nil
	c.senders = nil
	c.mu.Unlock()

	for _, w := range recvers {
		if w.tryFire() {
			c.sched.WakeExternal(w.co)
		}
	}
	for _, w := range senders {
		if w.tryFire() {
			c.sched.WakeExternal(w.co)
		}
	}
}

func (c *Channel[T]) popWaiter(list *[]*waiter) *waiter {
	for len(*list) > 0 {
		w := (*list)[0]
		*list = (*list)[1:]
		if w.tryFire() {
			return w
		}
	}
	return nil
}

// --- selectable adapter, used by Select to hold heterogeneous cases ---

// selectable is the non-generic face of Channel[T] that Select operates
// against, letting one select() call mix channels of different element
// types the way the source's template-free provider tuples do.
type selectable interface {
	tryReceiveAny() (value any, ok bool, closed bool)
	registerWaiter(w *waiter)
	removeWaiter(w *waiter)
}

func (c *Channel[T]) tryReceiveAny() (any, bool, bool) {
	v, ok, closed := c.TryReceive()
	return v, ok, closed
}

func (c *Channel[T]) registerWaiter(w *waiter) {
	c.mu.Lock()
	c.recvers = append(c.recvers, w)
	c.mu.Unlock()
}

func (c *Channel[T]) removeWaiter(w *waiter) {
	c.mu.Lock()
	for i, cur := range c.recvers {
		if cur == w {
			c.recvers = append(c.recvers[:i], c.recvers[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
}

// AsSelectable exposes c for use in a Select case list.
func (c *Channel[T]) AsSelectable() selectableChannel[T] { return selectableChannel[T]{c} }

type selectableChannel[T any] struct{ c *Channel[T] }

func (s selectableChannel[T]) tryReceiveAny() (any, bool, bool) { return s.c.tryReceiveAny() }
func (s selectableChannel[T]) registerWaiter(w *waiter)         { s.c.registerWaiter(w) }
func (s selectableChannel[T]) removeWaiter(w *waiter)           { s.c.removeWaiter(w) }
