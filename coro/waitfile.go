package coro

import (
	"sync"

	"golang.org/x/sys/unix"
)

// FDMode selects which readiness events wait_file watches for.
type FDMode int

const (
	FDReadable FDMode = 1 << iota
	FDWritable
)

// FDResult is delivered to the coroutine on resume from WaitFile.
type FDResult struct {
	ReadyMask FDMode
	Err       error
}

type fdWatch struct {
	fd   int
	mode FDMode
	co   *Coroutine
}

// fdPoller watches registered file descriptors on a dedicated goroutine
// using poll(2) and wakes the coroutine that registered each one once its
// requested event fires. This is the host-only half of wait_file; the
// microcontroller target has no poll thread.
type fdPoller struct {
	sched *Scheduler

	mu      sync.Mutex
	watches map[int]*fdWatch
	signal  chan struct{}
}

func newFDPoller(sched *Scheduler) *fdPoller {
	p := &fdPoller{
		sched:   sched,
		watches: make(map[int]*fdWatch),
		signal:  make(chan struct{}, 1),
	}
	go p.loop()
	return p
}

func (p *fdPoller) register(w *fdWatch) {
	p.mu.Lock()
	p.watches[w.fd] = w
	p.mu.Unlock()
	select {
	case p.signal <- struct{}{}:
	default:
	}
}

func (p *fdPoller) loop() {
	for {
		p.mu.Lock()
		n := len(p.watches)
		pollfds := make([]unix.PollFd, 0, n)
		watches := make([]*fdWatch, 0, n)
		for fd, w := range p.watches {
			var events int16
			if w.mode&FDReadable != 0 {
				events |= unix.POLLIN
			}
			if w.mode&FDWritable != 0 {
				events |= unix.POLLOUT
			}
			pollfds = append(pollfds, unix.PollFd{Fd: int32(fd), Events: events})
			watches = append(watches, w)
		}
		p.mu.Unlock()

		if n == 0 {
			<-p.signal
			continue
		}

		nReady, err := unix.Poll(pollfds, 100)
		if err != nil && err != unix.EINTR {
			for _, w := range watches {
				p.deliver(w, FDResult{Err: err})
			}
			continue
		}
		if nReady <= 0 {
			continue
		}
		for i, pfd := range pollfds {
			if pfd.Revents == 0 {
				continue
			}
			var mask FDMode
			if pfd.Revents&unix.POLLIN != 0 {
				mask |= FDReadable
			}
			if pfd.Revents&unix.POLLOUT != 0 {
				mask |= FDWritable
			}
			if pfd.Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
				p.deliver(watches[i], FDResult{ReadyMask: mask, Err: unixPollError(pfd.Revents)})
				continue
			}
			if mask != 0 {
				p.deliver(watches[i], FDResult{ReadyMask: mask})
			}
		}
	}
}

func unixPollError(revents int16) error {
	switch {
	case revents&unix.POLLNVAL != 0:
		return unix.EBADF
	case revents&unix.POLLHUP != 0:
		return unix.EPIPE
	default:
		return unix.EIO
	}
}

func (p *fdPoller) deliver(w *fdWatch, res FDResult) {
	p.mu.Lock()
	if cur, ok := p.watches[w.fd]; !ok || cur != w {
		p.mu.Unlock()
		return
	}
	delete(p.watches, w.fd)
	p.mu.Unlock()

	w.co.fdResult = res
	p.sched.markResolved()
	p.sched.WakeExternal(w.co)
}

// WaitFile suspends the coroutine until fd becomes ready per mode, or an
// error occurs, and returns the resulting readiness mask and error.
func (c *Coroutine) WaitFile(fd int, mode FDMode) (FDMode, error) {
	w := &fdWatch{fd: fd, mode: mode, co: c}
	c.sched.poller.register(w)
	c.park(parkRequest{kind: parkWaitFD})
	return c.fdResult.ReadyMask, c.fdResult.Err
}
