package coro

// Sentinel return values from Select for the non-normal outcomes.
const (
	SelectClosed  = -1
	SelectDefault = -2
)

// SelectCase pairs a channel (via Channel[T].AsSelectable) with the handler
// to run when that case's receive fires.
type SelectCase struct {
	Chan    selectable
	Handler func(value any, closed bool)
}

// Recv builds a SelectCase from a channel and a typed handler.
func Recv[T any](c *Channel[T], handler func(value T, closed bool)) SelectCase {
	return SelectCase{
		Chan: c.AsSelectable(),
		Handler: func(value any, closed bool) {
			var v T
			if !closed {
				v = value.(T)
			}
			handler(v, closed)
		},
	}
}

// Select implements the fabric's select algorithm: (i) try a non-blocking
// receive on each case in declared order, firing the first success; (ii) if
// every case's channel is closed, return SelectClosed; (iii) otherwise, if
// defaultFn is non-nil, run it and return SelectDefault; (iv) otherwise
// register the coroutine as a waiter on every case and suspend, retrying
// from (i) on resume. A case that fires removes the coroutine from every
// other case's waiter list before returning.
func Select(co *Coroutine, cases []SelectCase, defaultFn func()) int {
	for {
		allClosed := true
		for i, c := range cases {
			value, ok, closed := c.Chan.tryReceiveAny()
			if ok {
				c.Handler(value, false)
				return i
			}
			if !closed {
				allClosed = false
			}
		}
		if allClosed && len(cases) > 0 {
			return SelectClosed
		}
		if defaultFn != nil {
			defaultFn()
			return SelectDefault
		}

		w := &waiter{co: co}
		for _, c := range cases {
			c.Chan.registerWaiter(w)
		}
		co.parkOnMonitor()
		for _, c := range cases {
			c.Chan.removeWaiter(w)
		}
	}
}
