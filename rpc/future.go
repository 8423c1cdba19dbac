package rpc

import (
	"reflect"
	"sync"
)

// Future is the return type for RPC methods that reply asynchronously: the
// call returns immediately, and the value (or error) arrives later when the
// matching reply packet is decoded. A zero-value Future is ready to use:
// on the client side the fabric produces them from the method's declared
// signature, and a server handler constructs one and resolves it itself.
type Future[T any] struct {
	once sync.Once
	done chan struct{}

	mu    sync.Mutex
	value T
	err   error

	callbacks []func([]byte)
}

func (f *Future[T]) init() {
	f.once.Do(func() { f.done = make(chan struct{}) })
}

// Done returns a channel that closes once the future resolves or fails.
func (f *Future[T]) Done() <-chan struct{} {
	f.init()
	return f.done
}

// Ready reports whether the future has already resolved or failed.
func (f *Future[T]) Ready() bool {
	select {
	case <-f.Done():
		return true
	default:
		return false
	}
}

// Wait blocks until the future resolves or fails and returns its value.
func (f *Future[T]) Wait() (T, error) {
	<-f.Done()
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}

// Resolve completes the future with v, the server-side producer's counterpart
// to Wait. Only the first call to Resolve or Fail has any effect.
func (f *Future[T]) Resolve(v T) {
	f.init()
	f.mu.Lock()
	select {
	case <-f.done:
		f.mu.Unlock()
		return
	default:
	}
	f.value = v
	cbs := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	payload, _, _ := encodeReflectValue(reflect.ValueOf(v))
	for _, cb := range cbs {
		cb(payload)
	}
}

// Fail completes the future with an error instead of a value.
func (f *Future[T]) Fail(err error) {
	f.init()
	f.mu.Lock()
	select {
	case <-f.done:
		f.mu.Unlock()
		return
	default:
	}
	f.err = err
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()
}

// isVariable reports the wire encoding kind for T.
func (f *Future[T]) isVariable() bool {
	var zero T
	return isVariableKind(reflect.TypeOf(zero))
}

// onCompleteBytes registers cb to run with the resolved value's encoded
// bytes once the future resolves. If it has already resolved, cb runs
// inline. Never invoked on Fail; a failed future never sends a reply.
func (f *Future[T]) onCompleteBytes(cb func([]byte)) {
	f.init()
	f.mu.Lock()
	select {
	case <-f.done:
		v := f.value
		failed := f.err != nil
		f.mu.Unlock()
		if !failed {
			payload, _, _ := encodeReflectValue(reflect.ValueOf(v))
			cb(payload)
		}
		return
	default:
	}
	f.callbacks = append(f.callbacks, cb)
	f.mu.Unlock()
}

// resolveBytes decodes a full reply payload for T and resolves the future
// with it.
func (f *Future[T]) resolveBytes(raw []byte) error {
	t := reflect.TypeOf(*new(T))
	rv, err := decodeReplyValue(t, raw)
	if err != nil {
		return err
	}
	f.Resolve(rv.Interface().(T))
	return nil
}

// futureInternal is implemented by every Future[T] instantiation; it lets the
// fabric drive a future without knowing T at the call site, since T is fixed
// by the provider struct's field type rather than by the fabric itself.
type futureInternal interface {
	isVariable() bool
	onCompleteBytes(func([]byte))
	resolveBytes([]byte) error
	Fail(error)
	Done() <-chan struct{}
}
