package rpc

import "github.com/rigcore/inputproxy/wire"

// Filter transforms chunks flowing through the fabric's input or output
// pipeline. Apply may return zero, one, or many chunks; an empty result
// drops the input silently. Output filters typically return exactly one
// chunk (e.g. a framed packet); input filters may buffer partial input and
// emit nothing, or emit several packets reassembled from one burst of
// bytes.
type Filter interface {
	Apply(data []byte) [][]byte
}

// frameOutputFilter wraps a raw packet in the frame layer's sync/CRC
// envelope before it reaches the transport.
type frameOutputFilter struct{}

func (frameOutputFilter) Apply(data []byte) [][]byte {
	return [][]byte{wire.Encode(data)}
}

// NewFrameOutputFilter returns the standard output filter: frame every
// outgoing packet.
func NewFrameOutputFilter() Filter { return frameOutputFilter{} }

// NewFrameInputFilter returns the standard input filter: reassemble raw
// transport bytes into discrete packets via a Framer. The returned Filter
// is stateful and must not be shared across independent byte streams.
func NewFrameInputFilter() Filter {
	f := &statefulFrameInputFilter{}
	f.framer = wire.NewFramer(func(p []byte) {
		f.out = append(f.out, append([]byte(nil), p...))
	})
	return f
}

type statefulFrameInputFilter struct {
	framer *wire.Framer
	out    [][]byte
}

func (f *statefulFrameInputFilter) Apply(data []byte) [][]byte {
	f.out = f.out[:0]
	f.framer.Push(data)
	if len(f.out) == 0 {
		return nil
	}
	out := f.out
	f.out = nil
	return out
}
