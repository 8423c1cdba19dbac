// Package devicebus implements the fixed eight-slot device socket table:
// plugging, unplugging, axis input, and per-tick report flushing for the
// keyboards, mice, and gamepads a single host composite device exposes.
package devicebus

import (
	"fmt"
	"sync"

	"github.com/rigcore/inputproxy/usbhid"
)

// numSockets is the fixed socket count the bus exposes.
const numSockets = 8

// Mode selects which family of occupants the bus accepts and which whole-
// device descriptor scheme it builds. Switching mode requires a reboot
// because the device descriptor's class bytes and VID/PID defaults differ
// between the two.
type Mode int

const (
	ModeHID Mode = iota
	ModeXInput
)

// Kind identifies what a socket holds.
type Kind int

const (
	KindKeyboard Kind = iota
	KindMouse
	KindHIDGamepad
	KindXboxGamepad
)

// Occupant is the behavior every socket occupant implements: axis input,
// dirty tracking, and the two descriptor/report byte blobs the USB layer
// asks for.
type Occupant interface {
	SetAxis(code int, value uint32)
	Dirty() bool
	ClearDirty()
	Report() []byte
	ReportDescriptor() []byte
}

type socket struct {
	kind     Kind
	name     string
	occupant Occupant
}

// Bus is the fixed eight-slot device socket table. It is mutated only from
// the owning scheduler/handler context; USB callbacks into descriptor
// accessors must treat it as read-only.
type Bus struct {
	mu      sync.Mutex
	mode    Mode
	sockets [numSockets]*socket
	config  []byte
	dirty   bool
}

// New returns a bus operating in the given mode. Booting into HID mode
// auto-plugs a keyboard into socket 0, matching the peripheral's own boot
// sequence; XInput mode starts with every socket empty. This asymmetry is
// intentional, not an oversight.
func New(mode Mode) *Bus {
	b := &Bus{mode: mode}
	if mode == ModeHID {
		occ, err := newOccupant(KindKeyboard, mode)
		if err == nil {
			b.sockets[0] = &socket{kind: KindKeyboard, name: "keyboard", occupant: occ}
		}
	}
	b.rebuildLocked()
	return b
}

// Mode returns the bus's current mode.
func (b *Bus) Mode() Mode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mode
}

// InterfaceNum returns the USB interface number a socket index maps to.
func InterfaceNum(i int) uint8 { return uint8(i) }

// EndpointAddr returns the interrupt IN endpoint address a socket index
// maps to.
func EndpointAddr(i int) uint8 { return 0x81 + uint8(i) }

// StringIndex returns the USB string descriptor index a socket index maps
// to.
func StringIndex(i int) uint8 { return 4 + uint8(i) }

// Plug fills socket i with a new occupant of the given kind, deriving its
// interface/endpoint/string indices from i, and rebuilds the configuration
// descriptor. i must be in [0,8) and the slot must be empty.
func (b *Bus) Plug(i int, kind Kind, name string) error {
	if i < 0 || i >= numSockets {
		return fmt.Errorf("devicebus: socket index %d out of range", i)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sockets[i] != nil {
		return fmt.Errorf("devicebus: socket %d already occupied", i)
	}
	occ, err := newOccupant(kind, b.mode)
	if err != nil {
		return err
	}
	b.sockets[i] = &socket{kind: kind, name: name, occupant: occ}
	b.rebuildLocked()
	return nil
}

// Unplug empties socket i, if occupied, and rebuilds the configuration
// descriptor.
func (b *Bus) Unplug(i int) error {
	if i < 0 || i >= numSockets {
		return fmt.Errorf("devicebus: socket index %d out of range", i)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sockets[i] == nil {
		return nil
	}
	b.sockets[i] = nil
	b.rebuildLocked()
	return nil
}

// SetAxis forwards code/value to the occupant of socket i. It is a no-op
// if the slot is empty.
func (b *Bus) SetAxis(i int, code int, value uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= numSockets || b.sockets[i] == nil {
		return
	}
	b.sockets[i].occupant.SetAxis(code, value)
}

// Update flushes a packed report for every occupied, dirty socket whose
// interface the USB layer reports ready, and clears that socket's dirty
// flag. ready is consulted per socket index; a nil ready treats every
// occupied socket as ready.
func (b *Bus) Update(ready func(i int) bool) map[int][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[int][]byte)
	for i, s := range b.sockets {
		if s == nil || !s.occupant.Dirty() {
			continue
		}
		if ready != nil && !ready(i) {
			continue
		}
		out[i] = s.occupant.Report()
		s.occupant.ClearDirty()
	}
	return out
}

// ConfigurationDescriptor returns the current whole-device configuration
// descriptor, rebuilt on every plug/unplug.
func (b *Bus) ConfigurationDescriptor() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.config
}

func (b *Bus) rebuildLocked() {
	switch b.mode {
	case ModeXInput:
		b.config = b.xinputDescriptorLocked()
	default:
		b.config = b.hidDescriptorLocked()
	}
}

func (b *Bus) hidDescriptorLocked() []byte {
	var interfaces []usbhid.InterfaceSpec
	for i, s := range b.sockets {
		if s == nil {
			continue
		}
		kind := usbhid.KindGamepad
		switch s.kind {
		case KindKeyboard:
			kind = usbhid.KindKeyboard
		case KindMouse:
			kind = usbhid.KindMouse
		}
		interfaces = append(interfaces, usbhid.InterfaceSpec{
			InterfaceNum:           InterfaceNum(i),
			EndpointAddr:           EndpointAddr(i),
			StringIndex:            StringIndex(i),
			Kind:                   kind,
			ReportDescriptorLength: uint16(len(s.occupant.ReportDescriptor())),
		})
	}
	return usbhid.ConfigurationDescriptor(interfaces)
}
