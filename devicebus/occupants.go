package devicebus

import (
	"fmt"

	"github.com/rigcore/inputproxy/usbhid"
)

// newOccupant builds the Occupant a socket of the given kind holds.
// Gamepad kinds switch shape with the bus mode: a HID-mode socket holds a
// generic HID gamepad, an XInput-mode socket holds an Xbox 360 gamepad.
func newOccupant(kind Kind, mode Mode) (Occupant, error) {
	switch kind {
	case KindKeyboard:
		if mode != ModeHID {
			return nil, fmt.Errorf("devicebus: keyboards are not valid in XInput mode")
		}
		return &keyboardOccupant{kb: usbhid.NewKeyboard()}, nil
	case KindMouse:
		if mode != ModeHID {
			return nil, fmt.Errorf("devicebus: mice are not valid in XInput mode")
		}
		return &mouseOccupant{mouse: usbhid.NewMouse()}, nil
	case KindHIDGamepad:
		if mode != ModeHID {
			return nil, fmt.Errorf("devicebus: HID gamepads are not valid in XInput mode")
		}
		return &hidGamepadOccupant{gp: usbhid.NewGamepad(defaultGamepadButtons, defaultGamepadAxesMask, true)}, nil
	case KindXboxGamepad:
		if mode != ModeXInput {
			return nil, fmt.Errorf("devicebus: Xbox gamepads are only valid in XInput mode")
		}
		return newXboxOccupant(), nil
	default:
		return nil, fmt.Errorf("devicebus: unknown socket kind %d", kind)
	}
}

const (
	defaultGamepadButtons  = 16
	defaultGamepadAxesMask = 0b00111111 // X,Y,Z,Rx,Ry,Rz
)

type keyboardOccupant struct {
	kb *usbhid.Keyboard
}

func (k *keyboardOccupant) SetAxis(code int, value uint32) { k.kb.SetKey(code, value) }
func (k *keyboardOccupant) Dirty() bool                     { return k.kb.Dirty() }
func (k *keyboardOccupant) ClearDirty()                     { k.kb.ClearDirty() }
func (k *keyboardOccupant) Report() []byte                  { return k.kb.BootReport() }
func (k *keyboardOccupant) ReportDescriptor() []byte        { return usbhid.KeyboardReportDescriptor() }

type mouseOccupant struct {
	mouse *usbhid.Mouse
}

func (m *mouseOccupant) SetAxis(code int, value uint32) { m.mouse.SetAxis(code, value) }
func (m *mouseOccupant) Dirty() bool                     { return m.mouse.Dirty() }
func (m *mouseOccupant) ClearDirty()                     { m.mouse.ClearDirty() }
func (m *mouseOccupant) Report() []byte {
	r := m.mouse.Report()
	m.mouse.ClearDeltas()
	return r
}
func (m *mouseOccupant) ReportDescriptor() []byte { return usbhid.MouseReportDescriptor() }

type hidGamepadOccupant struct {
	gp *usbhid.Gamepad
}

func (g *hidGamepadOccupant) SetAxis(code int, value uint32) { g.gp.SetAxis(code, value) }
func (g *hidGamepadOccupant) Dirty() bool                     { return g.gp.Dirty() }
func (g *hidGamepadOccupant) ClearDirty()                     { g.gp.ClearDirty() }
func (g *hidGamepadOccupant) Report() []byte                  { return g.gp.Report() }
func (g *hidGamepadOccupant) ReportDescriptor() []byte {
	return usbhid.GamepadReportDescriptor(defaultGamepadButtons, defaultGamepadAxesMask, true)
}
