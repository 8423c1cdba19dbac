package usbhid

// Gamepad axis setAxis codes. Buttons occupy codes 1..numButtons; axis and
// hat codes live in a separate fixed range above any plausible button
// count so the two numbering spaces never collide.
const (
	GamepadAxisLXMinus = 1001
	GamepadAxisLXPlus  = 1002
	GamepadAxisLYMinus = 1003
	GamepadAxisLYPlus  = 1004
	GamepadAxisZMinus  = 1005
	GamepadAxisZPlus   = 1006
	GamepadAxisRxMinus = 1007
	GamepadAxisRxPlus  = 1008
	GamepadAxisRyMinus = 1009
	GamepadAxisRyPlus  = 1010
	GamepadAxisRzMinus = 1011
	GamepadAxisRzPlus  = 1012
	GamepadDialMinus   = 1013
	GamepadDialPlus    = 1014
	GamepadSliderMinus = 1015
	GamepadSliderPlus  = 1016

	GamepadHatUp    = 1017
	GamepadHatDown  = 1018
	GamepadHatLeft  = 1019
	GamepadHatRight = 1020
)

var gamepadAxisCodeBase = [8][2]int{
	{GamepadAxisLXMinus, GamepadAxisLXPlus},
	{GamepadAxisLYMinus, GamepadAxisLYPlus},
	{GamepadAxisZMinus, GamepadAxisZPlus},
	{GamepadAxisRxMinus, GamepadAxisRxPlus},
	{GamepadAxisRyMinus, GamepadAxisRyPlus},
	{GamepadAxisRzMinus, GamepadAxisRzPlus},
	{GamepadDialMinus, GamepadDialPlus},
	{GamepadSliderMinus, GamepadSliderPlus},
}

// Gamepad is a stateful HID gamepad socket occupant: it latches button,
// axis, and hat input and packs it into the report layout
// GamepadReportDescriptor describes for the same {numButtons, axesMask,
// hasHat} shape.
type Gamepad struct {
	numButtons int
	axesMask   uint8
	hasHat     bool

	buttons   []bool
	axisMinus [8]uint32
	axisPlus  [8]uint32
	hatUp     bool
	hatDown   bool
	hatLeft   bool
	hatRight  bool

	dirty bool
}

// NewGamepad returns a gamepad with the given shape, all buttons released,
// every axis centred, and the hat at rest.
func NewGamepad(numButtons int, axesMask uint8, hasHat bool) *Gamepad {
	return &Gamepad{
		numButtons: numButtons,
		axesMask:   axesMask,
		hasHat:     hasHat,
		buttons:    make([]bool, numButtons),
	}
}

// SetAxis applies one setAxis update: codes 1..numButtons toggle a button,
// the fixed axis/hat code ranges latch the corresponding direction value.
func (g *Gamepad) SetAxis(code int, value uint32) {
	switch {
	case code >= 1 && code <= g.numButtons:
		g.buttons[code-1] = value != 0
		g.dirty = true
		return
	case code == GamepadHatUp:
		g.hatUp = value != 0
	case code == GamepadHatDown:
		g.hatDown = value != 0
	case code == GamepadHatLeft:
		g.hatLeft = value != 0
	case code == GamepadHatRight:
		g.hatRight = value != 0
	default:
		for i, pair := range gamepadAxisCodeBase {
			switch code {
			case pair[0]:
				g.axisMinus[i] = value
			case pair[1]:
				g.axisPlus[i] = value
			default:
				continue
			}
			g.dirty = true
			return
		}
		return
	}
	g.dirty = true
}

// Dirty reports whether button, axis, or hat state has changed since the
// last report was sent.
func (g *Gamepad) Dirty() bool { return g.dirty }

// ClearDirty marks the current state as sent.
func (g *Gamepad) ClearDirty() { g.dirty = false }

// Report packs current state into the wire layout GamepadReportDescriptor
// describes: button bytes, one byte per enabled axis (in mask bit order),
// one optional hat byte.
func (g *Gamepad) Report() []byte {
	out := make([]byte, GamepadReportLength(g.numButtons, g.axesMask, g.hasHat))

	buttonBytes := ButtonByteCount(g.numButtons)
	for i, pressed := range g.buttons {
		if pressed {
			out[i/8] |= 1 << uint(i%8)
		}
	}

	slot := buttonBytes
	for i := 0; i < 8; i++ {
		if g.axesMask&(1<<uint(i)) == 0 {
			continue
		}
		out[slot] = GamepadAxisValue(g.axisMinus[i], g.axisPlus[i])
		slot++
	}

	if g.hasHat {
		out[slot] = HatValue(g.hatUp, g.hatDown, g.hatLeft, g.hatRight)
	}
	return out
}
