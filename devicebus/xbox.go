package devicebus

import (
	"encoding/binary"

	"github.com/rigcore/inputproxy/usbhid"
)

// Xbox 360 controller button bitmasks (XInput-compatible), mirrored from
// the wired controller's button layout.
const (
	XboxButtonDPadUp    = 0x0001
	XboxButtonDPadDown  = 0x0002
	XboxButtonDPadLeft  = 0x0004
	XboxButtonDPadRight = 0x0008
	XboxButtonStart     = 0x0010
	XboxButtonBack      = 0x0020
	XboxButtonLThumb    = 0x0040
	XboxButtonRThumb    = 0x0080
	XboxButtonLShoulder = 0x0100
	XboxButtonRShoulder = 0x0200
	XboxButtonGuide     = 0x0400
	XboxButtonA         = 0x1000
	XboxButtonB         = 0x2000
	XboxButtonX         = 0x4000
	XboxButtonY         = 0x8000
)

// setAxis codes an Xbox gamepad socket accepts: buttons by bit position,
// triggers and sticks by the same minus/plus direction-pair convention
// the HID gamepad uses.
const (
	xboxAxisLXMinus = 1001
	xboxAxisLXPlus  = 1002
	xboxAxisLYMinus = 1003
	xboxAxisLYPlus  = 1004
	xboxAxisRXMinus = 1005
	xboxAxisRXPlus  = 1006
	xboxAxisRYMinus = 1007
	xboxAxisRYPlus  = 1008
	xboxTriggerLT   = 1009
	xboxTriggerRT   = 1010
)

var xboxButtonBits = [16]uint32{
	XboxButtonDPadUp, XboxButtonDPadDown, XboxButtonDPadLeft, XboxButtonDPadRight,
	XboxButtonStart, XboxButtonBack, XboxButtonLThumb, XboxButtonRThumb,
	XboxButtonLShoulder, XboxButtonRShoulder, XboxButtonGuide, 0,
	XboxButtonA, XboxButtonB, XboxButtonX, XboxButtonY,
}

// xboxOccupant is the XInput-mode gamepad socket occupant. Its wire report
// is the 20-byte wired Xbox 360 input report: report ID, payload length,
// button bitfield, two trigger bytes, four signed 16-bit stick axes, and
// six reserved trailing bytes.
type xboxOccupant struct {
	buttons uint32
	lt, rt  uint32
	lxMinus, lxPlus uint32
	lyMinus, lyPlus uint32
	rxMinus, rxPlus uint32
	ryMinus, ryPlus uint32
	dirty bool
}

func newXboxOccupant() *xboxOccupant {
	return &xboxOccupant{}
}

func (x *xboxOccupant) SetAxis(code int, value uint32) {
	for i, bit := range xboxButtonBits {
		if bit == 0 {
			continue
		}
		if code == i+1 {
			if value != 0 {
				x.buttons |= bit
			} else {
				x.buttons &^= bit
			}
			x.dirty = true
			return
		}
	}
	switch code {
	case xboxAxisLXMinus:
		x.lxMinus = value
	case xboxAxisLXPlus:
		x.lxPlus = value
	case xboxAxisLYMinus:
		x.lyMinus = value
	case xboxAxisLYPlus:
		x.lyPlus = value
	case xboxAxisRXMinus:
		x.rxMinus = value
	case xboxAxisRXPlus:
		x.rxPlus = value
	case xboxAxisRYMinus:
		x.ryMinus = value
	case xboxAxisRYPlus:
		x.ryPlus = value
	case xboxTriggerLT:
		x.lt = value
	case xboxTriggerRT:
		x.rt = value
	default:
		return
	}
	x.dirty = true
}

func (x *xboxOccupant) Dirty() bool    { return x.dirty }
func (x *xboxOccupant) ClearDirty()    { x.dirty = false }

func (x *xboxOccupant) Report() []byte {
	b := make([]byte, 20)
	b[0] = 0x00
	b[1] = 0x14
	binary.LittleEndian.PutUint16(b[2:4], uint16(x.buttons&0xffff))
	b[4] = usbhid.XboxTriggerValue(x.lt)
	b[5] = usbhid.XboxTriggerValue(x.rt)
	binary.LittleEndian.PutUint16(b[6:8], uint16(usbhid.XboxStickValue(x.lxMinus, x.lxPlus)))
	binary.LittleEndian.PutUint16(b[8:10], uint16(usbhid.XboxStickValue(x.lyMinus, x.lyPlus)))
	binary.LittleEndian.PutUint16(b[10:12], uint16(usbhid.XboxStickValue(x.rxMinus, x.rxPlus)))
	binary.LittleEndian.PutUint16(b[12:14], uint16(usbhid.XboxStickValue(x.ryMinus, x.ryPlus)))
	return b
}

// ReportDescriptor is empty: the wired Xbox 360 controller has no HID
// report descriptor, its input report layout is fixed and defined by the
// vendor-specific class descriptor instead.
func (x *xboxOccupant) ReportDescriptor() []byte { return nil }
