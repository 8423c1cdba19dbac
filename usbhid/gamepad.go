package usbhid

// gamepadAxisUsages is the fixed axis order the mask's bits (LSB to MSB)
// are assigned to.
var gamepadAxisUsages = [8]uint16{
	UsageX, UsageY, UsageZ, UsageRx, UsageRy, UsageRz, UsageDial, UsageSlider,
}

// GamepadReportID is the single report ID every generated gamepad
// descriptor and report uses.
const GamepadReportID = 1

// EnabledAxisCount returns the number of axis bits set in mask.
func EnabledAxisCount(axesMask uint8) int {
	n := 0
	for i := 0; i < 8; i++ {
		if axesMask&(1<<i) != 0 {
			n++
		}
	}
	return n
}

// ButtonByteCount returns the number of whole bytes numButtons' 1-bit
// fields occupy once padded out.
func ButtonByteCount(numButtons int) int {
	return (numButtons + 7) / 8
}

// GamepadReportLength is the packed on-wire report size for a gamepad with
// the given shape: button bytes, one byte per enabled axis, one hat byte
// if present.
func GamepadReportLength(numButtons int, axesMask uint8, hasHat bool) int {
	n := ButtonByteCount(numButtons) + EnabledAxisCount(axesMask)
	if hasHat {
		n++
	}
	return n
}

// GamepadReportDescriptor generates a HID report descriptor for a gamepad
// with numButtons buttons, the axes selected by axesMask (bit i selects
// gamepadAxisUsages[i]), and an optional hat switch, per the fixed assembly
// algorithm: button block, then one usage per enabled axis in
// X,Y,Z,Rx,Ry,Rz,Dial,Slider order followed by a single 0..255 logical
// range and one 8-bit field per enabled axis, then an optional hat switch.
func GamepadReportDescriptor(numButtons int, axesMask uint8, hasHat bool) []byte {
	b := NewBuilder()
	b.UsagePage(UsagePageGenericDesktop)
	b.Usage(UsageGamepad)
	b.Collection(CollectionApplication)
	b.ReportID(GamepadReportID)

	if numButtons > 0 {
		b.UsagePage(UsagePageButton)
		b.UsageMinimum(1)
		b.UsageMaximum(uint16(numButtons))
		b.LogicalMinimum(0)
		b.LogicalMaximum(1)
		b.ReportSize(1)
		b.ReportCount(uint8(numButtons))
		b.Input(FlagVariable)

		pad := (8 - numButtons%8) % 8
		if pad > 0 {
			b.ReportSize(1)
			b.ReportCount(uint8(pad))
			b.Input(FlagConstant)
		}
	}

	enabledAxisCount := EnabledAxisCount(axesMask)
	if enabledAxisCount > 0 {
		b.UsagePage(UsagePageGenericDesktop)
		for i := 0; i < 8; i++ {
			if axesMask&(1<<i) == 0 {
				continue
			}
			b.Usage(gamepadAxisUsages[i])
		}
		b.LogicalMinimum(0)
		b.LogicalMaximum(255)
		b.ReportSize(8)
		b.ReportCount(uint8(enabledAxisCount))
		b.Input(FlagVariable)
	}

	if hasHat {
		b.UsagePage(UsagePageGenericDesktop)
		b.Usage(UsageHatSwitch)
		b.LogicalMinimum(0)
		b.LogicalMaximum(7)
		b.PhysicalMinimum(0)
		b.PhysicalMaximum(315)
		b.ReportSize(8)
		b.ReportCount(1)
		b.Input(FlagVariable | FlagNullState)
	}

	b.EndCollection()
	return b.Bytes()
}

// GamepadAxisValue maps a pair of logical 0..1000 minus/plus direction
// inputs to a single output byte: 0..127 from the minus direction
// (inverted, so 1000 minus maps to 0), 128..255 from the plus direction,
// with 127 when both are zero.
func GamepadAxisValue(minus, plus uint32) uint8 {
	if minus > 1000 {
		minus = 1000
	}
	if plus > 1000 {
		plus = 1000
	}
	if plus > 0 {
		return uint8(128 + (plus*127)/1000)
	}
	if minus > 0 {
		return uint8(127 - (minus*127)/1000)
	}
	return 127
}

// XboxTriggerValue maps a 0..1000 input to the 0..255 Xbox trigger range.
func XboxTriggerValue(v uint32) uint8 {
	if v > 1000 {
		v = 1000
	}
	return uint8((v * 255) / 1000)
}

// XboxStickValue maps a pair of logical 0..1000 minus/plus direction
// inputs to a signed 16-bit Xbox stick axis: minus maps 0..1000 to
// 0..-32768, plus maps 0..1000 to 0..32767.
func XboxStickValue(minus, plus uint32) int16 {
	if minus > 1000 {
		minus = 1000
	}
	if plus > 1000 {
		plus = 1000
	}
	if plus > 0 {
		return int16((plus * 32767) / 1000)
	}
	if minus > 0 {
		return int16(-int32((minus * 32768) / 1000))
	}
	return 0
}

// HatNull is the "no direction" sentinel HatValue returns for centre or
// opposed-axis conflicts.
const HatNull uint8 = 0x0F

// HatValue encodes four direction booleans into the eight-way compass
// value HID hat switches use, or HatNull for centre or contradictory
// input (both up and down, or both left and right).
func HatValue(up, down, left, right bool) uint8 {
	if (up && down) || (left && right) {
		return HatNull
	}
	switch {
	case up && right:
		return 1 // NE
	case down && right:
		return 3 // SE
	case down && left:
		return 5 // SW
	case up && left:
		return 7 // NW
	case up:
		return 0 // N
	case right:
		return 2 // E
	case down:
		return 4 // S
	case left:
		return 6 // W
	default:
		return HatNull
	}
}
