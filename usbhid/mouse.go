package usbhid

// MouseReportID is the single report ID the mouse report descriptor and
// report use.
const MouseReportID = 1

// Mouse axis codes accepted by setAxis: four logical axes (X, Y, wheel,
// horizontal wheel), each addressed by a minus/plus code pair in the same
// convention gamepad axes use.
const (
	mouseAxisBase  = 6
	mouseAxisCount = 4
)

const maxMouseButtons = 5

// MouseReportDescriptor is the fixed report descriptor every mouse socket
// shares: an absolute button byte, then four signed 8-bit relative axes
// (X, Y, wheel, horizontal wheel).
func MouseReportDescriptor() []byte {
	b := NewBuilder()
	b.UsagePage(UsagePageGenericDesktop)
	b.Usage(UsageMouse)
	b.Collection(CollectionApplication)
	b.ReportID(MouseReportID)
	b.Collection(CollectionPhysical)

	b.UsagePage(UsagePageButton)
	b.UsageMinimum(1)
	b.UsageMaximum(maxMouseButtons)
	b.LogicalMinimum(0)
	b.LogicalMaximum(1)
	b.ReportSize(1)
	b.ReportCount(maxMouseButtons)
	b.Input(FlagVariable)
	b.ReportSize(1)
	b.ReportCount(8 - maxMouseButtons)
	b.Input(FlagConstant) // padding

	b.UsagePage(UsagePageGenericDesktop)
	b.Usage(UsageX)
	b.Usage(UsageY)
	b.Usage(UsageWheel)
	b.Usage(0x48) // AC Pan (horizontal wheel)
	b.LogicalMinimum(-127)
	b.LogicalMaximum(127)
	b.ReportSize(8)
	b.ReportCount(mouseAxisCount)
	b.Input(FlagVariable | FlagRelative)

	b.EndCollection()
	b.EndCollection()
	return b.Bytes()
}

// Mouse latches relative axis deltas and absolute button state between
// sends; ClearDeltas zeroes the latched movement once a report has gone
// out, leaving buttons untouched.
type Mouse struct {
	buttons uint8
	axes    [mouseAxisCount]int8
	dirty   bool
}

// NewMouse returns a mouse with no buttons pressed and no latched motion.
func NewMouse() *Mouse {
	return &Mouse{}
}

// SetAxis applies one setAxis update. Codes 1..maxMouseButtons set or clear
// an absolute button bit. Codes 6..13 are a minus/plus pair per logical
// axis (X, Y, wheel, horizontal wheel in that order); the signed value is
// accumulated into the latched delta and clipped to [-127, 127].
func (m *Mouse) SetAxis(code int, value uint32) {
	switch {
	case code >= 1 && code <= maxMouseButtons:
		bit := uint8(1) << uint(code-1)
		if value != 0 {
			m.buttons |= bit
		} else {
			m.buttons &^= bit
		}
		m.dirty = true
	case code >= mouseAxisBase && code < mouseAxisBase+2*mouseAxisCount:
		offset := code - mouseAxisBase
		axis := offset / 2
		delta := int32(value)
		if delta > 127 {
			delta = 127
		}
		if offset%2 == 0 {
			delta = -delta
		}
		sum := int32(m.axes[axis]) + delta
		if sum > 127 {
			sum = 127
		}
		if sum < -127 {
			sum = -127
		}
		m.axes[axis] = int8(sum)
		m.dirty = true
	}
}

// Dirty reports whether button or axis state has changed since the last
// send.
func (m *Mouse) Dirty() bool { return m.dirty }

// ClearDirty marks the current state as sent.
func (m *Mouse) ClearDirty() { m.dirty = false }

// Report computes the report-ID-prefixed button byte and four signed axis
// bytes.
func (m *Mouse) Report() []byte {
	out := make([]byte, 1+1+mouseAxisCount)
	out[0] = MouseReportID
	out[1] = m.buttons
	for i, v := range m.axes {
		out[2+i] = byte(v)
	}
	return out
}

// ClearDeltas zeroes latched relative movement after a successful send;
// buttons remain absolute and are left untouched.
func (m *Mouse) ClearDeltas() {
	for i := range m.axes {
		m.axes[i] = 0
	}
}
