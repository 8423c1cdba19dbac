// Package usbhid assembles USB HID report descriptors and the configuration
// descriptor wrapping them, and maps logical axis/hat/key values onto the
// packed wire layout of each report. It has no dependency on a real USB
// stack: it only produces bytes, the shape a device callback layer hands to
// the host on a GET_DESCRIPTOR request.
package usbhid

// itemType distinguishes the three HID item kinds a short item can encode.
type itemType byte

const (
	typeMain   itemType = 0
	typeGlobal itemType = 1
	typeLocal  itemType = 2
)

// Main item tags.
const (
	tagInput         byte = 0x8
	tagOutput        byte = 0x9
	tagCollection    byte = 0xA
	tagEndCollection byte = 0xC
)

// Global item tags.
const (
	tagUsagePage       byte = 0x0
	tagLogicalMinimum  byte = 0x1
	tagLogicalMaximum  byte = 0x2
	tagPhysicalMinimum byte = 0x3
	tagPhysicalMaximum byte = 0x4
	tagReportSize      byte = 0x7
	tagReportID        byte = 0x8
	tagReportCount     byte = 0x9
)

// Local item tags.
const (
	tagUsage        byte = 0x0
	tagUsageMinimum byte = 0x1
	tagUsageMaximum byte = 0x2
)

// Collection types for the Collection main item.
const (
	CollectionPhysical    = 0x00
	CollectionApplication = 0x01
	CollectionLogical     = 0x02
)

// Input/Output item flags, OR together as needed.
const (
	FlagConstant      = 1 << 0
	FlagVariable      = 1 << 1
	FlagRelative      = 1 << 2
	FlagWrap          = 1 << 3
	FlagNonLinear     = 1 << 4
	FlagNoPreferred   = 1 << 5
	FlagNullState     = 1 << 6
	FlagBufferedBytes = 1 << 7
)

// Generic Desktop usages used throughout.
const (
	UsagePageGenericDesktop uint16 = 0x01
	UsagePageKeyboard       uint16 = 0x07
	UsagePageLED            uint16 = 0x08
	UsagePageButton         uint16 = 0x09
	UsagePageConsumer       uint16 = 0x0C

	UsageGamepad  uint16 = 0x05
	UsageKeyboard uint16 = 0x06
	UsageMouse    uint16 = 0x02
	UsagePointer  uint16 = 0x01

	UsageX         uint16 = 0x30
	UsageY         uint16 = 0x31
	UsageZ         uint16 = 0x32
	UsageRx        uint16 = 0x33
	UsageRy        uint16 = 0x34
	UsageRz        uint16 = 0x35
	UsageSlider    uint16 = 0x36
	UsageDial      uint16 = 0x37
	UsageWheel     uint16 = 0x38
	UsageHatSwitch uint16 = 0x39
)

// Builder accumulates a HID report descriptor one item at a time.
type Builder struct {
	buf []byte
}

// NewBuilder returns an empty report descriptor builder.
func NewBuilder() *Builder { return &Builder{} }

// Bytes returns the assembled report descriptor.
func (b *Builder) Bytes() []byte { return b.buf }

func (b *Builder) emit(kind itemType, tag byte, value uint32, width int) *Builder {
	var data []byte
	switch width {
	case 0:
		data = nil
	case 1:
		data = []byte{byte(value)}
	case 2:
		data = []byte{byte(value), byte(value >> 8)}
	case 4:
		data = []byte{byte(value), byte(value >> 8), byte(value >> 16), byte(value >> 24)}
	}
	sizeCode := byte(0)
	switch width {
	case 1:
		sizeCode = 1
	case 2:
		sizeCode = 2
	case 4:
		sizeCode = 3
	}
	prefix := (tag << 4) | (byte(kind) << 2) | sizeCode
	b.buf = append(b.buf, prefix)
	b.buf = append(b.buf, data...)
	return b
}

// widthFor picks the narrowest encoding (1, 2, or 4 bytes) for an unsigned
// value; 0 is encoded with 1 byte rather than a zero-length item so a
// literal 0 value still round-trips unambiguously.
func widthFor(v uint32) int {
	switch {
	case v <= 0xFF:
		return 1
	case v <= 0xFFFF:
		return 2
	default:
		return 4
	}
}

func widthForSigned(v int32) int {
	switch {
	case v >= -128 && v <= 127:
		return 1
	case v >= -32768 && v <= 32767:
		return 2
	default:
		return 4
	}
}

func (b *Builder) UsagePage(v uint16) *Builder {
	return b.emit(typeGlobal, tagUsagePage, uint32(v), widthFor(uint32(v)))
}

func (b *Builder) Usage(v uint16) *Builder {
	return b.emit(typeLocal, tagUsage, uint32(v), widthFor(uint32(v)))
}

func (b *Builder) UsageMinimum(v uint16) *Builder {
	return b.emit(typeLocal, tagUsageMinimum, uint32(v), widthFor(uint32(v)))
}

func (b *Builder) UsageMaximum(v uint16) *Builder {
	return b.emit(typeLocal, tagUsageMaximum, uint32(v), widthFor(uint32(v)))
}

func (b *Builder) LogicalMinimum(v int32) *Builder {
	return b.emit(typeGlobal, tagLogicalMinimum, uint32(v), widthForSigned(v))
}

func (b *Builder) LogicalMaximum(v int32) *Builder {
	return b.emit(typeGlobal, tagLogicalMaximum, uint32(v), widthForSigned(v))
}

func (b *Builder) PhysicalMinimum(v int32) *Builder {
	return b.emit(typeGlobal, tagPhysicalMinimum, uint32(v), widthForSigned(v))
}

func (b *Builder) PhysicalMaximum(v int32) *Builder {
	return b.emit(typeGlobal, tagPhysicalMaximum, uint32(v), widthForSigned(v))
}

func (b *Builder) ReportSize(bits uint8) *Builder {
	return b.emit(typeGlobal, tagReportSize, uint32(bits), 1)
}

func (b *Builder) ReportCount(n uint8) *Builder {
	return b.emit(typeGlobal, tagReportCount, uint32(n), 1)
}

func (b *Builder) ReportID(id uint8) *Builder {
	return b.emit(typeGlobal, tagReportID, uint32(id), 1)
}

func (b *Builder) Collection(kind byte) *Builder {
	return b.emit(typeMain, tagCollection, uint32(kind), 1)
}

func (b *Builder) EndCollection() *Builder {
	return b.emit(typeMain, tagEndCollection, 0, 0)
}

func (b *Builder) Input(flags byte) *Builder {
	return b.emit(typeMain, tagInput, uint32(flags), 1)
}

func (b *Builder) Output(flags byte) *Builder {
	return b.emit(typeMain, tagOutput, uint32(flags), 1)
}
