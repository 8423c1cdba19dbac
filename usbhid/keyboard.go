package usbhid

// Keyboard report IDs. The report descriptor advertises all three; only the
// boot report is actually assembled and sent on update (see Keyboard.Dirty
// and BootReport) — the NKRO report builder exists so the descriptor stays
// truthful but nothing currently drives its periodic emission.
const (
	KeyboardBootReportID     = 1
	KeyboardNKROReportID     = 2
	KeyboardConsumerReportID = 3
)

const (
	modifierCodeBase = 0xE0
	nkroBitmapBytes  = 32
	consumerSlots    = 30
	bootKeySlots     = 6
)

// KeyboardReportDescriptor is the fixed report descriptor shared by every
// keyboard socket: a boot-compatible 6-key array report, an NKRO bitmap
// report, and a consumer-control usage array report.
func KeyboardReportDescriptor() []byte {
	b := NewBuilder()
	b.UsagePage(UsagePageGenericDesktop)
	b.Usage(UsageKeyboard)
	b.Collection(CollectionApplication)

	b.ReportID(KeyboardBootReportID)
	b.UsagePage(UsagePageKeyboard)
	b.UsageMinimum(modifierCodeBase)
	b.UsageMaximum(modifierCodeBase + 7)
	b.LogicalMinimum(0)
	b.LogicalMaximum(1)
	b.ReportSize(1)
	b.ReportCount(8)
	b.Input(FlagVariable)
	b.ReportSize(8)
	b.ReportCount(1)
	b.Input(FlagConstant) // reserved byte
	b.UsagePage(UsagePageKeyboard)
	b.UsageMinimum(0)
	b.UsageMaximum(255)
	b.LogicalMinimum(0)
	b.LogicalMaximum(255)
	b.ReportSize(8)
	b.ReportCount(bootKeySlots)
	b.Input(0) // array

	b.ReportID(KeyboardNKROReportID)
	b.UsagePage(UsagePageKeyboard)
	b.UsageMinimum(modifierCodeBase)
	b.UsageMaximum(modifierCodeBase + 7)
	b.LogicalMinimum(0)
	b.LogicalMaximum(1)
	b.ReportSize(1)
	b.ReportCount(8)
	b.Input(FlagVariable)
	b.UsagePage(UsagePageKeyboard)
	b.UsageMinimum(0)
	b.UsageMaximum(255)
	b.ReportSize(1)
	b.ReportCount(nkroBitmapBytes*8 - 8)
	b.Input(FlagVariable)

	b.ReportID(KeyboardConsumerReportID)
	b.UsagePage(UsagePageConsumer)
	b.UsageMinimum(0)
	b.UsageMaximum(0x3FF)
	b.LogicalMinimum(0)
	b.LogicalMaximum(0x3FF)
	b.ReportSize(16)
	b.ReportCount(consumerSlots)
	b.Input(FlagVariable)

	b.EndCollection()
	return b.Bytes()
}

// Keyboard tracks NKRO key state and the 30-slot consumer-control array, and
// derives the boot-protocol report from them.
type Keyboard struct {
	bitmap   [nkroBitmapBytes]byte
	consumer [consumerSlots]uint16
	dirty    bool
}

// NewKeyboard returns an empty keyboard with no keys pressed.
func NewKeyboard() *Keyboard {
	return &Keyboard{}
}

func keyBit(k *Keyboard, keycode int) bool {
	return k.bitmap[keycode/8]&(1<<(uint(keycode)%8)) != 0
}

func setKeyBit(k *Keyboard, keycode int, pressed bool) {
	mask := byte(1 << (uint(keycode) % 8))
	if pressed {
		k.bitmap[keycode/8] |= mask
	} else {
		k.bitmap[keycode/8] &^= mask
	}
}

// SetKey applies one setAxis update: codes 1..256 press/release the HID
// keycode code-1; codes 257..1280 insert or release consumer usage
// code-256 in the 30-slot array; code 0 with value 0 clears every consumer
// slot.
func (k *Keyboard) SetKey(code int, value uint32) {
	switch {
	case code == 0 && value == 0:
		for i := range k.consumer {
			k.consumer[i] = 0
		}
		k.dirty = true
	case code >= 1 && code <= 256:
		setKeyBit(k, code-1, value != 0)
		k.dirty = true
	case code >= 257 && code <= 1280:
		k.setConsumer(uint16(code-256), value != 0)
		k.dirty = true
	}
}

func (k *Keyboard) setConsumer(usage uint16, press bool) {
	for i := range k.consumer {
		if k.consumer[i] == usage {
			if !press {
				k.consumer[i] = 0
			}
			return
		}
	}
	if !press {
		return
	}
	for i := range k.consumer {
		if k.consumer[i] == 0 {
			k.consumer[i] = usage
			return
		}
	}
}

// Dirty reports whether key state has changed since the last report was
// sent.
func (k *Keyboard) Dirty() bool { return k.dirty }

// ClearDirty marks the current state as sent.
func (k *Keyboard) ClearDirty() { k.dirty = false }

// BootReport computes the 9-byte boot-protocol report: report ID, modifier
// byte from codes 0xE0..0xE7, a reserved zero byte, and up to six
// non-modifier pressed keycodes in ascending order.
func (k *Keyboard) BootReport() []byte {
	out := make([]byte, 1+1+1+bootKeySlots)
	out[0] = KeyboardBootReportID

	var modifiers byte
	for i := 0; i < 8; i++ {
		if keyBit(k, modifierCodeBase+i) {
			modifiers |= 1 << uint(i)
		}
	}
	out[1] = modifiers

	slot := 0
	for keycode := 0; keycode < nkroBitmapBytes*8 && slot < bootKeySlots; keycode++ {
		if keycode >= modifierCodeBase && keycode <= modifierCodeBase+7 {
			continue
		}
		if keyBit(k, keycode) {
			out[3+slot] = byte(keycode)
			slot++
		}
	}
	return out
}

// NKROReport computes the 33-byte report ID plus 256-bit bitmap report.
// Nothing in the device update path currently sends this periodically.
func (k *Keyboard) NKROReport() []byte {
	out := make([]byte, 1+nkroBitmapBytes)
	out[0] = KeyboardNKROReportID
	copy(out[1:], k.bitmap[:])
	return out
}

// ConsumerReport computes the report-ID-prefixed 30-slot consumer usage
// array, little-endian per slot.
func (k *Keyboard) ConsumerReport() []byte {
	out := make([]byte, 1+consumerSlots*2)
	out[0] = KeyboardConsumerReportID
	for i, usage := range k.consumer {
		out[1+i*2] = byte(usage)
		out[1+i*2+1] = byte(usage >> 8)
	}
	return out
}
