package usbhid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigcore/inputproxy/usbhid"
)

func TestGamepadReportLengthMatchesScenario(t *testing.T) {
	length := usbhid.GamepadReportLength(10, 0b00000011, true)
	assert.Equal(t, 5, length) // ceil(10/8)=2 buttons + 2 axes + 1 hat
}

func TestGamepadSetAxisAndUpdateProducesExpectedSlots(t *testing.T) {
	g := usbhid.NewGamepad(10, 0b00000011, true)
	g.SetAxis(usbhid.GamepadAxisLXPlus, 1000)

	report := g.Report()
	require.Len(t, report, 5)
	assert.Equal(t, byte(255), report[2]) // LX slot
	assert.Equal(t, byte(127), report[3]) // LY slot untouched, centred
}

func TestGamepadReportDescriptorIsNonEmpty(t *testing.T) {
	desc := usbhid.GamepadReportDescriptor(10, 0b00000011, true)
	assert.NotEmpty(t, desc)
}

func TestHatValueCompassAndConflicts(t *testing.T) {
	assert.Equal(t, uint8(0), usbhid.HatValue(true, false, false, false))
	assert.Equal(t, uint8(1), usbhid.HatValue(true, false, false, true))
	assert.Equal(t, usbhid.HatNull, usbhid.HatValue(true, true, false, false))
	assert.Equal(t, usbhid.HatNull, usbhid.HatValue(false, false, true, true))
	assert.Equal(t, usbhid.HatNull, usbhid.HatValue(false, false, false, false))
}

func TestXboxStickValueRange(t *testing.T) {
	assert.Equal(t, int16(32767), usbhid.XboxStickValue(0, 1000))
	assert.Equal(t, int16(-32768), usbhid.XboxStickValue(1000, 0))
	assert.Equal(t, int16(0), usbhid.XboxStickValue(0, 0))
}

func TestKeyboardBootReportSequence(t *testing.T) {
	kb := usbhid.NewKeyboard()

	kb.SetKey(5, 1)   // A
	kb.SetKey(225, 1) // Control-Left
	kb.SetKey(6, 1)   // B

	report := kb.BootReport()
	assert.Equal(t, byte(usbhid.KeyboardBootReportID), report[0])
	assert.Equal(t, byte(0x01), report[1]) // modifier
	assert.Equal(t, byte(0), report[2])    // reserved
	assert.Equal(t, []byte{4, 5, 0, 0, 0, 0}, report[3:])

	kb.SetKey(5, 0) // release A
	report = kb.BootReport()
	assert.Equal(t, []byte{5, 0, 0, 0, 0, 0}, report[3:])
}

func TestKeyboardConsumerArrayDedupesAndClears(t *testing.T) {
	kb := usbhid.NewKeyboard()
	kb.SetKey(257, 1)
	kb.SetKey(257, 1) // duplicate, ignored
	kb.SetKey(258, 1)

	report := kb.ConsumerReport()
	assert.Equal(t, byte(usbhid.KeyboardConsumerReportID), report[0])

	kb.SetKey(0, 0) // clear all
	report = kb.ConsumerReport()
	for _, b := range report[1:] {
		assert.Zero(t, b)
	}
}

func TestMouseLatchesAndClipsRelativeDeltas(t *testing.T) {
	m := usbhid.NewMouse()
	m.SetAxis(6, 1000) // X minus, clipped to -127
	m.SetAxis(1, 1)    // left button

	report := m.Report()
	assert.Equal(t, byte(usbhid.MouseReportID), report[0])
	assert.Equal(t, byte(1), report[1])
	assert.Equal(t, int8(-127), int8(report[2]))

	m.ClearDeltas()
	report = m.Report()
	assert.Equal(t, byte(0), report[2])
	assert.Equal(t, byte(1), report[1]) // buttons stay absolute
}

func TestConfigurationDescriptorTotalLength(t *testing.T) {
	interfaces := []usbhid.InterfaceSpec{
		{InterfaceNum: 0, EndpointAddr: 0x81, StringIndex: 4, Kind: usbhid.KindGamepad, ReportDescriptorLength: 40},
		{InterfaceNum: 1, EndpointAddr: 0x82, StringIndex: 5, Kind: usbhid.KindKeyboard, ReportDescriptorLength: 70},
	}
	desc := usbhid.ConfigurationDescriptor(interfaces)
	require.Len(t, desc, 9+2*32)
	assert.Equal(t, byte(2), desc[4]) // bNumInterfaces
}

func TestConfigurationDescriptorSortsByInterfaceNum(t *testing.T) {
	interfaces := []usbhid.InterfaceSpec{
		{InterfaceNum: 2, EndpointAddr: 0x83},
		{InterfaceNum: 0, EndpointAddr: 0x81},
		{InterfaceNum: 1, EndpointAddr: 0x82},
	}
	desc := usbhid.ConfigurationDescriptor(interfaces)
	first := desc[9+2] // bInterfaceNumber of first interface descriptor
	assert.Equal(t, byte(0), first)
}
