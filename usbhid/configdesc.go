package usbhid

import (
	"bytes"
	"sort"

	"github.com/rigcore/inputproxy/usb"
)

// DeviceKind selects the interface subclass/protocol an interface
// descriptor advertises.
type DeviceKind int

const (
	KindGamepad DeviceKind = iota
	KindKeyboard
	KindMouse
)

const (
	hidProtocolNone     = 0
	hidProtocolKeyboard = 1
	hidProtocolMouse    = 2

	// interfaceBlockLen is the declared per-interface contribution to the
	// configuration descriptor's total length: interface (9) + HID class
	// (9) + endpoint (7) descriptors, padded with reserved zero bytes out
	// to a fixed 32-byte stride.
	interfaceBlockLen = 32
)

// InterfaceSpec describes one occupied device socket's contribution to the
// configuration descriptor.
type InterfaceSpec struct {
	InterfaceNum           uint8
	EndpointAddr           uint8
	StringIndex            uint8
	Kind                   DeviceKind
	ReportDescriptorLength uint16
}

// ConfigurationDescriptor assembles the full USB configuration descriptor
// for the given occupied interfaces: a 9-byte configuration header sized
// for bus-powered/remote-wakeup/500mA operation, followed by one
// interface+HID-class+endpoint block per interface, in ascending
// interfaceNum order as USB requires.
func ConfigurationDescriptor(interfaces []InterfaceSpec) []byte {
	sorted := append([]InterfaceSpec(nil), interfaces...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].InterfaceNum < sorted[j].InterfaceNum })

	totalLength := uint16(9 + len(sorted)*interfaceBlockLen)

	var b bytes.Buffer
	header := usb.ConfigHeader{
		WTotalLength:        totalLength,
		BNumInterfaces:      uint8(len(sorted)),
		BConfigurationValue: 1,
		IConfiguration:      0,
		BMAttributes:        0xA0, // bus-powered, remote wakeup
		BMaxPower:           250,  // 500mA in 2mA units
	}
	header.Write(&b)

	for _, ifc := range sorted {
		appendInterfaceBlock(&b, ifc)
	}
	return b.Bytes()
}

func appendInterfaceBlock(b *bytes.Buffer, ifc InterfaceSpec) {
	start := b.Len()

	subclass := uint8(0)
	protocol := uint8(hidProtocolNone)
	switch ifc.Kind {
	case KindKeyboard:
		subclass = 1
		protocol = hidProtocolKeyboard
	case KindMouse:
		subclass = 1
		protocol = hidProtocolMouse
	}

	usb.InterfaceDescriptor{
		BInterfaceNumber:   ifc.InterfaceNum,
		BAlternateSetting:  0,
		BNumEndpoints:      1,
		BInterfaceClass:    3, // HID
		BInterfaceSubClass: subclass,
		BInterfaceProtocol: protocol,
		IInterface:         ifc.StringIndex,
	}.Write(b)

	usb.HIDDescriptor{
		BcdHID:            0x0111,
		BCountryCode:      0,
		BNumDescriptors:   1,
		ClassDescType:     usb.ReportDescType,
		WDescriptorLength: ifc.ReportDescriptorLength,
	}.Write(b)

	usb.EndpointDescriptor{
		BEndpointAddress: ifc.EndpointAddr,
		BMAttributes:     3, // interrupt
		WMaxPacketSize:   64,
		BInterval:        10,
	}.Write(b)

	for b.Len()-start < interfaceBlockLen {
		b.WriteByte(0)
	}
}
