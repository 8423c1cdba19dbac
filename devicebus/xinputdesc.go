package devicebus

import (
	"bytes"

	"github.com/rigcore/inputproxy/usb"
)

// xboxClassDescriptor is the wired Xbox 360 controller's vendor-specific
// class descriptor (type 0x21), byte-for-byte as the real controller
// reports it: this is not a HID report descriptor, XInput devices have no
// standard report descriptor at all.
var xboxClassDescriptor = []byte{
	0x00, 0x01, 0x01, 0x25, 0x81, 0x14, 0x00, 0x00, 0x00, 0x00, 0x13, 0x01, 0x08, 0x00, 0x00,
}

const (
	xboxClassDescriptorType = 0x21
	xboxInterfaceClass      = 0xff
	xboxInterfaceSubclass   = 0x5d
	xboxInterfaceProtocol   = 0x01
)

// xinputDescriptorLocked assembles one vendor-specific interface per
// occupied socket (XInput gamepads only), each with the wired controller's
// real class descriptor and an interrupt IN/OUT endpoint pair derived from
// the socket index the same way HID mode derives its single IN endpoint.
//
// The real wired Xbox 360 controller advertises four interfaces per
// device (input, headset audio, chat-pad/LED, a vendor security
// interface); this only reproduces the input interface per socket, since
// the rest carry no input-proxy semantics this device exposes.
func (b *Bus) xinputDescriptorLocked() []byte {
	n := 0
	for _, s := range b.sockets {
		if s != nil {
			n++
		}
	}

	var buf bytes.Buffer
	usb.ConfigHeader{
		WTotalLength:        0, // patched below
		BNumInterfaces:      uint8(n),
		BConfigurationValue: 1,
		IConfiguration:      0,
		BMAttributes:        0xA0,
		BMaxPower:           250,
	}.Write(&buf)

	for i, s := range b.sockets {
		if s == nil {
			continue
		}
		usb.InterfaceDescriptor{
			BInterfaceNumber:   InterfaceNum(i),
			BAlternateSetting:  0,
			BNumEndpoints:      2,
			BInterfaceClass:    xboxInterfaceClass,
			BInterfaceSubClass: xboxInterfaceSubclass,
			BInterfaceProtocol: xboxInterfaceProtocol,
			IInterface:         0,
		}.Write(&buf)

		buf.WriteByte(byte(2 + len(xboxClassDescriptor)))
		buf.WriteByte(xboxClassDescriptorType)
		buf.Write(xboxClassDescriptor)

		usb.EndpointDescriptor{
			BEndpointAddress: EndpointAddr(i),
			BMAttributes:     3,
			WMaxPacketSize:   32,
			BInterval:        4,
		}.Write(&buf)
		usb.EndpointDescriptor{
			BEndpointAddress: EndpointAddr(i) &^ 0x80, // matching OUT endpoint
			BMAttributes:     3,
			WMaxPacketSize:   32,
			BInterval:        8,
		}.Write(&buf)
	}

	out := buf.Bytes()
	total := len(out)
	out[2] = byte(total)
	out[3] = byte(total >> 8)
	return out
}
