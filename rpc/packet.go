package rpc

import (
	"encoding/binary"
	"fmt"

	"github.com/rigcore/inputproxy/wire"
)

const (
	magic = 0xABCD

	// PacketHeaderLen is the fixed size of a packet header, in bytes.
	PacketHeaderLen = 13

	// FlagReply marks a packet as a reply to an earlier call rather than a
	// new call.
	FlagReply byte = 1 << 0

	// MaxPacketLength is the hard ceiling on a full packet (header +
	// payload). It tracks the frame layer's content cap rather than the
	// looser 10,240-byte figure sometimes quoted for the packet format,
	// since the frame layer is the tighter constraint in practice: nothing
	// larger ever survives the trip through a Framer.
	MaxPacketLength = wire.MaxContentLength

	// MaxPayloadLength is the largest payload a packet can carry.
	MaxPayloadLength = MaxPacketLength - PacketHeaderLen
)

// PacketHeader is the 13-byte header prefixing every RPC packet.
//
//	offset  width  field
//	0       2      magic = 0xABCD
//	2       2      total length (header + payload)
//	4       2      providerId
//	6       2      methodId
//	8       1      flags
//	9       4      callId
type PacketHeader struct {
	ProviderID uint16
	MethodID   uint16
	Flags      byte
	CallID     uint32
}

// IsReply reports whether this header marks a reply packet.
func (h PacketHeader) IsReply() bool { return h.Flags&FlagReply != 0 }

func key(providerID, methodID uint16) uint32 {
	return uint32(providerID)<<16 | uint32(methodID)
}

// EncodePacket serializes header and payload into a single packet.
func EncodePacket(header PacketHeader, payload []byte) ([]byte, error) {
	total := PacketHeaderLen + len(payload)
	if total > MaxPacketLength {
		return nil, fmt.Errorf("rpc: packet length %d exceeds max %d", total, MaxPacketLength)
	}
	out := make([]byte, total)
	binary.LittleEndian.PutUint16(out[0:2], magic)
	binary.LittleEndian.PutUint16(out[2:4], uint16(total))
	binary.LittleEndian.PutUint16(out[4:6], header.ProviderID)
	binary.LittleEndian.PutUint16(out[6:8], header.MethodID)
	out[8] = header.Flags
	binary.LittleEndian.PutUint32(out[9:13], header.CallID)
	copy(out[PacketHeaderLen:], payload)
	return out, nil
}

// DecodePacket parses a packet produced by EncodePacket.
func DecodePacket(data []byte) (PacketHeader, []byte, error) {
	if len(data) < PacketHeaderLen {
		return PacketHeader{}, nil, fmt.Errorf("rpc: packet shorter than header (%d bytes)", len(data))
	}
	if got := binary.LittleEndian.Uint16(data[0:2]); got != magic {
		return PacketHeader{}, nil, fmt.Errorf("rpc: bad magic %#04x", got)
	}
	total := int(binary.LittleEndian.Uint16(data[2:4]))
	if total != len(data) {
		return PacketHeader{}, nil, fmt.Errorf("rpc: packet declares length %d, got %d bytes", total, len(data))
	}
	header := PacketHeader{
		ProviderID: binary.LittleEndian.Uint16(data[4:6]),
		MethodID:   binary.LittleEndian.Uint16(data[6:8]),
		Flags:      data[8],
		CallID:     binary.LittleEndian.Uint32(data[9:13]),
	}
	return header, data[PacketHeaderLen:], nil
}
