package rpc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigcore/inputproxy/rpc"
)

func TestPacketEncodeDecodeRoundTrip(t *testing.T) {
	header := rpc.PacketHeader{ProviderID: 100, MethodID: 3, Flags: rpc.FlagReply, CallID: 0xDEADBEEF}
	payload := []byte("hello rpc")

	encoded, err := rpc.EncodePacket(header, payload)
	require.NoError(t, err)

	gotHeader, gotPayload, err := rpc.DecodePacket(encoded)
	require.NoError(t, err)
	assert.Equal(t, header, gotHeader)
	assert.Equal(t, payload, gotPayload)
	assert.True(t, gotHeader.IsReply())
}

func TestPacketRejectsOversizedPayload(t *testing.T) {
	_, err := rpc.EncodePacket(rpc.PacketHeader{}, make([]byte, rpc.MaxPayloadLength+1))
	assert.Error(t, err)
}

func TestDecodePacketRejectsBadMagic(t *testing.T) {
	encoded, err := rpc.EncodePacket(rpc.PacketHeader{}, []byte("x"))
	require.NoError(t, err)
	encoded[0] ^= 0xFF

	_, _, err = rpc.DecodePacket(encoded)
	assert.Error(t, err)
}

func TestDecodePacketRejectsLengthMismatch(t *testing.T) {
	encoded, err := rpc.EncodePacket(rpc.PacketHeader{}, []byte("hello"))
	require.NoError(t, err)

	_, _, err = rpc.DecodePacket(encoded[:len(encoded)-1])
	assert.Error(t, err)
}

func TestArgsTableRoundTrip(t *testing.T) {
	args := [][]byte{[]byte("a"), {}, []byte("longer argument")}
	encoded := rpc.EncodeArgsTable(args)

	decoded, err := rpc.DecodeArgsTable(encoded, len(args))
	require.NoError(t, err)
	assert.Equal(t, args, decoded)
}
