package wire_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigcore/inputproxy/wire"
)

func collect(packets *[][]byte) func([]byte) {
	return func(p []byte) {
		cp := append([]byte(nil), p...)
		*packets = append(*packets, cp)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	lengths := []int{0, 1, 13, 64, 1000, 10_230}
	for _, n := range lengths {
		payload := make([]byte, n)
		for i := range payload {
			payload[i] = byte(i * 7)
		}

		var got [][]byte
		f := wire.NewFramer(collect(&got))
		f.Push(wire.Encode(payload))

		require.Len(t, got, 1)
		assert.Equal(t, payload, got[0])
	}
}

func TestFramerIgnoresFalseSync(t *testing.T) {
	// S3: [0xAA, 0xBB, 0xEF, 0xFF, encode(P1), 0x00, encode(P2)]
	p1 := []byte("hello")
	p2 := []byte("world!!")

	stream := []byte{0xAA, 0xBB, 0xEF, 0xFF}
	stream = append(stream, wire.Encode(p1)...)
	stream = append(stream, 0x00)
	stream = append(stream, wire.Encode(p2)...)

	var got [][]byte
	f := wire.NewFramer(collect(&got))
	f.Push(stream)

	require.Len(t, got, 2)
	assert.Equal(t, p1, got[0])
	assert.Equal(t, p2, got[1])
}

func TestFramerDropsSinglePacketOnContentCrcMismatch(t *testing.T) {
	p1 := []byte("abc")
	p2 := []byte("defgh")

	frame1 := wire.Encode(p1)
	// Corrupt one content byte without touching the header, so the header
	// CRC still validates but the content CRC will not.
	frame1[10] ^= 0xFF

	stream := append(append([]byte(nil), frame1...), wire.Encode(p2)...)

	var got [][]byte
	f := wire.NewFramer(collect(&got))
	f.Push(stream)

	require.Len(t, got, 1)
	assert.Equal(t, p2, got[0])
}

func TestFramerByteAtATimeMatchesBulkPush(t *testing.T) {
	payload := []byte("streamed byte by byte")
	frame := wire.Encode(payload)

	var got [][]byte
	f := wire.NewFramer(collect(&got))
	for _, b := range frame {
		f.Push([]byte{b})
	}

	require.Len(t, got, 1)
	assert.Equal(t, payload, got[0])
}

func TestFramerRecoversFromNoise(t *testing.T) {
	noise := []byte{0x00, 0xFF, 0xEF, 0x01, 0xEF, 0xFE, 0x12, 0x34}
	payload := []byte("after the noise")

	stream := append(append([]byte(nil), noise...), wire.Encode(payload)...)

	var got [][]byte
	f := wire.NewFramer(collect(&got))
	f.Push(stream)

	require.Len(t, got, 1)
	assert.Equal(t, payload, got[0])
}
