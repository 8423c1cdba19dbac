package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevelRecognizesTrace(t *testing.T) {
	assert.Equal(t, LevelTrace, ParseLevel("trace"))
	assert.Equal(t, LevelTrace < 0, true)
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	assert.Equal(t, ParseLevel(""), ParseLevel("info"))
	assert.Equal(t, ParseLevel("unknown-level"), ParseLevel("info"))
}

func TestNewRawWithNilWriterIsNoOp(t *testing.T) {
	rl := NewRaw(nil)
	assert.NotPanics(t, func() { rl.Log(true, []byte("hello")) })
}

func TestRawLoggerWritesHexDumpLine(t *testing.T) {
	var buf bytes.Buffer
	rl := NewRaw(&buf)
	rl.Log(true, []byte{0xDE, 0xAD})
	out := buf.String()
	assert.Contains(t, out, "C->S")
	assert.Contains(t, out, "de ad")
}

func TestRawLoggerSkipsEmptyChunks(t *testing.T) {
	var buf bytes.Buffer
	rl := NewRaw(&buf)
	rl.Log(false, nil)
	assert.Empty(t, buf.String())
}
