package config

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildMapFromStructSkipsPositionalArgs(t *testing.T) {
	m := buildMapFromStruct(reflect.TypeOf(Host{}))
	_, hasUartPath := m["uartPath"]
	assert.False(t, hasUartPath, "positional arg fields must not appear in a config template")
	assert.Contains(t, m, "baud")
	assert.Equal(t, int64(115200), m["baud"])
}

func TestBuildMapFromStructHonorsEmbedPrefix(t *testing.T) {
	m := buildMapFromStruct(reflect.TypeOf(CLI{}))
	logSection, ok := m["log"].(map[string]any)
	if assert.True(t, ok, "expected an embedded log section") {
		assert.Equal(t, "info", logSection["level"])
	}
}

func TestNormalizeFormatAcceptsYamlAlias(t *testing.T) {
	assert.Equal(t, "yaml", normalizeFormat("yml"))
	assert.Equal(t, "", normalizeFormat("ini"))
}

func TestLowerCamelOnlyTouchesFirstRune(t *testing.T) {
	assert.Equal(t, "storePath", lowerCamel("StorePath"))
	assert.Equal(t, "", lowerCamel(""))
}
