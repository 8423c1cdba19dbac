package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePairKeyPassesThroughNonPromptValues(t *testing.T) {
	got, err := resolvePairKey("hunter2")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got)
}

func TestResolvePairKeyPassesThroughEmptyValue(t *testing.T) {
	got, err := resolvePairKey("")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}
