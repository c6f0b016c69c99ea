package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithDefaults(t *testing.T) {
	log, err := New(nil)
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestNewJSONFormat(t *testing.T) {
	log, err := New(&Config{Level: "debug", Format: "json"})
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	require.Error(t, err)
}

func TestGetReturnsSharedLogger(t *testing.T) {
	first := Get()
	require.NotNil(t, first)
	assert.Same(t, first, Get())
}

func TestSetDefault(t *testing.T) {
	original := Get()
	t.Cleanup(func() { SetDefault(original) })

	custom, err := New(&Config{Level: "error", Format: "json"})
	require.NoError(t, err)

	SetDefault(custom)
	assert.Same(t, custom, Get())
}
