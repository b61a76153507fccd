package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"medilearn/internal/core"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 0, r.Len())

	_, err := r.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	m := core.NewMachine("abc", nil, 600, 800, zap.NewNop())
	r.Put("abc", m)
	assert.Equal(t, 1, r.Len())

	got, err := r.Get("abc")
	require.NoError(t, err)
	assert.Same(t, m, got)

	r.Delete("abc")
	assert.Equal(t, 0, r.Len())
	_, err = r.Get("abc")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting twice is harmless.
	r.Delete("abc")
}
