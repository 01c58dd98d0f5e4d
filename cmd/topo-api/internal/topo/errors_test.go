package topo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFound(t *testing.T) {
	err := NotFound("switch %q not found", "00:00:00:00:00:00:00:01")

	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsConflict(err))
	assert.False(t, IsInternal(err))
	assert.Contains(t, err.Error(), "00:00:00:00:00:00:00:01")
}

func TestConflict(t *testing.T) {
	err := Conflict("switch %q already registered", "00:00:00:00:00:00:00:01")

	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.False(t, IsNotFound(err))
}

func TestInternal(t *testing.T) {
	cause := errors.New("boom")
	err := Internal(cause, "unexpected failure")

	require.Error(t, err)
	assert.True(t, IsInternal(err))
	assert.True(t, errors.Is(err, cause))
}

func TestIsNotFoundOnWrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", NotFound("inner"))
	assert.True(t, IsNotFound(err))
}

func TestIsNotFoundOnForeignError(t *testing.T) {
	assert.False(t, IsNotFound(errors.New("some error")))
	assert.False(t, IsNotFound(nil))
}
