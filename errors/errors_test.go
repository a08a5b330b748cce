package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New("test error")
	require.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestSentinelDispatch(t *testing.T) {
	err := Wrap(ErrVersionConflict, "saving report r-1")

	assert.True(t, IsVersionConflict(err))
	assert.True(t, IsRetryable(err))
	assert.False(t, IsNotFound(err))
	assert.False(t, IsAccessDenied(err))
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrAccessDenied,
		ErrValidation,
		ErrInvalidTransition,
		ErrVersionConflict,
		ErrUnavailable,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, Is(a, b), "sentinel %v must not match %v", a, b)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(Wrap(ErrUnavailable, "store down")))
	assert.False(t, IsRetryable(Wrap(ErrAccessDenied, "no clearance")))
	assert.False(t, IsRetryable(nil))
}
