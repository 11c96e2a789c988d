package errdef_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gatherly/gatherly/internal/errdef"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsForbidden(t *testing.T) {
	assert.False(t, errdef.IsForbidden(errors.New("some error")))
	assert.True(t, errdef.IsForbidden(errdef.NewForbidden("some error")))
}

func TestIsBadRequest(t *testing.T) {
	assert.False(t, errdef.IsBadRequest(errors.New("some error")))
	assert.True(t, errdef.IsBadRequest(errdef.NewBadRequest("some error")))
}

func TestIsUnauthorized(t *testing.T) {
	assert.False(t, errdef.IsUnauthorized(errors.New("some error")))
	assert.True(t, errdef.IsUnauthorized(errdef.NewUnauthorized("some error")))
}

func TestIsNotFound(t *testing.T) {
	assert.False(t, errdef.IsNotFound(errors.New("some error")))
	assert.True(t, errdef.IsNotFound(errdef.NewNotFound("some error")))
}

func TestIsUnsupportedMediaType(t *testing.T) {
	assert.False(t, errdef.IsUnsupportedMediaType(errors.New("some error")))
	assert.True(t, errdef.IsUnsupportedMediaType(errdef.NewUnsupportedMediaType("some error")))
}

func TestIsNotFound_Wrapped(t *testing.T) {
	err := fmt.Errorf("while loading: %w", errdef.NewNotFound("event %q", "123"))

	assert.True(t, errdef.IsNotFound(err))
	assert.Equal(t, `while loading: event "123"`, err.Error())
}

func TestAsCapacityExceeded(t *testing.T) {
	_, ok := errdef.AsCapacityExceeded(errors.New("some error"))
	assert.False(t, ok)

	err := fmt.Errorf("attend: %w", errdef.NewCapacityExceeded(10, 10))

	capacityErr, ok := errdef.AsCapacityExceeded(err)
	require.True(t, ok)
	assert.Equal(t, 10, capacityErr.Capacity)
	assert.Equal(t, 10, capacityErr.AttendeeCount)
	assert.Equal(t, 0, capacityErr.Remaining())
	assert.Equal(t, "attend: event is full: 10 of 10 spots taken", err.Error())
}

func TestCapacityExceeded_RemainingNeverNegative(t *testing.T) {
	err := &errdef.CapacityExceeded{Capacity: 3, AttendeeCount: 5}

	assert.Equal(t, 0, err.Remaining())
}
