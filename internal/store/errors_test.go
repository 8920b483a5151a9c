package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityErrorsWrapGenericOnes(t *testing.T) {
	t.Parallel()

	for _, err := range []error{
		ErrUserNotFound,
		ErrSessionNotFound,
		ErrTermNotFound,
		ErrCourseNotFound,
		ErrSectionNotFound,
		ErrScheduleNotFound,
		ErrImportNotFound,
	} {
		assert.ErrorIs(t, err, ErrNotFound, "%v should wrap ErrNotFound", err)
		assert.True(t, IsNotFoundError(err))
	}

	assert.ErrorIs(t, ErrEmailExists, ErrDuplicate)
	assert.True(t, IsDuplicateError(ErrEmailExists))

	assert.False(t, IsNotFoundError(ErrDuplicate))
	assert.False(t, IsDuplicateError(ErrNotFound))
}

func TestWrappedErrorsStillMatch(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("loading profile: %w", ErrUserNotFound)
	assert.True(t, IsNotFoundError(wrapped))
	assert.ErrorIs(t, wrapped, ErrUserNotFound)
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := NewStoreError("schedule", "update", "saving entries", cause)

	assert.Contains(t, err.Error(), "update operation on schedule failed")
	assert.Contains(t, err.Error(), "connection reset")
	assert.ErrorIs(t, err, cause)

	bare := NewStoreError("user", "delete", "row missing", nil)
	assert.Equal(t, "delete operation on user failed: row missing", bare.Error())
	assert.Nil(t, errors.Unwrap(bare))
}
