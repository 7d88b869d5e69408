package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCodeOf(t *testing.T) {
	t.Run("typed error", func(t *testing.T) {
		err := NotFound("document %d not found", 7)
		assert.Equal(t, CodeNotFound, CodeOf(err))
		assert.Equal(t, "document 7 not found", err.Error())
	})

	t.Run("wrapped typed error", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", InvalidState("already evaluated"))
		assert.Equal(t, CodeInvalidState, CodeOf(err))
	})

	t.Run("untyped error maps to internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})
}

func TestFromStorage(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, FromStorage(nil, "nf", "cf"))
	})

	t.Run("record not found", func(t *testing.T) {
		err := FromStorage(gorm.ErrRecordNotFound, "revision does not exist", "")
		require.Error(t, err)
		assert.Equal(t, CodeNotFound, CodeOf(err))
		assert.Equal(t, "revision does not exist", err.Error())
	})

	t.Run("duplicated key", func(t *testing.T) {
		err := FromStorage(gorm.ErrDuplicatedKey, "", "code already exists")
		assert.Equal(t, CodeConflict, CodeOf(err))
	})

	t.Run("driver unique violation text", func(t *testing.T) {
		err := FromStorage(errors.New("UNIQUE constraint failed: documents.code"), "", "dup")
		assert.Equal(t, CodeConflict, CodeOf(err))
	})

	t.Run("typed error untouched", func(t *testing.T) {
		orig := Conflict("active revision exists")
		err := FromStorage(orig, "nf", "cf")
		assert.Equal(t, orig, err)
	})

	t.Run("unknown becomes internal with cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := FromStorage(cause, "nf", "cf")
		assert.Equal(t, CodeInternal, CodeOf(err))
		assert.ErrorIs(t, err, cause)
	})
}

func TestIs(t *testing.T) {
	assert.True(t, Is(Forbidden("nope"), CodeForbidden))
	assert.False(t, Is(Forbidden("nope"), CodeNotFound))
}
