package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithFieldsJoinsSortedLines(t *testing.T) {
	err := WithFields(ErrBackendValidation, map[string]string{"email": "invalid", "birth_date": "too young"})

	assert.Equal(t, "birth_date: too young\nemail: invalid", err.Message)
	assert.Equal(t, http.StatusUnprocessableEntity, err.Status)
	assert.True(t, err.HasFields())
	assert.False(t, ErrBackendValidation.HasFields(), "predefined error must not be mutated")
}

func TestFieldErrorsThroughWrapping(t *testing.T) {
	base := WithFields(ErrValidation, map[string]string{"math": "out of range"})
	wrapped := fmt.Errorf("submit: %w", base)

	fields, ok := FieldErrors(wrapped)
	require.True(t, ok)
	assert.Equal(t, "out of range", fields["math"])

	_, ok = FieldErrors(Clone(ErrBadRequest, "SV001 already exists"))
	assert.False(t, ok)
}

func TestIsMatchesByCode(t *testing.T) {
	err := Clone(ErrNotFound, "student 9 missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrBadRequest))
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	err := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Nil(t, FromError(nil))
}
