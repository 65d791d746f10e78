package apperrors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Endry199/jpstore/apperrors"
	"github.com/stretchr/testify/assert"
)

func TestMissingField_NamesField(t *testing.T) {
	err := apperrors.MissingField("email")

	assert.Equal(t, http.StatusBadRequest, err.Code)
	assert.Equal(t, apperrors.KindMissingField, err.Kind)
	assert.Equal(t, "email", err.Field)
	assert.Contains(t, err.Message, "email")
}

func TestStatus_WrappedAppError(t *testing.T) {
	wrapped := fmt.Errorf("persist: %w", apperrors.Persistence(errors.New("conn refused")))

	code, msg := apperrors.Status(wrapped)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Error saving the transaction to the database.", msg)
	assert.True(t, apperrors.Is(wrapped, apperrors.KindPersistence))
}

func TestStatus_PlainError(t *testing.T) {
	code, msg := apperrors.Status(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Internal server error", msg)
	assert.False(t, apperrors.Is(errors.New("boom"), apperrors.KindEmptyCart))
}

func TestError_UnwrapsCause(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := apperrors.Malformed(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "unexpected EOF")
}
