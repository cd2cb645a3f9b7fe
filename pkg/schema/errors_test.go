package schema

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewErrorBasics(t *testing.T) {
	err := New(ErrorTypeValidation, "test message")

	assert.Equal(t, ErrorTypeValidation, err.Type)
	assert.Equal(t, "test message", err.Message)
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Empty(t, err.Details)
	assert.Nil(t, err.Cause)
	assert.Equal(t, "validation: test message", err.Error())
}

func TestErrorWithDetails(t *testing.T) {
	err := New(ErrorTypeValidation, "test message").WithDetails("extra info")
	assert.Equal(t, "validation: test message (extra info)", err.Error())
}

func TestWrapPreservesCause(t *testing.T) {
	original := errors.New("original error")
	wrapped := Wrap(original, ErrorTypeStore, "operation failed")

	require.Equal(t, ErrorTypeStore, wrapped.Type)
	assert.Equal(t, "operation failed", wrapped.Message)
	assert.Equal(t, original, wrapped.Cause)
	assert.Equal(t, original, wrapped.Unwrap())
	assert.True(t, errors.Is(wrapped, original))
}

func TestWrapfFormats(t *testing.T) {
	original := errors.New("connection refused")
	wrapped := Wrapf(original, ErrorTypeProviderHTTP, "failed to connect to %s:%d", "localhost", 5432)
	assert.Equal(t, "failed to connect to localhost:5432", wrapped.Message)
}

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		t    ErrorType
		code int
	}{
		{ErrorTypeValidation, http.StatusBadRequest},
		{ErrorTypeUnknownModel, http.StatusBadRequest},
		{ErrorTypeAuth, http.StatusUnauthorized},
		{ErrorTypeQuota, http.StatusPaymentRequired},
		{ErrorTypePromptTooLong, http.StatusBadRequest},
		{ErrorTypeInsufficientSamples, http.StatusBadGateway},
		{ErrorTypeDeadlineExceeded, http.StatusGatewayTimeout},
		{ErrorTypeInternal, http.StatusInternalServerError},
	}
	for _, c := range cases {
		got := New(c.t, "x")
		assert.Equal(t, c.code, got.HTTPStatus(), c.t)
	}
}
