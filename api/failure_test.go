package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailure_Error(t *testing.T) {
	f := NewFailure("Access denied", http.StatusForbidden)
	assert.Equal(t, "403 Access denied", f.Error())
	assert.Equal(t, http.StatusForbidden, f.Status())
}

func TestFailure_StatusOutOfRange(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, NewFailure("odd", 42).Status())
	assert.Equal(t, http.StatusInternalServerError, NewFailure("odd", 1000).Status())
}

func TestAsFailure(t *testing.T) {
	wrapped := fmt.Errorf("filter %q: %w", "size", PayloadTooLarge())

	f, ok := AsFailure(wrapped)
	require.True(t, ok)
	assert.Equal(t, http.StatusRequestEntityTooLarge, f.Code)
	assert.Equal(t, "Request entity too large", f.Message)

	_, ok = AsFailure(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestFailureConstructors(t *testing.T) {
	tests := []struct {
		f    *Failure
		code int
		msg  string
	}{
		{BodyNotAllowed(), 400, "Body not allowed for GET or DELETE requests"},
		{PayloadTooLarge(), 413, "Request entity too large"},
		{AccessDenied(), 403, "Access denied"},
		{RateLimited(), 429, "Too many requests, please try again later."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, tt.f.Code)
		assert.Equal(t, tt.msg, tt.f.Message)
	}
}
