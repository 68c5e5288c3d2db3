package filter

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCORSFilter_SimpleRequest(t *testing.T) {
	fc := newTestContext(http.MethodGet, "", "127.0.0.1")
	fc.Request.Header.Set("Origin", "https://app.example.com")

	res, err := NewCORSFilter().Process(context.Background(), fc)
	require.NoError(t, err)
	assert.Equal(t, ActionProceed, res.Action)

	assert.Equal(t, "*", fc.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET,POST,DELETE,PUT", fc.Header.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type,Authorization", fc.Header.Get("Access-Control-Allow-Headers"))
	assert.Empty(t, fc.Header.Get("Access-Control-Allow-Credentials"))
}

func TestCORSFilter_Preflight(t *testing.T) {
	fc := newTestContext(http.MethodOptions, "", "127.0.0.1")
	fc.Request.Header.Set("Origin", "https://app.example.com")
	fc.Request.Header.Set("Access-Control-Request-Method", "PUT")
	fc.Request.Header.Set("Access-Control-Request-Headers", "Authorization")

	res, err := NewCORSFilter().Process(context.Background(), fc)
	require.NoError(t, err)
	assert.Equal(t, ActionRespond, res.Action)
	assert.Equal(t, http.StatusNoContent, res.Status)
	assert.Equal(t, "0", fc.Header.Get("Content-Length"))
	assert.Equal(t, "*", fc.Header.Get("Access-Control-Allow-Origin"))
}

func TestCORSFilter_Idempotent(t *testing.T) {
	f := NewCORSFilter()
	fc := newTestContext(http.MethodGet, "", "127.0.0.1")

	_, err := f.Process(context.Background(), fc)
	require.NoError(t, err)
	first := fc.Header.Clone()

	_, err = f.Process(context.Background(), fc)
	require.NoError(t, err)
	assert.Equal(t, first, fc.Header)
}
