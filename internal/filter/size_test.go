package filter

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkingovr/reqguard/api"
)

func TestSizeFilter(t *testing.T) {
	tests := []struct {
		name          string
		contentLength string
		reject        bool
	}{
		{"absent", "", false},
		{"zero", "0", false},
		{"small", "1024", false},
		{"at ceiling", "10000000", false},
		{"one over ceiling", "10000001", true},
		{"far over ceiling", "500000000", true},
		{"beyond int64", "99999999999999999999999", true},
		{"padded", " 20000000 ", true},
		{"non numeric", "lots", false},
		{"trailing garbage", "123abc", false},
		{"negative", "-5", false},
		{"float", "1e9", false},
	}

	f := NewSizeFilter(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := newTestContext(http.MethodPost, "", "127.0.0.1")
			if tt.contentLength != "" {
				fc.Request.Header.Set("Content-Length", tt.contentLength)
			}

			res, err := f.Process(context.Background(), fc)
			require.NoError(t, err)
			if tt.reject {
				require.Equal(t, ActionReject, res.Action)
				assert.Equal(t, api.PayloadTooLarge(), res.Failure)
			} else {
				assert.Equal(t, ActionProceed, res.Action)
			}
		})
	}
}

func TestSizeFilter_RequestContentLength(t *testing.T) {
	fc := newTestContext(http.MethodPost, "", "127.0.0.1")
	fc.Request.ContentLength = DefaultMaxBytes + 1

	res, err := NewSizeFilter(0).Process(context.Background(), fc)
	require.NoError(t, err)
	assert.Equal(t, ActionReject, res.Action)
}

func TestSizeFilter_CustomCeiling(t *testing.T) {
	f := NewSizeFilter(100)

	fc := newTestContext(http.MethodPost, "", "127.0.0.1")
	fc.Request.Header.Set("Content-Length", "101")
	res, err := f.Process(context.Background(), fc)
	require.NoError(t, err)
	assert.Equal(t, ActionReject, res.Action)

	fc = newTestContext(http.MethodPost, "", "127.0.0.1")
	fc.Request.Header.Set("Content-Length", "100")
	res, err = f.Process(context.Background(), fc)
	require.NoError(t, err)
	assert.Equal(t, ActionProceed, res.Action)
}
