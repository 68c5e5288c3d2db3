package proxy

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkingovr/reqguard/api"
	"github.com/tkingovr/reqguard/internal/filter"
)

func newCheckGuard() *Guard {
	return NewGuard(filter.BuildChain(filter.ChainConfig{}), nil)
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		req     api.CheckRequest
		outcome api.Outcome
		filter  string
		status  int
	}{
		{"local get", api.CheckRequest{Method: "get", ClientIP: "::1"}, api.OutcomeAccepted, "", 200},
		{"preflight", api.CheckRequest{Method: "OPTIONS", ClientIP: "10.0.0.1"}, api.OutcomePreflight, "cors", 204},
		{"get with body", api.CheckRequest{Method: "GET", Body: `{"a":1}`}, api.OutcomeRejected, "body_shape", 400},
		{"get with empty object", api.CheckRequest{Method: "GET", Body: `{}`, Headers: map[string]string{"Content-Type": "application/json"}}, api.OutcomeAccepted, "", 200},
		{"oversized", api.CheckRequest{Method: "POST", ContentLength: "10000001"}, api.OutcomeRejected, "size", 413},
		{"malformed length", api.CheckRequest{Method: "POST", ContentLength: "abc"}, api.OutcomeAccepted, "", 200},
		{"unknown country", api.CheckRequest{Method: "GET", ClientIP: "10.0.0.1"}, api.OutcomeRejected, "geo", 403},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := newCheckGuard().Evaluate(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, resp.Outcome)
			assert.Equal(t, tt.filter, resp.Filter)
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
		})
	}
}

func TestEvaluate_Message(t *testing.T) {
	resp, err := newCheckGuard().Evaluate(context.Background(), api.CheckRequest{Method: "DELETE", Body: "id=4"})
	require.NoError(t, err)
	assert.Equal(t, "Body not allowed for GET or DELETE requests", resp.Message)
}

func TestNewCheckRequest(t *testing.T) {
	r, err := NewCheckRequest(context.Background(), api.CheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, r.Method)
	assert.Equal(t, "/", r.URL.Path)
	assert.Equal(t, "127.0.0.1", filter.ClientIP(r, false))

	_, err = NewCheckRequest(context.Background(), api.CheckRequest{Path: "items"})
	assert.Error(t, err)
}
