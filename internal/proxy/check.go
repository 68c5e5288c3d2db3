package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tkingovr/reqguard/api"
)

// NewCheckRequest builds the inbound request a CheckRequest describes.
// The declared Content-Length header is kept verbatim, malformed or not.
func NewCheckRequest(ctx context.Context, req api.CheckRequest) (*http.Request, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := req.Path
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("path %q must start with /", path)
	}
	clientIP := req.ClientIP
	if clientIP == "" {
		clientIP = "127.0.0.1"
	}

	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}
	r, err := http.NewRequestWithContext(ctx, method, "http://reqguard.local"+path, body)
	if err != nil {
		return nil, fmt.Errorf("building check request: %w", err)
	}
	r.RemoteAddr = clientIP
	for k, v := range req.Headers {
		r.Header.Set(k, v)
	}
	if req.ContentLength != "" {
		r.Header.Set("Content-Length", req.ContentLength)
	}
	return r, nil
}

// Evaluate dry-runs req through the guard's chain and reports the decision.
func (g *Guard) Evaluate(ctx context.Context, req api.CheckRequest) (*api.CheckResponse, error) {
	r, err := NewCheckRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	fc, err := g.Check(r)
	if err != nil {
		return nil, err
	}

	resp := &api.CheckResponse{
		Outcome: fc.Outcome,
		Filter:  fc.HaltedBy,
		Status:  fc.ResponseStatus(),
		Country: fc.Country,
		Headers: make(map[string]string, len(fc.Header)),
	}
	if resp.Status == 0 {
		resp.Status = http.StatusOK
	}
	if fc.Failure != nil {
		resp.Message = fc.Failure.Message
	}
	for k, v := range fc.Header {
		resp.Headers[k] = strings.Join(v, ", ")
	}
	return resp, nil
}
