package filter

import (
	"context"
	"net/http"
	"strings"
)

// Fixed cross-origin policy.
var (
	CORSAllowedOrigin  = "*"
	CORSAllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodPut}
	CORSAllowedHeaders = []string{"Content-Type", "Authorization"}
)

// CORSFilter attaches the cross-origin policy to every response and answers
// preflight requests itself. It never rejects.
//
// Credentials are not supported: the wildcard origin cannot be combined
// with Access-Control-Allow-Credentials.
type CORSFilter struct {
	methods string
	headers string
}

func NewCORSFilter() *CORSFilter {
	return &CORSFilter{
		methods: strings.Join(CORSAllowedMethods, ","),
		headers: strings.Join(CORSAllowedHeaders, ","),
	}
}

func (f *CORSFilter) Name() string { return "cors" }

func (f *CORSFilter) Process(_ context.Context, fc *FilterContext) (Result, error) {
	h := fc.Header
	h.Set("Access-Control-Allow-Origin", CORSAllowedOrigin)
	h.Set("Access-Control-Allow-Methods", f.methods)
	h.Set("Access-Control-Allow-Headers", f.headers)

	if fc.Request.Method == http.MethodOptions {
		h.Set("Content-Length", "0")
		return Respond(http.StatusNoContent), nil
	}
	return Proceed(), nil
}
