package filter

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/tkingovr/reqguard/api"
)

// DefaultMaxBytes is the declared body size ceiling (10 MB).
const DefaultMaxBytes int64 = 10_000_000

// SizeFilter rejects requests whose declared Content-Length exceeds a
// ceiling. It only reads the header: a missing or malformed value passes,
// and the real cap on streamed bodies belongs to the transport.
type SizeFilter struct {
	maxBytes int64
}

// NewSizeFilter creates a size filter; a non-positive ceiling selects
// DefaultMaxBytes.
func NewSizeFilter(maxBytes int64) *SizeFilter {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &SizeFilter{maxBytes: maxBytes}
}

func (f *SizeFilter) Name() string { return "size" }

func (f *SizeFilter) Process(_ context.Context, fc *FilterContext) (Result, error) {
	n, ok := declaredLength(fc)
	if ok && n > f.maxBytes {
		return Reject(api.PayloadTooLarge()), nil
	}
	return Proceed(), nil
}

// declaredLength returns the Content-Length the client declared.
func declaredLength(fc *FilterContext) (int64, bool) {
	raw := strings.TrimSpace(fc.Request.Header.Get("Content-Length"))
	if raw == "" {
		if fc.Request.ContentLength > 0 {
			return fc.Request.ContentLength, true
		}
		return 0, false
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// Digits too many for int64 still declare an oversized body.
		if errors.Is(err, strconv.ErrRange) && n > 0 {
			return n, true
		}
		return 0, false
	}
	return n, true
}
