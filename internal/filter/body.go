package filter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/tkingovr/reqguard/api"
)

// bodyPeekLimit bounds how much of a body is buffered to decide presence.
// Anything longer is a present body by definition.
const bodyPeekLimit = 64 << 10

type bodySnapshot struct {
	present bool
}

// HasBody reports whether the request carries a meaningful payload. An
// absent body, whitespace, a JSON null or empty object, and an empty form
// all count as no body. The inspected prefix is put back in front of the
// request body so downstream handlers read the full payload.
func (fc *FilterContext) HasBody() (bool, error) {
	if fc.body != nil {
		return fc.body.present, nil
	}

	r := fc.Request
	if r.Body == nil || r.Body == http.NoBody {
		fc.body = &bodySnapshot{}
		return false, nil
	}

	orig := r.Body
	buf, err := io.ReadAll(io.LimitReader(orig, bodyPeekLimit+1))
	if err != nil {
		return false, fmt.Errorf("reading request body: %w", err)
	}
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(buf), orig), orig}

	present := len(buf) > bodyPeekLimit || payloadPresent(r.Header.Get("Content-Type"), buf)
	fc.body = &bodySnapshot{present: present}
	return present, nil
}

func payloadPresent(contentType string, buf []byte) bool {
	trimmed := bytes.TrimSpace(buf)
	if len(trimmed) == 0 {
		return false
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		return jsonPresent(trimmed)
	case mediaType == "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(trimmed))
		return err != nil || len(values) > 0
	case mediaType == "" && (trimmed[0] == '{' || trimmed[0] == 'n'):
		return jsonPresent(trimmed)
	}
	return true
}

func jsonPresent(data []byte) bool {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return true
	}
	switch t := v.(type) {
	case nil:
		return false
	case map[string]any:
		return len(t) > 0
	}
	return true
}

// BodyFilter rejects GET and DELETE requests that carry a body.
type BodyFilter struct{}

func NewBodyFilter() *BodyFilter { return &BodyFilter{} }

func (f *BodyFilter) Name() string { return "body_shape" }

func (f *BodyFilter) Process(_ context.Context, fc *FilterContext) (Result, error) {
	if fc.Request.Method != http.MethodGet && fc.Request.Method != http.MethodDelete {
		return Proceed(), nil
	}
	present, err := fc.HasBody()
	if err != nil {
		return Result{}, err
	}
	if present {
		return Reject(api.BodyNotAllowed()), nil
	}
	return Proceed(), nil
}
