package proxy

import (
	"encoding/json"
	"net/http"

	"github.com/tkingovr/reqguard/api"
	"github.com/tkingovr/reqguard/internal/filter"
)

// errorBody is the wire form of a rejection.
type errorBody struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RenderFailure writes f as a JSON error response. Headers collected by the
// pipeline are copied first and the hardening set is always applied, so
// rejections carry the same defensive headers as accepted responses.
func RenderFailure(w http.ResponseWriter, f *api.Failure, collected http.Header) {
	h := w.Header()
	for k, v := range collected {
		h[k] = append([]string(nil), v...)
	}
	filter.ApplyHardening(h)
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Del("Content-Length")

	w.WriteHeader(f.Status())
	_ = json.NewEncoder(w).Encode(errorBody{
		Status:  "error",
		Code:    f.Code,
		Message: f.Message,
	})
}

// internalError is sent when the pipeline itself fails.
func internalError() *api.Failure {
	return api.NewFailure("Internal server error", http.StatusInternalServerError)
}

// badGateway is sent when the upstream cannot be reached.
func badGateway() *api.Failure {
	return api.NewFailure("Bad gateway", http.StatusBadGateway)
}
