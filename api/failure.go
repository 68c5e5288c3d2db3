package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Failure is a classified request rejection: a human-readable message and
// the HTTP status code the caller receives.
type Failure struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// NewFailure returns a Failure carrying message and code.
func NewFailure(message string, code int) *Failure {
	return &Failure{Message: message, Code: code}
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%d %s", f.Code, f.Message)
}

// Status returns the HTTP status code, falling back to 500 for codes that
// are not valid HTTP statuses.
func (f *Failure) Status() int {
	if f.Code < 100 || f.Code > 599 {
		return http.StatusInternalServerError
	}
	return f.Code
}

// AsFailure reports whether err carries a Failure and returns it.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// Failures produced by the request filters.
func BodyNotAllowed() *Failure {
	return NewFailure("Body not allowed for GET or DELETE requests", http.StatusBadRequest)
}

func PayloadTooLarge() *Failure {
	return NewFailure("Request entity too large", http.StatusRequestEntityTooLarge)
}

func AccessDenied() *Failure {
	return NewFailure("Access denied", http.StatusForbidden)
}

func RateLimited() *Failure {
	return NewFailure("Too many requests, please try again later.", http.StatusTooManyRequests)
}
