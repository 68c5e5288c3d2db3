package api

import "time"

// Outcome is the terminal state of a request after the filter chain ran.
type Outcome string

const (
	OutcomeAccepted  Outcome = "accepted"
	OutcomeRejected  Outcome = "rejected"
	OutcomePreflight Outcome = "preflight"
)

// AuditRecord represents a single pipeline decision.
type AuditRecord struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Method    string        `json:"method"`
	Path      string        `json:"path,omitempty"`
	ClientIP  string        `json:"client_ip,omitempty"`
	Country   string        `json:"country,omitempty"`
	Outcome   Outcome       `json:"outcome"`
	Filter    string        `json:"filter,omitempty"`
	Status    int           `json:"status,omitempty"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// CheckRequest describes a synthetic request for the `check` command and the
// dashboard dry-run API.
type CheckRequest struct {
	Method        string            `json:"method"`
	Path          string            `json:"path,omitempty"`
	ClientIP      string            `json:"client_ip"`
	ContentLength string            `json:"content_length,omitempty"`
	Body          string            `json:"body,omitempty"`
	Headers       map[string]string `json:"headers,omitempty"`
}

// CheckResponse is the decision the pipeline reached for a CheckRequest.
type CheckResponse struct {
	Outcome Outcome           `json:"outcome"`
	Filter  string            `json:"filter,omitempty"`
	Status  int               `json:"status"`
	Message string            `json:"message,omitempty"`
	Country string            `json:"country,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}
