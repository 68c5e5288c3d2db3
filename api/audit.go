package api

import "time"

// QueryFilter defines criteria for querying audit records.
type QueryFilter struct {
	Since    time.Time `json:"since,omitempty"`
	Until    time.Time `json:"until,omitempty"`
	Method   string    `json:"method,omitempty"`
	ClientIP string    `json:"client_ip,omitempty"`
	Country  string    `json:"country,omitempty"`
	Filter   string    `json:"filter,omitempty"`
	Outcome  Outcome   `json:"outcome,omitempty"`
	Limit    int       `json:"limit,omitempty"`
	Offset   int       `json:"offset,omitempty"`
}

// AuditStats provides summary statistics for the dashboard.
type AuditStats struct {
	TotalRequests  int            `json:"total_requests"`
	AcceptedCount  int            `json:"accepted_count"`
	RejectedCount  int            `json:"rejected_count"`
	PreflightCount int            `json:"preflight_count"`
	ByFilter       map[string]int `json:"by_filter"`
	ByCountry      map[string]int `json:"by_country"`
	ByStatus       map[int]int    `json:"by_status"`
}
