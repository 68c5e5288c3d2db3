package audit

import (
	"context"

	"github.com/tkingovr/reqguard/api"
)

// Store keeps one record per pipeline decision: accepted, rejected or
// answered as a preflight. Records are immutable once written.
type Store interface {
	// Write appends the record for a finished decision.
	Write(ctx context.Context, record *api.AuditRecord) error

	// Query returns decisions matching the filter in write order.
	Query(ctx context.Context, filter api.QueryFilter) ([]*api.AuditRecord, error)

	// Stats counts decisions by outcome, halting filter, country and status.
	Stats(ctx context.Context) (*api.AuditStats, error)

	// Subscribe streams decisions as they are written. A slow subscriber
	// misses records rather than blocking the request path. The returned
	// function cancels the subscription and may be called more than once.
	Subscribe(ctx context.Context) (<-chan *api.AuditRecord, func())

	Close() error
}
