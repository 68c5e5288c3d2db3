package filter

import (
	"context"

	"github.com/tkingovr/reqguard/api"
)

// Filter is a single step in the request processing pipeline.
type Filter interface {
	// Name returns the filter name for logging and audit records.
	Name() string

	// Process inspects the request and may add response headers to the
	// context. The returned Result decides whether the chain continues.
	// A non-nil error means the filter itself failed (not the request) and
	// aborts the chain.
	Process(ctx context.Context, fc *FilterContext) (Result, error)
}

// Action tags a Result.
type Action int

const (
	// ActionProceed lets the request fall through to the next filter.
	ActionProceed Action = iota

	// ActionReject halts the chain with a classified failure.
	ActionReject

	// ActionRespond halts the chain and answers the request directly with
	// a status and the headers collected so far (CORS preflight).
	ActionRespond
)

func (a Action) String() string {
	switch a {
	case ActionProceed:
		return "proceed"
	case ActionReject:
		return "reject"
	case ActionRespond:
		return "respond"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of a single filter.
type Result struct {
	Action  Action
	Failure *api.Failure
	Status  int
}

// Proceed lets the request continue.
func Proceed() Result { return Result{Action: ActionProceed} }

// Reject halts the chain with f.
func Reject(f *api.Failure) Result { return Result{Action: ActionReject, Failure: f} }

// Respond halts the chain and answers with status.
func Respond(status int) Result { return Result{Action: ActionRespond, Status: status} }

// Func adapts a function to the Filter interface.
type Func struct {
	FilterName string
	Fn         func(ctx context.Context, fc *FilterContext) (Result, error)
}

func (f Func) Name() string { return f.FilterName }

func (f Func) Process(ctx context.Context, fc *FilterContext) (Result, error) {
	return f.Fn(ctx, fc)
}
