package filter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tkingovr/reqguard/api"
)

// Chain executes a sequence of filters in order.
type Chain struct {
	filters []Filter
	logger  *slog.Logger
}

// NewChain creates a new filter chain.
func NewChain(logger *slog.Logger, filters ...Filter) *Chain {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Chain{
		filters: filters,
		logger:  logger,
	}
}

// Process runs the filters in sequence on the given context. The first
// filter that rejects or responds halts the chain; no later filter sees the
// request. When every filter proceeds the request is accepted.
//
// The returned error is reserved for filter malfunctions; a rejected
// request is reported through fc.Outcome and fc.Failure.
func (c *Chain) Process(ctx context.Context, fc *FilterContext) error {
	for _, f := range c.filters {
		res, err := f.Process(ctx, fc)
		if err != nil {
			return fmt.Errorf("filter %q: %w", f.Name(), err)
		}
		c.logger.Debug("filter executed",
			"filter", f.Name(),
			"method", fc.Request.Method,
			"action", res.Action.String(),
		)

		switch res.Action {
		case ActionReject:
			failure := res.Failure
			if failure == nil {
				return fmt.Errorf("filter %q: rejected without a failure", f.Name())
			}
			fc.Outcome = api.OutcomeRejected
			fc.Failure = failure
			fc.HaltedBy = f.Name()
			return nil
		case ActionRespond:
			fc.Outcome = api.OutcomePreflight
			fc.Status = res.Status
			fc.HaltedBy = f.Name()
			return nil
		}
	}
	fc.Outcome = api.OutcomeAccepted
	return nil
}

// Filters returns the filter names in execution order.
func (c *Chain) Filters() []string {
	names := make([]string, len(c.filters))
	for i, f := range c.filters {
		names[i] = f.Name()
	}
	return names
}

// AddFilter appends a filter to the chain.
func (c *Chain) AddFilter(f Filter) {
	c.filters = append(c.filters, f)
}
