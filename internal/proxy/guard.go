package proxy

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/tkingovr/reqguard/api"
	"github.com/tkingovr/reqguard/internal/audit"
	"github.com/tkingovr/reqguard/internal/filter"
	"github.com/tkingovr/reqguard/internal/metrics"
)

// Guard runs every inbound request through the filter chain before the
// wrapped handler sees it.
type Guard struct {
	chain      *filter.Chain
	trustProxy bool
	store      audit.Store
	metrics    *metrics.Recorder
	logger     *slog.Logger
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithTrustProxy makes the guard take the caller address from the first
// X-Forwarded-For hop.
func WithTrustProxy(trust bool) GuardOption {
	return func(g *Guard) { g.trustProxy = trust }
}

// WithAudit records every decision in store.
func WithAudit(store audit.Store) GuardOption {
	return func(g *Guard) { g.store = store }
}

// WithMetrics counts every decision in m.
func WithMetrics(m *metrics.Recorder) GuardOption {
	return func(g *Guard) { g.metrics = m }
}

// NewGuard creates a guard around chain.
func NewGuard(chain *filter.Chain, logger *slog.Logger, opts ...GuardOption) *Guard {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	g := &Guard{chain: chain, logger: logger}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Middleware wraps next with the pipeline. Rejected requests get a JSON
// error, preflights an empty response, and accepted requests reach next
// with the collected headers already set and the FilterContext in the
// request context.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fc := filter.NewFilterContext(r, filter.ClientIP(r, g.trustProxy))

		if err := g.chain.Process(r.Context(), fc); err != nil {
			g.logger.Error("filter chain error",
				"error", err,
				"method", r.Method,
				"path", r.URL.Path,
				"client_ip", fc.ClientIP,
			)
			RenderFailure(w, internalError(), fc.Header)
			return
		}
		g.record(r.Context(), fc)

		switch fc.Outcome {
		case api.OutcomeRejected:
			g.logger.Warn("request rejected",
				"method", r.Method,
				"path", r.URL.Path,
				"client_ip", fc.ClientIP,
				"country", fc.Country,
				"filter", fc.HaltedBy,
				"status", fc.Failure.Status(),
			)
			RenderFailure(w, fc.Failure, fc.Header)
		case api.OutcomePreflight:
			fc.CopyHeaders(w.Header())
			filter.ApplyHardening(w.Header())
			w.Header().Set("Content-Length", "0")
			w.WriteHeader(fc.Status)
		default:
			fc.CopyHeaders(w.Header())
			next.ServeHTTP(w, r.WithContext(filter.WithContext(r.Context(), fc)))
		}
	})
}

// Check runs a request through the chain without serving it. Nothing is
// recorded.
func (g *Guard) Check(r *http.Request) (*filter.FilterContext, error) {
	fc := filter.NewFilterContext(r, filter.ClientIP(r, g.trustProxy))
	if err := g.chain.Process(r.Context(), fc); err != nil {
		return nil, err
	}
	return fc, nil
}

func (g *Guard) record(ctx context.Context, fc *filter.FilterContext) {
	g.metrics.Observe(fc.Outcome, fc.HaltedBy, time.Since(fc.StartTime))
	if g.store == nil {
		return
	}
	if err := g.store.Write(ctx, fc.ToAuditRecord()); err != nil {
		g.logger.Error("writing audit record", "error", err)
	}
}
