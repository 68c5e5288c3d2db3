// Package metrics exposes Prometheus instruments for the request pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tkingovr/reqguard/api"
)

const namespace = "reqguard"

// Recorder counts pipeline decisions and their latency on a private registry.
type Recorder struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration prometheus.Histogram
}

// New creates a Recorder with its own registry. Go runtime and process
// collectors are registered alongside the pipeline instruments.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests processed by the filter pipeline, by outcome and halting filter.",
		}, []string{"outcome", "filter"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Time spent running the filter pipeline.",
			Buckets:   []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
	}
	reg.MustRegister(
		r.requests,
		r.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Observe records one pipeline decision. filterName is empty for accepted
// requests.
func (r *Recorder) Observe(outcome api.Outcome, filterName string, elapsed time.Duration) {
	if r == nil {
		return
	}
	if filterName == "" {
		filterName = "none"
	}
	r.requests.WithLabelValues(string(outcome), filterName).Inc()
	r.duration.Observe(elapsed.Seconds())
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
