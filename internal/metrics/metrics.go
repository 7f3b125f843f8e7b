// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Allocation edit results.
const (
	ResultOK       = "ok"
	ResultInvalid  = "invalid"
	ResultClosed   = "closed"
	ResultConflict = "conflict"
	ResultError    = "error"
)

// Registry holds every Hearth metric on its own prometheus.Registry so tests
// can create as many as they like.
type Registry struct {
	reg *prometheus.Registry

	AllocationEdits     *prometheus.CounterVec
	OverAllocatedEdits  prometheus.Counter
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewRegistry creates and registers all collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		AllocationEdits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hearth_allocation_edits_total",
				Help: "Allocation edits by result",
			},
			[]string{"result"},
		),

		OverAllocatedEdits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hearth_over_allocated_edits_total",
				Help: "Accepted allocation edits that left the budget over-allocated",
			},
		),

		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hearth_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"method", "route", "status"},
		),
	}

	r.reg.MustRegister(
		r.AllocationEdits,
		r.OverAllocatedEdits,
		r.HTTPRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// RecordAllocationEdit counts one SetAllocation attempt.
func (r *Registry) RecordAllocationEdit(result string, overAllocated bool) {
	if r == nil {
		return
	}
	r.AllocationEdits.WithLabelValues(result).Inc()
	if result == ResultOK && overAllocated {
		r.OverAllocatedEdits.Inc()
	}
}

// ObserveRequest records one HTTP request.
func (r *Registry) ObserveRequest(method, route, status string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
