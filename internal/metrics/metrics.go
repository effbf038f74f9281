// Package metrics records Prometheus metrics from bus events.
package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	eventbus "github.com/hanpama/opexport/internal/eventbus"
	events "github.com/hanpama/opexport/internal/events"
)

// Collector holds the exporter's metrics.
type Collector struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	// Labels: result (ok, parse_error)
	computations *prometheus.CounterVec
	definitions  *prometheus.CounterVec
	violations   prometheus.Counter
	computeTime  prometheus.Histogram
}

// New creates a Collector on its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opexport_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "opexport_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		computations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opexport_computations_total",
				Help: "Documents resolved into operation data",
			},
			[]string{"result"},
		),
		definitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opexport_definitions_total",
				Help: "Operations and fragments resolved",
			},
			[]string{"kind"},
		),
		violations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "opexport_violations_total",
			Help: "Document violations reported",
		}),
		computeTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "opexport_compute_duration_seconds",
			Help:    "Time spent resolving a document",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	c.registry.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.computations,
		c.definitions,
		c.violations,
		c.computeTime,
		collectors.NewGoCollector(),
	)
	return c
}

// Subscribe starts recording events published on bus.
func (c *Collector) Subscribe(bus *eventbus.Bus) (unsubscribe func()) {
	unHTTP := eventbus.On(bus, func(_ context.Context, e events.HTTPFinish) {
		c.httpRequests.WithLabelValues(e.Request.Method, strconv.Itoa(e.Status)).Inc()
		c.httpDuration.WithLabelValues(e.Request.Method).Observe(e.Duration.Seconds())
	})
	unOps := eventbus.On(bus, func(_ context.Context, e events.OperationsComputed) {
		result := "ok"
		if e.ParseFailed {
			result = "parse_error"
		}
		c.computations.WithLabelValues(result).Inc()
		c.definitions.WithLabelValues("operation").Add(float64(e.Operations))
		c.definitions.WithLabelValues("fragment").Add(float64(e.Fragments))
		c.violations.Add(float64(e.Violations))
		c.computeTime.Observe(e.Duration.Seconds())
	})
	return func() {
		unHTTP()
		unOps()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
