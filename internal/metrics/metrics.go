// Package metrics exposes Prometheus instrumentation for route analyses.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"freshlogic/internal/riskerr"
	"freshlogic/internal/status"
)

type Metrics struct {
	registry      *prometheus.Registry
	analyses      *prometheus.CounterVec
	failures      *prometheus.CounterVec
	duration      prometheus.Histogram
	overallRisk   prometheus.Histogram
	waypoints     prometheus.Histogram
	sessionHits   prometheus.Counter
	sessionMisses prometheus.Counter
	publishErrors prometheus.Counter
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "freshlogic_analyses_total",
			Help: "Completed route analyses by resulting status.",
		}, []string{"status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "freshlogic_analysis_failures_total",
			Help: "Failed route analyses by error kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "freshlogic_analysis_duration_seconds",
			Help:    "Histogram of route analysis durations.",
			Buckets: prometheus.DefBuckets,
		}),
		overallRisk: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "freshlogic_overall_risk",
			Help:    "Distribution of overall route risk.",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		waypoints: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "freshlogic_route_waypoints",
			Help:    "Number of waypoints per analysed route.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		sessionHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "freshlogic_session_cache_hits_total",
			Help: "Total session cache hits observed.",
		}),
		sessionMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "freshlogic_session_cache_misses_total",
			Help: "Total session cache misses observed.",
		}),
		publishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "freshlogic_event_publish_errors_total",
			Help: "Summary events that could not be published.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.analyses,
		m.failures,
		m.duration,
		m.overallRisk,
		m.waypoints,
		m.sessionHits,
		m.sessionMisses,
		m.publishErrors,
	)

	for _, s := range []status.Status{status.Safe, status.Warning, status.Critical} {
		m.analyses.WithLabelValues(string(s))
	}
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveAnalysis records a completed analysis.
func (m *Metrics) ObserveAnalysis(st status.Status, overallRisk float64, waypoints int, elapsed time.Duration) {
	m.analyses.WithLabelValues(string(st)).Inc()
	m.overallRisk.Observe(overallRisk)
	m.waypoints.Observe(float64(waypoints))
	m.duration.Observe(elapsed.Seconds())
}

// ObserveFailure records a failed analysis.
func (m *Metrics) ObserveFailure(err error) {
	m.failures.WithLabelValues(string(riskerr.KindOf(err))).Inc()
}

// PublishError counts a dropped summary event.
func (m *Metrics) PublishError() { m.publishErrors.Inc() }

// CacheHit and CacheMiss implement session.Observer.
func (m *Metrics) CacheHit()  { m.sessionHits.Inc() }
func (m *Metrics) CacheMiss() { m.sessionMisses.Inc() }
