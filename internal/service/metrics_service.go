package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Scheduling run outcomes used as metric labels.
const (
	RunOutcomeSuccess       = "success"
	RunOutcomeUnschedulable = "unschedulable"
	RunOutcomeFailure       = "failure"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec
	runTotal        *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	entriesPlaced   prometheus.Counter
	unscheduled     *prometheus.CounterVec
}

// metricsNamespace prefixes every application collector.
const metricsNamespace = "sma_timetable"

// NewMetricsService registers the HTTP, cache, database and scheduling
// collectors alongside the Go runtime and process collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	httpLabels := []string{"method", "path", "status"}
	requestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, httpLabels)
	requestTotal := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests",
	}, httpLabels)

	cacheOps := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "operation_seconds",
		Help:      "Latency of Redis cache operations",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, 1},
	}, []string{"op"})
	cacheLookups := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Cache lookups by result",
	}, []string{"result"})

	dbQueryDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "db",
		Name:      "query_duration_seconds",
		Help:      "Duration of run history queries",
		Buckets:   prometheus.DefBuckets,
	}, []string{"query"})

	runTotal := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "runs_total",
		Help:      "Scheduling runs by outcome",
	}, []string{"outcome"})
	runDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time of scheduling runs",
		Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30},
	}, []string{"outcome"})
	entriesPlaced := factory.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "entries_placed_total",
		Help:      "Timetable entries produced by successful runs",
	})
	unscheduled := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "sessions_unscheduled_total",
		Help:      "Sessions left unplaced by failed runs",
	}, []string{"reason"})

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheOps.WithLabelValues("get"),
		cacheWrite:      cacheOps.WithLabelValues("set"),
		cacheHits:       cacheLookups.WithLabelValues("hit"),
		cacheMisses:     cacheLookups.WithLabelValues("miss"),
		dbQueryDuration: dbQueryDuration,
		runTotal:        runTotal,
		runDuration:     runDuration,
		entriesPlaced:   entriesPlaced,
		unscheduled:     unscheduled,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying collector registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// ObserveScheduleRun records the outcome of one scheduling run. unscheduled
// maps each failure reason to the number of sessions it left unplaced.
func (m *MetricsService) ObserveScheduleRun(outcome string, duration time.Duration, placed int, unscheduled map[string]int) {
	if m == nil {
		return
	}
	m.runTotal.WithLabelValues(outcome).Inc()
	m.runDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if placed > 0 {
		m.entriesPlaced.Add(float64(placed))
	}
	for reason, count := range unscheduled {
		m.unscheduled.WithLabelValues(reason).Add(float64(count))
	}
}
