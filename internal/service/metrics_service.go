package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the portal.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	timeEvents      *prometheus.CounterVec
	faceComparisons *prometheus.CounterVec
	placementTotal  *prometheus.CounterVec
}

// NewMetricsService registers the portal's Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "progress_cache_hits_total",
		Help: "Total progress cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "progress_cache_misses_total",
		Help: "Total progress cache misses",
	})

	timeEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_events_total",
		Help: "Total attendance transitions by phase and outcome",
	}, []string{"phase", "outcome"})

	faceComparisons := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "face_comparisons_total",
		Help: "Total face descriptor comparisons by result",
	}, []string{"result"})

	placementTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "placement_reviews_total",
		Help: "Total placement reviews by decision",
	}, []string{"decision"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHits, cacheMisses, timeEvents, faceComparisons, placementTotal, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		timeEvents:      timeEvents,
		faceComparisons: faceComparisons,
		placementTotal:  placementTotal,
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

// ObserveHTTPRequest records per-request latency and volume.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheLookup counts progress cache hits and misses.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// RecordAttendanceEvent counts a time-in or time-out attempt.
func (m *MetricsService) RecordAttendanceEvent(phase, outcome string) {
	if m == nil {
		return
	}
	m.timeEvents.WithLabelValues(phase, outcome).Inc()
}

// RecordFaceComparison counts a descriptor comparison result.
func (m *MetricsService) RecordFaceComparison(match bool) {
	if m == nil {
		return
	}
	result := "mismatch"
	if match {
		result = "match"
	}
	m.faceComparisons.WithLabelValues(result).Inc()
}

// RecordPlacementReview counts a review decision.
func (m *MetricsService) RecordPlacementReview(decision string) {
	if m == nil {
		return
	}
	m.placementTotal.WithLabelValues(decision).Inc()
}
