// Package metrics provides Prometheus metrics for the bus board.
package metrics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fetch outcomes used as the "outcome" label.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Registry is the Prometheus registry for this metrics instance
	Registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Schedule metrics
	ScheduleFetchesTotal  *prometheus.CounterVec
	ScheduleFetchDuration *prometheus.HistogramVec
	LastSuccessfulFetch   prometheus.Gauge
	TripsDisplayed        prometheus.Gauge
	RoutesDisplayed       prometheus.Gauge
	SnapshotAgeSeconds    prometheus.Gauge

	logger *slog.Logger

	// collectorStarted prevents spawning multiple collector goroutines
	collectorStarted atomic.Bool

	// cancel stops the snapshot age collector goroutine
	cancel context.CancelFunc

	wg sync.WaitGroup
}

// New creates and registers all application metrics with a new registry.
func New() *Metrics {
	return NewWithLogger(nil)
}

// NewWithLogger creates metrics with a logger for error reporting.
func NewWithLogger(logger *slog.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	httpRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "busboard_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "busboard_http_request_duration_seconds",
			Help:    "HTTP request latency distribution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	scheduleFetchesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "busboard_schedule_fetches_total",
			Help: "Schedule fetches by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	scheduleFetchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "busboard_schedule_fetch_duration_seconds",
			Help:    "Schedule fetch latency distribution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	lastSuccessfulFetch := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "busboard_last_successful_fetch_timestamp_seconds",
		Help: "Unix time of the last successful schedule fetch",
	})

	tripsDisplayed := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "busboard_trips_displayed",
		Help: "Number of trips in the snapshot currently displayed",
	})

	routesDisplayed := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "busboard_routes_displayed",
		Help: "Number of routes in the snapshot currently displayed",
	})

	snapshotAgeSeconds := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "busboard_snapshot_age_seconds",
		Help: "Seconds since the displayed snapshot was fetched",
	})

	registry.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		scheduleFetchesTotal,
		scheduleFetchDuration,
		lastSuccessfulFetch,
		tripsDisplayed,
		routesDisplayed,
		snapshotAgeSeconds,
	)

	return &Metrics{
		Registry:              registry,
		HTTPRequestsTotal:     httpRequestsTotal,
		HTTPRequestDuration:   httpRequestDuration,
		ScheduleFetchesTotal:  scheduleFetchesTotal,
		ScheduleFetchDuration: scheduleFetchDuration,
		LastSuccessfulFetch:   lastSuccessfulFetch,
		TripsDisplayed:        tripsDisplayed,
		RoutesDisplayed:       routesDisplayed,
		SnapshotAgeSeconds:    snapshotAgeSeconds,
		logger:                logger,
	}
}

// ObserveFetch records one schedule fetch. routes and trips describe the
// snapshot and are only applied on success.
func (m *Metrics) ObserveFetch(source string, duration time.Duration, err error, at time.Time, routes, trips int) {
	if m == nil {
		return
	}
	m.ScheduleFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err != nil {
		m.ScheduleFetchesTotal.WithLabelValues(source, OutcomeFailure).Inc()
		return
	}
	m.ScheduleFetchesTotal.WithLabelValues(source, OutcomeSuccess).Inc()
	m.LastSuccessfulFetch.Set(float64(at.Unix()))
	m.RoutesDisplayed.Set(float64(routes))
	m.TripsDisplayed.Set(float64(trips))
}

// StartSnapshotAgeCollector starts a goroutine that periodically sets
// SnapshotAgeSeconds from age. age reports false while no snapshot has been
// fetched. Calling it more than once has no effect. Call Shutdown to stop it.
func (m *Metrics) StartSnapshotAgeCollector(age func() (time.Duration, bool), interval time.Duration) {
	if age == nil || interval <= 0 {
		return
	}

	if !m.collectorStarted.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Add to WaitGroup before exposing cancel to avoid racing Shutdown
	m.wg.Add(1)
	m.cancel = cancel

	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				if m.logger != nil {
					m.logger.Error("panic in snapshot age collector", "error", r)
				}
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if d, ok := age(); ok {
					m.SnapshotAgeSeconds.Set(d.Seconds())
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Shutdown stops the collector goroutine and waits for it to exit.
// It is safe to call multiple times.
func (m *Metrics) Shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}
