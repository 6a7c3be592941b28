// Package metrics provides Prometheus metrics for the scout search engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the scout engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Query pipeline metrics
	searchesIssued     prometheus.Counter
	searchesSucceeded  prometheus.Counter
	searchesFailed     prometheus.Counter
	searchesTimedOut   prometheus.Counter
	searchesSuperseded prometheus.Counter
	debounceCancels    prometheus.Counter
	searchLatency      prometheus.Histogram

	// Recency cache metrics
	recencySize      prometheus.Gauge
	recencyRecords   prometheus.Counter
	recencyEvictions prometheus.Counter

	// Vote / fact store metrics
	votesStored  prometheus.Counter
	votesRemoved prometheus.Counter

	// Storage health
	storageErrors *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "scout",
		subsystem:        "search",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.searchesIssued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queries_issued_total",
		Help:      "Remote search queries dispatched after the debounce window settled.",
	})
	m.searchesSucceeded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queries_succeeded_total",
		Help:      "Search queries whose results were applied to the visible state.",
	})
	m.searchesFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queries_failed_total",
		Help:      "Search queries that ended in a transport or decode error.",
	})
	m.searchesTimedOut = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queries_timed_out_total",
		Help:      "Search queries lost to the timeout race.",
	})
	m.searchesSuperseded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queries_superseded_total",
		Help:      "In-flight queries discarded because newer input arrived.",
	})
	m.debounceCancels = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "debounce_cancellations_total",
		Help:      "Debounce timers cancelled by further keystrokes before firing.",
	})
	m.searchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "query_latency_seconds",
		Help:      "Latency of applied search queries.",
		Buckets:   m.histogramBuckets,
	})

	m.recencySize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "recency",
		Name:      "entries",
		Help:      "Current number of entries in the recency cache.",
	})
	m.recencyRecords = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "recency",
		Name:      "records_total",
		Help:      "Entities recorded into the recency cache.",
	})
	m.recencyEvictions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "recency",
		Name:      "evictions_total",
		Help:      "Entries dropped from the recency cache by capacity.",
	})

	m.votesStored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "votes",
		Name:      "stored_total",
		Help:      "Votes written to the fact store.",
	})
	m.votesRemoved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "votes",
		Name:      "removed_total",
		Help:      "Votes removed from the fact store.",
	})

	m.storageErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "storage",
		Name:      "errors_total",
		Help:      "Storage operation failures by component and operation.",
	}, []string{"component", "op"})
}

// Package-level helpers recording on the global manager.

func RecordSearchIssued()     { globalManager.searchesIssued.Inc() }
func RecordSearchSucceeded()  { globalManager.searchesSucceeded.Inc() }
func RecordSearchFailed()     { globalManager.searchesFailed.Inc() }
func RecordSearchTimedOut()   { globalManager.searchesTimedOut.Inc() }
func RecordSearchSuperseded() { globalManager.searchesSuperseded.Inc() }
func RecordDebounceCancel()   { globalManager.debounceCancels.Inc() }

// RecordSearchLatency observes an applied query's latency in seconds.
func RecordSearchLatency(seconds float64) { globalManager.searchLatency.Observe(seconds) }

func UpdateRecencySize(n int) { globalManager.recencySize.Set(float64(n)) }
func RecordRecencyRecord()    { globalManager.recencyRecords.Inc() }
func RecordRecencyEviction()  { globalManager.recencyEvictions.Inc() }

func RecordVoteStored()  { globalManager.votesStored.Inc() }
func RecordVoteRemoved() { globalManager.votesRemoved.Inc() }

// RecordStorageError counts a storage failure for a component/operation pair.
func RecordStorageError(component, op string) {
	globalManager.storageErrors.WithLabelValues(component, op).Inc()
}

// GetRegistry returns the custom registry used by the global manager,
// suitable for serving via promhttp.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
