// Package metrics provides Prometheus metrics for the triage
// distribution engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the triage service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Tick metrics - the polling loop's health
	ticksTotal      prometheus.Counter
	ticksSkipped    prometheus.Counter
	tickDuration    prometheus.Histogram
	itemsScanned    prometheus.Counter
	itemsProcessed  prometheus.Counter
	itemsSkippedDup prometheus.Counter
	itemErrors      prometheus.Counter

	// Distribution metrics - what the engine decided
	assignments           *prometheus.CounterVec
	completionsMatched    prometheus.Counter
	completionsUnmatched  prometheus.Counter
	heldItems             *prometheus.CounterVec
	reconciliations       prometheus.Counter
	reconciliationUndos   prometheus.Counter
	openAssignments       prometheus.Gauge
	rosterSize            prometheus.Gauge
	ledgerSize            prometheus.Gauge
	completionDurationMin prometheus.Histogram

	// Burst detector
	burstWindowCount prometheus.Gauge
	burstLevel       *prometheus.GaugeVec
	burstAlerts      prometheus.Counter

	// Failure tracking
	persistenceErrors prometheus.Counter
	policyFailures    prometheus.Counter
	forwardFailures   prometheus.Counter

	// HTTP operator surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "triage",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.ticksTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ticks_total",
		Help:      "Total number of polling ticks executed",
	})

	m.ticksSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ticks_skipped_total",
		Help:      "Total number of ticks skipped because the previous one still ran",
	})

	m.tickDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tick_duration_seconds",
		Help:      "Histogram of full polling tick duration in seconds",
		Buckets:   m.histogramBuckets,
	})

	m.itemsScanned = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "items_scanned_total",
		Help:      "Total number of unread items seen by the classifier",
	})

	m.itemsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "items_processed_total",
		Help:      "Total number of items fully processed and ledger-recorded",
	})

	m.itemsSkippedDup = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "items_duplicate_total",
		Help:      "Total number of items skipped by the idempotency ledger",
	})

	m.itemErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "item_errors_total",
		Help:      "Total number of items aborted mid-tick and left for retry",
	})

	m.assignments = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "assignments_total",
			Help:      "Total number of assignments created, by bucket",
		},
		[]string{"bucket"},
	)

	m.completionsMatched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "completions_matched_total",
		Help:      "Total number of completion events matched to open assignments",
	})

	m.completionsUnmatched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "completions_unmatched_total",
		Help:      "Total number of completion events that matched no open assignment",
	})

	m.heldItems = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "held_items_total",
			Help:      "Total number of items held for manager visibility, by bucket",
		},
		[]string{"bucket"},
	)

	m.reconciliations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reconciliations_total",
		Help:      "Total number of manual reconciliations",
	})

	m.reconciliationUndos = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reconciliation_undos_total",
		Help:      "Total number of reconciliation undo operations",
	})

	m.openAssignments = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "open_assignments",
		Help:      "Current number of OPEN assignments",
	})

	m.rosterSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "roster_size",
		Help:      "Current number of staff in the rotation roster",
	})

	m.ledgerSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_size",
		Help:      "Current number of identities in the idempotency ledger",
	})

	m.completionDurationMin = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "completion_duration_minutes",
		Help:      "Histogram of assignment-to-completion duration in minutes",
		Buckets:   []float64{5, 10, 20, 30, 60, 120, 240, 480},
	})

	m.burstWindowCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "burst_window_count",
		Help:      "Arrivals of the watched category in the rolling window",
	})

	m.burstLevel = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "burst_level",
			Help:      "Burst status as a one-hot gauge over levels",
		},
		[]string{"level"},
	)

	m.burstAlerts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "burst_alerts_total",
		Help:      "Total number of burst alerts raised",
	})

	m.persistenceErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "persistence_errors_total",
		Help:      "Total number of state file write failures",
	})

	m.policyFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "policy_failures_total",
		Help:      "Total number of policy load failures",
	})

	m.forwardFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "forward_failures_total",
		Help:      "Total number of mailbox forward failures",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
