package crawler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the crawler.
type Metrics struct {
	Registry          *prometheus.Registry
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   prometheus.Histogram
	RetriesTotal      prometheus.Counter
	ErrorsTotal       *prometheus.CounterVec
	PagesClaimedTotal *prometheus.CounterVec
	DuplicateClaims   *prometheus.CounterVec
	RecordsTotal      *prometheus.CounterVec
	RunDuration       *prometheus.GaugeVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_requests_total",
			Help: "Total HTTP requests issued by the crawler.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crawler_request_duration_seconds",
			Help:    "HTTP request latency for crawler requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_retries_total",
			Help: "Total number of retry attempts issued.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_errors_total",
			Help: "Total number of fetch errors by type.",
		},
		[]string{"error_type"},
	)
	pagesClaimed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_pages_claimed_total",
			Help: "Pages claimed in the visitation ledger, by strategy.",
		},
		[]string{"strategy"},
	)
	duplicates := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_duplicate_claims_total",
			Help: "Claims rejected because the URL was already visited, by strategy.",
		},
		[]string{"strategy"},
	)
	records := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_records_aggregated_total",
			Help: "Records handed to the aggregator, by strategy.",
		},
		[]string{"strategy"},
	)
	runDuration := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crawler_run_duration_seconds",
			Help: "Wall-clock duration of the last completed run, by strategy.",
		},
		[]string{"strategy"},
	)

	registry.MustRegister(requests, requestDuration, retries, errorsTotal, pagesClaimed, duplicates, records, runDuration)

	return &Metrics{
		Registry:          registry,
		RequestsTotal:     requests,
		RequestDuration:   requestDuration,
		RetriesTotal:      retries,
		ErrorsTotal:       errorsTotal,
		PagesClaimedTotal: pagesClaimed,
		DuplicateClaims:   duplicates,
		RecordsTotal:      records,
		RunDuration:       runDuration,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncClaim counts a ledger claim outcome.
func (m *Metrics) IncClaim(strategy Strategy, claimed bool) {
	if m == nil {
		return
	}
	if claimed {
		m.PagesClaimedTotal.WithLabelValues(string(strategy)).Inc()
		return
	}
	m.DuplicateClaims.WithLabelValues(string(strategy)).Inc()
}

// AddRecords counts records handed to the aggregator.
func (m *Metrics) AddRecords(strategy Strategy, n int) {
	if m == nil || n == 0 {
		return
	}
	m.RecordsTotal.WithLabelValues(string(strategy)).Add(float64(n))
}

// SetRunDuration records the duration of a finished run.
func (m *Metrics) SetRunDuration(strategy Strategy, d time.Duration) {
	if m == nil {
		return
	}
	m.RunDuration.WithLabelValues(string(strategy)).Set(d.Seconds())
}
