package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes recorded by ObserveRun.
const (
	OutcomeConverged = "converged"
	OutcomeCapped    = "capped"
	OutcomeRejected  = "rejected"
)

// Metrics holds the service's Prometheus collectors on a private registry, so
// several servers (and tests) can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	runs       *prometheus.CounterVec
	iterations prometheus.Histogram
	runLatency prometheus.Histogram
	datasets   prometheus.Counter
	sessions   prometheus.GaugeFunc
}

// NewMetrics registers the explorer collectors. activeSessions is sampled on
// every scrape; nil reports zero.
func NewMetrics(activeSessions func() float64) *Metrics {
	if activeSessions == nil {
		activeSessions = func() float64 { return 0 }
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kmeans_runs_total",
			Help: "Clustering runs by outcome",
		}, []string{"outcome"}),
		iterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kmeans_run_iterations",
			Help:    "Snapshots recorded per run, including iteration 0",
			Buckets: prometheus.LinearBuckets(1, 1, 12),
		}),
		runLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kmeans_run_duration_seconds",
			Help:    "Wall time of a clustering run",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		datasets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kmeans_datasets_generated_total",
			Help: "Datasets generated",
		}),
		sessions: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "kmeans_active_sessions",
			Help: "Sessions currently held in memory",
		}, activeSessions),
	}

	m.registry.MustRegister(m.runs, m.iterations, m.runLatency, m.datasets, m.sessions)
	return m
}

// ObserveRun records a finished run. snapshots is the length of the run.
func (m *Metrics) ObserveRun(converged bool, snapshots int, elapsed time.Duration) {
	outcome := OutcomeCapped
	if converged {
		outcome = OutcomeConverged
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.iterations.Observe(float64(snapshots))
	m.runLatency.Observe(elapsed.Seconds())
}

// ObserveRejectedRun records a run refused before any work was done.
func (m *Metrics) ObserveRejectedRun() {
	m.runs.WithLabelValues(OutcomeRejected).Inc()
}

// ObserveDataset records a generated dataset.
func (m *Metrics) ObserveDataset() {
	m.datasets.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Runs exposes the run counter for tests.
func (m *Metrics) Runs() *prometheus.CounterVec {
	return m.runs
}

// Datasets exposes the dataset counter for tests.
func (m *Metrics) Datasets() prometheus.Counter {
	return m.datasets
}
