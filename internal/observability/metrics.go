// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"yieldScope/internal/model"
)

// Snapshot outcome labels.
const (
	StatusOK      = "ok"
	StatusInvalid = "invalid"
	StatusError   = "error"
)

// Metrics holds the collector's metrics on a private registry.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Pool figures
	PoolAPR       *prometheus.GaugeVec
	PoolWeeklyROI *prometheus.GaugeVec
	PoolTVL       *prometheus.GaugeVec

	// Run metrics
	SnapshotsTotal *prometheus.CounterVec
	RunDuration    prometheus.Histogram
	LastRun        prometheus.Gauge
	BlockNumber    prometheus.Gauge
}

// NewMetrics creates a Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "yieldscope"
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		PoolAPR: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "apr_percent",
			Help:      "Annualised reward rate per pool in percent",
		}, []string{"pool"}),
		PoolWeeklyROI: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "weekly_roi_percent",
			Help:      "Weekly return per pool in percent",
		}, []string{"pool"}),
		PoolTVL: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "tvl_usd",
			Help:      "USD value staked in the pool",
		}, []string{"pool"}),

		SnapshotsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "snapshots_total",
			Help:      "Snapshots attempted by pool and status",
		}, []string{"pool", "status"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "run_duration_seconds",
			Help:      "Duration of one collection run in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		LastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "last_run_timestamp",
			Help:      "Unix timestamp of the last finished run",
		}),
		BlockNumber: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "block_number",
			Help:      "Block the last run was pinned to",
		}),
	}
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordSnapshot sets the pool gauges from a computed snapshot.
func (m *Metrics) RecordSnapshot(poolID string, snap model.PoolSnapshot) {
	if m == nil {
		return
	}
	m.PoolAPR.WithLabelValues(poolID).Set(snap.APR.InexactFloat64())
	for _, roi := range snap.ROIs {
		if roi.Label == model.ROIWeekly {
			m.PoolWeeklyROI.WithLabelValues(poolID).Set(roi.Percent.InexactFloat64())
		}
	}
	for _, v := range snap.Staking {
		if v.Label == model.StakingPoolTotal {
			m.PoolTVL.WithLabelValues(poolID).Set(v.USD.InexactFloat64())
		}
	}
	m.SnapshotsTotal.WithLabelValues(poolID, StatusOK).Inc()
}

// RecordFailure counts a pool that produced no snapshot.
func (m *Metrics) RecordFailure(poolID, status string) {
	if m == nil {
		return
	}
	m.SnapshotsTotal.WithLabelValues(poolID, status).Inc()
}

// RecordRun records a finished collection run.
func (m *Metrics) RecordRun(block uint64, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RunDuration.Observe(elapsed.Seconds())
	m.LastRun.SetToCurrentTime()
	m.BlockNumber.Set(float64(block))
}
