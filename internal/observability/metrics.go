// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"commodity-momentum-lab/internal/domain"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	registry *prometheus.Registry

	// Ingestion metrics
	RowsIngested     *prometheus.CounterVec
	OutliersRepaired *prometheus.CounterVec

	// Backtest metrics
	BacktestRuns     *prometheus.CounterVec
	BacktestDuration *prometheus.HistogramVec

	// Grid search metrics
	GridPairsEvaluated prometheus.Counter
	GridPairsSkipped   prometheus.Counter
	GridDuration       prometheus.Histogram

	// Reporting metrics
	ReportsGenerated prometheus.Counter

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "commodity_momentum_lab"
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// Ingestion metrics
		RowsIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "rows_ingested_total",
			Help:      "Total number of series rows stored by table",
		}, []string{"table"}),
		OutliersRepaired: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "outliers_repaired_total",
			Help:      "Total number of return outliers replaced by asset",
		}, []string{"asset"}),

		// Backtest metrics
		BacktestRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_total",
			Help:      "Total number of backtest runs by strategy type",
		}, []string{"strategy"}),
		BacktestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "duration_seconds",
			Help:      "Backtest run duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"strategy"}),

		// Grid search metrics
		GridPairsEvaluated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "grid",
			Name:      "pairs_evaluated_total",
			Help:      "Total number of (short, long) pairs evaluated",
		}),
		GridPairsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "grid",
			Name:      "pairs_skipped_total",
			Help:      "Total number of pairs skipped because short >= long",
		}),
		GridDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "grid",
			Name:      "duration_seconds",
			Help:      "Grid search duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}),

		// Reporting metrics
		ReportsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reporting",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),

		// Health metrics
		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful batch run",
		}),
	}
}

// Registry returns the registry holding every metric.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRowsIngested adds stored rows for a table.
func (m *Metrics) RecordRowsIngested(table string, rows int) {
	m.RowsIngested.WithLabelValues(table).Add(float64(rows))
}

// ObserveOutliers records repaired outliers for an asset.
func (m *Metrics) ObserveOutliers(asset string, repaired int) {
	m.OutliersRepaired.WithLabelValues(asset).Add(float64(repaired))
}

// ObserveRun records a completed backtest run.
func (m *Metrics) ObserveRun(strategyType domain.StrategyType, duration time.Duration) {
	m.BacktestRuns.WithLabelValues(string(strategyType)).Inc()
	m.BacktestDuration.WithLabelValues(string(strategyType)).Observe(duration.Seconds())
}

// ObserveGrid records a completed grid search.
func (m *Metrics) ObserveGrid(evaluated, skipped int, duration time.Duration) {
	m.GridPairsEvaluated.Add(float64(evaluated))
	m.GridPairsSkipped.Add(float64(skipped))
	m.GridDuration.Observe(duration.Seconds())
	m.BacktestRuns.WithLabelValues(string(domain.StrategyTypeCrossoverGrid)).Inc()
}

// RecordReport increments the reports generated counter.
func (m *Metrics) RecordReport() {
	m.ReportsGenerated.Inc()
}

// MarkSuccess sets the last successful run timestamp.
func (m *Metrics) MarkSuccess(now time.Time) {
	m.LastSuccessfulRun.Set(float64(now.Unix()))
}

// WriteTextfile writes every metric in text exposition format for the
// node exporter textfile collector. An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
