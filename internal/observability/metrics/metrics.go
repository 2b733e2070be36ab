// Package metrics exposes Prometheus counters for pipeline repair
// events, so silent data mutation is visible to operators as well as to
// report consumers.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/skylab-io/aqicast/pkg/models"
)

// PipelineMetrics collects counters for cleaning and validation runs.
// All methods are nil-safe so components can carry an optional handle.
type PipelineMetrics struct {
	logger   *logrus.Logger
	registry *prometheus.Registry

	readingsProcessed prometheus.Counter
	cellsImputed      *prometheus.CounterVec
	outliersHandled   *prometheus.CounterVec
	constraintRepairs *prometheus.CounterVec
	anomaliesFlagged  *prometheus.CounterVec
	cleaningDuration  prometheus.Histogram
	validationFolds   prometheus.Counter
}

// NewPipelineMetrics creates and registers the pipeline metric set on
// its own registry.
func NewPipelineMetrics(logger *logrus.Logger) *PipelineMetrics {
	if logger == nil {
		logger = logrus.New()
	}

	registry := prometheus.NewRegistry()
	pm := &PipelineMetrics{
		logger:   logger,
		registry: registry,
		readingsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqicast",
			Name:      "readings_processed_total",
			Help:      "Readings accepted by the cleaning pipeline.",
		}),
		cellsImputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aqicast",
			Name:      "cells_imputed_total",
			Help:      "Missing cells filled, by imputation strategy.",
		}, []string{"strategy"}),
		outliersHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aqicast",
			Name:      "outliers_handled_total",
			Help:      "Outliers flagged and handled, by field.",
		}, []string{"field"}),
		constraintRepairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aqicast",
			Name:      "constraint_repairs_total",
			Help:      "Physical constraint repairs, by rule.",
		}, []string{"rule"}),
		anomaliesFlagged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aqicast",
			Name:      "anomalies_flagged_total",
			Help:      "Rolling-baseline anomalies reported, by severity.",
		}, []string{"severity"}),
		cleaningDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aqicast",
			Name:      "cleaning_duration_seconds",
			Help:      "Wall time of full cleaning runs.",
			Buckets:   prometheus.DefBuckets,
		}),
		validationFolds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqicast",
			Name:      "validation_folds_total",
			Help:      "Walk-forward folds evaluated.",
		}),
	}

	registry.MustRegister(
		pm.readingsProcessed,
		pm.cellsImputed,
		pm.outliersHandled,
		pm.constraintRepairs,
		pm.anomaliesFlagged,
		pm.cleaningDuration,
		pm.validationFolds,
	)
	return pm
}

// ObserveCleaning records the repair events of one cleaning run.
func (pm *PipelineMetrics) ObserveCleaning(report *models.CleaningReport) {
	if pm == nil || report == nil {
		return
	}
	pm.readingsProcessed.Add(float64(report.InitialCount))
	pm.cleaningDuration.Observe(report.Duration.Seconds())

	if report.Imputation != nil {
		for strategy, byCol := range report.Imputation.FilledByStrategy {
			total := 0
			for _, n := range byCol {
				total += n
			}
			if total > 0 {
				pm.cellsImputed.WithLabelValues(strategy).Add(float64(total))
			}
		}
	}
	if report.Outliers != nil {
		for field, n := range report.Outliers.CountsByField {
			pm.outliersHandled.WithLabelValues(field).Add(float64(n))
		}
	}
	if report.Constraints != nil {
		pm.constraintRepairs.WithLabelValues("pm_ordering").Add(float64(report.Constraints.PMOrderingFixed))
		pm.constraintRepairs.WithLabelValues("negative_clamp").Add(float64(report.Constraints.NegativesClamped))
		pm.constraintRepairs.WithLabelValues("humidity_clamp").Add(float64(report.Constraints.HumidityClamped))
		pm.constraintRepairs.WithLabelValues("wind_clamp").Add(float64(report.Constraints.WindSpeedClamped))
	}
	for _, points := range report.Anomalies {
		for _, p := range points {
			pm.anomaliesFlagged.WithLabelValues(string(p.Severity)).Inc()
		}
	}
}

// ObserveFolds counts evaluated walk-forward folds.
func (pm *PipelineMetrics) ObserveFolds(n int) {
	if pm == nil {
		return
	}
	pm.validationFolds.Add(float64(n))
}

// Handler returns an HTTP handler serving the metric set, for callers
// that mount metrics on their own server.
func (pm *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(pm.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
