package cleaning

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/skylab-io/aqicast/internal/observability/metrics"
	"github.com/skylab-io/aqicast/pkg/errors"
	"github.com/skylab-io/aqicast/pkg/models"
)

// DataCleaner composes the cleaning stages into one pipeline call. The
// stage order is fixed because each stage depends on the previous one's
// output: quality is measured on raw data, imputation must precede
// statistical outlier detection (NaNs would bias the moments), outlier
// handling must precede constraint repair (a capped PM10 can newly
// violate the ordering), and anomaly baselines are only meaningful over
// repaired series.
type DataCleaner struct {
	config      *Config
	logger      *logrus.Logger
	metrics     *metrics.PipelineMetrics
	assessor    *QualityAssessor
	imputer     *Imputer
	outliers    *OutlierEngine
	constraints *ConstraintRepairer
	consistency *ConsistencyChecker
	anomalies   *AnomalyDetector
}

// NewDataCleaner creates a cleaner. A nil config uses defaults; a nil
// metrics handle disables instrumentation.
func NewDataCleaner(config *Config, logger *logrus.Logger, pm *metrics.PipelineMetrics) *DataCleaner {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &DataCleaner{
		config:      config,
		logger:      logger,
		metrics:     pm,
		assessor:    NewQualityAssessor(logger),
		imputer:     NewImputer(config, logger),
		outliers:    NewOutlierEngine(config, logger),
		constraints: NewConstraintRepairer(logger),
		consistency: NewConsistencyChecker(config, logger),
		anomalies:   NewAnomalyDetector(config, logger),
	}
}

// Clean validates the batch schema, runs the full stage pipeline, and
// returns the cleaned table together with a report accounting for every
// mutation. The input readings are not modified.
func (c *DataCleaner) Clean(ctx context.Context, readings []models.Reading) (*models.Table, *models.CleaningReport, error) {
	if len(readings) == 0 {
		return nil, nil, errors.NewValidationError("EMPTY_BATCH", "reading batch is empty")
	}
	t := models.NewTableFromReadings(readings)
	return c.CleanTable(ctx, t)
}

// CleanTable runs the pipeline over an already-columnar batch. The
// table is cleaned in place.
func (c *DataCleaner) CleanTable(ctx context.Context, t *models.Table) (*models.Table, *models.CleaningReport, error) {
	for _, col := range c.config.RequiredColumns {
		if !t.HasColumn(col) {
			return nil, nil, errors.NewSchemaError(col)
		}
	}

	report := &models.CleaningReport{
		ID:             uuid.NewString(),
		StartedAt:      time.Now(),
		InitialCount:   t.NumRows(),
		StageDurations: make(map[string]time.Duration),
	}

	c.logger.WithFields(logrus.Fields{
		"report_id": report.ID,
		"rows":      t.NumRows(),
		"columns":   len(t.Columns()),
		"entities":  len(t.EntityIDs()),
	}).Info("Starting cleaning run")

	stages := []struct {
		name string
		run  func() error
	}{
		{"quality", func() error {
			report.Quality = c.assessor.Assess(t)
			return nil
		}},
		{"imputation", func() error {
			result, err := c.imputer.Impute(t)
			report.Imputation = result
			return err
		}},
		{"outliers", func() error {
			result, err := c.outliers.DetectAndHandle(t, c.config.OutlierMethod, c.config.OutlierAction)
			report.Outliers = result
			return err
		}},
		{"constraints", func() error {
			report.Constraints = c.constraints.Repair(t)
			return nil
		}},
		{"consistency", func() error {
			report.Consistency = c.consistency.Check(t)
			return nil
		}},
		{"anomalies", func() error {
			report.Anomalies = c.anomalies.Detect(t, c.config.AnomalyWindow)
			return nil
		}},
	}

	for _, stage := range stages {
		select {
		case <-ctx.Done():
			return nil, report, ctx.Err()
		default:
		}
		start := time.Now()
		err := stage.run()
		report.StageDurations[stage.name] = time.Since(start)

		if err != nil {
			if errors.IsAllValuesMissingError(err) {
				// Fatal for the affected columns only; the rest of the
				// pipeline continues on what could be imputed.
				c.logger.WithError(err).Warn("Columns without any observed values were left unimputed")
				continue
			}
			c.logger.WithError(err).WithField("stage", stage.name).Error("Cleaning stage failed")
			return nil, report, err
		}
	}

	report.FinalCount = t.NumRows()
	report.Duration = time.Since(report.StartedAt)
	c.metrics.ObserveCleaning(report)

	c.logger.WithFields(logrus.Fields{
		"report_id": report.ID,
		"duration":  report.Duration,
		"imputed":   report.Imputation.TotalFilled,
		"outliers":  report.Outliers.TotalFlagged,
		"repairs":   report.Constraints.TotalRepairs,
	}).Info("Cleaning run completed")

	return t, report, nil
}
