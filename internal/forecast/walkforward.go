package forecast

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	obsmetrics "github.com/skylab-io/aqicast/internal/observability/metrics"
	"github.com/skylab-io/aqicast/pkg/constants"
	"github.com/skylab-io/aqicast/pkg/errors"
	"github.com/skylab-io/aqicast/pkg/interfaces"
	"github.com/skylab-io/aqicast/pkg/models"
)

// ValidatorConfig controls evaluation behavior shared by the
// walk-forward and multi-entity validators.
type ValidatorConfig struct {
	// MaxConcurrency bounds the worker pool used across independent
	// folds. Folds share no mutable state, so parallelism is purely an
	// optimization; 1 gives fully sequential evaluation.
	MaxConcurrency int `json:"max_concurrency" mapstructure:"max_concurrency"`
	// Seed drives the random hold-out split when one is requested.
	Seed int64 `json:"seed" mapstructure:"seed"`
}

// DefaultValidatorConfig returns the standard evaluation configuration.
func DefaultValidatorConfig() *ValidatorConfig {
	return &ValidatorConfig{
		MaxConcurrency: constants.DefaultMaxConcurrency,
		Seed:           1,
	}
}

// WalkForwardValidator performs rolling-origin evaluation: repeatedly
// train on data up to a cursor, predict the immediately following
// block, advance the cursor. A fresh predictor is constructed for every
// step; a single persistently-updated model would conflate evaluation
// with incremental training and break comparability across folds.
type WalkForwardValidator struct {
	config  *ValidatorConfig
	logger  *logrus.Logger
	metrics *obsmetrics.PipelineMetrics
}

// NewWalkForwardValidator creates a walk-forward validator. A nil
// metrics handle disables instrumentation.
func NewWalkForwardValidator(config *ValidatorConfig, logger *logrus.Logger, pm *obsmetrics.PipelineMetrics) *WalkForwardValidator {
	if config == nil {
		config = DefaultValidatorConfig()
	} else if config.MaxConcurrency < 1 {
		// A zero-capacity semaphore would block every fold worker; run
		// sequentially instead. Copy so the caller's config is untouched.
		cfg := *config
		cfg.MaxConcurrency = 1
		config = &cfg
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &WalkForwardValidator{config: config, logger: logger, metrics: pm}
}

// RollingForecast evaluates the factory's predictor over the series for
// one horizon. The cursor starts at initialTrainSize; each step trains
// a fresh predictor on the trailing initialTrainSize rows, predicts the
// next stepSize rows, and advances by stepSize, terminating when a full
// step no longer fits. Metrics are aggregated over all steps, and the
// skill score compares the model's RMSE to the persistence baseline
// pred(t+h) = value(t).
func (v *WalkForwardValidator) RollingForecast(
	ctx context.Context,
	factory interfaces.PredictorFactory,
	t *models.Table,
	featureCols []string,
	targetCol string,
	horizon, initialTrainSize, stepSize int,
) (*models.WalkForwardReport, error) {
	if factory == nil {
		return nil, errors.NewValidationError("NIL_FACTORY", "predictor factory is required")
	}
	if initialTrainSize < 1 || stepSize < 1 {
		return nil, errors.NewValidationError("INVALID_WINDOW", "initial train size and step size must be >= 1")
	}
	if horizon < 1 {
		return nil, errors.NewValidationError("INVALID_HORIZON", "forecast horizon must be >= 1 hour")
	}
	target := t.Column(targetCol)
	if target == nil {
		return nil, errors.NewSchemaError(targetCol)
	}

	// Shift the target by the horizon: row i pairs the features at time
	// i with the target at time i+h. The last h rows have no known
	// future target. The unshifted value at time i is kept as the
	// persistence baseline's prediction for i+h.
	n := t.NumRows() - horizon
	if n < initialTrainSize+stepSize {
		return nil, errors.NewInsufficientDataError("walk-forward evaluation", initialTrainSize+stepSize+horizon, t.NumRows())
	}
	if featureCols == nil {
		featureCols = t.Columns()
	}
	x := t.Slice(0, n).Select(featureCols)
	y := target[horizon : horizon+n]
	naive := target[:n]

	var folds []models.Fold
	for cursor := initialTrainSize; cursor+stepSize <= n; cursor += stepSize {
		folds = append(folds, models.Fold{
			Index:      len(folds),
			TrainStart: cursor - initialTrainSize,
			TrainEnd:   cursor,
			ValStart:   cursor,
			ValEnd:     cursor + stepSize,
		})
	}

	v.logger.WithFields(logrus.Fields{
		"horizon":            horizon,
		"initial_train_size": initialTrainSize,
		"step_size":          stepSize,
		"folds":              len(folds),
	}).Info("Starting walk-forward evaluation")

	results := make([]models.FoldResult, len(folds))
	errs := make([]error, len(folds))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, v.config.MaxConcurrency)
	for i, fold := range folds {
		wg.Add(1)
		go func(i int, fold models.Fold) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			select {
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return
			default:
			}
			results[i], errs[i] = v.runFold(factory, x, y, fold)
		}(i, fold)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	v.metrics.ObserveFolds(len(folds))

	report := &models.WalkForwardReport{
		ID:               uuid.NewString(),
		Horizon:          horizon,
		InitialTrainSize: initialTrainSize,
		StepSize:         stepSize,
		Folds:            results,
		GeneratedAt:      time.Now(),
	}

	var allPreds, allActuals, allNaive []float64
	for _, r := range results {
		allPreds = append(allPreds, r.Predictions...)
		allActuals = append(allActuals, r.Actuals...)
		allNaive = append(allNaive, naive[r.Fold.ValStart:r.Fold.ValEnd]...)
	}
	report.Overall = ComputeMetrics(allPreds, allActuals)
	report.PersistenceRMSE = RMSE(allNaive, allActuals)
	report.SkillScore = SkillScore(report.Overall.RMSE, report.PersistenceRMSE)

	v.logger.WithFields(logrus.Fields{
		"rmse":        report.Overall.RMSE,
		"r2":          report.Overall.R2,
		"skill_score": report.SkillScore,
	}).Info("Walk-forward evaluation completed")

	return report, nil
}

func (v *WalkForwardValidator) runFold(factory interfaces.PredictorFactory, x *models.Table, y []float64, fold models.Fold) (models.FoldResult, error) {
	predictor := factory()

	xTrain := x.Slice(fold.TrainStart, fold.TrainEnd)
	yTrain := y[fold.TrainStart:fold.TrainEnd]
	if err := predictor.Fit(xTrain, yTrain); err != nil {
		return models.FoldResult{}, err
	}

	xVal := x.Slice(fold.ValStart, fold.ValEnd)
	preds, err := predictor.Predict(xVal)
	if err != nil {
		return models.FoldResult{}, err
	}

	actuals := make([]float64, fold.ValSize())
	copy(actuals, y[fold.ValStart:fold.ValEnd])

	return models.FoldResult{
		Fold:        fold,
		Predictions: preds,
		Actuals:     actuals,
		Metrics:     ComputeMetrics(preds, actuals),
	}, nil
}
