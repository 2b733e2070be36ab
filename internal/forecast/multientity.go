package forecast

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/skylab-io/aqicast/pkg/errors"
	"github.com/skylab-io/aqicast/pkg/interfaces"
	"github.com/skylab-io/aqicast/pkg/models"
)

// MultiEntityValidator evaluates per-entity hold-outs and cross-entity
// generalization, reusing the same dataset and metric machinery as the
// walk-forward validator.
type MultiEntityValidator struct {
	config  *ValidatorConfig
	logger  *logrus.Logger
	builder *DatasetBuilder
}

// NewMultiEntityValidator creates a multi-entity validator.
func NewMultiEntityValidator(config *ValidatorConfig, logger *logrus.Logger) *MultiEntityValidator {
	if config == nil {
		config = DefaultValidatorConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &MultiEntityValidator{
		config:  config,
		logger:  logger,
		builder: NewDatasetBuilder(logger),
	}
}

// HoldOut trains and evaluates on a single entity's series, splitting
// chronologically by default (or randomly on request), and stratifies
// error metrics by AQI severity band so a flat low RMSE cannot hide
// poor performance at hazardous extremes.
func (v *MultiEntityValidator) HoldOut(
	ctx context.Context,
	factory interfaces.PredictorFactory,
	t *models.Table,
	featureCols []string,
	targetCol string,
	horizon int,
	entityID string,
	testSize float64,
	chronological bool,
) (*models.EntityHoldOutReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, errors.NewValidationError("INVALID_TEST_SIZE", "test size must be in (0, 1)")
	}
	idx := t.FilterEntity(entityID)
	if len(idx) == 0 {
		return nil, errors.NewValidationError("UNKNOWN_ENTITY", "no rows for entity "+entityID)
	}

	x, y, err := v.builder.Prepare(t.SelectRows(idx), horizon, featureCols, targetCol)
	if err != nil {
		return nil, err
	}

	n := len(y)
	testN := int(float64(n) * testSize)
	if testN < 1 || n-testN < 1 {
		return nil, errors.NewInsufficientDataError("entity hold-out", 2, n)
	}

	trainIdx, testIdx := v.splitIndices(n, testN, chronological)

	predictor := factory()
	if err := predictor.Fit(x.SelectRows(trainIdx), gather(y, trainIdx)); err != nil {
		return nil, err
	}
	preds, err := predictor.Predict(x.SelectRows(testIdx))
	if err != nil {
		return nil, err
	}
	actuals := gather(y, testIdx)

	report := &models.EntityHoldOutReport{
		ID:            uuid.NewString(),
		EntityID:      entityID,
		TrainSize:     len(trainIdx),
		TestSize:      len(testIdx),
		Chronological: chronological,
		Overall:       ComputeMetrics(preds, actuals),
		ByBand:        v.stratifyByBand(x, testIdx, targetCol, preds, actuals),
		GeneratedAt:   time.Now(),
	}

	v.logger.WithFields(logrus.Fields{
		"entity":    entityID,
		"test_size": len(testIdx),
		"rmse":      report.Overall.RMSE,
	}).Info("Entity hold-out evaluation completed")

	return report, nil
}

// CrossEntity trains on one entity's full history and evaluates on
// another's, exposing whether learned patterns transfer geographically.
func (v *MultiEntityValidator) CrossEntity(
	ctx context.Context,
	factory interfaces.PredictorFactory,
	t *models.Table,
	featureCols []string,
	targetCol string,
	horizon int,
	trainEntity, evalEntity string,
) (*models.CrossEntityReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	trainIdx := t.FilterEntity(trainEntity)
	if len(trainIdx) == 0 {
		return nil, errors.NewValidationError("UNKNOWN_ENTITY", "no rows for entity "+trainEntity)
	}
	evalIdx := t.FilterEntity(evalEntity)
	if len(evalIdx) == 0 {
		return nil, errors.NewValidationError("UNKNOWN_ENTITY", "no rows for entity "+evalEntity)
	}

	xTrain, yTrain, err := v.builder.Prepare(t.SelectRows(trainIdx), horizon, featureCols, targetCol)
	if err != nil {
		return nil, err
	}
	xEval, yEval, err := v.builder.Prepare(t.SelectRows(evalIdx), horizon, featureCols, targetCol)
	if err != nil {
		return nil, err
	}

	predictor := factory()
	if err := predictor.Fit(xTrain, yTrain); err != nil {
		return nil, err
	}
	preds, err := predictor.Predict(xEval)
	if err != nil {
		return nil, err
	}

	report := &models.CrossEntityReport{
		ID:          uuid.NewString(),
		TrainEntity: trainEntity,
		EvalEntity:  evalEntity,
		TrainSize:   len(yTrain),
		EvalSize:    len(yEval),
		Metrics:     ComputeMetrics(preds, yEval),
		GeneratedAt: time.Now(),
	}

	v.logger.WithFields(logrus.Fields{
		"train_entity": trainEntity,
		"eval_entity":  evalEntity,
		"rmse":         report.Metrics.RMSE,
		"r2":           report.Metrics.R2,
	}).Info("Cross-entity evaluation completed")

	return report, nil
}

// splitIndices separates n rows into train/test. Chronological keeps
// the final testN rows as the test set; random shuffles with the
// configured seed for reproducibility.
func (v *MultiEntityValidator) splitIndices(n, testN int, chronological bool) (train, test []int) {
	if chronological {
		for i := 0; i < n-testN; i++ {
			train = append(train, i)
		}
		for i := n - testN; i < n; i++ {
			test = append(test, i)
		}
		return train, test
	}

	perm := rand.New(rand.NewSource(v.config.Seed)).Perm(n)
	train = append(train, perm[:n-testN]...)
	test = append(test, perm[n-testN:]...)
	sort.Ints(train)
	sort.Ints(test)
	return train, test
}

// stratifyByBand groups test predictions by the AQI severity band of
// the actual target. When the target is not the AQI itself, the AQI
// column at feature time is used; without either, no stratification is
// possible.
func (v *MultiEntityValidator) stratifyByBand(x *models.Table, testIdx []int, targetCol string, preds, actuals []float64) map[models.AQIBand]*models.RegressionMetrics {
	var bandSource []float64
	switch {
	case targetCol == models.ColumnAQI:
		bandSource = actuals
	case x.HasColumn(models.ColumnAQI):
		aqi := x.Column(models.ColumnAQI)
		bandSource = make([]float64, len(testIdx))
		for j, i := range testIdx {
			bandSource[j] = aqi[i]
		}
	default:
		return nil
	}

	byBand := make(map[models.AQIBand][]int)
	for i := range actuals {
		band := models.AQIBandFor(bandSource[i])
		byBand[band] = append(byBand[band], i)
	}

	out := make(map[models.AQIBand]*models.RegressionMetrics, len(byBand))
	for band, rows := range byBand {
		out[band] = ComputeMetrics(gather(preds, rows), gather(actuals, rows))
	}
	return out
}

func gather(values []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for j, i := range idx {
		out[j] = values[i]
	}
	return out
}
