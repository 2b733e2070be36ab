package cleaning

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/skylab-io/aqicast/internal/utils/stats"
	"github.com/skylab-io/aqicast/pkg/errors"
	"github.com/skylab-io/aqicast/pkg/models"
)

// Imputer fills missing cells with a hybrid, column-wise strategy:
// linear interpolation, then short-gap forward/backward fill, then a
// centered rolling mean, then the column median as the terminating
// fallback. Each step only touches cells still missing after the prior
// step. Interpolation and gap fills run inside each entity's contiguous
// run so one city's values never leak into another's.
type Imputer struct {
	config *Config
	logger *logrus.Logger
}

// NewImputer creates an imputer.
func NewImputer(config *Config, logger *logrus.Logger) *Imputer {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Imputer{config: config, logger: logger}
}

// Impute fills missing cells in place and reports per-strategy fill
// counts. Columns with no observed values at all cannot be imputed; they
// are reported through an all-values-missing error while every other
// column is still processed.
func (im *Imputer) Impute(t *models.Table) (*models.ImputationResult, error) {
	result := &models.ImputationResult{
		FilledByStrategy: map[string]map[string]int{
			models.StrategyInterpolate: {},
			models.StrategyForwardFill: {},
			models.StrategyBackFill:    {},
			models.StrategyRollingMean: {},
			models.StrategyMedian:      {},
		},
	}

	runs := t.EntityRuns()
	var deadColumns []string

	for _, col := range t.Columns() {
		values := t.Column(col)

		for _, run := range runs {
			seg := values[run[0]:run[1]]
			result.Add(models.StrategyInterpolate, col, interpolateGaps(seg))
			result.Add(models.StrategyForwardFill, col, forwardFill(seg, im.config.FillLimit))
			result.Add(models.StrategyBackFill, col, backwardFill(seg, im.config.FillLimit))
			result.Add(models.StrategyRollingMean, col, rollingMeanFill(seg, im.config.RollingFillSpan))
		}

		median := stats.Median(values)
		if math.IsNaN(median) {
			deadColumns = append(deadColumns, col)
			continue
		}
		filled := 0
		for i, v := range values {
			if math.IsNaN(v) {
				values[i] = median
				filled++
			}
		}
		result.Add(models.StrategyMedian, col, filled)
	}

	result.RemainingMissing = 0
	for _, col := range t.Columns() {
		result.RemainingMissing += stats.CountMissing(t.Column(col))
	}

	im.logger.WithFields(logrus.Fields{
		"total_filled":      result.TotalFilled,
		"remaining_missing": result.RemainingMissing,
		"dead_columns":      deadColumns,
	}).Debug("Imputation completed")

	if len(deadColumns) > 0 {
		err := errors.NewAllValuesMissingError(deadColumns[0]).
			WithContext("columns", deadColumns)
		return result, err
	}
	return result, nil
}

// interpolateGaps linearly fills interior NaN gaps bounded by observed
// values on both sides. It preserves local trend, which is why it runs
// before the persistence-style gap fills.
func interpolateGaps(values []float64) int {
	filled := 0
	lastKnown := -1
	for i := 0; i < len(values); i++ {
		if math.IsNaN(values[i]) {
			continue
		}
		if lastKnown >= 0 && i-lastKnown > 1 {
			span := float64(i - lastKnown)
			step := (values[i] - values[lastKnown]) / span
			for j := lastKnown + 1; j < i; j++ {
				values[j] = values[lastKnown] + step*float64(j-lastKnown)
				filled++
			}
		}
		lastKnown = i
	}
	return filled
}

// forwardFill propagates the last observed value into at most limit
// consecutive missing cells.
func forwardFill(values []float64, limit int) int {
	filled := 0
	last := math.NaN()
	streak := 0
	for i := range values {
		if !math.IsNaN(values[i]) {
			last = values[i]
			streak = 0
			continue
		}
		if !math.IsNaN(last) && streak < limit {
			values[i] = last
			streak++
			filled++
		}
	}
	return filled
}

// backwardFill propagates the next observed value into at most limit
// consecutive missing cells, scanning from the end.
func backwardFill(values []float64, limit int) int {
	filled := 0
	next := math.NaN()
	streak := 0
	for i := len(values) - 1; i >= 0; i-- {
		if !math.IsNaN(values[i]) {
			next = values[i]
			streak = 0
			continue
		}
		if !math.IsNaN(next) && streak < limit {
			values[i] = next
			streak++
			filled++
		}
	}
	return filled
}

// rollingMeanFill fills still-missing cells with a centered rolling mean
// over the given span where enough neighbors are observed.
func rollingMeanFill(values []float64, span int) int {
	means := stats.CenteredRollingMean(values, span)
	filled := 0
	for i, v := range values {
		if math.IsNaN(v) && !math.IsNaN(means[i]) {
			values[i] = means[i]
			filled++
		}
	}
	return filled
}
