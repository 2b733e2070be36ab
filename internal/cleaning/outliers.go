package cleaning

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/skylab-io/aqicast/internal/utils/stats"
	"github.com/skylab-io/aqicast/pkg/constants"
	"github.com/skylab-io/aqicast/pkg/errors"
	"github.com/skylab-io/aqicast/pkg/models"
)

// DetectionMethod selects how outliers are flagged.
type DetectionMethod string

const (
	MethodZScore   DetectionMethod = "zscore"
	MethodIQR      DetectionMethod = "iqr"
	MethodDomain   DetectionMethod = "domain"
	MethodCombined DetectionMethod = "combined"
)

// Action selects what happens to flagged values.
type Action string

const (
	// ActionCap clips flagged values to the batch's configured
	// percentile bounds (or the fixed domain range with CapToDomain).
	ActionCap Action = "cap"
	// ActionRemove blanks flagged values to NaN.
	ActionRemove Action = "remove"
	// ActionFlag adds a 0/1 indicator column per affected field.
	ActionFlag Action = "flag"
	// ActionInterpolate blanks flagged values and re-interpolates the
	// interior gaps.
	ActionInterpolate Action = "interpolate"
)

// OutlierIndicatorSuffix marks the 0/1 columns added by ActionFlag.
// Downstream stages treat suffixed columns as annotations, not
// measurements.
const OutlierIndicatorSuffix = "_outlier"

// OutlierEngine flags per-column outliers with a union of statistical
// and domain methods and applies the configured handling policy.
type OutlierEngine struct {
	config *Config
	logger *logrus.Logger
}

// NewOutlierEngine creates an outlier engine.
func NewOutlierEngine(config *Config, logger *logrus.Logger) *OutlierEngine {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &OutlierEngine{config: config, logger: logger}
}

// DetectAndHandle flags outliers in every column and handles them in
// place. The combined method takes the union of z-score, Tukey IQR and
// the fixed domain-range table, so a value escaping one detector can
// still be caught by another.
func (e *OutlierEngine) DetectAndHandle(t *models.Table, method DetectionMethod, action Action) (*models.OutlierResult, error) {
	switch method {
	case MethodZScore, MethodIQR, MethodDomain, MethodCombined:
	default:
		return nil, errors.NewValidationError("INVALID_METHOD", "unknown outlier detection method: "+string(method))
	}
	switch action {
	case ActionCap, ActionRemove, ActionFlag, ActionInterpolate:
	default:
		return nil, errors.NewValidationError("INVALID_ACTION", "unknown outlier action: "+string(action))
	}

	result := &models.OutlierResult{
		CountsByField: make(map[string]int),
		Method:        string(method),
		Action:        string(action),
	}

	for _, col := range t.Columns() {
		values := t.Column(col)
		flags := e.detect(col, values, method)

		count := 0
		for _, f := range flags {
			if f {
				count++
			}
		}
		if count == 0 {
			continue
		}
		result.CountsByField[col] = count
		result.TotalFlagged += count

		e.handle(t, col, values, flags, action)
	}

	e.logger.WithFields(logrus.Fields{
		"method":  method,
		"action":  action,
		"flagged": result.TotalFlagged,
	}).Debug("Outlier handling completed")

	return result, nil
}

func (e *OutlierEngine) detect(col string, values []float64, method DetectionMethod) []bool {
	flags := make([]bool, len(values))
	if method == MethodZScore || method == MethodCombined {
		e.flagZScore(values, flags)
	}
	if method == MethodIQR || method == MethodCombined {
		e.flagIQR(values, flags)
	}
	if method == MethodDomain || method == MethodCombined {
		e.flagDomain(col, values, flags)
	}
	return flags
}

// flagZScore flags values whose population z-score exceeds the
// threshold. NaN cells are omitted from the moments and never flagged.
func (e *OutlierEngine) flagZScore(values []float64, flags []bool) {
	mean := stats.Mean(values)
	std := stats.PopStdDev(values)
	if math.IsNaN(mean) || std == 0 {
		return
	}
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if math.Abs(v-mean)/std > e.config.ZScoreThreshold {
			flags[i] = true
		}
	}
}

func (e *OutlierEngine) flagIQR(values []float64, flags []bool) {
	lower, upper := stats.IQRBounds(values, e.config.IQRMultiplier)
	if math.IsNaN(lower) || math.IsNaN(upper) {
		return
	}
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if v < lower || v > upper {
			flags[i] = true
		}
	}
}

func (e *OutlierEngine) flagDomain(col string, values []float64, flags []bool) {
	r, ok := constants.DomainRanges[col]
	if !ok {
		return
	}
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if v < r.Min || v > r.Max {
			flags[i] = true
		}
	}
}

func (e *OutlierEngine) handle(t *models.Table, col string, values []float64, flags []bool, action Action) {
	switch action {
	case ActionCap:
		lower, upper := e.capBounds(col, values)
		for i, f := range flags {
			if !f {
				continue
			}
			if values[i] < lower {
				values[i] = lower
			} else if values[i] > upper {
				values[i] = upper
			}
		}
	case ActionRemove:
		for i, f := range flags {
			if f {
				values[i] = math.NaN()
			}
		}
	case ActionFlag:
		indicator := make([]float64, len(values))
		for i, f := range flags {
			if f {
				indicator[i] = 1
			}
		}
		t.AddColumn(col+OutlierIndicatorSuffix, indicator)
	case ActionInterpolate:
		for i, f := range flags {
			if f {
				values[i] = math.NaN()
			}
		}
		interpolateGaps(values)
	}
}

func (e *OutlierEngine) capBounds(col string, values []float64) (float64, float64) {
	if e.config.CapToDomain {
		if r, ok := constants.DomainRanges[col]; ok {
			return r.Min, r.Max
		}
	}
	return stats.Percentile(values, e.config.CapLowerPct),
		stats.Percentile(values, e.config.CapUpperPct)
}
