package forecast

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/skylab-io/aqicast/pkg/errors"
	"github.com/skylab-io/aqicast/pkg/models"
)

// DatasetBuilder constructs horizon-shifted supervised pairs: for
// horizon h, y[t] = target[t+h], and the last h rows of X are truncated
// because their future target is unknown. No synthetic target is ever
// fabricated.
type DatasetBuilder struct {
	logger *logrus.Logger
}

// NewDatasetBuilder creates a dataset builder.
func NewDatasetBuilder(logger *logrus.Logger) *DatasetBuilder {
	if logger == nil {
		logger = logrus.New()
	}
	return &DatasetBuilder{logger: logger}
}

// Prepare returns (X, y) for the given horizon. Rows whose shifted
// target is missing are dropped. featureCols nil means all columns.
func (b *DatasetBuilder) Prepare(t *models.Table, horizon int, featureCols []string, targetCol string) (*models.Table, []float64, error) {
	if horizon < 1 {
		return nil, nil, errors.NewValidationError("INVALID_HORIZON", "forecast horizon must be >= 1 hour")
	}
	target := t.Column(targetCol)
	if target == nil {
		return nil, nil, errors.NewSchemaError(targetCol)
	}
	n := t.NumRows()
	if n <= horizon {
		return nil, nil, errors.NewInsufficientDataError("horizon shift", horizon+1, n)
	}

	if featureCols == nil {
		featureCols = t.Columns()
	}

	x := t.Slice(0, n-horizon).Select(featureCols)
	y := make([]float64, n-horizon)
	copy(y, target[horizon:])

	// Drop rows with a missing shifted target.
	var keep []int
	for i, v := range y {
		if !math.IsNaN(v) {
			keep = append(keep, i)
		}
	}
	if len(keep) < len(y) {
		x = x.SelectRows(keep)
		kept := make([]float64, len(keep))
		for j, i := range keep {
			kept[j] = y[i]
		}
		y = kept
	}

	b.logger.WithFields(logrus.Fields{
		"horizon": horizon,
		"rows":    len(y),
		"dropped": (n - horizon) - len(y),
	}).Debug("Forecast dataset prepared")

	return x, y, nil
}
