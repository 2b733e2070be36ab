package forecast

import (
	"github.com/skylab-io/aqicast/pkg/constants"
	"github.com/skylab-io/aqicast/pkg/errors"
	"github.com/skylab-io/aqicast/pkg/models"
)

// TimeSeriesCV generates leakage-safe train/validation folds over a
// chronologically ordered series. Validation windows are contiguous,
// equal-sized and non-overlapping, tiling the tail of the series, and
// every fold's training data temporally precedes its validation data.
// That ordering is the invariant this component exists to guarantee.
type TimeSeriesCV struct {
	// NSplits is the number of folds.
	NSplits int
	// Gap removes the most recent training samples immediately before
	// each validation window, reducing autocorrelation leakage.
	Gap int
	// Expanding grows the training window from index 0; otherwise a
	// fixed-size window slides forward (rolling).
	Expanding bool
	// MaxTrainSize bounds the rolling training window. Zero means
	// n_samples / (NSplits + 5).
	MaxTrainSize int
}

// NewTimeSeriesCV creates a fold generator with the given geometry.
func NewTimeSeriesCV(nSplits, gap int, expanding bool) *TimeSeriesCV {
	return &TimeSeriesCV{NSplits: nSplits, Gap: gap, Expanding: expanding}
}

// Split returns the folds for a series of nSamples rows. It fails with
// an insufficient-data error when the requested geometry does not fit.
func (cv *TimeSeriesCV) Split(nSamples int) ([]models.Fold, error) {
	if cv.NSplits < 1 {
		return nil, errors.NewValidationError("INVALID_SPLITS", "number of splits must be >= 1")
	}
	if cv.Gap < 0 {
		return nil, errors.NewValidationError("INVALID_GAP", "gap must be >= 0")
	}

	valSize := nSamples / (cv.NSplits + 1)
	if valSize < 1 {
		return nil, errors.NewInsufficientDataError("time series split", cv.NSplits+1, nSamples)
	}
	if required := cv.NSplits * (valSize + cv.Gap); required > nSamples {
		return nil, errors.NewInsufficientDataError("time series split", required, nSamples)
	}

	maxTrain := cv.MaxTrainSize
	if !cv.Expanding && maxTrain <= 0 {
		maxTrain = nSamples / (cv.NSplits + constants.RollingTrainDivisorOffset)
		if maxTrain < 1 {
			maxTrain = 1
		}
	}

	folds := make([]models.Fold, 0, cv.NSplits)
	for i := 0; i < cv.NSplits; i++ {
		valStart := nSamples - (cv.NSplits-i)*valSize
		valEnd := valStart + valSize
		trainEnd := valStart - cv.Gap
		if trainEnd < 1 {
			return nil, errors.NewInsufficientDataError("time series split", cv.Gap+1, valStart)
		}
		trainStart := 0
		if !cv.Expanding && trainEnd-maxTrain > 0 {
			trainStart = trainEnd - maxTrain
		}
		folds = append(folds, models.Fold{
			Index:      i,
			TrainStart: trainStart,
			TrainEnd:   trainEnd,
			ValStart:   valStart,
			ValEnd:     valEnd,
			Gap:        cv.Gap,
		})
	}
	return folds, nil
}
