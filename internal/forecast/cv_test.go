package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylab-io/aqicast/pkg/errors"
)

func TestSplitExpandingGeometry(t *testing.T) {
	cv := NewTimeSeriesCV(5, 0, true)
	folds, err := cv.Split(200)
	require.NoError(t, err)
	require.Len(t, folds, 5)

	valSize := 200 / 6
	for i, fold := range folds {
		assert.Equal(t, i, fold.Index)
		assert.Equal(t, 0, fold.TrainStart)
		assert.Equal(t, fold.ValStart, fold.TrainEnd)
		assert.Equal(t, valSize, fold.ValSize())
		if i > 0 {
			// Validation windows tile the tail without overlap, and the
			// expanding training window grows monotonically.
			assert.Equal(t, folds[i-1].ValEnd, fold.ValStart)
			assert.Greater(t, fold.TrainSize(), folds[i-1].TrainSize())
		}
	}
	assert.Equal(t, 200, folds[4].ValEnd)
}

func TestSplitWithGap(t *testing.T) {
	cv := NewTimeSeriesCV(3, 24, true)
	folds, err := cv.Split(500)
	require.NoError(t, err)

	for _, fold := range folds {
		assert.Equal(t, fold.ValStart-24, fold.TrainEnd)
		assert.Equal(t, 24, fold.Gap)
	}
}

func TestSplitRollingWindowBounded(t *testing.T) {
	cv := NewTimeSeriesCV(5, 0, false)
	folds, err := cv.Split(200)
	require.NoError(t, err)

	maxTrain := 200 / 10
	for i, fold := range folds {
		assert.LessOrEqual(t, fold.TrainSize(), maxTrain)
		if i > 0 {
			// The rolling window slides instead of growing.
			assert.Greater(t, fold.TrainStart, folds[i-1].TrainStart)
		}
	}
}

func TestSplitRollingExplicitMaxTrainSize(t *testing.T) {
	cv := &TimeSeriesCV{NSplits: 4, MaxTrainSize: 50}
	folds, err := cv.Split(300)
	require.NoError(t, err)

	for _, fold := range folds {
		assert.Equal(t, 50, fold.TrainSize())
	}
}

func TestSplitInsufficientData(t *testing.T) {
	cv := NewTimeSeriesCV(5, 0, true)
	_, err := cv.Split(5)
	require.Error(t, err)
	assert.True(t, errors.IsInsufficientDataError(err))
}

func TestSplitGapConsumesTraining(t *testing.T) {
	// First fold's training window would be empty after removing the gap.
	cv := NewTimeSeriesCV(4, 30, true)
	_, err := cv.Split(100)
	require.Error(t, err)
	assert.True(t, errors.IsInsufficientDataError(err))
}

func TestSplitInvalidParameters(t *testing.T) {
	_, err := NewTimeSeriesCV(0, 0, true).Split(100)
	assert.Error(t, err)

	_, err = NewTimeSeriesCV(3, -1, true).Split(100)
	assert.Error(t, err)
}
