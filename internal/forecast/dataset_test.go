package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylab-io/aqicast/pkg/errors"
	"github.com/skylab-io/aqicast/pkg/models"
)

// rampTable builds n hourly rows for one entity with aqi = 100 + i and
// pm25 = 10 + i.
func rampTable(n int) *models.Table {
	t := models.NewTable(n)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	aqi := make([]float64, n)
	pm25 := make([]float64, n)
	for i := 0; i < n; i++ {
		t.Entities = append(t.Entities, "delhi")
		t.Timestamps = append(t.Timestamps, base.Add(time.Duration(i)*time.Hour))
		t.Sources = append(t.Sources, "cpcb")
		aqi[i] = 100 + float64(i)
		pm25[i] = 10 + float64(i)
	}
	t.AddColumn(models.ColumnAQI, aqi)
	t.AddColumn(models.ColumnPM25, pm25)
	return t
}

func TestPrepareShiftsTargetByHorizon(t *testing.T) {
	table := rampTable(50)
	builder := NewDatasetBuilder(logrus.New())

	x, y, err := builder.Prepare(table, 24, nil, models.ColumnAQI)
	require.NoError(t, err)

	assert.Equal(t, 26, x.NumRows())
	require.Len(t, y, 26)
	target := table.Column(models.ColumnAQI)
	for i := range y {
		assert.Equal(t, target[i+24], y[i])
	}
	// Features are the unshifted values at feature time.
	assert.Equal(t, target[0], x.Column(models.ColumnAQI)[0])
}

func TestPrepareSelectsFeatureColumns(t *testing.T) {
	table := rampTable(30)
	builder := NewDatasetBuilder(logrus.New())

	x, _, err := builder.Prepare(table, 1, []string{models.ColumnPM25}, models.ColumnAQI)
	require.NoError(t, err)

	assert.Equal(t, []string{models.ColumnPM25}, x.Columns())
}

func TestPrepareDropsMissingTargets(t *testing.T) {
	table := rampTable(30)
	table.Column(models.ColumnAQI)[10] = math.NaN()

	builder := NewDatasetBuilder(logrus.New())
	x, y, err := builder.Prepare(table, 1, nil, models.ColumnAQI)
	require.NoError(t, err)

	// Row 9's shifted target is the missing value at row 10; it is
	// dropped, never fabricated.
	assert.Len(t, y, 28)
	assert.Equal(t, 28, x.NumRows())
	for _, v := range y {
		assert.False(t, math.IsNaN(v))
	}
}

func TestPrepareValidation(t *testing.T) {
	table := rampTable(30)
	builder := NewDatasetBuilder(logrus.New())

	_, _, err := builder.Prepare(table, 0, nil, models.ColumnAQI)
	assert.Error(t, err)

	_, _, err = builder.Prepare(table, 1, nil, "missing_col")
	require.Error(t, err)
	assert.True(t, errors.IsSchemaError(err))

	_, _, err = builder.Prepare(table, 30, nil, models.ColumnAQI)
	require.Error(t, err)
	assert.True(t, errors.IsInsufficientDataError(err))
}
