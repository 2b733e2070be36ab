package cleaning

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylab-io/aqicast/pkg/errors"
	"github.com/skylab-io/aqicast/pkg/models"
)

// pollutedReadings builds n hourly delhi readings covering every
// pollutant column, with a missing pm25 cell and one negative value.
func pollutedReadings(n int) []models.Reading {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	readings := make([]models.Reading, 0, n)
	for i := 0; i < n; i++ {
		values := map[string]float64{
			models.ColumnPM25: 80 + float64(i%7),
			models.ColumnPM10: 130 + float64(i%5),
			models.ColumnNO2:  40 + float64(i%3),
			models.ColumnSO2:  12,
			models.ColumnCO:   1.1,
			models.ColumnO3:   60 + float64(i%4),
			models.ColumnAQI:  150 + float64(i%9),
		}
		if i == 3 {
			delete(values, models.ColumnPM25)
		}
		if i == 5 {
			values[models.ColumnNO2] = -10
		}
		if i == 7 {
			values[models.ColumnPM10] = 75
		}
		readings = append(readings, models.Reading{
			EntityID:  "delhi",
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Values:    values,
			Source:    "cpcb",
		})
	}
	return readings
}

func TestCleanLeavesNoMissingValues(t *testing.T) {
	cleaner := NewDataCleaner(nil, logrus.New(), nil)
	cleaned, report, err := cleaner.Clean(context.Background(), pollutedReadings(48))
	require.NoError(t, err)
	require.NotNil(t, report)

	for _, col := range models.PollutantColumns {
		for i, v := range cleaned.Column(col) {
			assert.False(t, math.IsNaN(v), "column %s row %d still missing", col, i)
		}
	}
	assert.Positive(t, report.Imputation.TotalFilled)
	assert.Equal(t, 0, report.Imputation.RemainingMissing)
}

func TestCleanRepairsConstraints(t *testing.T) {
	// Flag instead of cap so the constraint stage, not the outlier
	// stage, is what repairs the planted violations.
	cfg := DefaultConfig()
	cfg.OutlierAction = ActionFlag

	cleaner := NewDataCleaner(cfg, logrus.New(), nil)
	cleaned, report, err := cleaner.Clean(context.Background(), pollutedReadings(48))
	require.NoError(t, err)

	pm25 := cleaned.Column(models.ColumnPM25)
	pm10 := cleaned.Column(models.ColumnPM10)
	for i := range pm25 {
		assert.LessOrEqual(t, pm25[i], pm10[i])
	}
	for _, col := range models.PollutantColumns {
		for _, v := range cleaned.Column(col) {
			assert.GreaterOrEqual(t, v, 0.0)
		}
	}
	assert.Positive(t, report.Constraints.NegativesClamped)
	assert.Equal(t, 1, report.Constraints.PMOrderingFixed)
}

func TestCleanReportAccounting(t *testing.T) {
	cleaner := NewDataCleaner(nil, logrus.New(), nil)
	_, report, err := cleaner.Clean(context.Background(), pollutedReadings(48))
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, 48, report.InitialCount)
	assert.Equal(t, 48, report.FinalCount)
	require.NotNil(t, report.Quality)
	assert.Greater(t, report.Quality.Completeness, 99.0)
	for _, stage := range []string{"quality", "imputation", "outliers", "constraints", "consistency", "anomalies"} {
		assert.Contains(t, report.StageDurations, stage)
	}
}

func TestCleanMissingRequiredColumn(t *testing.T) {
	readings := pollutedReadings(24)
	for i := range readings {
		delete(readings[i].Values, models.ColumnSO2)
	}

	cleaner := NewDataCleaner(nil, logrus.New(), nil)
	_, _, err := cleaner.Clean(context.Background(), readings)

	require.Error(t, err)
	assert.True(t, errors.IsSchemaError(err))
}

func TestCleanEmptyBatch(t *testing.T) {
	cleaner := NewDataCleaner(nil, logrus.New(), nil)
	_, _, err := cleaner.Clean(context.Background(), nil)
	assert.Error(t, err)
}

func TestCleanContinuesPastDeadColumn(t *testing.T) {
	readings := pollutedReadings(24)
	// o3 present in the schema but never observed.
	for i := range readings {
		readings[i].Values[models.ColumnO3] = math.NaN()
	}

	cleaner := NewDataCleaner(nil, logrus.New(), nil)
	cleaned, report, err := cleaner.Clean(context.Background(), readings)

	// Fatal for the o3 column only; the run completes.
	require.NoError(t, err)
	require.NotNil(t, cleaned)
	assert.Positive(t, report.Imputation.RemainingMissing)
	for _, v := range cleaned.Column(models.ColumnPM25) {
		assert.False(t, math.IsNaN(v))
	}
}

func TestCleanContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cleaner := NewDataCleaner(nil, logrus.New(), nil)
	_, _, err := cleaner.Clean(ctx, pollutedReadings(24))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnomalyDetectorFlagsSpike(t *testing.T) {
	entities := make([]string, 48)
	for i := range entities {
		entities[i] = "delhi"
	}
	table := makeTable(entities)
	values := make([]float64, 48)
	for i := range values {
		values[i] = 50 + float64(i%3)
	}
	values[40] = 400
	table.AddColumn(models.ColumnPM25, values)

	detector := NewAnomalyDetector(nil, logrus.New())
	anomalies := detector.Detect(table, 48)

	points := anomalies[models.ColumnPM25]
	require.NotEmpty(t, points)
	found := false
	for _, p := range points {
		if p.Index == 40 {
			found = true
			assert.Equal(t, models.AnomalyHigh, p.Severity)
			assert.Equal(t, "delhi", p.EntityID)
		}
	}
	assert.True(t, found)
	// Anomalies are reported, never mutated.
	assert.Equal(t, 400.0, table.Column(models.ColumnPM25)[40])
}

func TestAnomalyDetectorIgnoresOutlierIndicators(t *testing.T) {
	entities := make([]string, 48)
	for i := range entities {
		entities[i] = "delhi"
	}
	table := makeTable(entities)
	values := make([]float64, 48)
	for i := range values {
		values[i] = 50 + float64(i%3)
	}
	values[40] = 400
	table.AddColumn(models.ColumnPM25, values)

	cfg := DefaultConfig()
	cfg.OutlierAction = ActionFlag
	engine := NewOutlierEngine(cfg, logrus.New())
	_, err := engine.DetectAndHandle(table, cfg.OutlierMethod, cfg.OutlierAction)
	require.NoError(t, err)
	require.True(t, table.HasColumn(models.ColumnPM25+OutlierIndicatorSuffix))

	detector := NewAnomalyDetector(cfg, logrus.New())
	anomalies := detector.Detect(table, 48)

	// A lone 1 in a sea of 0s is a textbook rolling-z outlier, but the
	// indicator column is an annotation, not a measurement.
	assert.NotContains(t, anomalies, models.ColumnPM25+OutlierIndicatorSuffix)
	assert.NotEmpty(t, anomalies[models.ColumnPM25])
}
