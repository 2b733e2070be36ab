package cleaning

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylab-io/aqicast/pkg/models"
)

func TestRepairPMOrdering(t *testing.T) {
	table := makeTable([]string{"delhi", "delhi", "delhi"})
	table.AddColumn(models.ColumnPM25, []float64{100, 50, 30})
	table.AddColumn(models.ColumnPM10, []float64{80, 120, 30})

	repairer := NewConstraintRepairer(logrus.New())
	result := repairer.Repair(table)

	assert.Equal(t, 1, result.PMOrderingFixed)
	// PM10 is raised to PM2.5, never the reverse.
	assert.Equal(t, 100.0, table.Column(models.ColumnPM10)[0])
	assert.Equal(t, 100.0, table.Column(models.ColumnPM25)[0])
	assert.Equal(t, 120.0, table.Column(models.ColumnPM10)[1])
}

func TestRepairNegativeConcentrations(t *testing.T) {
	table := makeTable([]string{"delhi", "delhi"})
	table.AddColumn(models.ColumnNO2, []float64{-5, 40})
	table.AddColumn(models.ColumnAQI, []float64{-1, 120})

	repairer := NewConstraintRepairer(logrus.New())
	result := repairer.Repair(table)

	assert.Equal(t, 2, result.NegativesClamped)
	assert.Equal(t, 0.0, table.Column(models.ColumnNO2)[0])
	assert.Equal(t, 0.0, table.Column(models.ColumnAQI)[0])
	assert.Equal(t, 40.0, table.Column(models.ColumnNO2)[1])
}

func TestRepairWeatherRanges(t *testing.T) {
	table := makeTable([]string{"delhi", "delhi", "delhi"})
	table.AddColumn(models.ColumnHumidity, []float64{-10, 115, 60})
	table.AddColumn(models.ColumnWindSpeed, []float64{-2, 5, 0})

	repairer := NewConstraintRepairer(logrus.New())
	result := repairer.Repair(table)

	assert.Equal(t, 2, result.HumidityClamped)
	assert.Equal(t, 1, result.WindSpeedClamped)
	assert.Equal(t, 0.0, table.Column(models.ColumnHumidity)[0])
	assert.Equal(t, 100.0, table.Column(models.ColumnHumidity)[1])
	assert.Equal(t, 0.0, table.Column(models.ColumnWindSpeed)[0])
}

func TestRepairSkipsMissingCells(t *testing.T) {
	table := makeTable([]string{"delhi", "delhi"})
	table.AddColumn(models.ColumnPM25, []float64{100, math.NaN()})
	table.AddColumn(models.ColumnPM10, []float64{math.NaN(), 50})

	repairer := NewConstraintRepairer(logrus.New())
	result := repairer.Repair(table)

	require.Equal(t, 0, result.TotalRepairs)
	assert.True(t, math.IsNaN(table.Column(models.ColumnPM10)[0]))
}
