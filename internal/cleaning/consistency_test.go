package cleaning

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylab-io/aqicast/pkg/models"
)

// multiSourceTable builds overlapping (entity, timestamp) rows from two
// sources with the given pm25 and aqi value pairs.
func multiSourceTable(pm25Pairs, aqiPairs [][2]float64) *models.Table {
	n := len(pm25Pairs) * 2
	table := models.NewTable(n)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	var pm25, aqi []float64
	for i, pair := range pm25Pairs {
		ts := base.Add(time.Duration(i) * time.Hour)
		for s := 0; s < 2; s++ {
			table.Entities = append(table.Entities, "delhi")
			table.Timestamps = append(table.Timestamps, ts)
			if s == 0 {
				table.Sources = append(table.Sources, "cpcb")
			} else {
				table.Sources = append(table.Sources, "openaq")
			}
			pm25 = append(pm25, pair[s])
			aqi = append(aqi, aqiPairs[i][s])
		}
	}
	table.AddColumn(models.ColumnPM25, pm25)
	table.AddColumn(models.ColumnAQI, aqi)
	return table
}

func TestConsistencyFlagsDivergentSources(t *testing.T) {
	table := multiSourceTable(
		[][2]float64{{50, 52}, {40, 200}},
		[][2]float64{{100, 105}, {100, 110}},
	)

	checker := NewConsistencyChecker(nil, logrus.New())
	result := checker.Check(table)

	require.NotNil(t, result)
	assert.Equal(t, []string{"cpcb", "openaq"}, result.Sources)
	assert.Equal(t, 2, result.GroupsChecked)
	require.Len(t, result.Discrepancies, 1)
	assert.Equal(t, models.ColumnPM25, result.Discrepancies[0].Field)
	assert.InDelta(t, 0.5, result.AgreementScore, 1e-9)
}

func TestConsistencyFlagsAQISpread(t *testing.T) {
	table := multiSourceTable(
		[][2]float64{{50, 51}},
		[][2]float64{{80, 200}},
	)

	checker := NewConsistencyChecker(nil, logrus.New())
	result := checker.Check(table)

	require.NotNil(t, result)
	require.Len(t, result.Discrepancies, 1)
	assert.Equal(t, models.ColumnAQI, result.Discrepancies[0].Field)
	assert.InDelta(t, 120.0, result.Discrepancies[0].Range, 1e-9)
}

func TestConsistencySingleSourceReturnsNil(t *testing.T) {
	table := makeTable([]string{"delhi", "delhi"})
	table.AddColumn(models.ColumnPM25, []float64{50, 55})

	checker := NewConsistencyChecker(nil, logrus.New())
	assert.Nil(t, checker.Check(table))
}

func TestConsistencyPerfectAgreement(t *testing.T) {
	table := multiSourceTable(
		[][2]float64{{50, 51}, {60, 61}},
		[][2]float64{{100, 102}, {110, 111}},
	)

	checker := NewConsistencyChecker(nil, logrus.New())
	result := checker.Check(table)

	require.NotNil(t, result)
	assert.Empty(t, result.Discrepancies)
	assert.Equal(t, 1.0, result.AgreementScore)
}
