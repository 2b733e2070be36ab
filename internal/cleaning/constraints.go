package cleaning

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/skylab-io/aqicast/pkg/models"
)

// ConstraintRepairer enforces physical and chemical invariants between
// pollutants. Every repair is counted, never silently dropped.
type ConstraintRepairer struct {
	logger *logrus.Logger
}

// NewConstraintRepairer creates a constraint repairer.
func NewConstraintRepairer(logger *logrus.Logger) *ConstraintRepairer {
	if logger == nil {
		logger = logrus.New()
	}
	return &ConstraintRepairer{logger: logger}
}

// Repair fixes constraint violations in place:
//
//   - PM2.5 <= PM10: violations repaired by setting PM10 = PM2.5.
//     PM2.5 is the more trusted sensor channel by convention, so the
//     coarse fraction is raised, never the fine fraction lowered.
//   - Pollutant and AQI values are clamped to >= 0.
//   - Humidity is clamped to [0, 100], wind speed to >= 0.
func (c *ConstraintRepairer) Repair(t *models.Table) *models.ConstraintRepairResult {
	result := &models.ConstraintRepairResult{}
	n := t.NumRows()

	pm25 := t.Column(models.ColumnPM25)
	pm10 := t.Column(models.ColumnPM10)
	if pm25 != nil && pm10 != nil {
		for i := 0; i < n; i++ {
			if math.IsNaN(pm25[i]) || math.IsNaN(pm10[i]) {
				continue
			}
			if pm25[i] > pm10[i] {
				pm10[i] = pm25[i]
				result.PMOrderingFixed++
			}
		}
	}

	nonNegative := append([]string{}, models.PollutantColumns...)
	nonNegative = append(nonNegative, models.ColumnAQI)
	for _, col := range nonNegative {
		values := t.Column(col)
		for i := range values {
			if !math.IsNaN(values[i]) && values[i] < 0 {
				values[i] = 0
				result.NegativesClamped++
			}
		}
	}

	if humidity := t.Column(models.ColumnHumidity); humidity != nil {
		for i := range humidity {
			if math.IsNaN(humidity[i]) {
				continue
			}
			if humidity[i] < 0 {
				humidity[i] = 0
				result.HumidityClamped++
			} else if humidity[i] > 100 {
				humidity[i] = 100
				result.HumidityClamped++
			}
		}
	}

	if wind := t.Column(models.ColumnWindSpeed); wind != nil {
		for i := range wind {
			if !math.IsNaN(wind[i]) && wind[i] < 0 {
				wind[i] = 0
				result.WindSpeedClamped++
			}
		}
	}

	result.TotalRepairs = result.PMOrderingFixed + result.NegativesClamped +
		result.HumidityClamped + result.WindSpeedClamped

	c.logger.WithFields(logrus.Fields{
		"pm_ordering_fixed": result.PMOrderingFixed,
		"negatives_clamped": result.NegativesClamped,
		"total_repairs":     result.TotalRepairs,
	}).Debug("Constraint repair completed")

	return result
}
