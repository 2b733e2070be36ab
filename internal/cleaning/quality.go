package cleaning

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/skylab-io/aqicast/internal/utils/stats"
	"github.com/skylab-io/aqicast/pkg/models"
)

// QualityAssessor computes completeness and consistency metrics over a
// batch before any repair happens, so the report reflects the data as
// received.
type QualityAssessor struct {
	logger *logrus.Logger
}

// NewQualityAssessor creates a quality assessor.
func NewQualityAssessor(logger *logrus.Logger) *QualityAssessor {
	if logger == nil {
		logger = logrus.New()
	}
	return &QualityAssessor{logger: logger}
}

// Assess returns batch-level quality metrics. Completeness is
// 100 - mean(missing%) over numeric fields. Consistency is the fraction
// of rows where pm25 <= pm10 among rows with both present; it is a
// physical sanity proxy measured here and enforced later by the
// constraint repairer.
func (a *QualityAssessor) Assess(t *models.Table) *models.QualityMetrics {
	n := t.NumRows()
	missing := make(map[string]float64)
	sumPct := 0.0
	cols := t.Columns()
	for _, col := range cols {
		pct := 0.0
		if n > 0 {
			pct = 100 * float64(stats.CountMissing(t.Column(col))) / float64(n)
		}
		missing[col] = pct
		sumPct += pct
	}

	completeness := 100.0
	if len(cols) > 0 {
		completeness = 100 - sumPct/float64(len(cols))
	}

	consistency := 1.0
	pm25 := t.Column(models.ColumnPM25)
	pm10 := t.Column(models.ColumnPM10)
	if pm25 != nil && pm10 != nil {
		both, ok := 0, 0
		for i := 0; i < n; i++ {
			if math.IsNaN(pm25[i]) || math.IsNaN(pm10[i]) {
				continue
			}
			both++
			if pm25[i] <= pm10[i] {
				ok++
			}
		}
		if both > 0 {
			consistency = float64(ok) / float64(both)
		}
	}

	a.logger.WithFields(logrus.Fields{
		"rows":         n,
		"completeness": completeness,
		"consistency":  consistency,
	}).Debug("Quality assessment completed")

	return &models.QualityMetrics{
		Completeness:      completeness,
		Consistency:       consistency,
		MissingPctByField: missing,
		RowCount:          n,
	}
}
