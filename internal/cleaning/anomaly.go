package cleaning

import (
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/skylab-io/aqicast/internal/utils/stats"
	"github.com/skylab-io/aqicast/pkg/models"
)

// AnomalyDetector flags points that deviate from a trailing rolling
// baseline. Anomalies are reported, never removed: distinguishing a
// real pollution spike from sensor noise is a downstream call.
type AnomalyDetector struct {
	config *Config
	logger *logrus.Logger
}

// NewAnomalyDetector creates an anomaly detector.
func NewAnomalyDetector(config *Config, logger *logrus.Logger) *AnomalyDetector {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &AnomalyDetector{config: config, logger: logger}
}

// Detect computes, per column and per entity run, a rolling mean/std
// over a trailing window (minimum one sample). Points beyond mediumZ
// rolling standard deviations from the rolling mean are medium severity,
// beyond highZ are high.
func (d *AnomalyDetector) Detect(t *models.Table, window int) map[string][]models.AnomalyPoint {
	if window <= 0 {
		window = d.config.AnomalyWindow
	}

	anomalies := make(map[string][]models.AnomalyPoint)
	runs := t.EntityRuns()

	for _, col := range t.Columns() {
		// Indicator columns from the flag action are 0/1 annotations; a
		// rolling z-score over them is meaningless.
		if strings.HasSuffix(col, OutlierIndicatorSuffix) {
			continue
		}
		values := t.Column(col)
		for _, run := range runs {
			seg := values[run[0]:run[1]]
			means, stds := stats.RollingMeanStd(seg, window)
			for i, v := range seg {
				if math.IsNaN(v) || stds[i] == 0 || math.IsNaN(means[i]) {
					continue
				}
				z := math.Abs(v-means[i]) / stds[i]
				if z <= d.config.AnomalyMediumZ {
					continue
				}
				severity := models.AnomalyMedium
				if z > d.config.AnomalyHighZ {
					severity = models.AnomalyHigh
				}
				idx := run[0] + i
				anomalies[col] = append(anomalies[col], models.AnomalyPoint{
					Index:     idx,
					EntityID:  t.Entities[idx],
					Timestamp: t.Timestamps[idx],
					Value:     v,
					ZScore:    z,
					Severity:  severity,
				})
			}
		}
	}

	total := 0
	for _, pts := range anomalies {
		total += len(pts)
	}
	d.logger.WithFields(logrus.Fields{
		"window":    window,
		"anomalies": total,
	}).Debug("Anomaly detection completed")

	return anomalies
}
