package cleaning

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/skylab-io/aqicast/internal/utils/stats"
	"github.com/skylab-io/aqicast/pkg/models"
)

// ConsistencyChecker scores cross-source agreement for overlapping
// (entity, timestamp) groups. It only runs when the batch carries at
// least two distinct sources.
type ConsistencyChecker struct {
	config *Config
	logger *logrus.Logger
}

// NewConsistencyChecker creates a consistency checker.
func NewConsistencyChecker(config *Config, logger *logrus.Logger) *ConsistencyChecker {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &ConsistencyChecker{config: config, logger: logger}
}

type groupKey struct {
	entity string
	ts     time.Time
}

// Check computes per-pollutant coefficients of variation across sources
// for each overlapping group. A group is discrepant when any pollutant's
// CV exceeds the threshold or the AQI spread exceeds the configured
// point range. The agreement score is 1 - discrepant/total. Returns nil
// when fewer than two sources exist; nothing to compare.
func (c *ConsistencyChecker) Check(t *models.Table) *models.ConsistencyResult {
	sources := distinctSources(t)
	if len(sources) < 2 {
		return nil
	}

	groups := make(map[groupKey][]int)
	for i := 0; i < t.NumRows(); i++ {
		k := groupKey{entity: t.Entities[i], ts: t.Timestamps[i]}
		groups[k] = append(groups[k], i)
	}

	fields := append([]string{}, models.PollutantColumns...)
	fields = append(fields, models.ColumnAQI)

	result := &models.ConsistencyResult{Sources: sources}
	discrepantGroups := 0

	for k, rows := range groups {
		if !multiSource(t, rows) {
			continue
		}
		result.GroupsChecked++

		discrepant := false
		for _, field := range fields {
			col := t.Column(field)
			if col == nil {
				continue
			}
			vals := make([]float64, 0, len(rows))
			for _, i := range rows {
				vals = append(vals, col[i])
			}
			observed := stats.Finite(vals)
			if len(observed) < 2 {
				continue
			}

			if field == models.ColumnAQI {
				spread := maxOf(observed) - minOf(observed)
				if spread > c.config.AQIDiscrepancy {
					discrepant = true
					result.Discrepancies = append(result.Discrepancies, models.Discrepancy{
						EntityID:  k.entity,
						Timestamp: k.ts,
						Field:     field,
						Values:    observed,
						Range:     spread,
					})
				}
				continue
			}

			if cv := stats.CV(observed); cv > c.config.CVThreshold {
				discrepant = true
				result.Discrepancies = append(result.Discrepancies, models.Discrepancy{
					EntityID:  k.entity,
					Timestamp: k.ts,
					Field:     field,
					Values:    observed,
					CV:        cv,
				})
			}
		}
		if discrepant {
			discrepantGroups++
		}
	}

	result.AgreementScore = 1.0
	if result.GroupsChecked > 0 {
		result.AgreementScore = 1 - float64(discrepantGroups)/float64(result.GroupsChecked)
	}

	c.logger.WithFields(logrus.Fields{
		"sources":         len(sources),
		"groups_checked":  result.GroupsChecked,
		"discrepancies":   len(result.Discrepancies),
		"agreement_score": result.AgreementScore,
	}).Debug("Cross-source consistency check completed")

	return result
}

func distinctSources(t *models.Table) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range t.Sources {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func multiSource(t *models.Table, rows []int) bool {
	if len(rows) < 2 {
		return false
	}
	first := t.Sources[rows[0]]
	for _, i := range rows[1:] {
		if t.Sources[i] != first {
			return true
		}
	}
	return false
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
