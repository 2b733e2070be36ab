package models

import "time"

// CleaningReport describes everything a cleaning run did to a batch.
// It is purely descriptive and JSON-serializable; the cleaner never
// mutates data without accounting for it here.
type CleaningReport struct {
	ID           string        `json:"id"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	InitialCount int           `json:"initial_count"`
	FinalCount   int           `json:"final_count"`

	Quality     *QualityMetrics           `json:"quality"`
	Imputation  *ImputationResult         `json:"imputation"`
	Outliers    *OutlierResult            `json:"outliers"`
	Constraints *ConstraintRepairResult   `json:"constraints"`
	Consistency *ConsistencyResult        `json:"consistency,omitempty"`
	Anomalies   map[string][]AnomalyPoint `json:"anomalies_by_field"`

	StageDurations map[string]time.Duration `json:"stage_durations"`
}

// QualityMetrics summarizes completeness and internal consistency of a
// batch before any repair happens.
type QualityMetrics struct {
	Completeness      float64            `json:"completeness"`
	Consistency       float64            `json:"consistency"`
	MissingPctByField map[string]float64 `json:"missing_pct_by_field"`
	RowCount          int                `json:"row_count"`
}

// ImputationResult records how many cells each strategy filled, per
// column. Strategy keys are the ImputeStrategy constants.
type ImputationResult struct {
	FilledByStrategy map[string]map[string]int `json:"filled_by_strategy"`
	TotalFilled      int                       `json:"total_filled"`
	RemainingMissing int                       `json:"remaining_missing"`
}

// Add records n cells filled in column by the given strategy.
func (r *ImputationResult) Add(strategy, column string, n int) {
	if n == 0 {
		return
	}
	if r.FilledByStrategy == nil {
		r.FilledByStrategy = make(map[string]map[string]int)
	}
	if r.FilledByStrategy[strategy] == nil {
		r.FilledByStrategy[strategy] = make(map[string]int)
	}
	r.FilledByStrategy[strategy][column] += n
	r.TotalFilled += n
}

// Impute strategy identifiers, in application order.
const (
	StrategyInterpolate = "interpolate"
	StrategyForwardFill = "forward_fill"
	StrategyBackFill    = "backward_fill"
	StrategyRollingMean = "rolling_mean"
	StrategyMedian      = "median"
)

// OutlierResult records flagged and handled outliers per column.
type OutlierResult struct {
	CountsByField map[string]int `json:"counts_by_field"`
	Method        string         `json:"method"`
	Action        string         `json:"action"`
	TotalFlagged  int            `json:"total_flagged"`
}

// ConstraintRepairResult counts physical-constraint repairs per rule.
type ConstraintRepairResult struct {
	PMOrderingFixed  int `json:"pm_ordering_fixed"`
	NegativesClamped int `json:"negatives_clamped"`
	HumidityClamped  int `json:"humidity_clamped"`
	WindSpeedClamped int `json:"wind_speed_clamped"`
	TotalRepairs     int `json:"total_repairs"`
}

// ConsistencyResult reports cross-source agreement over overlapping
// (entity, timestamp) groups.
type ConsistencyResult struct {
	Sources        []string      `json:"sources"`
	GroupsChecked  int           `json:"groups_checked"`
	Discrepancies  []Discrepancy `json:"discrepancies"`
	AgreementScore float64       `json:"agreement_score"`
}

// Discrepancy is one disagreeing (entity, timestamp) group.
type Discrepancy struct {
	EntityID  string    `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
	Field     string    `json:"field"`
	Values    []float64 `json:"values"`
	CV        float64   `json:"cv,omitempty"`
	Range     float64   `json:"range,omitempty"`
}

// AnomalySeverity grades how far a point sits from its rolling baseline.
type AnomalySeverity string

const (
	AnomalyMedium AnomalySeverity = "medium"
	AnomalyHigh   AnomalySeverity = "high"
)

// AnomalyPoint is a single rolling-baseline deviation. Anomalies are
// reported, never removed.
type AnomalyPoint struct {
	Index     int             `json:"index"`
	EntityID  string          `json:"entity_id"`
	Timestamp time.Time       `json:"timestamp"`
	Value     float64         `json:"value"`
	ZScore    float64         `json:"z_score"`
	Severity  AnomalySeverity `json:"severity"`
}
