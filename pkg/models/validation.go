package models

import "time"

// Fold is one train/validation split. Ranges are half-open row-index
// intervals into a chronologically ordered series. The invariant
// TrainEnd+Gap <= ValStart guarantees no temporal leakage.
type Fold struct {
	Index      int `json:"index"`
	TrainStart int `json:"train_start"`
	TrainEnd   int `json:"train_end"`
	ValStart   int `json:"val_start"`
	ValEnd     int `json:"val_end"`
	Gap        int `json:"gap"`
}

// TrainSize returns the number of training rows in the fold.
func (f Fold) TrainSize() int { return f.TrainEnd - f.TrainStart }

// ValSize returns the number of validation rows in the fold.
func (f Fold) ValSize() int { return f.ValEnd - f.ValStart }

// RegressionMetrics is the standard error profile for a batch of
// predictions against actuals.
type RegressionMetrics struct {
	R2                  float64 `json:"r2"`
	RMSE                float64 `json:"rmse"`
	MAE                 float64 `json:"mae"`
	MAPE                float64 `json:"mape"`
	DirectionalAccuracy float64 `json:"directional_accuracy"`
	Bias                float64 `json:"bias"`
	SampleCount         int     `json:"sample_count"`
}

// FoldResult holds one walk-forward step's predictions and actuals.
type FoldResult struct {
	Fold        Fold               `json:"fold"`
	Predictions []float64          `json:"predictions"`
	Actuals     []float64          `json:"actuals"`
	Metrics     *RegressionMetrics `json:"metrics"`
}

// WalkForwardReport aggregates a rolling-origin evaluation for one
// horizon. SkillScore is the percentage RMSE improvement over the naive
// persistence baseline; it is the single number that answers whether
// the model beats doing nothing.
type WalkForwardReport struct {
	ID               string             `json:"id"`
	Horizon          int                `json:"horizon_hours"`
	InitialTrainSize int                `json:"initial_train_size"`
	StepSize         int                `json:"step_size"`
	Folds            []FoldResult       `json:"folds"`
	Overall          *RegressionMetrics `json:"overall"`
	PersistenceRMSE  float64            `json:"persistence_rmse"`
	SkillScore       float64            `json:"skill_score_pct"`
	GeneratedAt      time.Time          `json:"generated_at"`
}

// EntityHoldOutReport is a per-entity hold-out evaluation, with error
// metrics additionally stratified by AQI severity band so a flat low
// RMSE cannot hide poor performance at hazardous extremes.
type EntityHoldOutReport struct {
	ID            string                         `json:"id"`
	EntityID      string                         `json:"entity_id"`
	TrainSize     int                            `json:"train_size"`
	TestSize      int                            `json:"test_size"`
	Chronological bool                           `json:"chronological"`
	Overall       *RegressionMetrics             `json:"overall"`
	ByBand        map[AQIBand]*RegressionMetrics `json:"by_band"`
	GeneratedAt   time.Time                      `json:"generated_at"`
}

// CrossEntityReport evaluates geographic transfer: a model trained on
// one entity's full history scored on another's.
type CrossEntityReport struct {
	ID          string             `json:"id"`
	TrainEntity string             `json:"train_entity"`
	EvalEntity  string             `json:"eval_entity"`
	TrainSize   int                `json:"train_size"`
	EvalSize    int                `json:"eval_size"`
	Metrics     *RegressionMetrics `json:"metrics"`
	GeneratedAt time.Time          `json:"generated_at"`
}
