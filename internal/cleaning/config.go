package cleaning

import (
	"github.com/skylab-io/aqicast/pkg/constants"
	"github.com/skylab-io/aqicast/pkg/models"
)

// Config controls every cleaning stage. A nil config anywhere in the
// package means DefaultConfig(); there is no process-wide state.
type Config struct {
	// RequiredColumns must be present in the input schema; a missing
	// one fails the run immediately with a schema error.
	RequiredColumns []string `json:"required_columns" mapstructure:"required_columns"`

	// Imputation
	FillLimit       int `json:"fill_limit" mapstructure:"fill_limit"`
	RollingFillSpan int `json:"rolling_fill_span" mapstructure:"rolling_fill_span"`

	// Outlier detection and handling
	OutlierMethod   DetectionMethod `json:"outlier_method" mapstructure:"outlier_method"`
	OutlierAction   Action          `json:"outlier_action" mapstructure:"outlier_action"`
	ZScoreThreshold float64         `json:"zscore_threshold" mapstructure:"zscore_threshold"`
	IQRMultiplier   float64         `json:"iqr_multiplier" mapstructure:"iqr_multiplier"`
	CapLowerPct     float64         `json:"cap_lower_pct" mapstructure:"cap_lower_pct"`
	CapUpperPct     float64         `json:"cap_upper_pct" mapstructure:"cap_upper_pct"`
	// CapToDomain caps flagged values to the fixed domain range instead
	// of the batch's own percentiles, making capping independent of
	// whatever data happens to be in the current batch.
	CapToDomain bool `json:"cap_to_domain" mapstructure:"cap_to_domain"`

	// Cross-source consistency
	CVThreshold    float64 `json:"cv_threshold" mapstructure:"cv_threshold"`
	AQIDiscrepancy float64 `json:"aqi_discrepancy" mapstructure:"aqi_discrepancy"`

	// Anomaly detection
	AnomalyWindow  int     `json:"anomaly_window" mapstructure:"anomaly_window"`
	AnomalyMediumZ float64 `json:"anomaly_medium_z" mapstructure:"anomaly_medium_z"`
	AnomalyHighZ   float64 `json:"anomaly_high_z" mapstructure:"anomaly_high_z"`
}

// DefaultConfig returns the standard cleaning configuration.
func DefaultConfig() *Config {
	required := make([]string, len(models.PollutantColumns))
	copy(required, models.PollutantColumns)
	return &Config{
		RequiredColumns: required,
		FillLimit:       constants.DefaultFillLimit,
		RollingFillSpan: constants.DefaultRollingFillSpan,
		OutlierMethod:   MethodCombined,
		OutlierAction:   ActionCap,
		ZScoreThreshold: constants.DefaultZScoreThreshold,
		IQRMultiplier:   constants.DefaultIQRMultiplier,
		CapLowerPct:     constants.DefaultCapLowerPct,
		CapUpperPct:     constants.DefaultCapUpperPct,
		CVThreshold:     constants.DefaultCVThreshold,
		AQIDiscrepancy:  constants.DefaultAQIDiscrepancy,
		AnomalyWindow:   constants.DefaultAnomalyWindow,
		AnomalyMediumZ:  constants.DefaultAnomalyMediumZ,
		AnomalyHighZ:    constants.DefaultAnomalyHighZ,
	}
}
