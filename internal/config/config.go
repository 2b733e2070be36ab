// Package config assembles typed pipeline configuration from defaults,
// an optional YAML file, and AQICAST_-prefixed environment variables.
// Components never consult viper themselves; they receive their typed
// sub-config explicitly.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/skylab-io/aqicast/internal/cleaning"
	"github.com/skylab-io/aqicast/internal/features"
	"github.com/skylab-io/aqicast/internal/forecast"
	"github.com/skylab-io/aqicast/pkg/constants"
)

// PipelineConfig is the full configuration tree.
type PipelineConfig struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	Cleaning   cleaning.Config          `mapstructure:"cleaning"`
	Features   features.Config          `mapstructure:"features"`
	Validation forecast.ValidatorConfig `mapstructure:"validation"`
}

// Load reads configuration from the given file (optional), environment,
// and defaults, in increasing priority of env over file over defaults.
func Load(cfgFile string) (*PipelineConfig, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("aqicast")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("AQICAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &PipelineConfig{
		Cleaning:   *cleaning.DefaultConfig(),
		Features:   *features.DefaultConfig(),
		Validation: *forecast.DefaultValidatorConfig(),
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", constants.DefaultLogLevel)
	v.SetDefault("log_format", constants.DefaultLogFormat)

	cleaningDefaults := cleaning.DefaultConfig()
	v.SetDefault("cleaning.fill_limit", cleaningDefaults.FillLimit)
	v.SetDefault("cleaning.rolling_fill_span", cleaningDefaults.RollingFillSpan)
	v.SetDefault("cleaning.outlier_method", string(cleaningDefaults.OutlierMethod))
	v.SetDefault("cleaning.outlier_action", string(cleaningDefaults.OutlierAction))
	v.SetDefault("cleaning.zscore_threshold", cleaningDefaults.ZScoreThreshold)
	v.SetDefault("cleaning.iqr_multiplier", cleaningDefaults.IQRMultiplier)
	v.SetDefault("cleaning.cap_lower_pct", cleaningDefaults.CapLowerPct)
	v.SetDefault("cleaning.cap_upper_pct", cleaningDefaults.CapUpperPct)
	v.SetDefault("cleaning.cv_threshold", cleaningDefaults.CVThreshold)
	v.SetDefault("cleaning.aqi_discrepancy", cleaningDefaults.AQIDiscrepancy)
	v.SetDefault("cleaning.anomaly_window", cleaningDefaults.AnomalyWindow)

	featureDefaults := features.DefaultConfig()
	v.SetDefault("features.lags", featureDefaults.Lags)
	v.SetDefault("features.rolling_windows", featureDefaults.RollingWindows)
	v.SetDefault("features.temporal", featureDefaults.Temporal)
	v.SetDefault("features.interactions", featureDefaults.Interactions)
	v.SetDefault("features.ratios", featureDefaults.Ratios)
	v.SetDefault("features.entity_stats", featureDefaults.EntityStats)
	v.SetDefault("features.weather", featureDefaults.Weather)

	validationDefaults := forecast.DefaultValidatorConfig()
	v.SetDefault("validation.max_concurrency", validationDefaults.MaxConcurrency)
	v.SetDefault("validation.seed", validationDefaults.Seed)
}
