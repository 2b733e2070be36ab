package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylab-io/aqicast/internal/cleaning"
	"github.com/skylab-io/aqicast/pkg/constants"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, constants.DefaultFillLimit, cfg.Cleaning.FillLimit)
	assert.Equal(t, cleaning.MethodCombined, cfg.Cleaning.OutlierMethod)
	assert.Equal(t, constants.DefaultLags, cfg.Features.Lags)
	assert.Equal(t, constants.DefaultMaxConcurrency, cfg.Validation.MaxConcurrency)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aqicast.yaml")
	content := []byte(`
log_level: debug
cleaning:
  fill_limit: 6
  outlier_action: flag
validation:
  max_concurrency: 2
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 6, cfg.Cleaning.FillLimit)
	assert.Equal(t, cleaning.ActionFlag, cfg.Cleaning.OutlierAction)
	assert.Equal(t, 2, cfg.Validation.MaxConcurrency)
	// Unspecified keys keep their defaults.
	assert.Equal(t, constants.DefaultZScoreThreshold, cfg.Cleaning.ZScoreThreshold)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("AQICAST_CLEANING_FILL_LIMIT", "9")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Cleaning.FillLimit)
}
