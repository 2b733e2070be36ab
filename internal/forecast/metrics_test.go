package forecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeMetricsPerfectPredictions(t *testing.T) {
	acts := []float64{100, 110, 105, 120}
	m := ComputeMetrics(acts, acts)

	require.Equal(t, 4, m.SampleCount)
	assert.Equal(t, 0.0, m.RMSE)
	assert.Equal(t, 0.0, m.MAE)
	assert.Equal(t, 0.0, m.Bias)
	assert.InDelta(t, 1.0, m.R2, 1e-9)
	assert.Equal(t, 1.0, m.DirectionalAccuracy)
}

func TestComputeMetricsConstantOffset(t *testing.T) {
	acts := []float64{100, 110, 105, 120}
	preds := []float64{102, 112, 107, 122}
	m := ComputeMetrics(preds, acts)

	assert.InDelta(t, 2.0, m.RMSE, 1e-9)
	assert.InDelta(t, 2.0, m.MAE, 1e-9)
	assert.InDelta(t, 2.0, m.Bias, 1e-9)
	// Offset preserves every direction change.
	assert.Equal(t, 1.0, m.DirectionalAccuracy)
}

func TestComputeMetricsSkipsNonFinitePairs(t *testing.T) {
	preds := []float64{100, math.NaN(), 105}
	acts := []float64{100, 110, math.Inf(1)}
	m := ComputeMetrics(preds, acts)

	assert.Equal(t, 1, m.SampleCount)
	assert.Equal(t, 0.0, m.RMSE)
}

func TestComputeMetricsEmpty(t *testing.T) {
	m := ComputeMetrics(nil, nil)
	assert.Equal(t, 0, m.SampleCount)
	assert.Equal(t, 0.0, m.RMSE)
}

func TestComputeMetricsMAPESkipsZeroActuals(t *testing.T) {
	preds := []float64{10, 5}
	acts := []float64{0, 10}
	m := ComputeMetrics(preds, acts)

	// Only the nonzero actual contributes: |5-10|/10 = 50%.
	assert.InDelta(t, 50.0, m.MAPE, 1e-9)
}

func TestSkillScore(t *testing.T) {
	assert.InDelta(t, 50.0, SkillScore(5, 10), 1e-9)
	assert.InDelta(t, 0.0, SkillScore(10, 10), 1e-9)
	assert.InDelta(t, -100.0, SkillScore(20, 10), 1e-9)
	assert.Equal(t, 0.0, SkillScore(5, 0))
}

func TestRMSEHelper(t *testing.T) {
	assert.InDelta(t, 3.0, RMSE([]float64{3, 13}, []float64{0, 10}), 1e-9)
	assert.Equal(t, 0.0, RMSE(nil, nil))
}
