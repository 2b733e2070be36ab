package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/skylab-io/aqicast/pkg/models"
)

// mapeEpsilon protects MAPE from division by (near-)zero actuals; such
// points are skipped rather than allowed to dominate the average.
const mapeEpsilon = 1e-9

// ComputeMetrics scores predictions against actuals. Pairs where either
// side is not finite are skipped.
func ComputeMetrics(predictions, actuals []float64) *models.RegressionMetrics {
	var preds, acts []float64
	for i := range predictions {
		if i >= len(actuals) {
			break
		}
		if isFinite(predictions[i]) && isFinite(actuals[i]) {
			preds = append(preds, predictions[i])
			acts = append(acts, actuals[i])
		}
	}

	m := &models.RegressionMetrics{SampleCount: len(preds)}
	if len(preds) == 0 {
		return m
	}

	var sumSq, sumAbs, sumErr, sumAPE float64
	apeCount := 0
	for i := range preds {
		err := preds[i] - acts[i]
		sumSq += err * err
		sumAbs += math.Abs(err)
		sumErr += err
		if math.Abs(acts[i]) > mapeEpsilon {
			sumAPE += math.Abs(err / acts[i])
			apeCount++
		}
	}

	n := float64(len(preds))
	m.RMSE = math.Sqrt(sumSq / n)
	m.MAE = sumAbs / n
	m.Bias = sumErr / n
	if apeCount > 0 {
		m.MAPE = 100 * sumAPE / float64(apeCount)
	}
	m.R2 = stat.RSquaredFrom(preds, acts, nil)
	m.DirectionalAccuracy = directionalAccuracy(preds, acts)
	return m
}

// directionalAccuracy is the fraction of successive steps where the
// predicted change has the same sign as the actual change.
func directionalAccuracy(preds, acts []float64) float64 {
	if len(preds) < 2 {
		return 0
	}
	matches := 0
	for i := 1; i < len(preds); i++ {
		predDiff := preds[i] - preds[i-1]
		actDiff := acts[i] - acts[i-1]
		if sign(predDiff) == sign(actDiff) {
			matches++
		}
	}
	return float64(matches) / float64(len(preds)-1)
}

// SkillScore is the percentage RMSE improvement of the model over the
// naive persistence baseline. Positive means the model beats doing
// nothing; zero or negative means it does not.
func SkillScore(modelRMSE, persistenceRMSE float64) float64 {
	if persistenceRMSE == 0 {
		return 0
	}
	return 100 * (1 - modelRMSE/persistenceRMSE)
}

// RMSE computes the root mean squared error of predictions vs actuals,
// skipping non-finite pairs.
func RMSE(predictions, actuals []float64) float64 {
	var sumSq float64
	n := 0
	for i := range predictions {
		if i >= len(actuals) {
			break
		}
		if !isFinite(predictions[i]) || !isFinite(actuals[i]) {
			continue
		}
		err := predictions[i] - actuals[i]
		sumSq += err * err
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sumSq / float64(n))
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
