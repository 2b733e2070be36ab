// Package stats provides NaN-aware statistical helpers over gonum.
// Pipeline columns carry NaN for missing cells, and gonum's moments do
// not omit NaNs, so these wrappers filter first and then delegate.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Finite returns the values with NaN and Inf removed.
func Finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// CountMissing returns the number of NaN cells.
func CountMissing(values []float64) int {
	n := 0
	for _, v := range values {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Mean is the NaN-omitting arithmetic mean. Returns NaN for an empty or
// all-missing slice.
func Mean(values []float64) float64 {
	finite := Finite(values)
	if len(finite) == 0 {
		return math.NaN()
	}
	return stat.Mean(finite, nil)
}

// StdDev is the NaN-omitting sample standard deviation.
func StdDev(values []float64) float64 {
	finite := Finite(values)
	if len(finite) < 2 {
		return 0
	}
	return stat.StdDev(finite, nil)
}

// PopStdDev is the NaN-omitting population standard deviation, used for
// z-score outlier detection.
func PopStdDev(values []float64) float64 {
	finite := Finite(values)
	if len(finite) == 0 {
		return 0
	}
	return stat.PopStdDev(finite, nil)
}

// Median is the NaN-omitting median. Returns NaN when nothing is observed.
func Median(values []float64) float64 {
	finite := Finite(values)
	if len(finite) == 0 {
		return math.NaN()
	}
	sort.Float64s(finite)
	return stat.Quantile(0.5, stat.LinInterp, finite, nil)
}

// Percentile is the NaN-omitting p-th percentile (p in [0, 100]) with
// linear interpolation between ranks.
func Percentile(values []float64, p float64) float64 {
	finite := Finite(values)
	if len(finite) == 0 {
		return math.NaN()
	}
	sort.Float64s(finite)
	return stat.Quantile(p/100.0, stat.LinInterp, finite, nil)
}

// IQRBounds returns Tukey fences q1-k*iqr and q3+k*iqr over the
// observed values.
func IQRBounds(values []float64, k float64) (lower, upper float64) {
	q1 := Percentile(values, 25)
	q3 := Percentile(values, 75)
	iqr := q3 - q1
	return q1 - k*iqr, q3 + k*iqr
}

// CV is the coefficient of variation (sample std over |mean|) of the
// observed values. Returns 0 when the mean is 0 or too few values exist.
func CV(values []float64) float64 {
	finite := Finite(values)
	if len(finite) < 2 {
		return 0
	}
	mean := stat.Mean(finite, nil)
	if mean == 0 {
		return 0
	}
	return stat.StdDev(finite, nil) / math.Abs(mean)
}

// RollingMeanStd computes trailing rolling mean and sample std over a
// window of the given size, with a minimum of one observed sample. NaN
// cells are omitted from each window; windows with no observed samples
// yield NaN mean and 0 std.
func RollingMeanStd(values []float64, window int) (means, stds []float64) {
	n := len(values)
	means = make([]float64, n)
	stds = make([]float64, n)
	for i := 0; i < n; i++ {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		finite := Finite(values[start : i+1])
		if len(finite) == 0 {
			means[i] = math.NaN()
			stds[i] = 0
			continue
		}
		means[i] = stat.Mean(finite, nil)
		if len(finite) < 2 {
			stds[i] = 0
		} else {
			stds[i] = stat.StdDev(finite, nil)
		}
	}
	return means, stds
}

// CenteredRollingMean computes a centered rolling mean over a span of
// the given size (span/2 cells on each side), omitting NaN cells.
// Positions whose whole window is missing yield NaN.
func CenteredRollingMean(values []float64, span int) []float64 {
	n := len(values)
	half := span / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		start := i - half
		if start < 0 {
			start = 0
		}
		end := i + half + 1
		if end > n {
			end = n
		}
		finite := Finite(values[start:end])
		if len(finite) == 0 {
			out[i] = math.NaN()
		} else {
			out[i] = stat.Mean(finite, nil)
		}
	}
	return out
}
