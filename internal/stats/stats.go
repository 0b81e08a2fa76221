// Package stats holds the pure statistics used by the benchmark runner.
//
// The aggregation policy is deliberate, not incidental: with at least
// MinSamplesForOutlierRejection kept samples, execution-time style series
// are averaged after IQR outlier rejection; below that threshold the median
// is used instead, since quartile-based rejection is unreliable on small
// samples.
package stats

import (
	"math"
	"sort"
)

const (
	// MinSamplesForOutlierRejection is the sample count at which IQR
	// rejection becomes trustworthy enough to use before taking a mean.
	MinSamplesForOutlierRejection = 7

	// IQRMultiplier is the fence width: samples outside
	// [Q1 - k*IQR, Q3 + k*IQR] are rejected.
	IQRMultiplier = 1.5
)

// Sanitize clamps a per-sample reading to a finite, non-negative value.
// Non-finite readings (missing heap introspection, zero-length frame
// windows) become 0 rather than corrupting downstream averages.
func Sanitize(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
		return 0
	}
	return x
}

// Mean returns the arithmetic mean, or 0 for an empty series.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Median returns the middle value, or 0 for an empty series.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := sortedCopy(xs)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Quartiles returns Q1 and Q3 of the series using the median-of-halves
// method (the middle element is excluded from both halves for odd n).
func Quartiles(xs []float64) (q1, q3 float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	sorted := sortedCopy(xs)
	n := len(sorted)
	lower := sorted[:n/2]
	upper := sorted[(n+1)/2:]
	return Median(lower), Median(upper)
}

// RejectOutliers returns the samples inside the IQR fences, preserving
// input order. The input is never mutated.
func RejectOutliers(xs []float64) []float64 {
	q1, q3 := Quartiles(xs)
	iqr := q3 - q1
	lo := q1 - IQRMultiplier*iqr
	hi := q3 + IQRMultiplier*iqr

	kept := make([]float64, 0, len(xs))
	for _, x := range xs {
		if x >= lo && x <= hi {
			kept = append(kept, x)
		}
	}
	return kept
}

// CentralTendency applies the aggregation policy: mean over the
// outlier-rejected series when there are enough samples, median otherwise.
func CentralTendency(xs []float64) float64 {
	if len(xs) >= MinSamplesForOutlierRejection {
		return Mean(RejectOutliers(xs))
	}
	return Median(xs)
}

// Percentile returns the p-th percentile of the series using the
// ceil(p/100*n)-1 index rule, clamped to the series bounds.
func Percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := sortedCopy(xs)
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func sortedCopy(xs []float64) []float64 {
	out := make([]float64, len(xs))
	copy(out, xs)
	sort.Float64s(out)
	return out
}
