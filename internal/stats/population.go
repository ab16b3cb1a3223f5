// Package stats holds the population statistics used by the scoring engine:
// mean, population standard deviation, clamped z-scores, the normal-CDF
// percentile mapping and the variance helpers used for normalisation.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ZClip bounds every z-score produced by ZScore.
const ZClip = 3.0

// Finite returns the finite entries of xs in their original order.
func Finite(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, v := range xs {
		if isFinite(v) {
			out = append(out, v)
		}
	}
	return out
}

// Mean ignores NaN and infinite entries and returns 0 for an empty population.
func Mean(values []float64) float64 {
	xs := Finite(values)
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// StandardDeviation is the population (not sample) standard deviation of the
// finite entries of values.
func StandardDeviation(values []float64) float64 {
	xs := Finite(values)
	if len(xs) < 2 {
		return 0
	}
	sd := stat.PopStdDev(xs, nil)
	if !isFinite(sd) {
		return 0
	}
	return sd
}

// StandardDeviationAbout is StandardDeviation around a caller-supplied mean.
func StandardDeviationAbout(values []float64, mean float64) float64 {
	xs := Finite(values)
	if len(xs) == 0 || !isFinite(mean) {
		return 0
	}
	sd := math.Sqrt(stat.MomentAbout(2, xs, mean, nil))
	if !isFinite(sd) {
		return 0
	}
	return sd
}

// ZScore returns (value-mean)/stdDev clamped to [-ZClip, ZClip].
// A zero spread or any non-finite input yields 0: a statistic the whole
// population shares cannot differentiate anyone.
func ZScore(value, mean, stdDev float64, invert bool) float64 {
	if stdDev == 0 || !isFinite(value) || !isFinite(mean) || !isFinite(stdDev) {
		return 0
	}
	z := (value - mean) / stdDev
	if invert {
		z = -z
	}
	return Clamp(z, -ZClip, ZClip)
}

// ZScoreToPercentile maps z through the standard normal CDF onto [0, 100].
// Non-finite input maps to 0, not 50, so broken data never looks average.
func ZScoreToPercentile(z float64) float64 {
	if !isFinite(z) {
		return 0
	}
	p := 50 * (1 + Erf(z/math.Sqrt2))
	return Clamp(p, 0, 100)
}

// Variance is the sample variance of the finite z-scores. It returns 1.0
// (a no-op scale) when fewer than two samples exist or the result is not
// a positive finite number.
func Variance(zScores []float64) float64 {
	xs := Finite(zScores)
	if len(xs) < 2 {
		return 1.0
	}
	v := stat.Variance(xs, nil)
	if !isFinite(v) || v <= 0 {
		return 1.0
	}
	return v
}

// NormalizeZScoreVariance rescales z so a category with categoryVariance
// contributes as if it had targetVariance.
func NormalizeZScoreVariance(z, categoryVariance, targetVariance float64) float64 {
	if !isFinite(categoryVariance) || categoryVariance <= 0 ||
		!isFinite(targetVariance) || targetVariance <= 0 {
		return z
	}
	return z * math.Sqrt(targetVariance/categoryVariance)
}

// Clamp bounds x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
