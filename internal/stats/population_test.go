package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	tests := []struct {
		name     string
		input    []float64
		expected float64
	}{
		{name: "mean of empty slice", input: []float64{}, expected: 0},
		{name: "mean of nil slice", input: nil, expected: 0},
		{name: "mean of simple values", input: []float64{1, 2, 3, 4}, expected: 2.5},
		{name: "ignores NaN", input: []float64{2, math.NaN(), 4}, expected: 3},
		{name: "ignores infinities", input: []float64{math.Inf(1), 10, math.Inf(-1)}, expected: 10},
		{name: "only non-finite values", input: []float64{math.NaN(), math.Inf(1)}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Mean(tt.input), 1e-12)
		})
	}
}

func TestStandardDeviation(t *testing.T) {
	tests := []struct {
		name     string
		input    []float64
		expected float64
	}{
		{name: "empty population", input: []float64{}, expected: 0},
		{name: "single value is degenerate", input: []float64{7}, expected: 0},
		{name: "constant population", input: []float64{5, 5, 5}, expected: 0},
		// population SD of 2,4,4,4,5,5,7,9 is exactly 2
		{name: "population not sample", input: []float64{2, 4, 4, 4, 5, 5, 7, 9}, expected: 2},
		{name: "ignores NaN", input: []float64{2, 4, 4, 4, math.NaN(), 5, 5, 7, 9}, expected: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, StandardDeviation(tt.input), 1e-12)
		})
	}
}

func TestStandardDeviationAbout(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 2.0, StandardDeviationAbout(xs, 5), 1e-12)
	assert.InDelta(t, math.Sqrt(5), StandardDeviationAbout(xs, 4), 1e-12)
	assert.Equal(t, 0.0, StandardDeviationAbout(nil, 1))
	assert.Equal(t, 0.0, StandardDeviationAbout(xs, math.NaN()))
}

func TestZScore(t *testing.T) {
	tests := []struct {
		name                string
		value, mean, stdDev float64
		invert              bool
		expected            float64
	}{
		{name: "value at mean", value: 10, mean: 10, stdDev: 2, expected: 0},
		{name: "one sd above", value: 12, mean: 10, stdDev: 2, expected: 1},
		{name: "inverted", value: 12, mean: 10, stdDev: 2, invert: true, expected: -1},
		{name: "zero spread", value: 100, mean: 10, stdDev: 0, expected: 0},
		{name: "NaN value", value: math.NaN(), mean: 10, stdDev: 2, expected: 0},
		{name: "infinite value", value: math.Inf(1), mean: 10, stdDev: 2, expected: 0},
		{name: "clamped high", value: 100, mean: 0, stdDev: 1, expected: 3},
		{name: "clamped low", value: -100, mean: 0, stdDev: 1, expected: -3},
		{name: "clamped after inversion", value: -100, mean: 0, stdDev: 1, invert: true, expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ZScore(tt.value, tt.mean, tt.stdDev, tt.invert))
		})
	}
}

func TestZScoreSymmetry(t *testing.T) {
	for _, pop := range [][]float64{{1, 2, 3}, {10, 20, 35, 80}, {-4, 0.5, 9, 12, 13}} {
		mu := Mean(pop)
		sigma := StandardDeviation(pop)
		assert.Greater(t, sigma, 0.0)
		assert.Equal(t, 50.0, ZScoreToPercentile(ZScore(mu, mu, sigma, false)))
	}
}

func TestClampInvariants(t *testing.T) {
	inputs := []float64{-1e9, -50, -3.5, -1, 0, 0.3, 2.9, 3.1, 77, 1e12, math.NaN(), math.Inf(1), math.Inf(-1)}
	for _, v := range inputs {
		z := ZScore(v, 0.5, 0.25, false)
		assert.GreaterOrEqual(t, z, -3.0)
		assert.LessOrEqual(t, z, 3.0)

		p := ZScoreToPercentile(v)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 100.0)
	}
}

func TestZScoreToPercentile(t *testing.T) {
	tests := []struct {
		name     string
		z        float64
		expected float64
		delta    float64
	}{
		{name: "zero maps to median", z: 0, expected: 50, delta: 0},
		{name: "one sd", z: 1, expected: 84.1345, delta: 1e-3},
		{name: "minus one sd", z: -1, expected: 15.8655, delta: 1e-3},
		{name: "two sd", z: 2, expected: 97.7250, delta: 1e-3},
		{name: "NaN maps to zero", z: math.NaN(), expected: 0, delta: 0},
		{name: "positive infinity maps to zero", z: math.Inf(1), expected: 0, delta: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ZScoreToPercentile(tt.z), tt.delta)
		})
	}
}

func TestErfAccuracy(t *testing.T) {
	for x := -4.0; x <= 4.0; x += 0.05 {
		assert.InDelta(t, math.Erf(x), Erf(x), 2e-7, "x=%v", x)
	}
	assert.Equal(t, 0.0, Erf(0))
}

func TestVariance(t *testing.T) {
	tests := []struct {
		name     string
		input    []float64
		expected float64
	}{
		{name: "empty returns sentinel", input: []float64{}, expected: 1.0},
		{name: "single value returns sentinel", input: []float64{4}, expected: 1.0},
		{name: "zero variance returns sentinel", input: []float64{5, 5, 5}, expected: 1.0},
		{name: "sample variance", input: []float64{1, 2, 3, 4}, expected: 5.0 / 3.0},
		{name: "non-finite entries dropped", input: []float64{1, math.NaN(), 3}, expected: 2},
		{name: "one finite entry returns sentinel", input: []float64{1, math.NaN()}, expected: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Variance(tt.input), 1e-12)
		})
	}
}

func TestNormalizeZScoreVariance(t *testing.T) {
	assert.InDelta(t, 1.0, NormalizeZScoreVariance(2, 4, 1), 1e-12)
	assert.InDelta(t, 4.0, NormalizeZScoreVariance(2, 0.25, 1), 1e-12)
	assert.InDelta(t, 2*math.Sqrt(2), NormalizeZScoreVariance(2, 1, 2), 1e-12)

	// invalid variances pass through
	assert.Equal(t, 2.0, NormalizeZScoreVariance(2, 0, 1))
	assert.Equal(t, 2.0, NormalizeZScoreVariance(2, -1, 1))
	assert.Equal(t, 2.0, NormalizeZScoreVariance(2, math.NaN(), 1))
	assert.Equal(t, 2.0, NormalizeZScoreVariance(2, 1, 0))
}
