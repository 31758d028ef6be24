package utils

import "math"

// Epsilon is the tolerance used when comparing computed quantities and prices.
const Epsilon = 1e-9

// Round rounds a value to the given number of decimal places.
func Round(val float64, places int) float64 {
	multiplier := math.Pow(10, float64(places))
	return math.Round(val*multiplier) / multiplier
}

// SafeDiv divides a by b, returning 0 when b is zero or the result is not finite.
func SafeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	r := a / b
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// PercentChange returns the percentage change from base to value.
// Returns 0 when base is not positive or value is missing.
func PercentChange(base, value float64) float64 {
	if base <= 0 || value <= 0 {
		return 0
	}
	return (value - base) / base * 100
}

// PercentOf returns part as a percentage of whole, 0 when whole is not positive.
func PercentOf(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}

// WeightedMean returns sum(values[i]*weights[i]) / sum(weights).
// Pairs with a non-positive weight are ignored; an empty input yields 0.
func WeightedMean(values, weights []float64) float64 {
	var num, den float64
	for i := range values {
		if i >= len(weights) || weights[i] <= 0 {
			continue
		}
		num += values[i] * weights[i]
		den += weights[i]
	}
	return SafeDiv(num, den)
}

// Finite replaces NaN and infinities with zero.
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

