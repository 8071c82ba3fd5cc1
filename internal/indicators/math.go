package indicators

import (
	"math"
	"strconv"
	"strings"
)

// round rounds to specified decimal places
func round(value float64, places int) float64 {
	mult := math.Pow(10, float64(places))
	return math.Round(value*mult) / mult
}

// abs returns the absolute value of a float64
func abs(x float64) float64 {
	return math.Abs(x)
}

// mean calculates the average of all values
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// pstdev calculates the population standard deviation (divides by n, not
// n-1). The abnormal-return dispersion is defined over the full trailing
// window rather than a sample of it, so the sample correction does not apply.
func pstdev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	sumSquares := 0.0
	for _, v := range values {
		diff := v - m
		sumSquares += diff * diff
	}
	return math.Sqrt(sumSquares / float64(len(values)))
}

// parseVolume parses a raw volume cell ("1,234,567", "N/A", ""). The bool
// is false when the cell does not hold a number.
func parseVolume(raw string) (float64, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseClose parses a raw close-price cell ("$1,234.56").
func parseClose(raw string) (float64, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(raw, "$", ""), ",", ""))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
