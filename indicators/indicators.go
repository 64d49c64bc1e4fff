// Package indicators computes technical-analysis series over candles.
//
// Every function returns one value per input candle. Leading values are
// computed over the partial window available so far, so series never
// contain NaN and stay aligned with the candles they came from.
package indicators

import (
	"fmt"
	"math"

	"github.com/cgmoganedi/amo-gym-rayan/market"
)

// Closes extracts close prices.
func Closes(candles []market.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Typicals extracts (H+L+C)/3.
func Typicals(candles []market.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Typical()
	}
	return out
}

// trailing returns values[i-window+1 : i+1], clipped at the start.
func trailing(values []float64, i, window int) []float64 {
	start := i - window + 1
	if start < 0 {
		start = 0
	}
	return values[start : i+1]
}

func checkPeriod(period int) error {
	if period <= 0 {
		return fmt.Errorf("period must be positive, got %d", period)
	}
	return nil
}

// MaxAbs is the largest absolute value in values, 0 when empty.
func MaxAbs(values []float64) float64 {
	m := 0.0
	for _, v := range values {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

// Scale returns a copy of values divided by scale. A zero scale copies
// the values unchanged.
func Scale(values []float64, scale float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if scale == 0 {
			out[i] = v
			continue
		}
		out[i] = v / scale
	}
	return out
}

// NormalizeMaxAbs divides every value by the largest absolute value.
// An all-zero series is returned unchanged.
func NormalizeMaxAbs(values []float64) []float64 {
	return Scale(values, MaxAbs(values))
}
