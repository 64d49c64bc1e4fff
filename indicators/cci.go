package indicators

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// CCI is the commodity channel index of typical prices:
// (tp - mean(tp)) / (constant * meanAbsDev(tp)). A flat window yields 0.
func CCI(typicals []float64, window int, constant float64) ([]float64, error) {
	if err := checkPeriod(window); err != nil {
		return nil, err
	}
	if constant <= 0 {
		return nil, fmt.Errorf("constant must be positive, got %v", constant)
	}

	out := make([]float64, len(typicals))
	for i := range typicals {
		w := trailing(typicals, i, window)

		mean, err := stats.Mean(w)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate mean: %w", err)
		}
		dev := make(stats.Float64Data, len(w))
		for k, v := range w {
			dev[k] = v - mean
			if dev[k] < 0 {
				dev[k] = -dev[k]
			}
		}
		mad, err := stats.Mean(dev)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate mean deviation: %w", err)
		}
		if mad == 0 {
			continue
		}
		out[i] = (typicals[i] - mean) / (constant * mad)
	}
	return out, nil
}
