package indicators

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

type BollingerSeries struct {
	Mavg  []float64
	Upper []float64
	Lower []float64

	// 1 where close is above Upper (below Lower), else 0
	UpperHit []float64
	LowerHit []float64
}

// Bollinger computes bands of dev population standard deviations around
// the rolling mean of closes.
func Bollinger(closes []float64, window int, dev float64) (BollingerSeries, error) {
	if err := checkPeriod(window); err != nil {
		return BollingerSeries{}, err
	}

	n := len(closes)
	bs := BollingerSeries{
		Mavg:     make([]float64, n),
		Upper:    make([]float64, n),
		Lower:    make([]float64, n),
		UpperHit: make([]float64, n),
		LowerHit: make([]float64, n),
	}

	for i := range closes {
		w := stats.Float64Data(trailing(closes, i, window))

		mean, err := stats.Mean(w)
		if err != nil {
			return BollingerSeries{}, fmt.Errorf("failed to calculate mean: %w", err)
		}
		sd, err := stats.StandardDeviationPopulation(w)
		if err != nil {
			return BollingerSeries{}, fmt.Errorf("failed to calculate the standard deviation: %w", err)
		}

		bs.Mavg[i] = mean
		bs.Upper[i] = mean + dev*sd
		bs.Lower[i] = mean - dev*sd
		if closes[i] > bs.Upper[i] {
			bs.UpperHit[i] = 1
		}
		if closes[i] < bs.Lower[i] {
			bs.LowerHit[i] = 1
		}
	}
	return bs, nil
}
