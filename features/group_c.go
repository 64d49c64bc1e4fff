package features

import (
	"github.com/cgmoganedi/amo-gym-rayan/indicators"
	"github.com/cgmoganedi/amo-gym-rayan/market"
)

const GroupCName = "GROUP_C"

// GroupC is price with the 18 and 50 EMA and the 200 SMA, all scaled by
// the batch's largest absolute close so they share one axis.
type GroupC struct {
	FastEMA int
	SlowEMA int
	SMA     int
}

func NewGroupC() *GroupC {
	return &GroupC{FastEMA: 18, SlowEMA: 50, SMA: 200}
}

func (g *GroupC) Schema() Schema {
	return Schema{"close", "adj_close", "ema_fast", "ema_slow", "sma_long"}
}

func (g *GroupC) Compute(candles []market.Candle) ([][]float64, error) {
	closes := indicators.Closes(candles)
	adj := make([]float64, len(candles))
	for i, c := range candles {
		adj[i] = c.AdjClose()
	}

	fast, err := indicators.EMA(closes, g.FastEMA)
	if err != nil {
		return nil, err
	}
	slow, err := indicators.EMA(closes, g.SlowEMA)
	if err != nil {
		return nil, err
	}
	long, err := indicators.SMA(closes, g.SMA)
	if err != nil {
		return nil, err
	}

	scale := indicators.MaxAbs(closes)
	return columns(
		indicators.Scale(closes, scale),
		indicators.NormalizeMaxAbs(adj),
		indicators.Scale(fast, scale),
		indicators.Scale(slow, scale),
		indicators.Scale(long, scale),
	), nil
}
