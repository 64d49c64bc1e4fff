package features

import (
	"github.com/cgmoganedi/amo-gym-rayan/indicators"
	"github.com/cgmoganedi/amo-gym-rayan/market"
)

const GroupAName = "GROUP_A"

// GroupA is price, Bollinger Bands and CCI. Close, adj_close and CCI are
// scaled by their own largest absolute value in the batch; the bands share
// the close's scale so they stay comparable with it.
type GroupA struct {
	Window      int
	Dev         float64
	CCIConstant float64

	// RawBands leaves bb_bbm, bb_bbh and bb_bbl in price units, as models
	// trained on the unscaled band columns expect.
	RawBands bool
}

func NewGroupA() *GroupA {
	return &GroupA{Window: 26, Dev: 2, CCIConstant: 0.015}
}

func (g *GroupA) Schema() Schema {
	return Schema{"close", "adj_close", "bb_bbm", "bb_bbh", "bb_bbl", "bb_bbhi", "bb_bbli", "cci"}
}

func (g *GroupA) Compute(candles []market.Candle) ([][]float64, error) {
	closes := indicators.Closes(candles)
	adj := make([]float64, len(candles))
	for i, c := range candles {
		adj[i] = c.AdjClose()
	}

	bb, err := indicators.Bollinger(closes, g.Window, g.Dev)
	if err != nil {
		return nil, err
	}
	cci, err := indicators.CCI(indicators.Typicals(candles), g.Window, g.CCIConstant)
	if err != nil {
		return nil, err
	}

	scale := indicators.MaxAbs(closes)
	if g.RawBands {
		scale = 1
	}
	return columns(
		indicators.NormalizeMaxAbs(closes),
		indicators.NormalizeMaxAbs(adj),
		indicators.Scale(bb.Mavg, scale),
		indicators.Scale(bb.Upper, scale),
		indicators.Scale(bb.Lower, scale),
		bb.UpperHit,
		bb.LowerHit,
		indicators.NormalizeMaxAbs(cci),
	), nil
}
