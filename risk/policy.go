package risk

import (
	"fmt"
	"math"
	"sort"

	"github.com/cgmoganedi/amo-gym-rayan/broker"
)

// Tier multiplies the base lot once the action strength reaches MinStrength.
type Tier struct {
	MinStrength float64 `json:"min_strength" yaml:"min_strength"`
	Multiplier  float64 `json:"multiplier" yaml:"multiplier"`
}

// Sizing is the position policy for opening trades from agent actions.
type Sizing struct {
	BaseLot float64 `json:"base_lot" yaml:"base_lot"` // 0.01
	LotStep float64 `json:"lot_step" yaml:"lot_step"` // 0.01
	Tiers   []Tier  `json:"tiers" yaml:"tiers"`

	// Exposure limit per symbol
	MaxOpenPositions int `json:"max_open_positions" yaml:"max_open_positions"` // 7

	// Bracket offsets in points from the entry price
	StopLossPoints   float64 `json:"stop_loss_points" yaml:"stop_loss_points"`     // 260
	TakeProfitPoints float64 `json:"take_profit_points" yaml:"take_profit_points"` // 1250
}

func DefaultSizing() Sizing {
	return Sizing{
		BaseLot: 0.01,
		LotStep: 0.01,
		Tiers: []Tier{
			{MinStrength: 0.96, Multiplier: 9},
			{MinStrength: 0.92, Multiplier: 6},
			{MinStrength: 0.88, Multiplier: 3},
		},
		MaxOpenPositions: 7,
		StopLossPoints:   260,
		TakeProfitPoints: 1250,
	}
}

func (s Sizing) Validate() error {
	if s.BaseLot <= 0 {
		return fmt.Errorf("base_lot must be positive")
	}
	if s.MaxOpenPositions <= 0 {
		return fmt.Errorf("max_open_positions must be positive")
	}
	if s.StopLossPoints <= 0 || s.TakeProfitPoints <= 0 {
		return fmt.Errorf("stop_loss_points and take_profit_points must be positive")
	}
	for _, t := range s.Tiers {
		if t.Multiplier <= 0 {
			return fmt.Errorf("tier %.2f: multiplier must be positive", t.MinStrength)
		}
	}
	return nil
}

// Lot returns the volume for an action of the given strength. The highest
// tier whose threshold the strength reaches wins; below every tier the base
// lot is used.
func (s Sizing) Lot(strength float64) float64 {
	tiers := append([]Tier(nil), s.Tiers...)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinStrength > tiers[j].MinStrength })

	lot := s.BaseLot
	for _, t := range tiers {
		if strength >= t.MinStrength {
			lot *= t.Multiplier
			break
		}
	}
	if s.LotStep > 0 {
		lot = math.Round(lot/s.LotStep) * s.LotStep
	}
	return lot
}

// Brackets returns stop-loss and take-profit prices around entry.
func (s Sizing) Brackets(dir broker.Direction, entry, point float64) (stopLoss, takeProfit float64) {
	sl := s.StopLossPoints * point
	tp := s.TakeProfitPoints * point
	if dir == broker.Sell {
		return entry + sl, entry - tp
	}
	return entry - sl, entry + tp
}
