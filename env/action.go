package env

import (
	"fmt"
	"math"

	"github.com/cgmoganedi/amo-gym-rayan/broker"
)

const (
	DefaultThreshold = 0.83

	// The exit band sits between these fractions of the threshold.
	ExitBandLow  = 0.5
	ExitBandHigh = 0.8
)

type Intent int

const (
	Hold Intent = iota
	ExitAll
	OpenBuy
	OpenSell
)

func (i Intent) String() string {
	switch i {
	case ExitAll:
		return "EXIT_ALL"
	case OpenBuy:
		return "OPEN_BUY"
	case OpenSell:
		return "OPEN_SELL"
	default:
		return "HOLD"
	}
}

// Direction is the order side an opening intent trades, zero otherwise.
func (i Intent) Direction() broker.Direction {
	switch i {
	case OpenBuy:
		return broker.Buy
	case OpenSell:
		return broker.Sell
	}
	return 0
}

type Decision struct {
	Intent   Intent
	Strength float64
}

// ActionInterpreter maps one action component per symbol onto an intent.
type ActionInterpreter struct {
	Threshold float64
}

func NewActionInterpreter(threshold float64) ActionInterpreter {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return ActionInterpreter{Threshold: threshold}
}

// Classify checks the exit band before the open thresholds. NaN holds.
func (ai ActionInterpreter) Classify(a float64) Decision {
	s := math.Abs(a)
	d := Decision{Intent: Hold, Strength: s}
	switch {
	case s >= ai.Threshold*ExitBandLow && s <= ai.Threshold*ExitBandHigh:
		d.Intent = ExitAll
	case a >= ai.Threshold:
		d.Intent = OpenBuy
	case a <= -ai.Threshold:
		d.Intent = OpenSell
	}
	return d
}

func (ai ActionInterpreter) Decode(action []float64, symbols int) ([]Decision, error) {
	if len(action) != symbols {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrActionShape, len(action), symbols)
	}
	out := make([]Decision, len(action))
	for i, a := range action {
		out[i] = ai.Classify(a)
	}
	return out, nil
}
