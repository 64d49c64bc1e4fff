package risk

import (
	"fmt"

	"github.com/cgmoganedi/amo-gym-rayan/broker"
)

type Violation struct {
	Code string
	Msg  string
}

type Decision struct {
	Allowed    bool
	Violations []Violation

	PlannedRR   float64
	PlannedRisk float64 // account currency, zero without a conversion rate
	RiskPct     float64 // of equity, zero when equity is unknown
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Has reports whether a violation with code was raised.
func (d Decision) Has(code string) bool {
	for _, v := range d.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

type TradeIntent struct {
	Symbol     string
	Direction  broker.Direction
	Volume     float64
	Entry      float64
	Stop       float64
	TakeProfit float64

	OpenPositions int // already open on this symbol

	Equity         float64
	QuoteToAccount float64
}

func Evaluate(s Sizing, intent TradeIntent) Decision {
	d := Decision{Allowed: true}

	// Exposure cap first: a full book is a silent no-op for the caller.
	if intent.OpenPositions >= s.MaxOpenPositions {
		d.add("TOO_MANY_OPEN_POSITIONS",
			fmt.Sprintf("open positions %d >= max %d", intent.OpenPositions, s.MaxOpenPositions))
		return d
	}

	// The stop may sit below zero on very cheap instruments; the broker
	// still takes the order.
	if intent.Entry <= 0 {
		d.add("NO_ENTRY", "entry price must be positive")
		return d
	}
	if intent.Volume <= 0 {
		d.add("NO_VOLUME", "volume must be positive")
		return d
	}
	if intent.Direction != broker.Buy && intent.Direction != broker.Sell {
		d.add("NO_DIRECTION", "direction must be buy or sell")
		return d
	}

	d.PlannedRR = RR(intent.Entry, intent.Stop, intent.TakeProfit)
	d.PlannedRisk = PlannedRisk(intent.Volume, intent.Entry, intent.Stop, intent.QuoteToAccount)
	d.RiskPct = RiskPct(d.PlannedRisk, intent.Equity)
	return d
}
