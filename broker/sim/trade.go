package sim

import (
	"time"

	"github.com/cgmoganedi/amo-gym-rayan/broker"
)

type Trade struct {
	Ticket     string
	Symbol     string
	Direction  broker.Direction
	Volume     float64 // lots
	EntryPrice float64
	OpenTime   time.Time

	// zero means unset
	StopLoss   float64
	TakeProfit float64

	// Realized
	ClosePrice float64
	CloseTime  time.Time
	RealizedPL float64 // account currency
	Open       bool
}

func (t *Trade) Units() float64 {
	return float64(t.Direction) * t.Volume * broker.LotUnits
}

// mark is the price the trade would close at: bid for longs, ask for shorts.
func (t *Trade) mark(bid, ask float64) float64 {
	if t.Direction == broker.Sell {
		return ask
	}
	return bid
}

func (t *Trade) hitStopLoss(price float64) bool {
	if t.StopLoss == 0 {
		return false
	}
	if t.Direction == broker.Buy {
		return price <= t.StopLoss
	}
	return price >= t.StopLoss
}

func (t *Trade) hitTakeProfit(price float64) bool {
	if t.TakeProfit == 0 {
		return false
	}
	if t.Direction == broker.Buy {
		return price >= t.TakeProfit
	}
	return price <= t.TakeProfit
}

func (t *Trade) position(profit float64) broker.Position {
	return broker.Position{
		Ticket:     t.Ticket,
		Symbol:     t.Symbol,
		Direction:  t.Direction,
		Volume:     t.Volume,
		OpenPrice:  t.EntryPrice,
		OpenTime:   t.OpenTime,
		StopLoss:   t.StopLoss,
		TakeProfit: t.TakeProfit,
		Profit:     profit,
	}
}
