// Package broker defines the gateway the trading environment drives and the
// account, position and order types that cross it.
package broker

import (
	"context"
	"errors"
	"time"

	"github.com/cgmoganedi/amo-gym-rayan/market"
)

// LotUnits is the number of base-currency units in one standard lot.
const LotUnits = 100_000

var (
	ErrOrderRejected    = errors.New("order rejected")
	ErrPositionNotFound = errors.New("position not found")
	ErrUnauthenticated  = errors.New("gateway not authenticated")
	ErrUnknownSymbol    = errors.New("unknown symbol")
)

// Gateway is the brokerage the environment trades through. Candle series
// come back newest first.
type Gateway interface {
	GetCandles(ctx context.Context, symbol string, tf market.Timeframe, end time.Time, count int) ([]market.Candle, error)
	GetAccount(ctx context.Context) (Account, error)
	GetOpenPositions(ctx context.Context, symbol string) ([]Position, error)
	PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
	CloseOrder(ctx context.Context, pos Position, dir Direction, price float64) error
	GetSymbolPrice(ctx context.Context, symbol string) (market.Quote, error)
}

// Pinger is implemented by gateways that can verify connectivity and
// credentials up front.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Direction int8

const (
	Buy  Direction = 1
	Sell Direction = -1
)

func (d Direction) Opposite() Direction { return -d }

func (d Direction) String() string {
	switch d {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "none"
	}
}

type Account struct {
	ID         string
	Currency   string
	Balance    float64
	Equity     float64
	Profit     float64 // unrealized P/L of open positions
	MarginUsed float64
	FreeMargin float64
}

// InitialBalance backs the floating profit out of the balance.
func (a Account) InitialBalance() float64 {
	return a.Balance - a.Profit
}

type Position struct {
	Ticket     string
	Symbol     string
	Direction  Direction
	Volume     float64 // lots
	OpenPrice  float64
	OpenTime   time.Time
	StopLoss   float64
	TakeProfit float64
	Profit     float64 // account currency
}

// Age is how long the position has been open at now.
func (p Position) Age(now time.Time) time.Duration {
	return now.Sub(p.OpenTime)
}

type OrderRequest struct {
	Symbol     string
	Direction  Direction
	Volume     float64 // lots
	Price      float64
	StopLoss   float64
	TakeProfit float64
}

// Units converts the lot volume to signed base units.
func (r OrderRequest) Units() float64 {
	return float64(r.Direction) * r.Volume * LotUnits
}

type OrderResult struct {
	Ticket string
	Symbol string
	Volume float64
	Price  float64
}
