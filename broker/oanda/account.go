package oanda

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/cgmoganedi/amo-gym-rayan/broker"
	"github.com/cgmoganedi/amo-gym-rayan/market"
)

type accountSummary struct {
	Account struct {
		ID              string `json:"id"`
		Currency        string `json:"currency"`
		Balance         string `json:"balance"`
		NAV             string `json:"NAV"`
		UnrealizedPL    string `json:"unrealizedPL"`
		MarginUsed      string `json:"marginUsed"`
		MarginAvailable string `json:"marginAvailable"`
	} `json:"account"`
}

func (c *Client) GetAccount(ctx context.Context) (broker.Account, error) {
	var resp accountSummary
	if err := c.do(ctx, "GET", c.accountPath("summary"), nil, nil, &resp); err != nil {
		return broker.Account{}, fmt.Errorf("account summary: %w", err)
	}

	a := resp.Account
	out := broker.Account{ID: a.ID, Currency: a.Currency}
	for _, f := range []struct {
		dst *float64
		src string
	}{
		{&out.Balance, a.Balance},
		{&out.Equity, a.NAV},
		{&out.Profit, a.UnrealizedPL},
		{&out.MarginUsed, a.MarginUsed},
		{&out.FreeMargin, a.MarginAvailable},
	} {
		v, err := parseFloat(f.src)
		if err != nil {
			return broker.Account{}, fmt.Errorf("account summary: %w", err)
		}
		*f.dst = v
	}
	return out, nil
}

type priceRef struct {
	Price string `json:"price"`
}

type apiTrade struct {
	ID              string    `json:"id"`
	Instrument      string    `json:"instrument"`
	Price           string    `json:"price"`
	OpenTime        string    `json:"openTime"`
	CurrentUnits    string    `json:"currentUnits"`
	UnrealizedPL    string    `json:"unrealizedPL"`
	StopLossOrder   *priceRef `json:"stopLossOrder,omitempty"`
	TakeProfitOrder *priceRef `json:"takeProfitOrder,omitempty"`
}

type openTradesResponse struct {
	Trades []apiTrade `json:"trades"`
}

// GetOpenPositions lists open trades on symbol, oldest first. An empty
// symbol lists every open trade.
func (c *Client) GetOpenPositions(ctx context.Context, symbol string) ([]broker.Position, error) {
	var resp openTradesResponse
	if err := c.do(ctx, "GET", c.accountPath("openTrades"), nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("open trades: %w", err)
	}

	inst := ""
	if symbol != "" {
		inst = market.Normalize(symbol)
	}

	out := make([]broker.Position, 0, len(resp.Trades))
	for _, tr := range resp.Trades {
		if inst != "" && tr.Instrument != inst {
			continue
		}
		pos, err := tr.position()
		if err != nil {
			return nil, fmt.Errorf("trade %s: %w", tr.ID, err)
		}
		out = append(out, pos)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OpenTime.Before(out[j].OpenTime)
	})
	return out, nil
}

func (tr apiTrade) position() (broker.Position, error) {
	units, err := parseFloat(tr.CurrentUnits)
	if err != nil {
		return broker.Position{}, err
	}
	price, err := parseFloat(tr.Price)
	if err != nil {
		return broker.Position{}, err
	}
	pl, err := parseFloat(tr.UnrealizedPL)
	if err != nil {
		return broker.Position{}, err
	}
	opened, err := parseTime(tr.OpenTime)
	if err != nil {
		return broker.Position{}, err
	}

	dir := broker.Buy
	if units < 0 {
		dir = broker.Sell
	}

	pos := broker.Position{
		Ticket:    tr.ID,
		Symbol:    tr.Instrument,
		Direction: dir,
		Volume:    math.Abs(units) / broker.LotUnits,
		OpenPrice: price,
		OpenTime:  opened,
		Profit:    pl,
	}
	if tr.StopLossOrder != nil {
		if pos.StopLoss, err = parseFloat(tr.StopLossOrder.Price); err != nil {
			return broker.Position{}, err
		}
	}
	if tr.TakeProfitOrder != nil {
		if pos.TakeProfit, err = parseFloat(tr.TakeProfitOrder.Price); err != nil {
			return broker.Position{}, err
		}
	}
	return pos, nil
}
