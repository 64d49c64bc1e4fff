package oanda

import (
	"context"
	"fmt"
	"net/url"

	"github.com/cgmoganedi/amo-gym-rayan/broker"
	"github.com/cgmoganedi/amo-gym-rayan/market"
)

type pricingResponse struct {
	Prices []struct {
		Instrument string     `json:"instrument"`
		Time       string     `json:"time"`
		Bids       []priceRef `json:"bids"`
		Asks       []priceRef `json:"asks"`
	} `json:"prices"`
}

func (c *Client) GetSymbolPrice(ctx context.Context, symbol string) (market.Quote, error) {
	meta, err := market.Lookup(symbol)
	if err != nil {
		return market.Quote{}, fmt.Errorf("%w: %s", broker.ErrUnknownSymbol, symbol)
	}

	params := url.Values{}
	params.Set("instruments", meta.Name)

	var resp pricingResponse
	if err := c.do(ctx, "GET", c.accountPath("pricing"), params, nil, &resp); err != nil {
		return market.Quote{}, fmt.Errorf("pricing %s: %w", meta.Name, err)
	}

	for _, p := range resp.Prices {
		if p.Instrument != meta.Name || len(p.Bids) == 0 || len(p.Asks) == 0 {
			continue
		}
		bid, err := parseFloat(p.Bids[0].Price)
		if err != nil {
			return market.Quote{}, err
		}
		ask, err := parseFloat(p.Asks[0].Price)
		if err != nil {
			return market.Quote{}, err
		}
		t, err := parseTime(p.Time)
		if err != nil {
			return market.Quote{}, err
		}
		return market.Quote{
			Symbol: meta.Name,
			Time:   t,
			Bid:    bid,
			Ask:    ask,
			Point:  meta.Point(),
		}, nil
	}
	return market.Quote{}, fmt.Errorf("%s: %w", meta.Name, market.ErrNoQuote)
}
