package oanda

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/cgmoganedi/amo-gym-rayan/market"
)

// PriceComponent represents the price component for candles
type PriceComponent string

const (
	MidPrice PriceComponent = "M"
	BidPrice PriceComponent = "B"
	AskPrice PriceComponent = "A"
)

// candleData represents the OHLC data in the API response
type candleData struct {
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
}

type apiCandle struct {
	Complete bool       `json:"complete"`
	Volume   int        `json:"volume"`
	Time     string     `json:"time"`
	Mid      candleData `json:"mid,omitempty"`
	Bid      candleData `json:"bid,omitempty"`
}

type candlesResponse struct {
	Instrument  string      `json:"instrument"`
	Granularity string      `json:"granularity"`
	Candles     []apiCandle `json:"candles"`
}

// Granularity maps a timeframe onto the v20 name.
func Granularity(tf market.Timeframe) (string, error) {
	switch tf {
	case market.D1:
		return "D", nil
	case market.W1:
		return "W", nil
	}
	return market.TimeframeString(tf)
}

// GetCandles fetches up to count completed bid candles closing at or before
// end, newest first. A zero end means now.
func (c *Client) GetCandles(ctx context.Context, symbol string, tf market.Timeframe, end time.Time, count int) ([]market.Candle, error) {
	if count <= 0 {
		return nil, nil
	}
	if count > 5000 {
		return nil, fmt.Errorf("count cannot exceed 5000")
	}
	gran, err := Granularity(tf)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("price", string(BidPrice))
	params.Set("granularity", gran)
	params.Set("count", strconv.Itoa(count))
	if !end.IsZero() {
		params.Set("to", end.UTC().Format(time.RFC3339))
	}

	inst := market.Normalize(symbol)
	var resp candlesResponse
	if err := c.do(ctx, "GET", "/v3/instruments/"+url.PathEscape(inst)+"/candles", params, nil, &resp); err != nil {
		return nil, fmt.Errorf("candles %s: %w", inst, err)
	}

	candles := make([]market.Candle, 0, len(resp.Candles))
	for _, ac := range resp.Candles {
		// Skip incomplete candles
		if !ac.Complete {
			continue
		}

		t, err := parseTime(ac.Time)
		if err != nil {
			return nil, fmt.Errorf("parse time %s: %w", ac.Time, err)
		}

		px := ac.Bid
		if px.C == "" {
			px = ac.Mid
		}

		var ohlc [4]float64
		for i, s := range []string{px.O, px.H, px.L, px.C} {
			if ohlc[i], err = parseFloat(s); err != nil {
				return nil, fmt.Errorf("parse price %q: %w", s, err)
			}
		}

		candles = append(candles, market.Candle{
			Time:   t,
			Open:   ohlc[0],
			High:   ohlc[1],
			Low:    ohlc[2],
			Close:  ohlc[3],
			Volume: float64(ac.Volume),
		})
	}

	// v20 answers oldest first
	return market.Reversed(candles), nil
}
