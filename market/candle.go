package market

import (
	"sort"
	"time"
)

// Candle represents OHLC (Open, High, Low, Close) candlestick data.
// Time is the candle open time in UTC.
type Candle struct {
	Time   time.Time `csv:"time"`
	Open   float64   `csv:"open"`
	High   float64   `csv:"high"`
	Low    float64   `csv:"low"`
	Close  float64   `csv:"close"`
	Volume float64   `csv:"volume"`
}

// AdjClose weights the close twice against the high and low.
func (c Candle) AdjClose() float64 {
	return (c.High + c.Low + 2*c.Close) / 4
}

// Typical is the (H+L+C)/3 typical price.
func (c Candle) Typical() float64 {
	return (c.High + c.Low + c.Close) / 3
}

// Reversed returns a copy of candles in the opposite order.
// Gateways hand out newest-first series; features want oldest-first.
func Reversed(candles []Candle) []Candle {
	out := make([]Candle, len(candles))
	for i, c := range candles {
		out[len(candles)-1-i] = c
	}
	return out
}

// SortChronological orders candles oldest first in place.
func SortChronological(candles []Candle) {
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	})
}
