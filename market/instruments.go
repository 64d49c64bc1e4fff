// market/instruments.go
package market

import (
	"fmt"
	"math"
	"strings"
)

type InstrumentMeta struct {
	Name             string
	BaseCurrency     string
	QuoteCurrency    string
	PipLocation      int
	DisplayPrecision int
	MinimumTradeSize float64
	MarginRate       float64
}

// Point is one fractional pip, the smallest quoted increment
// (0.00001 for EUR_USD, 0.001 for the yen crosses).
func (m InstrumentMeta) Point() float64 {
	return math.Pow(10, float64(-m.DisplayPrecision))
}

func jpyCross(base string) InstrumentMeta {
	return InstrumentMeta{
		Name:             base + "_JPY",
		BaseCurrency:     base,
		QuoteCurrency:    "JPY",
		PipLocation:      -2,
		DisplayPrecision: 3,
		MinimumTradeSize: 1,
		MarginRate:       0.04,
	}
}

var Instruments = map[string]InstrumentMeta{
	"EUR_USD": {
		Name:             "EUR_USD",
		BaseCurrency:     "EUR",
		QuoteCurrency:    "USD",
		PipLocation:      -4,
		DisplayPrecision: 5,
		MinimumTradeSize: 1,
		MarginRate:       0.0333,
	},
	"GBP_USD": {
		Name:             "GBP_USD",
		BaseCurrency:     "GBP",
		QuoteCurrency:    "USD",
		PipLocation:      -4,
		DisplayPrecision: 5,
		MinimumTradeSize: 1,
		MarginRate:       0.05,
	},
	"USD_JPY": jpyCross("USD"),
	"CAD_JPY": jpyCross("CAD"),
	"CHF_JPY": jpyCross("CHF"),
	"EUR_JPY": jpyCross("EUR"),
	"AUD_JPY": jpyCross("AUD"),
	"NZD_JPY": jpyCross("NZD"),
	"GBP_JPY": jpyCross("GBP"),
}

// Normalize maps MT5 style "EURJPY" and slash forms onto "EUR_JPY".
func Normalize(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.ReplaceAll(s, "/", "_")
	if !strings.Contains(s, "_") && len(s) == 6 {
		s = s[:3] + "_" + s[3:]
	}
	return s
}

// Lookup returns the metadata for a symbol in any accepted spelling.
func Lookup(symbol string) (InstrumentMeta, error) {
	meta, ok := Instruments[Normalize(symbol)]
	if !ok {
		return InstrumentMeta{}, fmt.Errorf("unknown instrument %s", symbol)
	}
	return meta, nil
}
