package sim

import "github.com/cgmoganedi/amo-gym-rayan/market"

func UnrealizedPL(t Trade, currentPrice float64, quoteToAccount float64) float64 {
	plQuote := t.Units() * (currentPrice - t.EntryPrice)
	return plQuote * quoteToAccount
}

func TradeMargin(units float64, price float64, symbol string, quoteToAccount float64) float64 {
	meta, err := market.Lookup(symbol)
	if err != nil {
		return 0
	}
	notionalQuote := abs(units) * price
	notionalAccount := notionalQuote * quoteToAccount
	return notionalAccount * meta.MarginRate
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
