package risk

import (
	"math"

	"github.com/cgmoganedi/amo-gym-rayan/broker"
)

// PlannedRisk is the account-currency loss if lots are stopped out.
// rate converts one unit of quote currency into account currency.
func PlannedRisk(lots, entry, stop, rate float64) float64 {
	return math.Abs(lots) * broker.LotUnits * math.Abs(entry-stop) * rate
}

// RR is the take-profit distance over the stop distance.
func RR(entry, stop, takeProfit float64) float64 {
	stopDist := math.Abs(entry - stop)
	if stopDist == 0 {
		return 0
	}
	return math.Abs(takeProfit-entry) / stopDist
}

// RiskPct is plannedRisk as a fraction of equity. Unknown equity gives 0.
func RiskPct(plannedRisk, equity float64) float64 {
	if equity <= 0 {
		return 0
	}
	return plannedRisk / equity
}
