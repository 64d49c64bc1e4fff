// journal/journal.go
package journal

import "time"

type TradeRecord struct {
	TradeID    string
	Symbol     string
	Direction  string
	Volume     float64 // lots
	EntryPrice float64
	ExitPrice  float64
	OpenTime   time.Time
	CloseTime  time.Time
	RealizedPL float64
	Reason     string
}

type EquitySnapshot struct {
	Time       time.Time
	Balance    float64
	Equity     float64
	Profit     float64
	MarginUsed float64
	FreeMargin float64
}

// StepRecord is one environment step as seen by the reward engine.
type StepRecord struct {
	RunID          string
	Episode        int
	Step           int
	Time           time.Time
	TradeReward    float64
	Reward         float64
	TotalReward    float64
	Balance        float64
	Equity         float64
	InitialBalance float64
	Branch         string
	Done           bool
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	RecordStep(StepRecord) error
	Close() error
}

// Discard drops every record.
var Discard Journal = discard{}

type discard struct{}

func (discard) RecordTrade(TradeRecord) error     { return nil }
func (discard) RecordEquity(EquitySnapshot) error { return nil }
func (discard) RecordStep(StepRecord) error       { return nil }
func (discard) Close() error                      { return nil }
