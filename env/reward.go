package env

import (
	"fmt"
	"math"

	"github.com/cgmoganedi/amo-gym-rayan/broker"
)

// RewardConfig holds the account health thresholds as multiples of the
// initial balance.
type RewardConfig struct {
	TargetMultiple float64 `json:"target_multiple" yaml:"target_multiple"` // balance >= this ends the episode as a win
	BalanceFloor   float64 `json:"balance_floor" yaml:"balance_floor"`
	EquityFloor    float64 `json:"equity_floor" yaml:"equity_floor"`
	EquityHigh     float64 `json:"equity_high" yaml:"equity_high"`
	EquityLow      float64 `json:"equity_low" yaml:"equity_low"`
	EquityAdjust   float64 `json:"equity_adjust" yaml:"equity_adjust"`
	TrendAdjust    float64 `json:"trend_adjust" yaml:"trend_adjust"`
	BalanceWeight  float64 `json:"balance_weight" yaml:"balance_weight"`
	EquityWeight   float64 `json:"equity_weight" yaml:"equity_weight"`
	Scale          float64 `json:"scale" yaml:"scale"`
}

func DefaultRewardConfig() RewardConfig {
	return RewardConfig{
		TargetMultiple: 2,
		BalanceFloor:   0.75,
		EquityFloor:    0.5,
		EquityHigh:     1.5,
		EquityLow:      0.75,
		EquityAdjust:   0.125,
		TrendAdjust:    0.025,
		BalanceWeight:  0.66,
		EquityWeight:   0.33,
		Scale:          100,
	}
}

func (c RewardConfig) Validate() error {
	if c.TargetMultiple <= 1 {
		return fmt.Errorf("%w: reward target multiple must exceed 1", ErrConfig)
	}
	if c.BalanceFloor <= 0 || c.BalanceFloor >= 1 || c.EquityFloor <= 0 || c.EquityFloor >= 1 {
		return fmt.Errorf("%w: reward floors must lie in (0, 1)", ErrConfig)
	}
	if c.Scale <= 0 {
		return fmt.Errorf("%w: reward scale must be positive", ErrConfig)
	}
	return nil
}

// Branch names the account health rule that fired.
type Branch string

const (
	BranchNone         Branch = "none"
	BranchTarget       Branch = "target"
	BranchBalanceFloor Branch = "balance_floor"
	BranchEquityFloor  Branch = "equity_floor"
	BranchEquityHigh   Branch = "equity_high"
	BranchEquityLow    Branch = "equity_low"
	BranchTrendUp      Branch = "trend_up"
	BranchTrendDown    Branch = "trend_down"
)

// EquityHistory keeps the two previous equity samples. A trend needs both.
type EquityHistory struct {
	prev     float64
	prevPrev float64
	n        int
}

func (h *EquityHistory) Push(equity float64) {
	h.prevPrev = h.prev
	h.prev = equity
	if h.n < 2 {
		h.n++
	}
}

func (h *EquityHistory) Reset() { *h = EquityHistory{} }

func (h EquityHistory) Rising(equity float64) bool {
	return h.n == 2 && equity > h.prev && h.prev > h.prevPrev
}

func (h EquityHistory) Falling(equity float64) bool {
	return h.n == 2 && equity < h.prev && h.prev < h.prevPrev
}

type Score struct {
	TradeReward    float64 // after the health adjustment
	Reward         float64 // shaped
	InitialBalance float64
	Branch         Branch
	Done           bool
}

type RewardEngine struct {
	cfg RewardConfig
}

func NewRewardEngine(cfg RewardConfig) RewardEngine {
	return RewardEngine{cfg: cfg}
}

// TradeActions is 1 plus each symbol's outcome.
func (RewardEngine) TradeActions(outcomes []float64) float64 {
	r := 1.0
	for _, o := range outcomes {
		r += o
	}
	return r
}

// Health applies the first matching account rule to tradeReward and shapes
// the result by the account's size relative to its initial balance.
func (re RewardEngine) Health(tradeReward float64, acct broker.Account, hist EquityHistory) (Score, error) {
	c := re.cfg
	ib := acct.InitialBalance()
	if ib <= 0 || math.IsNaN(ib) {
		return Score{}, fmt.Errorf("%w: balance %v profit %v", ErrInitialBalance, acct.Balance, acct.Profit)
	}

	bal, eq := acct.Balance, acct.Equity
	s := Score{InitialBalance: ib, Branch: BranchNone}

	switch {
	case bal >= ib*c.TargetMultiple:
		s.Done, s.Branch = true, BranchTarget
		tradeReward = bal
	case bal <= ib*c.BalanceFloor:
		s.Done, s.Branch = true, BranchBalanceFloor
		tradeReward = -ib
	case eq <= ib*c.EquityFloor:
		s.Done, s.Branch = true, BranchEquityFloor
		tradeReward = -ib
	case eq >= ib*c.EquityHigh:
		s.Branch = BranchEquityHigh
		tradeReward += ib * c.EquityAdjust
	case eq <= ib*c.EquityLow:
		s.Branch = BranchEquityLow
		tradeReward -= ib * c.EquityAdjust
	case hist.Rising(eq):
		s.Branch = BranchTrendUp
		tradeReward += ib * c.TrendAdjust
	case hist.Falling(eq):
		s.Branch = BranchTrendDown
		tradeReward -= ib * c.TrendAdjust
	}

	s.TradeReward = tradeReward
	s.Reward = tradeReward * math.Abs(bal*c.BalanceWeight+eq*c.EquityWeight) / ib / c.Scale
	return s, nil
}
