package env

import (
	"fmt"
	"time"

	"github.com/cgmoganedi/amo-gym-rayan/market"
	"github.com/cgmoganedi/amo-gym-rayan/risk"
)

type Config struct {
	Symbols    []string
	WindowSize int
	NCandles   int
	Timeframe  market.Timeframe
	Windowing  Windowing
	Threshold  float64

	Sizing        risk.Sizing
	ProfitTakePct float64       // of balance
	StaleAfter    time.Duration // exit closes positions at least this old
	Collect       IndexFilter   // nil means OddIndexed

	Reward RewardConfig

	// RunID tags journal step records.
	RunID string
}

func DefaultConfig(symbols ...string) Config {
	return Config{
		Symbols:       symbols,
		WindowSize:    6,
		NCandles:      126,
		Timeframe:     market.M1,
		Windowing:     WindowLatest,
		Threshold:     DefaultThreshold,
		Sizing:        risk.DefaultSizing(),
		ProfitTakePct: 0.077,
		StaleAfter:    36 * time.Hour,
		Collect:       OddIndexed,
		Reward:        DefaultRewardConfig(),
	}
}

func (c Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("%w: no symbols", ErrConfig)
	}
	seen := map[string]bool{}
	for _, s := range c.Symbols {
		n := market.Normalize(s)
		if seen[n] {
			return fmt.Errorf("%w: duplicate symbol %s", ErrConfig, s)
		}
		seen[n] = true
	}
	if c.WindowSize <= 0 {
		return fmt.Errorf("%w: window size must be positive", ErrConfig)
	}
	if c.NCandles < c.WindowSize {
		return fmt.Errorf("%w: n_candles %d < window size %d", ErrConfig, c.NCandles, c.WindowSize)
	}
	if c.Timeframe <= 0 {
		return fmt.Errorf("%w: timeframe must be positive", ErrConfig)
	}
	if c.Threshold <= 0 || c.Threshold > 1 {
		return fmt.Errorf("%w: threshold %v outside (0, 1]", ErrConfig, c.Threshold)
	}
	if err := c.Sizing.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if c.ProfitTakePct <= 0 {
		return fmt.Errorf("%w: profit take pct must be positive", ErrConfig)
	}
	if c.StaleAfter < 0 {
		return fmt.Errorf("%w: stale after must not be negative", ErrConfig)
	}
	return c.Reward.Validate()
}

// Pause is how long a step waits: one window of candles.
func (c Config) Pause() time.Duration {
	return time.Duration(c.WindowSize) * c.Timeframe.Duration()
}
