// Package env is a step-based reinforcement learning environment that
// trades a fixed list of symbols through a broker.Gateway.
//
// Each Step collects profits, decodes one action per symbol into an
// intent, executes it, scores the account's health and then waits one
// window of candles on the Clock before returning the next observation.
package env

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/cgmoganedi/amo-gym-rayan/broker"
	"github.com/cgmoganedi/amo-gym-rayan/features"
	"github.com/cgmoganedi/amo-gym-rayan/journal"
	"github.com/cgmoganedi/amo-gym-rayan/market"
)

type State int

const (
	Idle State = iota
	Running
	Terminal
)

func (s State) String() string {
	switch s {
	case Running:
		return "RUNNING"
	case Terminal:
		return "TERMINAL"
	default:
		return "IDLE"
	}
}

// Info is only returned on the step that ends an episode.
type Info struct {
	TotalProfit float64
	TotalReward float64
}

type episode struct {
	number int
	step   int
	total  float64
	equity EquityHistory
}

type Env struct {
	mu sync.Mutex

	cfg       Config
	gw        broker.Gateway
	clock     Clock
	journal   journal.Journal
	log       logrus.FieldLogger
	builder   *ObservationBuilder
	actions   ActionInterpreter
	positions *PositionManager
	rewards   RewardEngine

	state State
	ep    episode
	obs   Observation
}

type Option func(*Env)

func WithClock(c Clock) Option { return func(e *Env) { e.clock = c } }

func WithJournal(j journal.Journal) Option { return func(e *Env) { e.journal = j } }

func WithLogger(l logrus.FieldLogger) Option { return func(e *Env) { e.log = l } }

// New validates cfg and checks the gateway can be reached before
// returning. Symbols are normalized.
func New(ctx context.Context, gw broker.Gateway, p features.Pipeline, cfg Config, opts ...Option) (*Env, error) {
	if gw == nil || p == nil {
		return nil, fmt.Errorf("%w: gateway and pipeline are required", ErrConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := p.Schema().Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	syms := make([]string, len(cfg.Symbols))
	for i, s := range cfg.Symbols {
		syms[i] = market.Normalize(s)
	}
	cfg.Symbols = syms

	e := &Env{
		cfg:     cfg,
		gw:      gw,
		clock:   RealClock{},
		journal: journal.Discard,
		log:     logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(e)
	}
	e.log = e.log.WithField("run", cfg.RunID)

	if pinger, ok := gw.(broker.Pinger); ok {
		if err := pinger.Ping(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInit, err)
		}
	}
	if _, err := gw.GetAccount(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInit, err)
	}

	e.builder = NewObservationBuilder(gw, p, e.clock, cfg)
	e.actions = NewActionInterpreter(cfg.Threshold)
	e.positions = NewPositionManager(gw, e.clock, cfg, e.log)
	e.rewards = NewRewardEngine(cfg.Reward)

	e.log.WithFields(logrus.Fields{
		"symbols":  syms,
		"window":   cfg.WindowSize,
		"features": p.Schema().Width(),
	}).Info("environment ready")
	return e, nil
}

func (e *Env) Symbols() []string { return append([]string(nil), e.cfg.Symbols...) }

func (e *Env) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// ActionSpace is one value in [-1, 1] per symbol.
func (e *Env) ActionSpace() Box {
	return Box{Low: -1, High: 1, Shape: []int{len(e.cfg.Symbols)}}
}

// ObservationSpace bounds are nominal; values are not clamped.
func (e *Env) ObservationSpace() Box {
	return Box{
		Low:   -2,
		High:  2,
		Shape: []int{e.cfg.WindowSize, len(e.cfg.Symbols), e.builder.pipeline.Schema().Width()},
	}
}

// Reset starts a new episode and returns its first observation.
func (e *Env) Reset(ctx context.Context) (Observation, error) {
	if !e.mu.TryLock() {
		return Observation{}, ErrStepInProgress
	}
	defer e.mu.Unlock()

	e.ep = episode{number: e.ep.number + 1}
	e.state = Idle

	obs, err := e.builder.Build(ctx)
	if err != nil {
		return Observation{}, fmt.Errorf("reset: %w", err)
	}
	e.obs = obs
	e.log.WithField("episode", e.ep.number).Debug("reset")
	return obs, nil
}

// Step applies one action per symbol. After a step reports done, further
// steps fail with ErrEpisodeDone until Reset.
func (e *Env) Step(ctx context.Context, action []float64) (Observation, float64, bool, *Info, error) {
	if !e.mu.TryLock() {
		return Observation{}, 0, false, nil, ErrStepInProgress
	}
	defer e.mu.Unlock()

	if e.state == Terminal {
		return e.obs, 0, true, nil, ErrEpisodeDone
	}

	decisions, err := e.actions.Decode(action, len(e.cfg.Symbols))
	if err != nil {
		return Observation{}, 0, false, nil, err
	}

	e.state = Running
	e.ep.step++
	log := e.log.WithFields(logrus.Fields{"episode": e.ep.number, "step": e.ep.step})

	e.positions.CollectProfits(ctx, e.cfg.Symbols)

	outcomes := make([]float64, len(decisions))
	for i, d := range decisions {
		outcomes[i] = e.execute(ctx, e.cfg.Symbols[i], d)
	}
	tradeReward := e.rewards.TradeActions(outcomes)

	acct, err := e.gw.GetAccount(ctx)
	if err != nil {
		return Observation{}, 0, false, nil, fmt.Errorf("score step %d: %w", e.ep.step, err)
	}
	score, err := e.rewards.Health(tradeReward, acct, e.ep.equity)
	if err != nil {
		return Observation{}, 0, false, nil, fmt.Errorf("score step %d: %w", e.ep.step, err)
	}
	e.ep.total += score.Reward

	log.WithFields(logrus.Fields{
		"trade_reward": tradeReward,
		"reward":       score.Reward,
		"branch":       score.Branch,
	}).Info("step scored")

	var info *Info
	if score.Done {
		e.state = Terminal
		info = &Info{TotalProfit: acct.Profit, TotalReward: e.ep.total}
		log.WithField("total_reward", e.ep.total).Info("episode done")
	} else {
		if err := e.clock.Sleep(ctx, e.cfg.Pause()); err != nil {
			return Observation{}, 0, false, nil, fmt.Errorf("step %d pause: %w", e.ep.step, err)
		}
		if a, err := e.gw.GetAccount(ctx); err != nil {
			log.WithError(err).Warn("equity history not updated")
		} else {
			e.ep.equity.Push(a.Equity)
		}
	}

	if err := e.journal.RecordStep(journal.StepRecord{
		RunID:          e.cfg.RunID,
		Episode:        e.ep.number,
		Step:           e.ep.step,
		Time:           e.clock.Now(),
		TradeReward:    score.TradeReward,
		Reward:         score.Reward,
		TotalReward:    e.ep.total,
		Balance:        acct.Balance,
		Equity:         acct.Equity,
		InitialBalance: score.InitialBalance,
		Branch:         string(score.Branch),
		Done:           score.Done,
	}); err != nil {
		log.WithError(err).Warn("journal step")
	}

	obs, err := e.builder.Build(ctx)
	if err != nil {
		return Observation{}, score.Reward, score.Done, info, fmt.Errorf("step %d observation: %w", e.ep.step, err)
	}
	e.obs = obs
	return obs, score.Reward, score.Done, info, nil
}

// execute carries out one symbol's intent and returns its contribution to
// the trade-actions reward. Order failures still count as 1.
func (e *Env) execute(ctx context.Context, symbol string, d Decision) float64 {
	switch d.Intent {
	case ExitAll:
		ok, value := e.positions.CloseAllOpenPositions(ctx, symbol)
		if !ok {
			e.log.WithField("symbol", symbol).Warn("exit incomplete")
		}
		return value
	case OpenBuy, OpenSell:
		if ok, _ := e.positions.OpenPosition(ctx, symbol, d.Intent.Direction(), d.Strength); !ok {
			e.log.WithField("symbol", symbol).Warnf("%s failed", d.Intent)
		}
	}
	return 1.0
}
