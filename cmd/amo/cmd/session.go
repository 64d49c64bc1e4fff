package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/cgmoganedi/amo-gym-rayan/agent"
	"github.com/cgmoganedi/amo-gym-rayan/broker"
	"github.com/cgmoganedi/amo-gym-rayan/broker/oanda"
	"github.com/cgmoganedi/amo-gym-rayan/broker/sim"
	"github.com/cgmoganedi/amo-gym-rayan/config"
	"github.com/cgmoganedi/amo-gym-rayan/env"
	"github.com/cgmoganedi/amo-gym-rayan/internal/id"
	"github.com/cgmoganedi/amo-gym-rayan/journal"
	"github.com/cgmoganedi/amo-gym-rayan/market"
)

// session is everything one command needs to drive the environment.
type session struct {
	runID   string
	env     *env.Env
	policy  agent.Policy
	journal journal.Journal
	closers []func()
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openSession(ctx context.Context, cfg *config.Config) (*session, error) {
	s := &session{runID: id.RunName(cfg.Run.Name, time.Now())}
	logger := log.WithField("run", s.runID)

	ec, err := cfg.EnvConfig(s.runID)
	if err != nil {
		return nil, err
	}
	pipeline, err := cfg.Pipeline()
	if err != nil {
		return nil, err
	}

	j, err := cfg.OpenJournal()
	if err != nil {
		return nil, fmt.Errorf("create journal: %w", err)
	}
	s.journal = j
	s.closers = append(s.closers, func() {
		if err := j.Close(); err != nil {
			logger.WithError(err).Warn("close journal")
		}
	})

	opts := []env.Option{env.WithJournal(j), env.WithLogger(logger)}

	var gw broker.Gateway
	switch cfg.Broker.Type {
	case "sim":
		engine, err := newSimEngine(cfg, ec, j)
		if err != nil {
			s.Close()
			return nil, err
		}
		gw = engine
		opts = append(opts, env.WithClock(engine))
	case "oanda":
		client, err := newOANDAClient(cfg.Broker.OANDA, logger)
		if err != nil {
			s.Close()
			return nil, err
		}
		gw = client
	}

	e, err := env.New(ctx, gw, pipeline, ec, opts...)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.env = e

	policy, err := newPolicy(cfg, e)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.policy = policy
	if p, ok := policy.(*agent.ONNXPolicy); ok {
		s.closers = append(s.closers, p.Close)
	}

	logger.WithFields(log.Fields{
		"broker": cfg.Broker.Type,
		"policy": cfg.Agent.Policy,
	}).Info("session opened")
	return s, nil
}

func newSimEngine(cfg *config.Config, ec env.Config, j journal.Journal) (*sim.Engine, error) {
	sc := cfg.Broker.Sim
	engine := sim.NewEngine(sim.Config{
		AccountID:       sc.AccountID,
		Currency:        sc.Currency,
		Balance:         sc.Balance,
		Timeframe:       ec.Timeframe,
		SpreadPoints:    sc.SpreadPoints,
		DeviationPoints: sc.DeviationPoints,
	}, j)

	files := cfg.CandleFiles()
	for _, sym := range ec.Symbols {
		path := files[market.Normalize(sym)]
		candles, err := sim.LoadCandlesCSV(path)
		if err != nil {
			return nil, err
		}
		if err := engine.LoadHistory(sym, candles); err != nil {
			return nil, fmt.Errorf("load %s: %w", sym, err)
		}
		log.WithFields(log.Fields{"symbol": sym, "candles": len(candles), "file": path}).Debug("history loaded")
	}

	// Start where every symbol has a full batch behind it
	if err := engine.Warmup(ec.NCandles); err != nil {
		return nil, err
	}
	return engine, nil
}

func newOANDAClient(oc config.OANDAConfig, logger log.FieldLogger) (*oanda.Client, error) {
	baseURL, err := oanda.BaseURL(oc.Environment, oc.AllowLive)
	if err != nil {
		return nil, err
	}
	token := os.Getenv(oc.TokenEnv)
	accountID := os.Getenv(oc.AccountIDEnv)
	if token == "" || accountID == "" {
		return nil, fmt.Errorf("set %s and %s to use the oanda broker", oc.TokenEnv, oc.AccountIDEnv)
	}
	return oanda.NewClient(baseURL, token, accountID, logger), nil
}

func newPolicy(cfg *config.Config, e *env.Env) (agent.Policy, error) {
	ac := cfg.Agent
	if ac.Policy == "onnx" {
		path := ac.ModelPath
		if cfg.Run.ModelDir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(cfg.Run.ModelDir, path)
		}
		return agent.NewONNXPolicy(agent.ONNXConfig{
			ModelPath:   path,
			LibraryPath: ac.LibraryPath,
		}, e.ObservationSpace(), e.ActionSpace())
	}
	return agent.NewRandomPolicy(e.ActionSpace(), ac.Seed), nil
}
