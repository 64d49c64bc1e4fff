// Package agent drives an environment with a policy: the live trading
// loop and multi-episode evaluation.
package agent

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"

	"github.com/cgmoganedi/amo-gym-rayan/env"
)

// Environment is the reset/step contract *env.Env satisfies.
type Environment interface {
	Reset(ctx context.Context) (env.Observation, error)
	Step(ctx context.Context, action []float64) (env.Observation, float64, bool, *env.Info, error)
	ActionSpace() env.Box
	ObservationSpace() env.Box
}

type Policy interface {
	Act(obs env.Observation) ([]float64, error)
}

// RandomPolicy samples actions uniformly from the action space.
type RandomPolicy struct {
	space env.Box
	rng   *rand.Rand
}

func NewRandomPolicy(space env.Box, seed int64) *RandomPolicy {
	return &RandomPolicy{space: space, rng: rand.New(rand.NewSource(seed))}
}

func (p *RandomPolicy) Act(env.Observation) ([]float64, error) {
	out := make([]float64, p.space.Size())
	for i := range out {
		out[i] = p.space.Low + p.rng.Float64()*(p.space.High-p.space.Low)
	}
	return out, nil
}

type EpisodeResult struct {
	Steps  int
	Reward float64
	Done   bool
	Info   *env.Info
}

// Run plays one episode until the environment reports done or maxSteps
// steps have been taken. maxSteps <= 0 means no limit. On error the
// partial result is returned with it.
func Run(ctx context.Context, e Environment, p Policy, maxSteps int, log logrus.FieldLogger) (EpisodeResult, error) {
	var res EpisodeResult

	obs, err := e.Reset(ctx)
	if err != nil {
		return res, fmt.Errorf("reset: %w", err)
	}

	for maxSteps <= 0 || res.Steps < maxSteps {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		action, err := p.Act(obs)
		if err != nil {
			return res, fmt.Errorf("policy: %w", err)
		}

		next, reward, done, info, err := e.Step(ctx, action)
		if err != nil {
			return res, err
		}
		res.Steps++
		res.Reward += reward
		obs = next

		if done {
			res.Done = true
			res.Info = info
			break
		}
	}

	log.WithFields(logrus.Fields{
		"steps":  res.Steps,
		"reward": res.Reward,
		"done":   res.Done,
	}).Info("episode finished")
	return res, nil
}

type Evaluation struct {
	Episodes []EpisodeResult
	Mean     float64
	Std      float64
	Min      float64
	Max      float64
	Median   float64
}

var ErrNoEpisodes = errors.New("no episodes completed")

// Evaluate runs n episodes and summarises their total rewards.
func Evaluate(ctx context.Context, e Environment, p Policy, n, maxSteps int, log logrus.FieldLogger) (Evaluation, error) {
	var ev Evaluation
	var runErr error
	for i := 0; i < n; i++ {
		res, err := Run(ctx, e, p, maxSteps, log.WithField("episode", i+1))
		if err != nil {
			runErr = fmt.Errorf("episode %d: %w", i+1, err)
			break
		}
		ev.Episodes = append(ev.Episodes, res)
	}
	if len(ev.Episodes) == 0 {
		if runErr != nil {
			return ev, runErr
		}
		return ev, ErrNoEpisodes
	}

	rewards := make(stats.Float64Data, len(ev.Episodes))
	for i, r := range ev.Episodes {
		rewards[i] = r.Reward
	}

	var err error
	if ev.Mean, err = rewards.Mean(); err != nil {
		return ev, err
	}
	if ev.Std, err = rewards.StandardDeviationPopulation(); err != nil {
		return ev, err
	}
	if ev.Min, err = rewards.Min(); err != nil {
		return ev, err
	}
	if ev.Max, err = rewards.Max(); err != nil {
		return ev, err
	}
	if ev.Median, err = rewards.Median(); err != nil {
		return ev, err
	}
	return ev, runErr
}
