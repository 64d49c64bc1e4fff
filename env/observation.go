package env

import (
	"context"
	"fmt"
	"strings"

	"github.com/cgmoganedi/amo-gym-rayan/broker"
	"github.com/cgmoganedi/amo-gym-rayan/features"
	"github.com/cgmoganedi/amo-gym-rayan/market"
)

// Windowing picks which rows of the fetched batch reach the agent.
type Windowing int

const (
	// WindowLatest returns the most recent rows.
	WindowLatest Windowing = iota
	// WindowOldest returns the first rows of the batch. Models trained
	// against the legacy environment expect this.
	WindowOldest
)

func (w Windowing) String() string {
	if w == WindowOldest {
		return "oldest"
	}
	return "latest"
}

func ParseWindowing(s string) (Windowing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "latest":
		return WindowLatest, nil
	case "oldest", "legacy":
		return WindowOldest, nil
	}
	return 0, fmt.Errorf("%w: unknown windowing %q", ErrConfig, s)
}

// Observation is a time-major (window, symbols, features) tensor.
type Observation struct {
	Data     []float64
	Window   int
	Symbols  int
	Features int
}

func (o Observation) Shape() []int { return []int{o.Window, o.Symbols, o.Features} }

func (o Observation) At(t, s, f int) float64 {
	return o.Data[(t*o.Symbols+s)*o.Features+f]
}

type ObservationBuilder struct {
	gw        broker.Gateway
	pipeline  features.Pipeline
	clock     Clock
	symbols   []string
	window    int
	nCandles  int
	timeframe market.Timeframe
	mode      Windowing
}

func NewObservationBuilder(gw broker.Gateway, p features.Pipeline, clock Clock, cfg Config) *ObservationBuilder {
	return &ObservationBuilder{
		gw:        gw,
		pipeline:  p,
		clock:     clock,
		symbols:   cfg.Symbols,
		window:    cfg.WindowSize,
		nCandles:  cfg.NCandles,
		timeframe: cfg.Timeframe,
		mode:      cfg.Windowing,
	}
}

// Build fetches candles ending now for every symbol and assembles them.
func (b *ObservationBuilder) Build(ctx context.Context) (Observation, error) {
	end := b.clock.Now()
	series := make([][]market.Candle, len(b.symbols))
	for i, sym := range b.symbols {
		cs, err := b.gw.GetCandles(ctx, sym, b.timeframe, end, b.nCandles)
		if err != nil {
			return Observation{}, fmt.Errorf("candles %s: %w", sym, err)
		}
		series[i] = cs
	}
	return b.Assemble(series)
}

// Assemble turns one newest-first candle series per symbol into an
// observation. It is a pure function of its input.
func (b *ObservationBuilder) Assemble(series [][]market.Candle) (Observation, error) {
	if len(series) != len(b.symbols) {
		return Observation{}, fmt.Errorf("%w: %d series for %d symbols", ErrConfig, len(series), len(b.symbols))
	}

	schema := b.pipeline.Schema()
	width := schema.Width()

	stack := make([][][]float64, len(series))
	for s, cs := range series {
		if len(cs) < b.nCandles {
			return Observation{}, fmt.Errorf("%w: %s has %d, need %d", ErrShortHistory, b.symbols[s], len(cs), b.nCandles)
		}
		// Gateways answer newest first.
		rows, err := b.pipeline.Compute(market.Reversed(cs[:b.nCandles]))
		if err != nil {
			return Observation{}, fmt.Errorf("features %s: %w", b.symbols[s], err)
		}
		if err := features.CheckWidth(schema, rows); err != nil {
			return Observation{}, fmt.Errorf("%w: %s: %w", ErrFeatureWidth, b.symbols[s], err)
		}
		if len(rows) != b.nCandles {
			return Observation{}, fmt.Errorf("%w: %s produced %d rows from %d candles", ErrFeatureWidth, b.symbols[s], len(rows), b.nCandles)
		}
		stack[s] = rows
	}

	start := 0
	if b.mode == WindowLatest {
		start = b.nCandles - b.window
	}

	obs := Observation{
		Data:     make([]float64, 0, b.window*len(series)*width),
		Window:   b.window,
		Symbols:  len(series),
		Features: width,
	}
	for t := start; t < start+b.window; t++ {
		for s := range stack {
			obs.Data = append(obs.Data, stack[s][t]...)
		}
	}
	return obs, nil
}
