// Package features turns chronological candle series into fixed-width
// numeric feature matrices for the environment's observations.
package features

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cgmoganedi/amo-gym-rayan/market"
)

var (
	ErrSchema       = errors.New("invalid feature schema")
	ErrUnknownGroup = errors.New("unknown feature group")
	ErrWidth        = errors.New("feature width does not match schema")
)

// Schema names the columns a pipeline produces, in order.
type Schema []string

func (s Schema) Width() int { return len(s) }

func (s Schema) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: no columns", ErrSchema)
	}
	seen := make(map[string]struct{}, len(s))
	for _, name := range s {
		if name == "" {
			return fmt.Errorf("%w: empty column name", ErrSchema)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate column %q", ErrSchema, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// Pipeline computes one row per candle. Candles arrive oldest first.
type Pipeline interface {
	Schema() Schema
	Compute(candles []market.Candle) ([][]float64, error)
}

// CheckWidth verifies every row of m has the schema's width.
func CheckWidth(s Schema, m [][]float64) error {
	for i, row := range m {
		if len(row) != s.Width() {
			return fmt.Errorf("%w: row %d has %d columns, schema declares %d", ErrWidth, i, len(row), s.Width())
		}
	}
	return nil
}

var (
	mu       sync.RWMutex
	registry = map[string]Pipeline{}
)

// Register makes a pipeline available under a strategy-group name.
// The schema is validated here so a bad pipeline never reaches an episode.
func Register(name string, p Pipeline) error {
	if name == "" {
		return fmt.Errorf("%w: empty group name", ErrSchema)
	}
	if p == nil {
		return fmt.Errorf("%w: nil pipeline for %q", ErrSchema, name)
	}
	if err := p.Schema().Validate(); err != nil {
		return fmt.Errorf("register %q: %w", name, err)
	}

	mu.Lock()
	defer mu.Unlock()
	registry[name] = p
	return nil
}

func Lookup(name string) (Pipeline, error) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, name)
	}
	return p, nil
}

// Groups lists registered group names in sorted order.
func Groups() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func mustRegister(name string, p Pipeline) {
	if err := Register(name, p); err != nil {
		panic(err)
	}
}

func init() {
	mustRegister(GroupAName, NewGroupA())
	mustRegister(GroupCName, NewGroupC())
}

// columns zips equally long series into rows.
func columns(series ...[]float64) [][]float64 {
	if len(series) == 0 {
		return nil
	}
	n := len(series[0])
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, len(series))
		for j, s := range series {
			row[j] = s[i]
		}
		out[i] = row
	}
	return out
}
