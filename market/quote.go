package market

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNoQuote = errors.New("quote not found")

type QuoteSource interface {
	GetSymbolPrice(ctx context.Context, symbol string) (Quote, error)
}

// Quote is the current top of book for one symbol. Point is the minimum
// price increment used to express stop-loss and take-profit offsets.
type Quote struct {
	Symbol string
	Time   time.Time
	Bid    float64
	Ask    float64
	Point  float64
}

func (q Quote) Mid() float64 {
	return (q.Bid + q.Ask) / 2
}

func (q Quote) Spread() float64 {
	return q.Ask - q.Bid
}

type QuoteStore struct {
	mu     sync.RWMutex
	quotes map[string]Quote
}

func NewQuoteStore() *QuoteStore {
	return &QuoteStore{quotes: make(map[string]Quote)}
}

func (qs *QuoteStore) Set(q Quote) {
	qs.mu.Lock()
	defer qs.mu.Unlock()
	qs.quotes[q.Symbol] = q
}

func (qs *QuoteStore) Get(symbol string) (Quote, error) {
	qs.mu.RLock()
	defer qs.mu.RUnlock()
	q, ok := qs.quotes[symbol]
	if !ok {
		return Quote{}, ErrNoQuote
	}
	return q, nil
}
