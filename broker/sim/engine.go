// Package sim is an in-memory brokerage that replays candle history. It
// implements broker.Gateway and doubles as the environment clock, so a
// pause between steps moves simulated time forward instead of sleeping.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cgmoganedi/amo-gym-rayan/broker"
	"github.com/cgmoganedi/amo-gym-rayan/internal/id"
	"github.com/cgmoganedi/amo-gym-rayan/journal"
	"github.com/cgmoganedi/amo-gym-rayan/market"
)

var (
	ErrTradeAlreadyClosed = errors.New("trade already closed")
	ErrNoHistory          = errors.New("no candle history")
	ErrHistoryExhausted   = errors.New("candle history exhausted")
	ErrTimeframe          = errors.New("timeframe not loaded")
)

var _ broker.Gateway = (*Engine)(nil)

type Config struct {
	AccountID string
	Currency  string
	Balance   float64
	Timeframe market.Timeframe

	// SpreadPoints widens the ask above the candle close.
	SpreadPoints float64
	// DeviationPoints bounds how far a close request price may sit from
	// the market. Zero disables the check.
	DeviationPoints float64
}

type Engine struct {
	mu      sync.Mutex
	cfg     Config
	acct    broker.Account
	quotes  *market.QuoteStore
	history map[string][]market.Candle
	trades  map[string]*Trade
	order   []string // tickets in open order
	now     time.Time
	journal journal.Journal
}

func NewEngine(cfg Config, j journal.Journal) *Engine {
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	if cfg.AccountID == "" {
		cfg.AccountID = "sim"
	}
	if j == nil {
		j = journal.Discard
	}
	return &Engine{
		cfg: cfg,
		acct: broker.Account{
			ID:         cfg.AccountID,
			Currency:   cfg.Currency,
			Balance:    cfg.Balance,
			Equity:     cfg.Balance,
			FreeMargin: cfg.Balance,
		},
		quotes:  market.NewQuoteStore(),
		history: make(map[string][]market.Candle),
		trades:  make(map[string]*Trade),
		journal: j,
	}
}

// LoadHistory registers the candle series replayed for symbol.
func (e *Engine) LoadHistory(symbol string, candles []market.Candle) error {
	meta, err := market.Lookup(symbol)
	if err != nil {
		return fmt.Errorf("%w: %s", broker.ErrUnknownSymbol, symbol)
	}
	if len(candles) == 0 {
		return fmt.Errorf("%w for %s", ErrNoHistory, meta.Name)
	}

	cs := make([]market.Candle, len(candles))
	copy(cs, candles)
	market.SortChronological(cs)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.history[meta.Name] = cs
	return nil
}

// Seek moves the clock to t and quotes every symbol at its last candle
// at or before t.
func (e *Engine) Seek(t time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.history) == 0 {
		return ErrNoHistory
	}
	for sym, cs := range e.history {
		i := sort.Search(len(cs), func(i int) bool { return cs[i].Time.After(t) })
		if i == 0 {
			return fmt.Errorf("%w for %s at %s", ErrNoHistory, sym, t.Format(time.RFC3339))
		}
		e.quotes.Set(e.quoteFromCandle(sym, cs[i-1]))
	}
	e.now = t
	return e.markLocked()
}

// Warmup seeks to the earliest time at which every symbol has at least n
// candles of history behind it.
func (e *Engine) Warmup(n int) error {
	if n < 1 {
		n = 1
	}

	e.mu.Lock()
	var start time.Time
	for sym, cs := range e.history {
		if len(cs) < n {
			e.mu.Unlock()
			return fmt.Errorf("%w: %s has %d candles, need %d", ErrNoHistory, sym, len(cs), n)
		}
		if t := cs[n-1].Time; t.After(start) {
			start = t
		}
	}
	e.mu.Unlock()

	if start.IsZero() {
		return ErrNoHistory
	}
	return e.Seek(start)
}

// Now is the simulated wall clock.
func (e *Engine) Now() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

// Sleep replays every candle that closes within d of the current time.
func (e *Engine) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.advanceLocked(e.now.Add(d))
}

func (e *Engine) advanceLocked(target time.Time) error {
	type event struct {
		symbol string
		candle market.Candle
	}

	var (
		events    []event
		remaining bool
	)
	for sym, cs := range e.history {
		i := sort.Search(len(cs), func(i int) bool { return cs[i].Time.After(e.now) })
		if i < len(cs) {
			remaining = true
		}
		for ; i < len(cs) && !cs[i].Time.After(target); i++ {
			events = append(events, event{symbol: sym, candle: cs[i]})
		}
	}
	if !remaining {
		return ErrHistoryExhausted
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].candle.Time.Equal(events[j].candle.Time) {
			return events[i].symbol < events[j].symbol
		}
		return events[i].candle.Time.Before(events[j].candle.Time)
	})

	for _, ev := range events {
		e.now = ev.candle.Time
		if err := e.updateQuoteLocked(e.quoteFromCandle(ev.symbol, ev.candle)); err != nil {
			return err
		}
	}
	e.now = target
	return nil
}

func (e *Engine) quoteFromCandle(symbol string, c market.Candle) market.Quote {
	meta := market.Instruments[symbol]
	point := meta.Point()
	return market.Quote{
		Symbol: symbol,
		Time:   c.Time,
		Bid:    c.Close,
		Ask:    c.Close + e.cfg.SpreadPoints*point,
		Point:  point,
	}
}

func (e *Engine) GetCandles(ctx context.Context, symbol string, tf market.Timeframe, end time.Time, count int) ([]market.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.cfg.Timeframe != 0 && tf != e.cfg.Timeframe {
		return nil, fmt.Errorf("%w: %s (loaded %s)", ErrTimeframe, tf, e.cfg.Timeframe)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sym := market.Normalize(symbol)
	cs, ok := e.history[sym]
	if !ok {
		return nil, fmt.Errorf("%w: %s", broker.ErrUnknownSymbol, symbol)
	}

	// Nothing past the simulated present is visible.
	if end.IsZero() || end.After(e.now) {
		end = e.now
	}
	hi := sort.Search(len(cs), func(i int) bool { return cs[i].Time.After(end) })
	lo := hi - count
	if lo < 0 {
		lo = 0
	}
	return market.Reversed(cs[lo:hi]), nil
}

func (e *Engine) GetAccount(ctx context.Context) (broker.Account, error) {
	if err := ctx.Err(); err != nil {
		return broker.Account{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.acct, nil
}

// GetOpenPositions lists open trades on symbol in the order they were
// opened. An empty symbol lists every open trade.
func (e *Engine) GetOpenPositions(ctx context.Context, symbol string) ([]broker.Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sym := ""
	if symbol != "" {
		sym = market.Normalize(symbol)
	}

	var out []broker.Position
	for _, ticket := range e.order {
		t := e.trades[ticket]
		if !t.Open || (sym != "" && t.Symbol != sym) {
			continue
		}
		pl, err := e.floatingLocked(t)
		if err != nil {
			return nil, err
		}
		out = append(out, t.position(pl))
	}
	return out, nil
}

func (e *Engine) GetSymbolPrice(ctx context.Context, symbol string) (market.Quote, error) {
	if err := ctx.Err(); err != nil {
		return market.Quote{}, err
	}
	q, err := e.quotes.Get(market.Normalize(symbol))
	if err != nil {
		return market.Quote{}, fmt.Errorf("%s: %w", symbol, err)
	}
	return q, nil
}

func (e *Engine) PlaceOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderResult, error) {
	if err := ctx.Err(); err != nil {
		return broker.OrderResult{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sym := market.Normalize(req.Symbol)
	if _, ok := e.history[sym]; !ok {
		return broker.OrderResult{}, fmt.Errorf("%w: %s", broker.ErrUnknownSymbol, req.Symbol)
	}
	if req.Volume <= 0 {
		return broker.OrderResult{}, fmt.Errorf("%w: volume %v", broker.ErrOrderRejected, req.Volume)
	}
	if req.Direction != broker.Buy && req.Direction != broker.Sell {
		return broker.OrderResult{}, fmt.Errorf("%w: no direction", broker.ErrOrderRejected)
	}

	q, err := e.quotes.Get(sym)
	if err != nil {
		return broker.OrderResult{}, fmt.Errorf("%w: %s: %v", broker.ErrOrderRejected, sym, err)
	}

	fill := q.Ask
	if req.Direction == broker.Sell {
		fill = q.Bid
	}

	if err := validStops(req, q); err != nil {
		return broker.OrderResult{}, err
	}

	t := &Trade{
		Ticket:     id.At(e.now),
		Symbol:     sym,
		Direction:  req.Direction,
		Volume:     req.Volume,
		EntryPrice: fill,
		OpenTime:   e.now,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		Open:       true,
	}
	e.trades[t.Ticket] = t
	e.order = append(e.order, t.Ticket)

	if err := e.markLocked(); err != nil {
		return broker.OrderResult{}, err
	}

	return broker.OrderResult{
		Ticket: t.Ticket,
		Symbol: sym,
		Volume: t.Volume,
		Price:  fill,
	}, nil
}

// validStops rejects brackets on the wrong side of the market.
func validStops(req broker.OrderRequest, q market.Quote) error {
	if req.Direction == broker.Buy {
		if req.StopLoss != 0 && req.StopLoss >= q.Bid {
			return fmt.Errorf("%w: invalid stops", broker.ErrOrderRejected)
		}
		if req.TakeProfit != 0 && req.TakeProfit <= q.Bid {
			return fmt.Errorf("%w: invalid stops", broker.ErrOrderRejected)
		}
		return nil
	}
	if req.StopLoss != 0 && req.StopLoss <= q.Ask {
		return fmt.Errorf("%w: invalid stops", broker.ErrOrderRejected)
	}
	if req.TakeProfit != 0 && req.TakeProfit >= q.Ask {
		return fmt.Errorf("%w: invalid stops", broker.ErrOrderRejected)
	}
	return nil
}

// CloseOrder closes pos with an opposing deal. Longs close on the bid,
// shorts on the ask.
func (e *Engine) CloseOrder(ctx context.Context, pos broker.Position, dir broker.Direction, price float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.trades[pos.Ticket]
	if !ok {
		return fmt.Errorf("close %q: %w", pos.Ticket, broker.ErrPositionNotFound)
	}
	if !t.Open {
		return fmt.Errorf("close %q: %w", pos.Ticket, ErrTradeAlreadyClosed)
	}
	if dir != t.Direction.Opposite() {
		return fmt.Errorf("%w: close %q needs a %s deal", broker.ErrOrderRejected, pos.Ticket, t.Direction.Opposite())
	}

	q, err := e.quotes.Get(t.Symbol)
	if err != nil {
		return fmt.Errorf("close %q: no price for %s: %w", pos.Ticket, t.Symbol, err)
	}
	mark := t.mark(q.Bid, q.Ask)

	if e.cfg.DeviationPoints > 0 && price != 0 && abs(price-mark) > e.cfg.DeviationPoints*q.Point {
		return fmt.Errorf("%w: requote %s at %v, market %v", broker.ErrOrderRejected, t.Symbol, price, mark)
	}

	if err := e.closeTradeLocked(t, mark, e.now, "Close"); err != nil {
		return err
	}
	return e.markLocked()
}

// CloseAll closes every open trade at the current market.
func (e *Engine) CloseAll(ctx context.Context, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if reason == "" {
		reason = "ManualClose"
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, ticket := range e.order {
		t := e.trades[ticket]
		if !t.Open {
			continue
		}
		q, err := e.quotes.Get(t.Symbol)
		if err != nil {
			return fmt.Errorf("close all: no price for %q: %w", t.Symbol, err)
		}
		if err := e.closeTradeLocked(t, t.mark(q.Bid, q.Ask), e.now, reason); err != nil {
			return err
		}
	}
	return e.markLocked()
}

// updateQuoteLocked sets q and fires any stop-loss or take-profit it crosses.
func (e *Engine) updateQuoteLocked(q market.Quote) error {
	e.quotes.Set(q)

	for _, ticket := range e.order {
		t := e.trades[ticket]
		if !t.Open || t.Symbol != q.Symbol {
			continue
		}

		mark := t.mark(q.Bid, q.Ask)

		reason := ""
		switch {
		case t.hitStopLoss(mark):
			reason = "StopLoss"
		case t.hitTakeProfit(mark):
			reason = "TakeProfit"
		}
		if reason != "" {
			if err := e.closeTradeLocked(t, mark, q.Time, reason); err != nil {
				return err
			}
		}
	}

	return e.markLocked()
}

// markLocked revalues, recomputes margin, snapshots equity and liquidates
// if the account can no longer carry its margin.
func (e *Engine) markLocked() error {
	if err := e.revalueLocked(); err != nil {
		return err
	}
	if err := e.recomputeMarginLocked(); err != nil {
		return err
	}

	if err := e.journal.RecordEquity(journal.EquitySnapshot{
		Time:       e.now,
		Balance:    e.acct.Balance,
		Equity:     e.acct.Equity,
		Profit:     e.acct.Profit,
		MarginUsed: e.acct.MarginUsed,
		FreeMargin: e.acct.FreeMargin,
	}); err != nil {
		return err
	}

	return e.enforceMarginLocked()
}

func (e *Engine) rateLocked(symbol string) (float64, error) {
	return market.QuoteToAccountRate(symbol, e.acct.Currency, e.quotes)
}

func (e *Engine) floatingLocked(t *Trade) (float64, error) {
	q, err := e.quotes.Get(t.Symbol)
	if err != nil {
		return 0, err
	}
	rate, err := e.rateLocked(t.Symbol)
	if err != nil {
		return 0, err
	}
	return UnrealizedPL(*t, t.mark(q.Bid, q.Ask), rate), nil
}

func (e *Engine) closeTradeLocked(t *Trade, closePrice float64, closeTime time.Time, reason string) error {
	rate, err := e.rateLocked(t.Symbol)
	if err != nil {
		return err
	}

	pl := UnrealizedPL(*t, closePrice, rate)

	t.ClosePrice = closePrice
	t.CloseTime = closeTime
	t.RealizedPL = pl
	t.Open = false

	e.acct.Balance += pl

	return e.journal.RecordTrade(journal.TradeRecord{
		TradeID:    t.Ticket,
		Symbol:     t.Symbol,
		Direction:  t.Direction.String(),
		Volume:     t.Volume,
		EntryPrice: t.EntryPrice,
		ExitPrice:  closePrice,
		OpenTime:   t.OpenTime,
		CloseTime:  closeTime,
		RealizedPL: pl,
		Reason:     reason,
	})
}

func (e *Engine) revalueLocked() error {
	var floating float64
	for _, ticket := range e.order {
		t := e.trades[ticket]
		if !t.Open {
			continue
		}
		pl, err := e.floatingLocked(t)
		if err != nil {
			return err
		}
		floating += pl
	}

	e.acct.Profit = floating
	e.acct.Equity = e.acct.Balance + floating
	return nil
}

func (e *Engine) recomputeMarginLocked() error {
	var used float64

	for _, ticket := range e.order {
		t := e.trades[ticket]
		if !t.Open {
			continue
		}

		q, err := e.quotes.Get(t.Symbol)
		if err != nil {
			return err
		}
		rate, err := e.rateLocked(t.Symbol)
		if err != nil {
			return err
		}

		// margin uses mid
		used += TradeMargin(t.Units(), q.Mid(), t.Symbol, rate)
	}

	e.acct.MarginUsed = used
	e.acct.FreeMargin = e.acct.Equity - used
	return nil
}

func (e *Engine) enforceMarginLocked() error {
	for {
		if e.acct.MarginUsed <= 0 || e.acct.Equity >= e.acct.MarginUsed {
			return nil
		}

		// Find worst open trade
		var (
			worst   *Trade
			worstPL float64
		)
		for _, ticket := range e.order {
			t := e.trades[ticket]
			if !t.Open {
				continue
			}
			pl, err := e.floatingLocked(t)
			if err != nil {
				return err
			}
			if worst == nil || pl < worstPL {
				worst = t
				worstPL = pl
			}
		}
		if worst == nil {
			return nil
		}

		q, err := e.quotes.Get(worst.Symbol)
		if err != nil {
			return err
		}
		if err := e.closeTradeLocked(worst, worst.mark(q.Bid, q.Ask), e.now, "LIQUIDATION"); err != nil {
			return err
		}

		if err := e.revalueLocked(); err != nil {
			return err
		}
		if err := e.recomputeMarginLocked(); err != nil {
			return err
		}
	}
}
