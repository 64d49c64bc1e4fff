package env

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cgmoganedi/amo-gym-rayan/broker"
	"github.com/cgmoganedi/amo-gym-rayan/features"
	"github.com/cgmoganedi/amo-gym-rayan/journal"
	"github.com/cgmoganedi/amo-gym-rayan/market"
)

var t0 = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

type closeCall struct {
	Ticket    string
	Direction broker.Direction
	Price     float64
}

type fakeGateway struct {
	mu sync.Mutex

	candles   map[string][]market.Candle // newest first
	account   broker.Account
	positions map[string][]broker.Position
	quotes    map[string]market.Quote

	accountErr  error
	positionErr map[string]error
	priceErr    error
	placeErr    error
	closeErr    error
	pingErr     error

	calls      int
	candleEnds []time.Time
	placed     []broker.OrderRequest
	closed     []closeCall
	tickets    int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		candles:     map[string][]market.Candle{},
		account:     broker.Account{Currency: "USD", Balance: 1000, Equity: 1000},
		positions:   map[string][]broker.Position{},
		quotes:      map[string]market.Quote{},
		positionErr: map[string]error{},
	}
}

func (g *fakeGateway) Ping(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.pingErr
}

func (g *fakeGateway) GetCandles(_ context.Context, symbol string, _ market.Timeframe, end time.Time, count int) ([]market.Candle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.candleEnds = append(g.candleEnds, end)
	cs, ok := g.candles[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", broker.ErrUnknownSymbol, symbol)
	}
	if len(cs) > count {
		cs = cs[:count]
	}
	return cs, nil
}

func (g *fakeGateway) GetAccount(context.Context) (broker.Account, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.account, g.accountErr
}

func (g *fakeGateway) GetOpenPositions(_ context.Context, symbol string) ([]broker.Position, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if err := g.positionErr[symbol]; err != nil {
		return nil, err
	}
	return append([]broker.Position(nil), g.positions[symbol]...), nil
}

func (g *fakeGateway) PlaceOrder(_ context.Context, req broker.OrderRequest) (broker.OrderResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.placeErr != nil {
		return broker.OrderResult{}, g.placeErr
	}
	g.placed = append(g.placed, req)
	g.tickets++
	return broker.OrderResult{
		Ticket: fmt.Sprintf("T%d", g.tickets),
		Symbol: req.Symbol,
		Volume: req.Volume,
		Price:  req.Price,
	}, nil
}

func (g *fakeGateway) CloseOrder(_ context.Context, pos broker.Position, dir broker.Direction, price float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.closeErr != nil {
		return g.closeErr
	}
	g.closed = append(g.closed, closeCall{Ticket: pos.Ticket, Direction: dir, Price: price})
	return nil
}

func (g *fakeGateway) GetSymbolPrice(_ context.Context, symbol string) (market.Quote, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.priceErr != nil {
		return market.Quote{}, g.priceErr
	}
	q, ok := g.quotes[symbol]
	if !ok {
		return market.Quote{}, market.ErrNoQuote
	}
	return q, nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *fakeGateway) setAccount(a broker.Account) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.account = a
}

type fakeClock struct {
	now   time.Time
	slept []time.Duration
	err   error
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	if c.err != nil {
		return c.err
	}
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
	return nil
}

// rawPipeline emits close and open unchanged.
type rawPipeline struct {
	width int // rows are cut to this width when set
}

func (rawPipeline) Schema() features.Schema { return features.Schema{"close", "open"} }

func (p rawPipeline) Compute(cs []market.Candle) ([][]float64, error) {
	out := make([][]float64, len(cs))
	for i, c := range cs {
		row := []float64{c.Close, c.Open}
		if p.width > 0 {
			row = row[:p.width]
		}
		out[i] = row
	}
	return out, nil
}

// newestFirst builds n one-minute candles ending at t0 whose closes run
// base+1 .. base+n oldest to newest.
func newestFirst(n int, base float64) []market.Candle {
	out := make([]market.Candle, n)
	for i := 0; i < n; i++ {
		age := time.Duration(i) * time.Minute
		v := base + float64(n-i)
		out[i] = market.Candle{Time: t0.Add(-age), Open: -v, High: v, Low: v, Close: v}
	}
	return out
}

type stepJournal struct {
	journal.Journal
	steps []journal.StepRecord
}

func (j *stepJournal) RecordStep(r journal.StepRecord) error {
	j.steps = append(j.steps, r)
	return nil
}
