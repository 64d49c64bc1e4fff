package env

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgmoganedi/amo-gym-rayan/broker"
	"github.com/cgmoganedi/amo-gym-rayan/market"
)

func newTestManager(t *testing.T, gw *fakeGateway, cfg Config) (*PositionManager, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	clock := &fakeClock{now: t0}
	return NewPositionManager(gw, clock, cfg, log), hook
}

func eurQuote() market.Quote {
	return market.Quote{Symbol: "EUR_USD", Time: t0, Bid: 1.1000, Ask: 1.1002, Point: 0.00001}
}

func TestOpenPositionLotTiers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		strength float64
		lot      float64
	}{
		{0.97, 0.09},
		{0.96, 0.09},
		{0.93, 0.06},
		{0.89, 0.03},
		{0.50, 0.01},
	}
	for _, tt := range tests {
		gw := newFakeGateway()
		gw.quotes["EUR_USD"] = eurQuote()
		pm, _ := newTestManager(t, gw, DefaultConfig("EUR_USD"))

		ok, ticket := pm.OpenPosition(context.Background(), "EUR_USD", broker.Buy, tt.strength)
		require.True(t, ok)
		assert.Equal(t, "T1", ticket)
		require.Len(t, gw.placed, 1)
		assert.InDelta(t, tt.lot, gw.placed[0].Volume, 1e-9, "strength %v", tt.strength)
	}
}

func TestOpenPositionBrackets(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	gw.quotes["EUR_USD"] = eurQuote()
	pm, _ := newTestManager(t, gw, DefaultConfig("EUR_USD"))
	ctx := context.Background()

	ok, _ := pm.OpenPosition(ctx, "EUR_USD", broker.Buy, 0.9)
	require.True(t, ok)
	ok, _ = pm.OpenPosition(ctx, "EUR_USD", broker.Sell, 0.9)
	require.True(t, ok)
	require.Len(t, gw.placed, 2)

	buy := gw.placed[0]
	assert.Equal(t, broker.Buy, buy.Direction)
	assert.InDelta(t, 1.1002, buy.Price, 1e-12)
	assert.InDelta(t, 1.1002-0.0026, buy.StopLoss, 1e-9)
	assert.InDelta(t, 1.1002+0.0125, buy.TakeProfit, 1e-9)

	sell := gw.placed[1]
	assert.Equal(t, broker.Sell, sell.Direction)
	assert.InDelta(t, 1.1000, sell.Price, 1e-12)
	assert.InDelta(t, 1.1000+0.0026, sell.StopLoss, 1e-9)
	assert.InDelta(t, 1.1000-0.0125, sell.TakeProfit, 1e-9)
}

func TestOpenPositionLogsPlannedRisk(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	gw.quotes["EUR_USD"] = eurQuote()
	pm, hook := newTestManager(t, gw, DefaultConfig("EUR_USD"))

	ok, _ := pm.OpenPosition(context.Background(), "EUR_USD", broker.Buy, 0.9)
	require.True(t, ok)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	// 0.03 lots * 100000 * 0.0026 in a USD account
	assert.InDelta(t, 7.8, entry.Data["planned_risk"], 1e-9)
	assert.InDelta(t, 0.0078, entry.Data["risk_pct"], 1e-12)

	// Without an account the order still goes out, unsized.
	gw.accountErr = errors.New("timeout")
	ok, _ = pm.OpenPosition(context.Background(), "EUR_USD", broker.Buy, 0.9)
	require.True(t, ok)
	assert.Len(t, gw.placed, 2)
	assert.Equal(t, 0.0, hook.LastEntry().Data["planned_risk"])
}

func TestOpenPositionStopBelowZero(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	gw.quotes["EUR_USD"] = market.Quote{Symbol: "EUR_USD", Time: t0, Bid: 0.0019, Ask: 0.0020, Point: 0.00001}
	pm, _ := newTestManager(t, gw, DefaultConfig("EUR_USD"))

	ok, ticket := pm.OpenPosition(context.Background(), "EUR_USD", broker.Buy, 0.9)
	require.True(t, ok)
	assert.NotEmpty(t, ticket)
	require.Len(t, gw.placed, 1)
	assert.InDelta(t, 0.0020-0.0026, gw.placed[0].StopLoss, 1e-12)
	assert.InDelta(t, 0.0020+0.0125, gw.placed[0].TakeProfit, 1e-12)
}

func TestOpenPositionCapIsNoop(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	gw.quotes["EUR_USD"] = eurQuote()
	for i := 0; i < 7; i++ {
		gw.positions["EUR_USD"] = append(gw.positions["EUR_USD"], broker.Position{Symbol: "EUR_USD"})
	}
	pm, _ := newTestManager(t, gw, DefaultConfig("EUR_USD"))

	ok, ticket := pm.OpenPosition(context.Background(), "EUR_USD", broker.Buy, 1)
	assert.True(t, ok)
	assert.Empty(t, ticket)
	assert.Empty(t, gw.placed)
}

func TestOpenPositionFailuresAreReported(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	gw.quotes["EUR_USD"] = eurQuote()
	gw.placeErr = broker.ErrOrderRejected
	pm, hook := newTestManager(t, gw, DefaultConfig("EUR_USD"))

	ok, ticket := pm.OpenPosition(context.Background(), "EUR_USD", broker.Sell, 0.99)
	assert.False(t, ok)
	assert.Empty(t, ticket)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "EUR_USD", hook.LastEntry().Data["symbol"])

	gw.placeErr = nil
	gw.priceErr = errors.New("no tick")
	ok, _ = pm.OpenPosition(context.Background(), "EUR_USD", broker.Sell, 0.99)
	assert.False(t, ok)
	assert.Empty(t, gw.placed)
}

func TestCollectProfits(t *testing.T) {
	t.Parallel()

	positions := []broker.Position{
		{Ticket: "p0", Symbol: "EUR_USD", Direction: broker.Buy, Profit: 100},
		{Ticket: "p1", Symbol: "EUR_USD", Direction: broker.Sell, Profit: 100},
		{Ticket: "p2", Symbol: "EUR_USD", Direction: broker.Buy, Profit: 10},
		{Ticket: "p3", Symbol: "EUR_USD", Direction: broker.Buy, Profit: 78},
		{Ticket: "p4", Symbol: "EUR_USD", Direction: broker.Buy, Profit: 76},
		{Ticket: "p5", Symbol: "EUR_USD", Direction: broker.Buy, Profit: 5},
	}

	tests := []struct {
		name   string
		filter IndexFilter
		want   []string
	}{
		{"odd_indexed", OddIndexed, []string{"p1", "p3"}},
		{"all_positions", AllPositions, []string{"p0", "p1", "p3"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gw := newFakeGateway()
			gw.quotes["EUR_USD"] = eurQuote()
			gw.positions["EUR_USD"] = positions
			gw.positionErr["USD_JPY"] = errors.New("terminal busy")

			cfg := DefaultConfig("USD_JPY", "EUR_USD")
			cfg.Collect = tt.filter
			pm, hook := newTestManager(t, gw, cfg)

			n := pm.CollectProfits(context.Background(), cfg.Symbols)
			assert.Equal(t, len(tt.want), n)

			var got []string
			for _, c := range gw.closed {
				got = append(got, c.Ticket)
			}
			assert.Equal(t, tt.want, got)
			require.NotEmpty(t, hook.Entries)
			assert.Equal(t, "USD_JPY", hook.Entries[0].Data["symbol"])
		})
	}
}

func TestCollectProfitsAccountFailure(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	gw.accountErr = errors.New("disconnected")
	gw.positions["EUR_USD"] = []broker.Position{{Ticket: "a"}, {Ticket: "b", Profit: 1e6}}
	pm, hook := newTestManager(t, gw, DefaultConfig("EUR_USD"))

	assert.Equal(t, 0, pm.CollectProfits(context.Background(), []string{"EUR_USD"}))
	assert.Empty(t, gw.closed)
	assert.Len(t, hook.Entries, 1)
}

func TestCloseAllOpenPositions(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	gw.quotes["EUR_USD"] = eurQuote()
	gw.positions["EUR_USD"] = []broker.Position{
		{Ticket: "old", Symbol: "EUR_USD", Direction: broker.Buy, OpenTime: t0.Add(-40 * time.Hour), Profit: 2},
		{Ticket: "new", Symbol: "EUR_USD", Direction: broker.Sell, OpenTime: t0.Add(-2 * time.Hour), Profit: -1},
		{Ticket: "edge", Symbol: "EUR_USD", Direction: broker.Sell, OpenTime: t0.Add(-36 * time.Hour), Profit: 0},
	}
	pm, _ := newTestManager(t, gw, DefaultConfig("EUR_USD"))

	ok, value := pm.CloseAllOpenPositions(context.Background(), "EUR_USD")
	assert.True(t, ok)
	// 1 + 2*(1+40) + -1*(1+2) + 0
	assert.InDelta(t, 80.0, value, 1e-9)

	require.Len(t, gw.closed, 2)
	assert.Equal(t, "old", gw.closed[0].Ticket)
	assert.Equal(t, "edge", gw.closed[1].Ticket)
}

func TestCloseAllOpenPositionsFailures(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	gw.positionErr["EUR_USD"] = errors.New("boom")
	pm, _ := newTestManager(t, gw, DefaultConfig("EUR_USD"))

	ok, value := pm.CloseAllOpenPositions(context.Background(), "EUR_USD")
	assert.False(t, ok)
	assert.Equal(t, 1.0, value)

	gw.positionErr = map[string]error{}
	gw.quotes["EUR_USD"] = eurQuote()
	gw.positions["EUR_USD"] = []broker.Position{
		{Ticket: "old", Symbol: "EUR_USD", Direction: broker.Buy, OpenTime: t0.Add(-48 * time.Hour), Profit: 1},
	}
	gw.closeErr = broker.ErrOrderRejected

	ok, value = pm.CloseAllOpenPositions(context.Background(), "EUR_USD")
	assert.False(t, ok)
	assert.InDelta(t, 1+1*49.0, value, 1e-9)
}

func TestClosePositionSide(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	gw.quotes["EUR_USD"] = eurQuote()
	pm, _ := newTestManager(t, gw, DefaultConfig("EUR_USD"))
	ctx := context.Background()

	require.True(t, pm.ClosePosition(ctx, broker.Position{Ticket: "L", Symbol: "EUR_USD", Direction: broker.Buy, Volume: 0.03}))
	require.True(t, pm.ClosePosition(ctx, broker.Position{Ticket: "S", Symbol: "EUR_USD", Direction: broker.Sell, Volume: 0.06}))

	assert.Equal(t, closeCall{Ticket: "L", Direction: broker.Sell, Price: 1.1000}, gw.closed[0])
	assert.Equal(t, closeCall{Ticket: "S", Direction: broker.Buy, Price: 1.1002}, gw.closed[1])

	gw.closeErr = broker.ErrPositionNotFound
	assert.False(t, pm.ClosePosition(ctx, broker.Position{Ticket: "gone", Symbol: "EUR_USD", Direction: broker.Buy}))
}
