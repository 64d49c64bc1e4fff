package env

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgmoganedi/amo-gym-rayan/features"
	"github.com/cgmoganedi/amo-gym-rayan/market"
)

func testBuilder(gw *fakeGateway, p features.Pipeline, mode Windowing, symbols ...string) *ObservationBuilder {
	cfg := DefaultConfig(symbols...)
	cfg.WindowSize = 3
	cfg.NCandles = 10
	cfg.Windowing = mode
	return NewObservationBuilder(gw, p, &fakeClock{now: t0}, cfg)
}

func TestAssembleWindowing(t *testing.T) {
	t.Parallel()

	series := [][]market.Candle{newestFirst(12, 0), newestFirst(12, 100)}

	latest, err := testBuilder(nil, rawPipeline{}, WindowLatest, "EUR_USD", "USD_JPY").Assemble(series)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 2}, latest.Shape())

	// The ten newest candles of twelve close at 3..12.
	assert.Equal(t, 10.0, latest.At(0, 0, 0))
	assert.Equal(t, 12.0, latest.At(2, 0, 0))
	assert.Equal(t, 112.0, latest.At(2, 1, 0))
	assert.Equal(t, -112.0, latest.At(2, 1, 1))

	oldest, err := testBuilder(nil, rawPipeline{}, WindowOldest, "EUR_USD", "USD_JPY").Assemble(series)
	require.NoError(t, err)
	assert.Equal(t, 3.0, oldest.At(0, 0, 0))
	assert.Equal(t, 5.0, oldest.At(2, 0, 0))
	assert.Equal(t, 103.0, oldest.At(0, 1, 0))
}

func TestAssembleIsPure(t *testing.T) {
	t.Parallel()

	b := testBuilder(nil, features.NewGroupA(), WindowLatest, "EUR_USD", "USD_JPY")
	series := [][]market.Candle{newestFirst(10, 1.08), newestFirst(10, 150)}

	a, err := b.Assemble(series)
	require.NoError(t, err)
	c, err := b.Assemble(series)
	require.NoError(t, err)

	require.Equal(t, len(a.Data), len(c.Data))
	for i := range a.Data {
		require.Equal(t, math.Float64bits(a.Data[i]), math.Float64bits(c.Data[i]), "index %d", i)
	}
	assert.Equal(t, 8, a.Features)
}

func TestAssembleErrors(t *testing.T) {
	t.Parallel()

	b := testBuilder(nil, rawPipeline{}, WindowLatest, "EUR_USD", "USD_JPY")
	_, err := b.Assemble([][]market.Candle{newestFirst(10, 0), newestFirst(9, 0)})
	assert.ErrorIs(t, err, ErrShortHistory)

	narrow := testBuilder(nil, rawPipeline{width: 1}, WindowLatest, "EUR_USD")
	_, err = narrow.Assemble([][]market.Candle{newestFirst(10, 0)})
	assert.ErrorIs(t, err, ErrFeatureWidth)
	assert.ErrorIs(t, err, features.ErrWidth)

	_, err = b.Assemble([][]market.Candle{newestFirst(10, 0)})
	assert.ErrorIs(t, err, ErrConfig)
}

func TestBuildFetchesEndingNow(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	gw.candles["EUR_USD"] = newestFirst(20, 0)
	b := testBuilder(gw, rawPipeline{}, WindowLatest, "EUR_USD")

	obs, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20.0, obs.At(2, 0, 0))
	assert.Equal(t, []time.Time{t0}, gw.candleEnds)

	missing := testBuilder(gw, rawPipeline{}, WindowLatest, "GBP_USD")
	_, err = missing.Build(context.Background())
	assert.Error(t, err)
}

func TestParseWindowing(t *testing.T) {
	t.Parallel()

	w, err := ParseWindowing("oldest")
	require.NoError(t, err)
	assert.Equal(t, WindowOldest, w)
	assert.Equal(t, "oldest", w.String())

	w, err = ParseWindowing("")
	require.NoError(t, err)
	assert.Equal(t, WindowLatest, w)

	_, err = ParseWindowing("middle")
	assert.ErrorIs(t, err, ErrConfig)
}
