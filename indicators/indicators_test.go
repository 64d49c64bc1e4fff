package indicators

import (
	"testing"

	"github.com/cgmoganedi/amo-gym-rayan/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMA(t *testing.T) {
	t.Parallel()

	got, err := SMA([]float64{1, 2, 3, 4, 5, 6}, 3)
	require.NoError(t, err)
	// partial windows at the start
	assert.InDeltaSlice(t, []float64{1, 1.5, 2, 3, 4, 5}, got, 1e-12)

	_, err = SMA([]float64{1}, 0)
	assert.Error(t, err)
}

func TestEMA(t *testing.T) {
	t.Parallel()

	got, err := EMA([]float64{10, 20, 20}, 3)
	require.NoError(t, err)
	// multiplier 0.5
	assert.InDeltaSlice(t, []float64{10, 15, 17.5}, got, 1e-12)

	empty, err := EMA(nil, 3)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestBollinger(t *testing.T) {
	t.Parallel()

	closes := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	bs, err := Bollinger(closes, 8, 2)
	require.NoError(t, err)

	// full window: mean 5, population sd 2
	assert.InDelta(t, 5.0, bs.Mavg[7], 1e-12)
	assert.InDelta(t, 9.0, bs.Upper[7], 1e-12)
	assert.InDelta(t, 1.0, bs.Lower[7], 1e-12)
	assert.Equal(t, 0.0, bs.UpperHit[7])

	// single value window has zero width
	assert.Equal(t, 2.0, bs.Mavg[0])
	assert.Equal(t, bs.Mavg[0], bs.Upper[0])
	assert.Equal(t, 0.0, bs.UpperHit[0])
}

func TestBollingerBreakout(t *testing.T) {
	t.Parallel()

	closes := []float64{1, 1, 1, 1, 10}
	bs, err := Bollinger(closes, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, bs.UpperHit[4])
	assert.Equal(t, 0.0, bs.LowerHit[4])

	closes = []float64{10, 10, 10, 10, 1}
	bs, err = Bollinger(closes, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, bs.LowerHit[4])
}

func TestCCI(t *testing.T) {
	t.Parallel()

	tp := []float64{1, 2, 3}
	got, err := CCI(tp, 3, 0.015)
	require.NoError(t, err)

	// first window is flat
	assert.Equal(t, 0.0, got[0])
	// window {1,2}: mean 1.5, mad 0.5 -> 0.5/(0.015*0.5)
	assert.InDelta(t, 0.5/(0.015*0.5), got[1], 1e-9)
	// window {1,2,3}: mean 2, mad 2/3
	assert.InDelta(t, 1/(0.015*(2.0/3.0)), got[2], 1e-9)

	_, err = CCI(tp, 3, 0)
	assert.Error(t, err)
}

func TestNormalizeMaxAbs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []float64{0.5, -1, 0.25}, NormalizeMaxAbs([]float64{2, -4, 1}))
	assert.Equal(t, []float64{0, 0}, NormalizeMaxAbs([]float64{0, 0}))

	assert.Equal(t, 4.0, MaxAbs([]float64{2, -4, 1}))
	assert.Zero(t, MaxAbs(nil))

	in := []float64{3, -6}
	out := Scale(in, 3)
	assert.Equal(t, []float64{1, -2}, out)
	same := Scale(in, 0)
	assert.Equal(t, in, same)
	same[0] = 99
	assert.Equal(t, 3.0, in[0], "Scale must copy")
}

func TestExtractors(t *testing.T) {
	t.Parallel()

	candles := []market.Candle{{High: 3, Low: 1, Close: 2}, {High: 6, Low: 3, Close: 6}}
	assert.Equal(t, []float64{2, 6}, Closes(candles))
	assert.Equal(t, []float64{2, 5}, Typicals(candles))
}
