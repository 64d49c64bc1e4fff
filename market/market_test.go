package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"EURJPY", "EUR_JPY"},
		{"eur_jpy", "EUR_JPY"},
		{"EUR/JPY", "EUR_JPY"},
		{" cadjpy ", "CAD_JPY"},
		{"XAUUSD.m", "XAUUSD.M"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestInstrumentPoint(t *testing.T) {
	t.Parallel()

	jpy, err := Lookup("CADJPY")
	require.NoError(t, err)
	assert.InDelta(t, 0.001, jpy.Point(), 1e-12)

	eur, err := Lookup("EUR_USD")
	require.NoError(t, err)
	assert.InDelta(t, 0.00001, eur.Point(), 1e-15)

	_, err = Lookup("XXXYYY")
	assert.Error(t, err)
}

func TestReversed(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	in := []Candle{
		{Time: t0.Add(2 * time.Minute), Close: 3},
		{Time: t0.Add(time.Minute), Close: 2},
		{Time: t0, Close: 1},
	}
	out := Reversed(in)
	assert.Equal(t, []float64{1, 2, 3}, []float64{out[0].Close, out[1].Close, out[2].Close})
	// input untouched
	assert.Equal(t, 3.0, in[0].Close)

	SortChronological(in)
	assert.Equal(t, t0, in[0].Time)
}

func TestTimeframeRoundTrip(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"M1", "M5", "M15", "M30", "H1", "H4", "D1", "W1"} {
		tf, err := ParseTimeframe(s)
		require.NoError(t, err)
		assert.Equal(t, s, tf.String())
	}

	_, err := ParseTimeframe("M7")
	assert.Error(t, err)
}

func TestQuoteToAccountRate(t *testing.T) {
	t.Parallel()

	qs := NewQuoteStore()
	qs.Set(Quote{Symbol: "USD_JPY", Bid: 149.99, Ask: 150.01})

	rate, err := QuoteToAccountRate("EUR_USD", "USD", qs)
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)

	rate, err = QuoteToAccountRate("USD_JPY", "USD", qs)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/150.0, rate, 1e-12)

	// cross resolved through USD_JPY
	rate, err = QuoteToAccountRate("CAD_JPY", "USD", qs)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/150.0, rate, 1e-12)

	rate, err = QuoteToAccountRate("CAD_JPY", "JPY", qs)
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)

	_, err = QuoteToAccountRate("GBP_USD", "EUR", qs)
	assert.Error(t, err)
}
