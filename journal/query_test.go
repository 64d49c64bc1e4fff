package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTrade(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	open := time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC)
	close := time.Date(2024, 4, 10, 15, 30, 0, 0, time.UTC)

	expected := TradeRecord{
		TradeID:    "T123",
		Symbol:     "CAD_JPY",
		Direction:  "sell",
		Volume:     0.06,
		EntryPrice: 110.512,
		ExitPrice:  110.250,
		OpenTime:   open,
		CloseTime:  close,
		RealizedPL: 157.2,
		Reason:     "ProfitTake",
	}
	require.NoError(t, j.RecordTrade(expected))

	actual, err := j.GetTrade("T123")
	require.NoError(t, err)

	assert.Equal(t, expected.TradeID, actual.TradeID)
	assert.Equal(t, expected.Symbol, actual.Symbol)
	assert.Equal(t, expected.Direction, actual.Direction)
	assert.InDelta(t, expected.Volume, actual.Volume, 1e-9)
	assert.InDelta(t, expected.EntryPrice, actual.EntryPrice, 1e-9)
	assert.InDelta(t, expected.ExitPrice, actual.ExitPrice, 1e-9)
	assert.True(t, actual.OpenTime.Equal(expected.OpenTime))
	assert.True(t, actual.CloseTime.Equal(expected.CloseTime))
	assert.InDelta(t, expected.RealizedPL, actual.RealizedPL, 1e-6)
	assert.Equal(t, expected.Reason, actual.Reason)
}

func TestGetTradeNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	_, err := j.GetTrade("nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListTradesClosedBetween(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	day := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"A", "B", "C"} {
		closeT := day.Add(time.Duration(i*12) * time.Hour)
		require.NoError(t, j.RecordTrade(TradeRecord{
			TradeID: id, Symbol: "EUR_JPY", Direction: "buy", Volume: 0.01,
			OpenTime: closeT.Add(-time.Hour), CloseTime: closeT, Reason: "x",
		}))
	}

	got, err := j.ListTradesClosedBetween(day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].TradeID)
	assert.Equal(t, "B", got[1].TradeID)
}

func TestListSteps(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	ts := time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC)
	for step := 3; step >= 1; step-- {
		require.NoError(t, j.RecordStep(StepRecord{
			RunID: "run-1", Episode: 1, Step: step, Time: ts.Add(time.Duration(step) * time.Minute),
			Reward: float64(step), Branch: "none", Done: step == 3,
		}))
	}
	require.NoError(t, j.RecordStep(StepRecord{RunID: "run-2", Episode: 1, Step: 1, Time: ts, Branch: "none"}))

	steps, err := j.ListSteps("run-1")
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, 1, steps[0].Step)
	assert.Equal(t, 3, steps[2].Step)
	assert.True(t, steps[2].Done)
	assert.False(t, steps[0].Done)

	latest, err := j.LatestRunID()
	require.NoError(t, err)
	assert.Equal(t, "run-1", latest)
}
