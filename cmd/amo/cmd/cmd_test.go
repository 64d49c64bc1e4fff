package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgmoganedi/amo-gym-rayan/broker/sim"
	"github.com/cgmoganedi/amo-gym-rayan/config"
	"github.com/cgmoganedi/amo-gym-rayan/journal"
)

func TestEndOfData(t *testing.T) {
	assert.True(t, endOfData(fmt.Errorf("step 3 pause: %w", sim.ErrHistoryExhausted)))
	assert.True(t, endOfData(context.Canceled))
	assert.False(t, endOfData(sim.ErrNoHistory))
}

func TestSetupLogging(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)

	setupLogging(config.LogConfig{Level: "debug"})
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	setupLogging(config.LogConfig{Level: "nonsense"})
	assert.Equal(t, log.InfoLevel, log.GetLevel())
}

func TestConfigInitThenValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "amo.yaml")

	rootCmd.SetArgs([]string{"config", "init", "-o", path, "--env-file", filepath.Join(t.TempDir(), "missing.env")})
	require.NoError(t, rootCmd.Execute())

	rootCmd.SetArgs([]string{"config", "validate", "-c", path})
	require.NoError(t, rootCmd.Execute())

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Env, cfg.Env)
}

func TestDayRange(t *testing.T) {
	now := time.Date(2024, 3, 6, 15, 30, 0, 0, time.UTC)
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name      string
		from, to  string
		wantStart time.Time
		wantEnd   time.Time
		wantErr   bool
	}{
		{"defaults to today", "", "", day(6), day(7), false},
		{"single day", "2024-03-04", "", day(4), day(5), false},
		{"inclusive range", "2024-03-04", "2024-03-08", day(4), day(9), false},
		{"reversed", "2024-03-08", "2024-03-04", time.Time{}, time.Time{}, true},
		{"bad date", "03/04/2024", "", time.Time{}, time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := dayRange(tt.from, tt.to, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestJournalTradesCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "amo.sqlite")
	j, err := journal.NewSQLite(db)
	require.NoError(t, err)
	closed := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(journal.TradeRecord{
		TradeID:    "T1",
		Symbol:     "EUR_USD",
		Direction:  "buy",
		Volume:     0.03,
		EntryPrice: 1.1,
		ExitPrice:  1.101,
		OpenTime:   closed.Add(-time.Hour),
		CloseTime:  closed,
		RealizedPL: 3,
		Reason:     "TakeProfit",
	}))
	require.NoError(t, j.Close())

	rootCmd.SetArgs([]string{"journal", "trades", "--db", db, "--from", "2024-03-04", "--to", "2024-03-05",
		"--env-file", filepath.Join(t.TempDir(), "missing.env")})
	assert.NoError(t, rootCmd.Execute())

	rootCmd.SetArgs([]string{"journal", "trades", "--db", db, "--from", "2024-03-06", "--to", "2024-03-05"})
	assert.Error(t, rootCmd.Execute())
}
