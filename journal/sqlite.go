package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO trades
		(trade_id, symbol, direction, volume, entry_price, exit_price, open_time, close_time, realized_pl, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Symbol, t.Direction, t.Volume, t.EntryPrice,
		t.ExitPrice, t.OpenTime, t.CloseTime, t.RealizedPL, t.Reason,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(time, balance, equity, profit, margin_used, free_margin)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.Time, e.Balance, e.Equity, e.Profit, e.MarginUsed, e.FreeMargin,
	)
	return err
}

func (j *SQLite) RecordStep(s StepRecord) error {
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO steps
		(run_id, episode, step, time, trade_reward, reward, total_reward, balance, equity, initial_balance, branch, done)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.RunID, s.Episode, s.Step, s.Time, s.TradeReward, s.Reward, s.TotalReward,
		s.Balance, s.Equity, s.InitialBalance, s.Branch, s.Done,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
