package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const tradeColumns = `trade_id, symbol, direction, volume, entry_price, exit_price, open_time, close_time, realized_pl, reason`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(row rowScanner) (TradeRecord, error) {
	var rec TradeRecord
	err := row.Scan(
		&rec.TradeID,
		&rec.Symbol,
		&rec.Direction,
		&rec.Volume,
		&rec.EntryPrice,
		&rec.ExitPrice,
		&rec.OpenTime,
		&rec.CloseTime,
		&rec.RealizedPL,
		&rec.Reason,
	)
	return rec, err
}

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(`SELECT `+tradeColumns+` FROM trades WHERE trade_id = ?`, tradeID)

	rec, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesClosedBetween returns trades whose close_time is within [start, end).
func (j *SQLite) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE close_time >= ? AND close_time < ?
		ORDER BY close_time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListSteps returns every step of a run ordered by episode then step.
func (j *SQLite) ListSteps(runID string) ([]StepRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, episode, step, time, trade_reward, reward, total_reward,
		       balance, equity, initial_balance, branch, done
		FROM steps
		WHERE run_id = ?
		ORDER BY episode ASC, step ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StepRecord
	for rows.Next() {
		var s StepRecord
		if err := rows.Scan(
			&s.RunID, &s.Episode, &s.Step, &s.Time, &s.TradeReward, &s.Reward, &s.TotalReward,
			&s.Balance, &s.Equity, &s.InitialBalance, &s.Branch, &s.Done,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LatestRunID returns the run that recorded the most recent step.
func (j *SQLite) LatestRunID() (string, error) {
	var runID string
	err := j.db.QueryRow(`SELECT run_id FROM steps ORDER BY time DESC LIMIT 1`).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("no steps recorded")
	}
	return runID, err
}
