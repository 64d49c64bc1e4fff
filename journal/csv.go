// journal/csv.go
package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

type CSVJournal struct {
	trades *csv.Writer
	equity *csv.Writer
	steps  *csv.Writer
	files  []*os.File
}

var (
	tradesHeader = []string{"trade_id", "symbol", "direction", "volume", "entry_price", "exit_price", "open_time", "close_time", "realized_pl", "reason"}
	equityHeader = []string{"time", "balance", "equity", "profit", "margin_used", "free_margin"}
	stepsHeader  = []string{"run_id", "episode", "step", "time", "trade_reward", "reward", "total_reward", "balance", "equity", "initial_balance", "branch", "done"}
)

func NewCSV(tradesPath, equityPath, stepsPath string) (*CSVJournal, error) {
	j := &CSVJournal{}

	open := func(path string, header []string) (*csv.Writer, error) {
		fh, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		j.files = append(j.files, fh)

		w := csv.NewWriter(fh)
		if err := w.Write(header); err != nil {
			return nil, err
		}
		w.Flush()
		return w, w.Error()
	}

	var err error
	if j.trades, err = open(tradesPath, tradesHeader); err != nil {
		j.closeFiles()
		return nil, err
	}
	if j.equity, err = open(equityPath, equityHeader); err != nil {
		j.closeFiles()
		return nil, err
	}
	if j.steps, err = open(stepsPath, stepsHeader); err != nil {
		j.closeFiles()
		return nil, err
	}
	return j, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	return j.write(j.trades, []string{
		t.TradeID,
		t.Symbol,
		t.Direction,
		f(t.Volume),
		f(t.EntryPrice),
		f(t.ExitPrice),
		t.OpenTime.Format(time.RFC3339),
		t.CloseTime.Format(time.RFC3339),
		f(t.RealizedPL),
		t.Reason,
	})
}

func (j *CSVJournal) RecordEquity(e EquitySnapshot) error {
	return j.write(j.equity, []string{
		e.Time.Format(time.RFC3339),
		f(e.Balance),
		f(e.Equity),
		f(e.Profit),
		f(e.MarginUsed),
		f(e.FreeMargin),
	})
}

func (j *CSVJournal) RecordStep(s StepRecord) error {
	return j.write(j.steps, []string{
		s.RunID,
		strconv.Itoa(s.Episode),
		strconv.Itoa(s.Step),
		s.Time.Format(time.RFC3339),
		f(s.TradeReward),
		f(s.Reward),
		f(s.TotalReward),
		f(s.Balance),
		f(s.Equity),
		f(s.InitialBalance),
		s.Branch,
		strconv.FormatBool(s.Done),
	})
}

func (j *CSVJournal) write(w *csv.Writer, row []string) error {
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (j *CSVJournal) Close() error {
	for _, w := range []*csv.Writer{j.trades, j.equity, j.steps} {
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
	}
	return j.closeFiles()
}

func (j *CSVJournal) closeFiles() error {
	var first error
	for _, fh := range j.files {
		if err := fh.Close(); err != nil && first == nil {
			first = err
		}
	}
	j.files = nil
	return first
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
