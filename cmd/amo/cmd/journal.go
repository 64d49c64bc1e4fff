package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/cgmoganedi/amo-gym-rayan/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the SQLite journal",
	Long: `Query and display records from a SQLite journal.

Subcommands:
  steps  - List the steps of a run (default: the latest run)
  trades - List trades closed between two days
  trade  - Get details of a specific trade by ID

Examples:
  amo journal steps
  amo journal steps amo_20240304T090000Z_01HR...
  amo journal trades --from 2024-03-04 --to 2024-03-08
  amo journal trade <trade-id>`,
}

var journalStepsCmd = &cobra.Command{
	Use:   "steps [run-id]",
	Short: "List the steps of a run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runJournalSteps,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalTradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "List trades closed between two days (UTC, inclusive)",
	Args:  cobra.NoArgs,
	RunE:  runJournalTrades,
}

var (
	journalDBPath string
	tradesFrom    string
	tradesTo      string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalStepsCmd)
	journalCmd.AddCommand(journalTradesCmd)
	journalCmd.AddCommand(journalTradeCmd)

	journalTradesCmd.Flags().StringVar(&tradesFrom, "from", "", "first day, YYYY-MM-DD (default today)")
	journalTradesCmd.Flags().StringVar(&tradesTo, "to", "", "last day, YYYY-MM-DD (default --from)")

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./logs/amo.sqlite", "path to SQLite journal DB")
}

func runJournalSteps(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	var runID string
	if len(args) == 1 {
		runID = args[0]
	} else if runID, err = j.LatestRunID(); err != nil {
		return err
	}

	steps, err := j.ListSteps(runID)
	if err != nil {
		return fmt.Errorf("query steps: %w", err)
	}

	fmt.Printf("Run %s\n", runID)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Ep", "Step", "Time", "Balance", "Equity", "Trade", "Reward", "Total", "Branch", "Done"})
	for _, s := range steps {
		table.Append([]string{
			strconv.Itoa(s.Episode),
			strconv.Itoa(s.Step),
			s.Time.UTC().Format(time.DateTime),
			fmt.Sprintf("%.2f", s.Balance),
			fmt.Sprintf("%.2f", s.Equity),
			fmt.Sprintf("%.2f", s.TradeReward),
			fmt.Sprintf("%.4f", s.Reward),
			fmt.Sprintf("%.4f", s.TotalReward),
			s.Branch,
			strconv.FormatBool(s.Done),
		})
	}
	table.Render()
	return nil
}

// dayRange turns inclusive YYYY-MM-DD days into a [start, end) UTC range.
func dayRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	if from == "" {
		from = now.UTC().Format(time.DateOnly)
	}
	if to == "" {
		to = from
	}
	start, err := time.ParseInLocation(time.DateOnly, from, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--from: %w", err)
	}
	last, err := time.ParseInLocation(time.DateOnly, to, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--to: %w", err)
	}
	if last.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	return start, last.AddDate(0, 0, 1), nil
}

func runJournalTrades(cmd *cobra.Command, args []string) error {
	start, end, err := dayRange(tradesFrom, tradesTo, time.Now())
	if err != nil {
		return err
	}

	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	recs, err := j.ListTradesClosedBetween(start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	total := 0.0
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Trade", "Symbol", "Side", "Lots", "Entry", "Exit", "Closed", "P/L", "Reason"})
	for _, r := range recs {
		total += r.RealizedPL
		table.Append([]string{
			r.TradeID,
			r.Symbol,
			r.Direction,
			fmt.Sprintf("%.2f", r.Volume),
			fmt.Sprintf("%g", r.EntryPrice),
			fmt.Sprintf("%g", r.ExitPrice),
			r.CloseTime.UTC().Format(time.DateTime),
			fmt.Sprintf("%.2f", r.RealizedPL),
			r.Reason,
		})
	}
	table.SetFooter([]string{"", "", "", "", "", "", strconv.Itoa(len(recs)) + " trades", fmt.Sprintf("%.2f", total), ""})
	table.Render()
	return nil
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	rec, err := j.GetTrade(args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Field", "Value"})
	table.AppendBulk([][]string{
		{"Trade", rec.TradeID},
		{"Symbol", rec.Symbol},
		{"Direction", rec.Direction},
		{"Volume", fmt.Sprintf("%.2f", rec.Volume)},
		{"Entry", fmt.Sprintf("%g", rec.EntryPrice)},
		{"Exit", fmt.Sprintf("%g", rec.ExitPrice)},
		{"Opened", rec.OpenTime.UTC().Format(time.RFC3339)},
		{"Closed", rec.CloseTime.UTC().Format(time.RFC3339)},
		{"Realized P/L", fmt.Sprintf("%.2f", rec.RealizedPL)},
		{"Reason", rec.Reason},
	})
	table.Render()
	return nil
}
