package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cgmoganedi/amo-gym-rayan/agent"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score a policy over several episodes",
	Long: `Run N episodes and report the mean and standard deviation of the
total reward per episode.

Example:
  amo evaluate -c amo.yaml --episodes 10`,
	RunE: runEvaluate,
}

var evalEpisodes int

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().IntVar(&evalEpisodes, "episodes", 0, "override agent.episodes")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	episodes := cfg.Agent.Episodes
	if evalEpisodes > 0 {
		episodes = evalEpisodes
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	ev, err := agent.Evaluate(ctx, s.env, s.policy, episodes, cfg.Agent.MaxSteps, log.StandardLogger())
	if err != nil {
		if len(ev.Episodes) == 0 || !endOfData(err) {
			return fmt.Errorf("evaluate: %w", err)
		}
		log.WithError(err).Warnf("evaluation stopped after %d of %d episodes", len(ev.Episodes), episodes)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Episode", "Steps", "Done", "Reward"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for i, r := range ev.Episodes {
		table.Append([]string{
			strconv.Itoa(i + 1),
			strconv.Itoa(r.Steps),
			strconv.FormatBool(r.Done),
			fmt.Sprintf("%.4f", r.Reward),
		})
	}
	table.SetFooter([]string{"", "", "mean ± std", fmt.Sprintf("%.4f ± %.4f", ev.Mean, ev.Std)})
	table.Render()

	fmt.Printf("min %.4f  median %.4f  max %.4f\n", ev.Min, ev.Median, ev.Max)
	return nil
}
