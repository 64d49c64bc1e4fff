package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cgmoganedi/amo-gym-rayan/agent"
	"github.com/cgmoganedi/amo-gym-rayan/broker/sim"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive the environment with the configured policy",
	Long: `Run episodes of the trading environment using the policy and broker
named in the configuration file. Against the simulator the run stops
early when the candle history runs out.

Example:
  amo run -c amo.yaml --episodes 3`,
	RunE: runRun,
}

var (
	runEpisodes int
	runMaxSteps int
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&runEpisodes, "episodes", 0, "override agent.episodes")
	runCmd.Flags().IntVar(&runMaxSteps, "max-steps", -1, "override agent.max_steps (0 runs until done)")
}

// endOfData reports whether err is a normal way for a run to stop.
func endOfData(err error) bool {
	return errors.Is(err, sim.ErrHistoryExhausted) || errors.Is(err, context.Canceled)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	episodes := cfg.Agent.Episodes
	if runEpisodes > 0 {
		episodes = runEpisodes
	}
	maxSteps := cfg.Agent.MaxSteps
	if runMaxSteps >= 0 {
		maxSteps = runMaxSteps
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Printf("Run %s: %d episode(s) on %v\n", s.runID, episodes, s.env.Symbols())

	for i := 1; i <= episodes; i++ {
		res, err := agent.Run(ctx, s.env, s.policy, maxSteps, log.WithField("episode", i))
		fmt.Printf("  episode %d: %d steps, reward %.4f", i, res.Steps, res.Reward)
		if res.Info != nil {
			fmt.Printf(", profit %.2f", res.Info.TotalProfit)
		}
		fmt.Println()

		if err != nil {
			if endOfData(err) {
				log.WithError(err).Info("run stopped")
				break
			}
			return fmt.Errorf("episode %d: %w", i, err)
		}
	}
	return nil
}
