package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cgmoganedi/amo-gym-rayan/config"
)

var rootCmd = &cobra.Command{
	Use:   "amo",
	Short: "A reinforcement learning environment for FX trading",
	Long: `Amo runs trading agents against a step based FX environment.

Each step the agent emits one action per symbol in [-1, 1]. Strong
actions open positions, mid-range actions close stale or profitable
ones, and the environment scores the account's health as the reward.

The broker is either a candle replay simulator or an OANDA v20 account.

Examples:
  amo config init -o amo.yaml
  amo run -c amo.yaml
  amo evaluate -c amo.yaml --episodes 10
  amo journal steps --db logs/amo.sqlite`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Credentials may live in a .env file; its absence is fine
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	},
}

var (
	configPath string
	envFile    string
	logLevel   string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "amo.yaml", "path to config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "file of environment variables to load")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level from the config")
}

// loadConfig reads the config file and applies its log settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.Log)
	return cfg, nil
}

func setupLogging(lc config.LogConfig) {
	if lc.JSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	log.SetOutput(os.Stderr)

	name := lc.Level
	if logLevel != "" {
		name = logLevel
	}
	level, err := log.ParseLevel(name)
	if err != nil {
		log.SetLevel(log.InfoLevel)
	} else {
		log.SetLevel(level)
	}
}
