package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cgmoganedi/amo-gym-rayan/config"
	"github.com/cgmoganedi/amo-gym-rayan/features"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage configuration files for environment runs.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  amo config init -o amo.yaml
  amo config validate -c amo.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	RunE:  runConfigValidate,
}

var configInitOutput string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "amo.yaml", "output config file path")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("✓ Created default configuration: %s\n", configInitOutput)
	fmt.Println("\nEdit the file and run with:")
	fmt.Printf("  amo run -c %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Printf("✓ Configuration valid: %s\n", configPath)
	fmt.Printf("  Symbols: %v (%s, window %d of %d)\n", cfg.Env.Symbols, cfg.Env.Timeframe, cfg.Env.WindowSize, cfg.Env.NCandles)
	fmt.Printf("  Features: %s of %v, windowing %s\n", cfg.Env.FeatureGroup, features.Groups(), cfg.Env.Windowing)
	fmt.Printf("  Broker: %s\n", cfg.Broker.Type)
	fmt.Printf("  Policy: %s (%d episodes)\n", cfg.Agent.Policy, cfg.Agent.Episodes)
	fmt.Printf("  Journal: %s\n", cfg.Journal.Type)
	return nil
}
