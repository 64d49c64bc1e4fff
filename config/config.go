package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cgmoganedi/amo-gym-rayan/env"
	"github.com/cgmoganedi/amo-gym-rayan/features"
	"github.com/cgmoganedi/amo-gym-rayan/journal"
	"github.com/cgmoganedi/amo-gym-rayan/market"
	"github.com/cgmoganedi/amo-gym-rayan/risk"
)

// Config represents a complete run of the trading environment
type Config struct {
	Run     RunConfig        `json:"run" yaml:"run"`
	Env     EnvConfig        `json:"env" yaml:"env"`
	Trading TradingConfig    `json:"trading" yaml:"trading"`
	Reward  env.RewardConfig `json:"reward" yaml:"reward"`
	Broker  BrokerConfig     `json:"broker" yaml:"broker"`
	Journal JournalConfig    `json:"journal" yaml:"journal"`
	Agent   AgentConfig      `json:"agent" yaml:"agent"`
	Log     LogConfig        `json:"log" yaml:"log"`
}

// RunConfig names a session and where its artifacts go
type RunConfig struct {
	Name     string `json:"name" yaml:"name"`
	ModelDir string `json:"model_dir" yaml:"model_dir"`
	LogDir   string `json:"log_dir" yaml:"log_dir"`
}

// EnvConfig contains observation and action parameters
type EnvConfig struct {
	Symbols      []string `json:"symbols" yaml:"symbols"`
	WindowSize   int      `json:"window_size" yaml:"window_size"`
	NCandles     int      `json:"n_candles" yaml:"n_candles"`
	Timeframe    string   `json:"timeframe" yaml:"timeframe"`
	FeatureGroup string   `json:"feature_group" yaml:"feature_group"`
	Windowing    string   `json:"windowing" yaml:"windowing"` // "latest" or "oldest"
	Collect      string   `json:"collect" yaml:"collect"`     // "odd" or "all"
	Threshold    float64  `json:"threshold" yaml:"threshold"`
}

// TradingConfig contains position management parameters
type TradingConfig struct {
	Sizing        risk.Sizing `json:"sizing" yaml:"sizing"`
	ProfitTakePct float64     `json:"profit_take_pct" yaml:"profit_take_pct"`
	StaleAfter    string      `json:"stale_after" yaml:"stale_after"` // e.g. "36h"
}

// BrokerConfig selects the gateway
type BrokerConfig struct {
	Type  string      `json:"type" yaml:"type"` // "sim" or "oanda"
	Sim   SimConfig   `json:"sim" yaml:"sim"`
	OANDA OANDAConfig `json:"oanda" yaml:"oanda"`
}

// SimConfig contains candle replay parameters
type SimConfig struct {
	Candles         map[string]string `json:"candles" yaml:"candles"` // symbol -> CSV path
	AccountID       string            `json:"account_id" yaml:"account_id"`
	Currency        string            `json:"currency" yaml:"currency"`
	Balance         float64           `json:"balance" yaml:"balance"`
	SpreadPoints    float64           `json:"spread_points" yaml:"spread_points"`
	DeviationPoints float64           `json:"deviation_points" yaml:"deviation_points"`
}

// OANDAConfig names the environment variables holding credentials
type OANDAConfig struct {
	Environment  string `json:"environment" yaml:"environment"` // "practice" or "live"
	AllowLive    bool   `json:"allow_live" yaml:"allow_live"`
	AccountIDEnv string `json:"account_id_env" yaml:"account_id_env"`
	TokenEnv     string `json:"token_env" yaml:"token_env"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	StepsFile  string `json:"steps_file,omitempty" yaml:"steps_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// AgentConfig selects the policy driving the environment
type AgentConfig struct {
	Policy      string `json:"policy" yaml:"policy"` // "random" or "onnx"
	ModelPath   string `json:"model_path,omitempty" yaml:"model_path,omitempty"`
	LibraryPath string `json:"library_path,omitempty" yaml:"library_path,omitempty"`
	Episodes    int    `json:"episodes" yaml:"episodes"`
	MaxSteps    int    `json:"max_steps" yaml:"max_steps"` // 0 runs until done
	Seed        int64  `json:"seed" yaml:"seed"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
	JSON  bool   `json:"json" yaml:"json"`
}

// LoadFromFile loads configuration from a file (YAML, falling back to JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Unset fields keep their defaults
	cfg := Default()

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := c.EnvConfig(""); err != nil {
		return err
	}
	if _, err := c.Pipeline(); err != nil {
		return err
	}

	switch c.Broker.Type {
	case "sim":
		if c.Broker.Sim.Balance <= 0 {
			return fmt.Errorf("broker.sim.balance must be positive")
		}
		files := c.CandleFiles()
		for _, s := range c.Env.Symbols {
			if _, ok := files[market.Normalize(s)]; !ok {
				return fmt.Errorf("broker.sim.candles has no file for %s", s)
			}
		}
	case "oanda":
		if c.Broker.OANDA.TokenEnv == "" || c.Broker.OANDA.AccountIDEnv == "" {
			return fmt.Errorf("broker.oanda token_env and account_id_env are required")
		}
		if c.Broker.OANDA.Environment == "live" && !c.Broker.OANDA.AllowLive {
			return fmt.Errorf("broker.oanda live environment requires allow_live")
		}
	default:
		return fmt.Errorf("broker.type must be 'sim' or 'oanda'")
	}

	switch c.Journal.Type {
	case "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" || c.Journal.StepsFile == "" {
			return fmt.Errorf("journal trades_file, equity_file and steps_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}

	switch c.Agent.Policy {
	case "random":
	case "onnx":
		if c.Agent.ModelPath == "" {
			return fmt.Errorf("agent.model_path required for onnx policy")
		}
	default:
		return fmt.Errorf("agent.policy must be 'random' or 'onnx'")
	}
	if c.Agent.Episodes <= 0 {
		return fmt.Errorf("agent.episodes must be positive")
	}
	if c.Agent.MaxSteps < 0 {
		return fmt.Errorf("agent.max_steps must not be negative")
	}
	return nil
}

// EnvConfig converts the file settings into an env.Config tagged with runID.
func (c *Config) EnvConfig(runID string) (env.Config, error) {
	tf, err := market.ParseTimeframe(c.Env.Timeframe)
	if err != nil {
		return env.Config{}, fmt.Errorf("env.timeframe: %w", err)
	}
	windowing, err := env.ParseWindowing(c.Env.Windowing)
	if err != nil {
		return env.Config{}, err
	}

	var collect env.IndexFilter
	switch c.Env.Collect {
	case "", "odd":
		collect = env.OddIndexed
	case "all":
		collect = env.AllPositions
	default:
		return env.Config{}, fmt.Errorf("%w: env.collect must be 'odd' or 'all'", env.ErrConfig)
	}

	var stale time.Duration
	if c.Trading.StaleAfter != "" {
		if stale, err = time.ParseDuration(c.Trading.StaleAfter); err != nil {
			return env.Config{}, fmt.Errorf("%w: trading.stale_after: %w", env.ErrConfig, err)
		}
	}

	ec := env.Config{
		Symbols:       c.Env.Symbols,
		WindowSize:    c.Env.WindowSize,
		NCandles:      c.Env.NCandles,
		Timeframe:     tf,
		Windowing:     windowing,
		Threshold:     c.Env.Threshold,
		Sizing:        c.Trading.Sizing,
		ProfitTakePct: c.Trading.ProfitTakePct,
		StaleAfter:    stale,
		Collect:       collect,
		Reward:        c.Reward,
		RunID:         runID,
	}
	if err := ec.Validate(); err != nil {
		return env.Config{}, err
	}
	return ec, nil
}

// CandleFiles returns broker.sim.candles keyed by normalized symbol.
func (c *Config) CandleFiles() map[string]string {
	out := make(map[string]string, len(c.Broker.Sim.Candles))
	for sym, path := range c.Broker.Sim.Candles {
		out[market.Normalize(sym)] = path
	}
	return out
}

// Pipeline looks up the configured feature group.
func (c *Config) Pipeline() (features.Pipeline, error) {
	p, err := features.Lookup(c.Env.FeatureGroup)
	if err != nil {
		return nil, fmt.Errorf("env.feature_group: %w (available: %s)", err, strings.Join(features.Groups(), ", "))
	}
	return p, nil
}

// OpenJournal creates the configured journal. Relative paths are resolved
// against run.log_dir.
func (c *Config) OpenJournal() (journal.Journal, error) {
	in := func(p string) string {
		if c.Run.LogDir == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(c.Run.LogDir, p)
	}
	if c.Run.LogDir != "" && c.Journal.Type != "none" {
		if err := os.MkdirAll(c.Run.LogDir, 0755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}

	switch c.Journal.Type {
	case "csv":
		return journal.NewCSV(in(c.Journal.TradesFile), in(c.Journal.EquityFile), in(c.Journal.StepsFile))
	case "sqlite":
		return journal.NewSQLite(in(c.Journal.DBPath))
	}
	return journal.Discard, nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	ec := env.DefaultConfig("EURUSD", "USDJPY")

	return &Config{
		Run: RunConfig{
			Name:     "amo",
			ModelDir: "./models",
			LogDir:   "./logs",
		},
		Env: EnvConfig{
			Symbols:      ec.Symbols,
			WindowSize:   ec.WindowSize,
			NCandles:     ec.NCandles,
			Timeframe:    ec.Timeframe.String(),
			FeatureGroup: "GROUP_A",
			Windowing:    ec.Windowing.String(),
			Collect:      "odd",
			Threshold:    ec.Threshold,
		},
		Trading: TradingConfig{
			Sizing:        ec.Sizing,
			ProfitTakePct: ec.ProfitTakePct,
			StaleAfter:    ec.StaleAfter.String(),
		},
		Reward: ec.Reward,
		Broker: BrokerConfig{
			Type: "sim",
			Sim: SimConfig{
				Candles: map[string]string{
					"EURUSD": "./data/EURUSD_M1.csv",
					"USDJPY": "./data/USDJPY_M1.csv",
				},
				AccountID:    "SIM-001",
				Currency:     "USD",
				Balance:      1000,
				SpreadPoints: 10,
			},
			OANDA: OANDAConfig{
				Environment:  "practice",
				AccountIDEnv: "OANDA_ACCOUNT_ID",
				TokenEnv:     "OANDA_TOKEN",
			},
		},
		Journal: JournalConfig{
			Type:       "csv",
			TradesFile: "trades.csv",
			EquityFile: "equity.csv",
			StepsFile:  "steps.csv",
		},
		Agent: AgentConfig{
			Policy:   "random",
			Episodes: 1,
			Seed:     1,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
