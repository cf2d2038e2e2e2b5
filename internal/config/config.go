package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"FuturesSentinel/internal/calculator"
	"FuturesSentinel/internal/collector"
	"FuturesSentinel/internal/logger"
	"FuturesSentinel/internal/model"
	"FuturesSentinel/internal/report"
	"FuturesSentinel/internal/strategy"
)

// DataSource selects the bar source and bar frequency.
type DataSource struct {
	collector.Config `yaml:",inline"`
	Frequency        string `yaml:"frequency"`
}

// Signal holds the recommendation settings.
type Signal struct {
	Weights        strategy.Weights     `yaml:"weights"`
	HighConfidence float64              `yaml:"high_confidence"`
	Levels         strategy.LevelConfig `yaml:",inline"`
}

// Orchestrator bounds batch concurrency and source load.
type Orchestrator struct {
	Workers       int           `yaml:"workers"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	Burst         int           `yaml:"burst"`
	SymbolTimeout time.Duration `yaml:"symbol_timeout"`
}

// Config holds all application configuration.
type Config struct {
	DataSource   DataSource        `yaml:"data_source"`
	Symbols      []string          `yaml:"symbols"`
	Analysis     calculator.Config `yaml:"analysis"`
	Signal       Signal            `yaml:"signal"`
	Orchestrator Orchestrator      `yaml:"orchestrator"`
	Database     struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
		Polling  bool   `yaml:"polling"`
	} `yaml:"telegram"`
	Schedule struct {
		DailyCron  string `yaml:"daily_cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Report struct {
		Format    string `yaml:"format"`
		OutputDir string `yaml:"output_dir"`
	} `yaml:"report"`
	Log logger.Config `yaml:"log"`
	API struct {
		Listen string `yaml:"listen"`
	} `yaml:"api"`
}

// DefaultSymbols are analyzed when the config names none.
var DefaultSymbols = []string{"RB", "I", "J", "JM", "CU", "AL", "AU", "SC", "M", "TA"}

// Default returns a configuration with every field set to its default.
func Default() *Config {
	cfg := &Config{}
	cfg.DataSource.Kind = "mock"
	cfg.DataSource.Frequency = string(model.FrequencyDaily)
	cfg.DataSource.LookbackDays = collector.DefaultLookbackDays
	cfg.Symbols = append([]string(nil), DefaultSymbols...)
	cfg.Analysis = calculator.DefaultConfig()
	cfg.Signal.Weights = strategy.DefaultWeights()
	cfg.Signal.HighConfidence = report.DefaultHighConfidence
	cfg.Signal.Levels = strategy.DefaultLevelConfig()
	cfg.Orchestrator = Orchestrator{Workers: 4, RatePerSecond: 1, Burst: 1, SymbolTimeout: 30 * time.Second}
	cfg.Database.SQLitePath = "data/futures_sentinel.db"
	cfg.Schedule.DailyCron = "0 0 16 * * 1-5"
	cfg.Report.Format = string(report.FormatConsole)
	cfg.Report.OutputDir = "reports"
	cfg.Log = logger.DefaultConfig()
	cfg.API.Listen = ":8080"
	return cfg
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := getenv("VSTRADER_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := getenv("VSTRADER_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := getenv("HTTPS_PROXY"); v != "" {
		c.DataSource.Proxy = v
	}
	if v := getenv("DAILY_CRON"); v != "" {
		c.Schedule.DailyCron = v
	}
	if v := getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("SENTINEL_SYMBOLS"); v != "" {
		c.Symbols = splitSymbols(v)
	}
	if v := getenv("RUN_ON_START"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Schedule.RunOnStart = b
		}
	}
}

func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Frequency returns the parsed bar frequency.
func (c *Config) Frequency() model.Frequency {
	f, err := model.ParseFrequency(c.DataSource.Frequency)
	if err != nil {
		return model.FrequencyDaily
	}
	return f
}

// ReportFormat returns the parsed report format.
func (c *Config) ReportFormat() report.Format {
	f, err := report.ParseFormat(c.Report.Format)
	if err != nil {
		return report.FormatConsole
	}
	return f
}

// TelegramEnabled reports whether both bot token and chat id are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks every section and reports all problems together.
func (c *Config) Validate() error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	switch c.DataSource.Kind {
	case "", "mock", "yahoo":
	case "vstrader":
		if c.DataSource.BaseURL == "" {
			add(errors.New("data_source.base_url is required for vstrader"))
		}
	case "csv":
		if c.DataSource.CSVDir == "" {
			add(errors.New("data_source.csv_dir is required for csv"))
		}
	default:
		add(fmt.Errorf("data_source.kind %q is not one of yahoo, vstrader, csv, mock", c.DataSource.Kind))
	}
	if _, err := model.ParseFrequency(c.DataSource.Frequency); err != nil {
		add(fmt.Errorf("data_source.frequency: %w", err))
	}
	if c.DataSource.LookbackDays < 0 {
		add(errors.New("data_source.lookback_days must not be negative"))
	}

	if len(c.Symbols) == 0 {
		add(errors.New("symbols must not be empty"))
	}
	for _, s := range c.Symbols {
		if strings.TrimSpace(s) == "" {
			add(errors.New("symbols must not contain blanks"))
			break
		}
	}

	if err := c.Analysis.Validate(); err != nil {
		add(fmt.Errorf("analysis: %w", err))
	}
	if err := c.Signal.Weights.Validate(); err != nil {
		add(fmt.Errorf("signal.weights: %w", err))
	}
	if err := c.Signal.Levels.Validate(); err != nil {
		add(fmt.Errorf("signal: %w", err))
	}
	if c.Signal.HighConfidence <= 0 || c.Signal.HighConfidence > 1 {
		add(fmt.Errorf("signal.high_confidence must be in (0, 1], got %g", c.Signal.HighConfidence))
	}

	if c.Orchestrator.Workers <= 0 {
		add(errors.New("orchestrator.workers must be positive"))
	}
	if c.Orchestrator.RatePerSecond < 0 {
		add(errors.New("orchestrator.rate_per_second must not be negative"))
	}
	if c.Orchestrator.RatePerSecond > 0 && c.Orchestrator.Burst <= 0 {
		add(errors.New("orchestrator.burst must be positive when rate limiting"))
	}
	if c.Orchestrator.SymbolTimeout < 0 {
		add(errors.New("orchestrator.symbol_timeout must not be negative"))
	}

	if c.Database.SQLitePath == "" {
		add(errors.New("database.sqlite_path is required"))
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		add(errors.New("telegram.bot_token and telegram.chat_id must be set together"))
	}
	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor).Parse(c.Schedule.DailyCron); err != nil {
		add(fmt.Errorf("schedule.daily_cron: %w", err))
	}
	if _, err := report.ParseFormat(c.Report.Format); err != nil {
		add(fmt.Errorf("report.format: %w", err))
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		add(fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}

// SaveToFile writes the config as YAML, creating parent directories.
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
