package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"VolSentinel/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Ledger struct {
		Path string `yaml:"path"`
	} `yaml:"ledger"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Provider struct {
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		RequestsPerSec float64 `yaml:"requests_per_sec"`
	} `yaml:"provider"`
	Verify struct {
		WindowDays int `yaml:"window_days"`
	} `yaml:"verify"`
	Schedule struct {
		MorningCron string `yaml:"morning_cron"`
		EveningCron string `yaml:"evening_cron"`
	} `yaml:"schedule"`
	Assets   []model.Asset `yaml:"assets"`
	Proxy    string        `yaml:"proxy"`
	LogLevel string        `yaml:"log_level"`
}

// DefaultAssets mirrors the original watchlist: commodity futures and
// the big US indices, each with an ETF option chain for IV and, where
// one exists, a CBOE volatility index as fallback.
func DefaultAssets() []model.Asset {
	return []model.Asset{
		{Name: "🏆 黄金 (Gold)", SpotSymbol: "GC=F", OptionSymbol: "GLD", VolIndexSymbol: "^GVZ"},
		{Name: "🛢️ 原油 (Crude Oil)", SpotSymbol: "CL=F", OptionSymbol: "USO", VolIndexSymbol: "^OVX"},
		{Name: "🔥 天然气 (Nat Gas)", SpotSymbol: "NG=F", OptionSymbol: "UNG"},
		{Name: "🇺🇸 标普500 (S&P 500)", SpotSymbol: "^GSPC", OptionSymbol: "SPY", VolIndexSymbol: "^VIX"},
		{Name: "💻 纳斯达克 (Nasdaq)", SpotSymbol: "^IXIC", OptionSymbol: "QQQ", VolIndexSymbol: "^VXN"},
		{Name: "🏭 道琼斯 (Dow Jones)", SpotSymbol: "^DJI", OptionSymbol: "DIA", VolIndexSymbol: "^VXD"},
	}
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("LEDGER_PATH"); v != "" {
		cfg.Ledger.Path = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("VERIFY_WINDOW_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			cfg.Verify.WindowDays = days
		}
	}
	if v := os.Getenv("CRON_MORNING"); v != "" {
		cfg.Schedule.MorningCron = v
	}
	if v := os.Getenv("CRON_EVENING"); v != "" {
		cfg.Schedule.EveningCron = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	// Defaults
	if cfg.Ledger.Path == "" {
		cfg.Ledger.Path = "data/predictions.csv"
	}
	if cfg.Provider.TimeoutSeconds == 0 {
		cfg.Provider.TimeoutSeconds = 30
	}
	if cfg.Provider.RequestsPerSec == 0 {
		cfg.Provider.RequestsPerSec = 2
	}
	if cfg.Verify.WindowDays == 0 {
		cfg.Verify.WindowDays = 10
	}
	if cfg.Schedule.MorningCron == "" {
		// Before the US session opens, Mon-Fri.
		cfg.Schedule.MorningCron = "0 0 8 * * 1-5"
	}
	if cfg.Schedule.EveningCron == "" {
		cfg.Schedule.EveningCron = "0 0 20 * * 1-5"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if len(cfg.Assets) == 0 {
		cfg.Assets = DefaultAssets()
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if c.Verify.WindowDays < 0 {
		return fmt.Errorf("verify.window_days must not be negative")
	}
	for i, a := range c.Assets {
		if a.Name == "" {
			return fmt.Errorf("assets[%d].name is required", i)
		}
		if a.SpotSymbol == "" {
			return fmt.Errorf("assets[%d].spot is required", i)
		}
	}
	return nil
}
