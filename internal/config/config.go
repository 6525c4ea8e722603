package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"SignalSentinel/internal/engine"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Feeds struct {
		Crypto struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"crypto"`
		Forex struct {
			Provider string `yaml:"provider"` // yahoo or rest
			BaseURL  string `yaml:"base_url"`
			APIKey   string `yaml:"api_key"`
		} `yaml:"forex"`
		HistoryBars int           `yaml:"history_bars"`
		Timeout     time.Duration `yaml:"timeout"`
		MaxRetries  int           `yaml:"max_retries"`
		Mock        bool          `yaml:"mock"`
	} `yaml:"feeds"`
	Engine struct {
		Capacity         int                `yaml:"capacity"`
		SwingLookback    int                `yaml:"swing_lookback"`
		InternalLookback int                `yaml:"internal_lookback"`
		AllowSynthetic   bool               `yaml:"allow_synthetic"`
		Alignment        bool               `yaml:"alignment"`
		MinPrimary       int                `yaml:"min_primary"`
		MinTotal         int                `yaml:"min_total"`
		MinScore         int                `yaml:"min_score"`
		MinHistory       int                `yaml:"min_history"`
		Cooldown         time.Duration      `yaml:"cooldown"`
		Weights          map[string]float64 `yaml:"weights"`
	} `yaml:"engine"`
	Bot struct {
		model.BotSettings `yaml:",inline"`
		AutoStart         bool   `yaml:"auto_start"`
		StateFile         string `yaml:"state_file"`
	} `yaml:"bot"`
	Schedule struct {
		TickCron string `yaml:"tick_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	API struct {
		Addr string `yaml:"addr"`
	} `yaml:"api"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
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
	if v := os.Getenv("BINANCE_BASE_URL"); v != "" {
		cfg.Feeds.Crypto.BaseURL = v
	}
	if v := os.Getenv("FOREX_PROVIDER"); v != "" {
		cfg.Feeds.Forex.Provider = v
	}
	if v := os.Getenv("FOREX_BASE_URL"); v != "" {
		cfg.Feeds.Forex.BaseURL = v
	}
	if v := os.Getenv("FOREX_API_KEY"); v != "" {
		cfg.Feeds.Forex.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("ALLOW_SYNTHETIC"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Engine.AllowSynthetic = b
		}
	}
	if v := os.Getenv("MOCK_FEED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Feeds.Mock = b
		}
	}
	if v := os.Getenv("TICK_CRON"); v != "" {
		cfg.Schedule.TickCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.API.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	// Defaults
	if cfg.Feeds.Crypto.BaseURL == "" {
		cfg.Feeds.Crypto.BaseURL = "https://api.binance.com"
	}
	if cfg.Feeds.Forex.Provider == "" {
		cfg.Feeds.Forex.Provider = "yahoo"
	}
	if cfg.Feeds.HistoryBars == 0 {
		cfg.Feeds.HistoryBars = 100
	}
	if cfg.Feeds.Timeout == 0 {
		cfg.Feeds.Timeout = 8 * time.Second
	}
	if cfg.Feeds.MaxRetries == 0 {
		cfg.Feeds.MaxRetries = 2
	}
	if cfg.Engine.Capacity == 0 {
		cfg.Engine.Capacity = 100
	}
	if cfg.Bot.Market == "" {
		cfg.Bot.Market = model.MarketCrypto
	}
	if len(cfg.Bot.Symbols) == 0 {
		cfg.Bot.Symbols = []string{"BTCUSDT", "ETHUSDT"}
	}
	if len(cfg.Bot.Timeframes) == 0 {
		cfg.Bot.Timeframes = []string{"5m"}
	}
	if cfg.Bot.RiskRewardRatio == 0 {
		cfg.Bot.RiskRewardRatio = 2
	}
	if cfg.Bot.StateFile == "" {
		cfg.Bot.StateFile = "data/bot_state.json"
	}
	if cfg.Schedule.TickCron == "" {
		cfg.Schedule.TickCron = "0 * * * * *"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/signal_sentinel.db"
	}
	if cfg.API.Addr == "" {
		cfg.API.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// TelegramEnabled reports whether chat delivery is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != ""
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}
	if !c.Bot.Market.Valid() {
		return fmt.Errorf("bot.market must be crypto or forex, got %q", c.Bot.Market)
	}
	switch c.Feeds.Forex.Provider {
	case "yahoo":
	case "rest":
		if c.Feeds.Forex.BaseURL == "" {
			return fmt.Errorf("feeds.forex.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("feeds.forex.provider must be yahoo or rest, got %q", c.Feeds.Forex.Provider)
	}
	if c.Bot.RiskRewardRatio < 1 {
		return fmt.Errorf("bot.risk_reward_ratio must be at least 1")
	}
	if c.Engine.Capacity < 25 {
		return fmt.Errorf("engine.capacity must be at least 25")
	}
	if c.Feeds.MaxRetries < 0 {
		return fmt.Errorf("feeds.max_retries must not be negative")
	}
	for tag, w := range c.Engine.Weights {
		if w < 0 {
			return fmt.Errorf("engine.weights.%s must not be negative", tag)
		}
	}
	return nil
}

// EngineSettings maps the engine section onto engine.Settings. Unset
// thresholds keep their defaults.
func (c *Config) EngineSettings() engine.Settings {
	s := engine.DefaultSettings()
	e := c.Engine
	if e.Capacity > 0 {
		s.Capacity = e.Capacity
	}
	if e.SwingLookback > 0 {
		s.SwingLookback = e.SwingLookback
	}
	if e.InternalLookback > 0 {
		s.InternalLookback = e.InternalLookback
	}
	s.AllowSynthetic = e.AllowSynthetic
	s.Alignment = e.Alignment

	if e.MinPrimary > 0 {
		s.Policy.MinPrimary = e.MinPrimary
	}
	if e.MinTotal > 0 {
		s.Policy.MinTotal = e.MinTotal
	}
	if e.MinScore > 0 {
		s.Policy.MinScore = e.MinScore
	}
	if e.MinHistory > 0 {
		s.Policy.MinHistory = e.MinHistory
	}
	if e.Cooldown > 0 {
		s.Policy.Cooldown = e.Cooldown
	}

	if len(e.Weights) > 0 {
		overrides := make(map[model.Tag]float64, len(e.Weights))
		for tag, w := range e.Weights {
			overrides[model.Tag(tag)] = w
		}
		s.Weights = strategy.DefaultWeights().Merge(overrides)
	}
	return s
}
