package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"SwingScreener/internal/calculator"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		BaseURL      string `yaml:"base_url"`
		APIKey       string `yaml:"api_key"`
		SymbolSuffix string `yaml:"symbol_suffix"`
		LookbackDays int    `yaml:"lookback_days"`
		MaxRetries   int    `yaml:"max_retries"`
	} `yaml:"data_source"`
	NSE struct {
		BaseURL string `yaml:"base_url"`
		Index   string `yaml:"index"`
		OIDays  int    `yaml:"oi_days"`
	} `yaml:"nse"`
	Indicators IndicatorConfig `yaml:"indicators"`
	Scoring    ScoringTables   `yaml:"scoring"`
	Scan       struct {
		Symbols       []string      `yaml:"symbols"`
		Workers       int           `yaml:"workers"`
		BatchSize     int           `yaml:"batch_size"`
		BatchPause    time.Duration `yaml:"batch_pause"`
		RequestDelay  time.Duration `yaml:"request_delay"`
		TopN          int           `yaml:"top_n"`
		FullScanLimit int           `yaml:"full_scan_limit"`
	} `yaml:"scan"`
	Schedule struct {
		ScanCron string `yaml:"scan_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"database"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// IndicatorConfig mirrors calculator.Params in YAML form.
type IndicatorConfig struct {
	VolumePeriod int `yaml:"volume_period"`
	MACDFast     int `yaml:"macd_fast"`
	MACDSlow     int `yaml:"macd_slow"`
	MACDSignal   int `yaml:"macd_signal"`
	RSIPeriod    int `yaml:"rsi_period"`
	EMAShort     int `yaml:"ema_short"`
	EMALong      int `yaml:"ema_long"`
	ADXPeriod    int `yaml:"adx_period"`
}

// Params converts the section to calculator parameters.
func (c IndicatorConfig) Params() calculator.Params {
	return calculator.Params(c)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Indicator periods and scoring tables start from their defaults so a file
// only needs to list what it changes.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Indicators: IndicatorConfig(calculator.DefaultParams()),
		Scoring:    DefaultScoringTables(),
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.Scoring.Weights.normalize()

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_SCAN"); v != "" {
		cfg.Schedule.ScanCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.PostgresDSN = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SCAN_WORKERS"); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			cfg.Scan.Workers = n
		}
	}
	if v := os.Getenv("SCAN_TOP_N"); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			cfg.Scan.TopN = n
		}
	}

	// Defaults
	if cfg.DataSource.SymbolSuffix == "" {
		cfg.DataSource.SymbolSuffix = ".NS"
	}
	if cfg.DataSource.LookbackDays == 0 {
		cfg.DataSource.LookbackDays = 60
	}
	if cfg.DataSource.MaxRetries == 0 {
		cfg.DataSource.MaxRetries = 2
	}
	if cfg.NSE.BaseURL == "" {
		cfg.NSE.BaseURL = "https://www.nseindia.com"
	}
	if cfg.NSE.Index == "" {
		cfg.NSE.Index = "NIFTY 500"
	}
	if cfg.NSE.OIDays == 0 {
		cfg.NSE.OIDays = 5
	}
	if cfg.Scan.Workers == 0 {
		cfg.Scan.Workers = 4
	}
	if cfg.Scan.BatchSize == 0 {
		cfg.Scan.BatchSize = 100
	}
	if cfg.Scan.BatchPause == 0 {
		cfg.Scan.BatchPause = 60 * time.Second
	}
	if cfg.Scan.RequestDelay == 0 {
		cfg.Scan.RequestDelay = 500 * time.Millisecond
	}
	if cfg.Scan.TopN == 0 {
		cfg.Scan.TopN = 5
	}
	if cfg.Scan.FullScanLimit == 0 {
		cfg.Scan.FullScanLimit = 500
	}
	if cfg.Schedule.ScanCron == "" {
		cfg.Schedule.ScanCron = "0 45 15 * * 1-5"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/swing_screener.db"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	return cfg, nil
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.DataSource.LookbackDays < 2 {
		return fmt.Errorf("data_source.lookback_days must be at least 2")
	}
	if c.DataSource.MaxRetries < 0 {
		return fmt.Errorf("data_source.max_retries must not be negative")
	}
	if c.Scan.Workers < 1 {
		return fmt.Errorf("scan.workers must be positive")
	}
	if c.Scan.BatchSize < 1 {
		return fmt.Errorf("scan.batch_size must be positive")
	}
	if c.Scan.TopN < 1 {
		return fmt.Errorf("scan.top_n must be positive")
	}
	if c.Scan.BatchPause < 0 || c.Scan.RequestDelay < 0 {
		return fmt.Errorf("scan delays must not be negative")
	}
	p := c.Indicators
	for name, v := range map[string]int{
		"volume_period": p.VolumePeriod, "macd_fast": p.MACDFast, "macd_slow": p.MACDSlow,
		"macd_signal": p.MACDSignal, "rsi_period": p.RSIPeriod, "ema_short": p.EMAShort,
		"ema_long": p.EMALong, "adx_period": p.ADXPeriod,
	} {
		if v < 1 {
			return fmt.Errorf("indicators.%s must be positive", name)
		}
	}
	if p.MACDFast >= p.MACDSlow {
		return fmt.Errorf("indicators.macd_fast must be shorter than macd_slow")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return c.Scoring.Validate()
}
