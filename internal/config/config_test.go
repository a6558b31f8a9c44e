package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"SwingScreener/internal/calculator"
	"SwingScreener/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate defaults: %v", err)
	}
	if cfg.Scan.BatchSize != 100 || cfg.Scan.BatchPause != 60*time.Second || cfg.Scan.RequestDelay != 500*time.Millisecond {
		t.Errorf("unexpected scan defaults: %+v", cfg.Scan)
	}
	if cfg.DataSource.SymbolSuffix != ".NS" || cfg.DataSource.LookbackDays != 60 {
		t.Errorf("unexpected data source defaults: %+v", cfg.DataSource)
	}
	if cfg.Indicators.Params().ADXPeriod != 14 {
		t.Errorf("adx period = %d, want 14", cfg.Indicators.ADXPeriod)
	}
	if got := cfg.Scoring.Weights[model.FactorEMATrend]; got != 20 {
		t.Errorf("ema_trend weight = %v, want 20", got)
	}
}

func TestLoad_PartialScoringOverride(t *testing.T) {
	path := writeConfig(t, `
scoring:
  weights:
    trend_ema: 25
  adx:
    steps:
      - {min: 30, score: 90}
    floor: 10
scan:
  batch_pause: 5s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	w := cfg.Scoring.Weights
	if w[model.FactorEMATrend] != 25 {
		t.Errorf("ema_trend weight = %v, want 25", w[model.FactorEMATrend])
	}
	if _, ok := w["trend_ema"]; ok {
		t.Error("alias key should have been folded into ema_trend")
	}
	if w[model.FactorVolume] != 15 {
		t.Errorf("volume weight = %v, want default 15", w[model.FactorVolume])
	}
	if got := cfg.Scoring.ADX.Lookup(35); got != 90 {
		t.Errorf("adx lookup(35) = %v, want 90", got)
	}
	if got := cfg.Scoring.ADX.Lookup(5); got != 10 {
		t.Errorf("adx lookup(5) = %v, want 10", got)
	}
	if got := cfg.Scoring.RSI.Lookup(60); got != 100 {
		t.Errorf("rsi table should keep defaults, lookup(60) = %v", got)
	}
	if cfg.Scan.BatchPause != 5*time.Second {
		t.Errorf("batch_pause = %v, want 5s", cfg.Scan.BatchPause)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SCAN_WORKERS", "9")
	t.Setenv("DATABASE_URL", "postgres://localhost/screener")
	t.Setenv("HTTP_ADDR", ":9999")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scan.Workers != 9 {
		t.Errorf("workers = %d, want 9", cfg.Scan.Workers)
	}
	if cfg.Database.PostgresDSN != "postgres://localhost/screener" {
		t.Errorf("postgres dsn = %q", cfg.Database.PostgresDSN)
	}
	if cfg.HTTP.Addr != ":9999" {
		t.Errorf("http addr = %q", cfg.HTTP.Addr)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "scan: [unclosed")); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"telegram half configured", func(c *Config) { c.Telegram.BotToken = "x" }},
		{"zero workers", func(c *Config) { c.Scan.Workers = 0 }},
		{"macd fast >= slow", func(c *Config) { c.Indicators.MACDFast = 30 }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"ascending bands", func(c *Config) {
			c.Scoring.Volume.Steps = []Band{{1.0, 40}, {2.0, 100}}
		}},
		{"score above 100", func(c *Config) { c.Scoring.MACD.StrongBullish = 120 }},
		{"negative weight", func(c *Config) { c.Scoring.Weights[model.FactorADX] = -1 }},
		{"missing no_pattern", func(c *Config) { delete(c.Scoring.OI, model.OINoPattern) }},
	}
	for _, tt := range tests {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestBands_Lookup(t *testing.T) {
	rsi := DefaultScoringTables().RSI
	tests := []struct {
		v    float64
		want float64
	}{
		{80, 0}, {75, 0}, {74.99, 60}, {70, 60}, {60, 100}, {55, 100},
		{52, 85}, {50, 85}, {47, 50}, {45, 50}, {42, 25}, {40, 25}, {39.9, 0}, {10, 0},
	}
	for _, tt := range tests {
		if got := rsi.Lookup(tt.v); got != tt.want {
			t.Errorf("rsi lookup(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestDefaultScoringTables_AreIndependentCopies(t *testing.T) {
	a := DefaultScoringTables()
	a.Weights[model.FactorVolume] = 99
	a.OI[model.OILongBuildup] = 1
	b := DefaultScoringTables()
	if b.Weights[model.FactorVolume] != 15 || b.OI[model.OILongBuildup] != 100 {
		t.Error("default tables share state between calls")
	}
}

func TestLoad_ExampleConfigMatchesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	if err != nil {
		t.Fatalf("load example: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate example: %v", err)
	}
	if !reflect.DeepEqual(cfg.Scoring, DefaultScoringTables()) {
		t.Errorf("example scoring tables drifted from defaults:\n got %+v\nwant %+v", cfg.Scoring, DefaultScoringTables())
	}
	if cfg.Indicators.Params() != calculator.DefaultParams() {
		t.Errorf("example indicator periods = %+v", cfg.Indicators)
	}
	if cfg.Scan.BatchPause != time.Minute || cfg.Scan.RequestDelay != 500*time.Millisecond {
		t.Errorf("example scan pacing = %v / %v", cfg.Scan.BatchPause, cfg.Scan.RequestDelay)
	}
}
