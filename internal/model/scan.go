package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// StockResult is the scored snapshot of one symbol.
type StockResult struct {
	Symbol      string     `json:"symbol"`
	Date        time.Time  `json:"date"`
	Price       float64    `json:"price"`
	Volume      float64    `json:"volume"`
	VolumeRatio null.Float `json:"volume_ratio"`
	RSI         null.Float `json:"rsi"`
	MACD        null.Float `json:"macd"`
	MACDSignal  null.Float `json:"macd_signal"`
	EMA20       null.Float `json:"ema_20"`
	EMA50       null.Float `json:"ema_50"`
	ADX         null.Float `json:"adx"`
	OIPattern   OIPattern  `json:"oi_pattern"`
	Scores      ScoreSet   `json:"scores"`
	TotalScore  float64    `json:"total_score"`
	BarIssues   int        `json:"bar_issues,omitempty"`
}

// SymbolFailure records why a symbol could not be scored.
type SymbolFailure struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// ScanSummary is the outcome of one screening run.
type ScanSummary struct {
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Requested  int             `json:"requested"`
	Scored     int             `json:"scored"`
	Failures   []SymbolFailure `json:"failures,omitempty"`
	Results    []StockResult   `json:"results"`
	Top        []StockResult   `json:"top"`
}
