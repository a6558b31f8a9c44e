package model

import "github.com/guregu/null/v6"

// IndicatorRow is one bar plus every derived indicator value.
// A field is invalid until its lookback window is satisfied.
type IndicatorRow struct {
	PriceBar

	VolumeMA    null.Float `json:"volume_ma"`
	VolumeRatio null.Float `json:"volume_ratio"`

	MACD       null.Float `json:"macd"`
	MACDSignal null.Float `json:"macd_signal"`
	MACDHist   null.Float `json:"macd_hist"`

	RSI null.Float `json:"rsi"`

	EMA20 null.Float `json:"ema_20"`
	EMA50 null.Float `json:"ema_50"`

	Directional
	ADX null.Float `json:"adx"`
}

// Directional holds the ADX intermediates.
type Directional struct {
	TR            null.Float `json:"tr"`
	PlusDM        null.Float `json:"plus_dm"`
	MinusDM       null.Float `json:"minus_dm"`
	TRSmooth      null.Float `json:"tr_smooth"`
	PlusDMSmooth  null.Float `json:"plus_dm_smooth"`
	MinusDMSmooth null.Float `json:"minus_dm_smooth"`
	PlusDI        null.Float `json:"plus_di"`
	MinusDI       null.Float `json:"minus_di"`
	DX            null.Float `json:"dx"`
}
