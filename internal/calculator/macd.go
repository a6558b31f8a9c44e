package calculator

import (
	"github.com/guregu/null/v6"

	"SwingScreener/internal/model"
)

// ApplyMACD populates MACD, MACDSignal and MACDHist using unadjusted EMAs,
// so every field is defined from the first bar.
func ApplyMACD(rows []model.IndicatorRow, fast, slow, signal int) []model.IndicatorRow {
	if len(rows) == 0 {
		return rows
	}
	closes := extractCloses(rows)
	emaFast := ema(closes, fast)
	emaSlow := ema(closes, slow)

	line := make([]float64, len(rows))
	for i := range line {
		line[i] = emaFast[i] - emaSlow[i]
	}
	sig := ema(line, signal)

	for i := range rows {
		rows[i].MACD = null.FloatFrom(line[i])
		rows[i].MACDSignal = null.FloatFrom(sig[i])
		rows[i].MACDHist = null.FloatFrom(line[i] - sig[i])
	}
	return rows
}
