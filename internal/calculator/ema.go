package calculator

import (
	"github.com/guregu/null/v6"

	"SwingScreener/internal/model"
)

// ema computes an unadjusted exponential moving average seeded with the
// first value: out[0] = values[0], out[t] = a*values[t] + (1-a)*out[t-1].
// The update is written as out[t-1] + a*(values[t]-out[t-1]) so a constant
// input stays exactly constant.
func ema(values []float64, span int) []float64 {
	if len(values) == 0 {
		return nil
	}
	alpha := 2.0 / float64(span+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = out[i-1] + alpha*(values[i]-out[i-1])
	}
	return out
}

// ApplyEMAs populates EMA20 and EMA50 of close.
func ApplyEMAs(rows []model.IndicatorRow, shortSpan, longSpan int) []model.IndicatorRow {
	if len(rows) == 0 {
		return rows
	}
	closes := extractCloses(rows)
	short := ema(closes, shortSpan)
	long := ema(closes, longSpan)
	for i := range rows {
		rows[i].EMA20 = null.FloatFrom(short[i])
		rows[i].EMA50 = null.FloatFrom(long[i])
	}
	return rows
}
