package calculator

import (
	"math"

	"github.com/guregu/null/v6"

	"SwingScreener/internal/model"
)

// ApplyADX populates the directional movement intermediates and ADX.
//
// TR and DM need the previous bar, so they start at index 1. The smoothed
// sums, DI and DX start at index period, and ADX (the mean of period DX
// values) at index 2*period-1.
func ApplyADX(rows []model.IndicatorRow, period int) []model.IndicatorRow {
	if period <= 0 || len(rows) < 2 {
		return rows
	}

	n := len(rows) - 1
	tr := make([]float64, n)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < len(rows); i++ {
		cur, prev := rows[i], rows[i-1]
		tr[i-1] = math.Max(cur.High-cur.Low, math.Max(math.Abs(cur.High-prev.Close), math.Abs(cur.Low-prev.Close)))

		up := cur.High - prev.High
		down := prev.Low - cur.Low
		if up > down && up > 0 {
			plusDM[i-1] = up
		}
		if down > up && down > 0 {
			minusDM[i-1] = down
		}

		rows[i].TR = null.FloatFrom(tr[i-1])
		rows[i].PlusDM = null.FloatFrom(plusDM[i-1])
		rows[i].MinusDM = null.FloatFrom(minusDM[i-1])
	}
	if n < period {
		return rows
	}

	trSum := rollingSum(tr, period)
	plusSum := rollingSum(plusDM, period)
	minusSum := rollingSum(minusDM, period)

	dx := make([]float64, 0, n-period+1)
	for k := period - 1; k < n; k++ {
		row := &rows[k+1]
		row.TRSmooth = null.FloatFrom(trSum[k])
		row.PlusDMSmooth = null.FloatFrom(plusSum[k])
		row.MinusDMSmooth = null.FloatFrom(minusSum[k])

		var plusDI, minusDI float64
		if trSum[k] > 0 {
			plusDI = 100 * plusSum[k] / trSum[k]
			minusDI = 100 * minusSum[k] / trSum[k]
		}
		row.PlusDI = null.FloatFrom(plusDI)
		row.MinusDI = null.FloatFrom(minusDI)

		var d float64
		if sum := plusDI + minusDI; sum > 0 {
			d = 100 * math.Abs(plusDI-minusDI) / sum
		}
		row.DX = null.FloatFrom(d)
		dx = append(dx, d)
	}

	if len(dx) < period {
		return rows
	}
	first := period // first row carrying DX
	dxSum := rollingSum(dx, period)
	for j := period - 1; j < len(dx); j++ {
		rows[first+j].ADX = null.FloatFrom(dxSum[j] / float64(period))
	}
	return rows
}
