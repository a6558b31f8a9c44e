package calculator

import (
	"github.com/guregu/null/v6"

	"SwingScreener/internal/model"
)

// ApplyRSI populates RSI from the simple rolling mean of gains and losses
// over period close-to-close changes. The first defined value is at index period.
//
// With no losses in the window RSI is 100, or 50 when there were no gains either.
func ApplyRSI(rows []model.IndicatorRow, period int) []model.IndicatorRow {
	if period <= 0 || len(rows) < period+1 {
		return rows
	}

	// gains[k] and losses[k] hold the change into bar k+1.
	gains := make([]float64, len(rows)-1)
	losses := make([]float64, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		change := rows[i].Close - rows[i-1].Close
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = -change
		}
	}

	gainSums := rollingSum(gains, period)
	lossSums := rollingSum(losses, period)
	for k := period - 1; k < len(gains); k++ {
		avgGain := gainSums[k] / float64(period)
		avgLoss := lossSums[k] / float64(period)
		rows[k+1].RSI = null.FloatFrom(rsiValue(avgGain, avgLoss))
	}
	return rows
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
