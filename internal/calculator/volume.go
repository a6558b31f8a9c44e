package calculator

import (
	"github.com/guregu/null/v6"

	"SwingScreener/internal/model"
)

// ApplyVolumeRatio populates VolumeMA (simple average over period bars) and
// VolumeRatio = volume / VolumeMA. The ratio stays undefined when the average is zero.
func ApplyVolumeRatio(rows []model.IndicatorRow, period int) []model.IndicatorRow {
	if period <= 0 || len(rows) < period {
		return rows
	}
	sums := rollingSum(extractVolumes(rows), period)
	for i := period - 1; i < len(rows); i++ {
		ma := sums[i] / float64(period)
		rows[i].VolumeMA = null.FloatFrom(ma)
		if ma > 0 {
			rows[i].VolumeRatio = null.FloatFrom(rows[i].Volume / ma)
		}
	}
	return rows
}
