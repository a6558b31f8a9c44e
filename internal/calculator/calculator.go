package calculator

import "SwingScreener/internal/model"

// Params holds the lookback periods of every indicator routine.
type Params struct {
	VolumePeriod int
	MACDFast     int
	MACDSlow     int
	MACDSignal   int
	RSIPeriod    int
	EMAShort     int
	EMALong      int
	ADXPeriod    int
}

// DefaultParams returns the standard swing-trade lookbacks.
func DefaultParams() Params {
	return Params{
		VolumePeriod: 20,
		MACDFast:     12,
		MACDSlow:     26,
		MACDSignal:   9,
		RSIPeriod:    14,
		EMAShort:     20,
		EMALong:      50,
		ADXPeriod:    14,
	}
}

// Compute screens bars and runs every indicator routine over the accepted ones.
// The returned rows are a new buffer; bars is never modified.
func Compute(bars []model.PriceBar, p Params) ([]model.IndicatorRow, []BarIssue) {
	accepted, issues := Screen(bars)
	rows := NewRows(accepted)
	if len(rows) == 0 {
		return rows, issues
	}
	rows = ApplyVolumeRatio(rows, p.VolumePeriod)
	rows = ApplyMACD(rows, p.MACDFast, p.MACDSlow, p.MACDSignal)
	rows = ApplyRSI(rows, p.RSIPeriod)
	rows = ApplyEMAs(rows, p.EMAShort, p.EMALong)
	rows = ApplyADX(rows, p.ADXPeriod)
	return rows, issues
}

// Latest returns the last row, or nil when there is none.
func Latest(rows []model.IndicatorRow) *model.IndicatorRow {
	if len(rows) == 0 {
		return nil
	}
	return &rows[len(rows)-1]
}
