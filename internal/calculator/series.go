package calculator

import (
	"fmt"
	"math"

	"SwingScreener/internal/model"
)

// BarIssue describes a bar that was rejected before indicator computation.
type BarIssue struct {
	Index  int
	Bar    model.PriceBar
	Reason string
}

func (i BarIssue) String() string {
	return fmt.Sprintf("bar %d (%s): %s", i.Index, i.Bar.Date.Format("2006-01-02"), i.Reason)
}

// Screen drops bars that would poison the arithmetic: non-finite prices,
// negative or non-finite volume, and dates that do not strictly ascend.
// The input slice is not modified.
func Screen(bars []model.PriceBar) ([]model.PriceBar, []BarIssue) {
	if len(bars) == 0 {
		return nil, nil
	}
	accepted := make([]model.PriceBar, 0, len(bars))
	var issues []BarIssue
	for i, b := range bars {
		if reason := checkBar(b); reason != "" {
			issues = append(issues, BarIssue{Index: i, Bar: b, Reason: reason})
			continue
		}
		if n := len(accepted); n > 0 && !b.Date.After(accepted[n-1].Date) {
			issues = append(issues, BarIssue{Index: i, Bar: b, Reason: "date not after previous bar"})
			continue
		}
		accepted = append(accepted, b)
	}
	return accepted, issues
}

func checkBar(b model.PriceBar) string {
	for _, p := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return "non-finite price"
		}
	}
	if math.IsNaN(b.Volume) || math.IsInf(b.Volume, 0) {
		return "non-finite volume"
	}
	if b.Volume < 0 {
		return "negative volume"
	}
	return ""
}

// NewRows builds a fresh working buffer with every indicator undefined.
func NewRows(bars []model.PriceBar) []model.IndicatorRow {
	if len(bars) == 0 {
		return nil
	}
	rows := make([]model.IndicatorRow, len(bars))
	for i, b := range bars {
		rows[i].PriceBar = b
	}
	return rows
}

func extractCloses(rows []model.IndicatorRow) []float64 {
	closes := make([]float64, len(rows))
	for i, r := range rows {
		closes[i] = r.Close
	}
	return closes
}

func extractVolumes(rows []model.IndicatorRow) []float64 {
	volumes := make([]float64, len(rows))
	for i, r := range rows {
		volumes[i] = r.Volume
	}
	return volumes
}

// rollingSum returns the sum of each full window ending at index i.
// Entries before period-1 are left at zero and must not be read.
func rollingSum(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		for _, v := range values[i-period+1 : i+1] {
			sum += v
		}
		out[i] = sum
	}
	return out
}
