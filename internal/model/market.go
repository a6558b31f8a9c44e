package model

import "time"

// PriceBar represents a single daily candlestick bar.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries holds the raw daily bars fetched for one symbol.
type PriceSeries struct {
	Symbol    string
	Bars      []PriceBar
	FetchedAt time.Time
}

// OIPattern is the open-interest pattern label derived from futures data.
type OIPattern string

const (
	OILongBuildup   OIPattern = "long_buildup"
	OIShortCovering OIPattern = "short_covering"
	OILongUnwinding OIPattern = "long_unwinding"
	OIShortBuildup  OIPattern = "short_buildup"
	OINoPattern     OIPattern = "no_pattern"

	// OIUnavailable marks a symbol without derivatives data.
	OIUnavailable OIPattern = ""
)

// Known reports whether p is one of the recognised pattern labels.
func (p OIPattern) Known() bool {
	switch p {
	case OILongBuildup, OIShortCovering, OILongUnwinding, OIShortBuildup, OINoPattern:
		return true
	}
	return false
}
