package collector

import (
	"sort"
	"time"

	"SwingScreener/internal/model"
)

// futuresRow is one daily record of a futures contract.
type futuresRow struct {
	Expiry       time.Time
	Timestamp    time.Time
	Close        float64
	OpenInterest float64
}

// DetectOIPattern classifies a day-over-day change in futures price and open interest.
func DetectOIPattern(priceChange, oiChange float64) model.OIPattern {
	switch {
	case priceChange > 0 && oiChange > 0:
		return model.OILongBuildup
	case priceChange > 0 && oiChange < 0:
		return model.OIShortCovering
	case priceChange < 0 && oiChange < 0:
		return model.OILongUnwinding
	case priceChange < 0 && oiChange > 0:
		return model.OIShortBuildup
	default:
		return model.OINoPattern
	}
}

// nearestExpiry picks the earliest expiry on or after today, or the latest
// expiry when every contract has already expired.
func nearestExpiry(rows []futuresRow, today time.Time) time.Time {
	var nearest, latest time.Time
	for _, r := range rows {
		if r.Expiry.After(latest) {
			latest = r.Expiry
		}
		if !r.Expiry.Before(today) && (nearest.IsZero() || r.Expiry.Before(nearest)) {
			nearest = r.Expiry
		}
	}
	if nearest.IsZero() {
		return latest
	}
	return nearest
}

// patternFromRows compares the last two sessions of the nearest contract.
// Fewer than two sessions yields OIUnavailable.
func patternFromRows(rows []futuresRow, now time.Time) model.OIPattern {
	if len(rows) < 2 {
		return model.OIUnavailable
	}
	y, m, d := now.Date()
	expiry := nearestExpiry(rows, time.Date(y, m, d, 0, 0, 0, 0, now.Location()))

	var contract []futuresRow
	for _, r := range rows {
		if r.Expiry.Equal(expiry) {
			contract = append(contract, r)
		}
	}
	if len(contract) < 2 {
		return model.OIUnavailable
	}
	sort.Slice(contract, func(i, j int) bool { return contract[i].Timestamp.Before(contract[j].Timestamp) })

	latest, previous := contract[len(contract)-1], contract[len(contract)-2]
	return DetectOIPattern(latest.Close-previous.Close, latest.OpenInterest-previous.OpenInterest)
}
