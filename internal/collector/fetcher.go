package collector

import (
	"context"
	"errors"

	"SwingScreener/internal/model"
)

// ErrNoData is returned when a source has nothing for a symbol.
var ErrNoData = errors.New("no data returned")

// SeriesFetcher retrieves daily price/volume history.
type SeriesFetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, lookbackDays int) ([]model.PriceBar, error)
	Name() string
}

// OIFetcher derives the open-interest pattern of a symbol's futures.
type OIFetcher interface {
	FetchOIPattern(ctx context.Context, symbol string) (model.OIPattern, error)
}

// UniverseFetcher lists the symbols of an index.
type UniverseFetcher interface {
	FetchConstituents(ctx context.Context, index string) ([]string, error)
}

// StaticUniverse serves a fixed symbol list regardless of index.
type StaticUniverse []string

func (s StaticUniverse) FetchConstituents(_ context.Context, _ string) ([]string, error) {
	if len(s) == 0 {
		return nil, ErrNoData
	}
	out := make([]string, len(s))
	copy(out, s)
	return out, nil
}
