package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"SwingScreener/internal/calculator"
	"SwingScreener/internal/model"
	"SwingScreener/internal/strategy"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	// Step is the close-to-close change of generated bars.
	Step  float64
	Bars  map[string][]model.PriceBar
	OI    map[string]model.OIPattern
	Err   error
	OIErr error
	// FailN limits Err to the first FailN FetchDailyBars calls; 0 fails every call.
	FailN int

	mu    sync.Mutex
	calls int
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls reports how many times FetchDailyBars ran.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockFetcher) FetchDailyBars(_ context.Context, symbol string, days int) ([]model.PriceBar, error) {
	m.mu.Lock()
	m.calls++
	n := m.calls
	m.mu.Unlock()

	if m.Err != nil && (m.FailN == 0 || n <= m.FailN) {
		return nil, m.Err
	}
	if bars, ok := m.Bars[symbol]; ok {
		if len(bars) == 0 {
			return nil, ErrNoData
		}
		return bars, nil
	}
	return GenerateBars(m.Price, m.Step, days), nil
}

func (m *MockFetcher) FetchOIPattern(_ context.Context, symbol string) (model.OIPattern, error) {
	if m.OIErr != nil {
		return model.OIUnavailable, m.OIErr
	}
	return m.OI[symbol], nil
}

// GenerateBars builds count consecutive daily bars ending yesterday.
func GenerateBars(basePrice, step float64, count int) []model.PriceBar {
	end := time.Now().UTC().Truncate(24 * time.Hour)
	bars := make([]model.PriceBar, count)
	for i := 0; i < count; i++ {
		p := basePrice + float64(i)*step
		bars[i] = model.PriceBar{
			Date:   end.AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector fetches one symbol's data, computes indicators and scores it.
type Collector struct {
	Series       SeriesFetcher
	OI           OIFetcher // optional
	Scorer       *strategy.Scorer
	Params       calculator.Params
	LookbackDays int
	MaxRetries   int
	RetryBackoff time.Duration
	Log          *logrus.Entry
}

// NewCollector creates a new Collector with the default indicator periods.
func NewCollector(series SeriesFetcher, oi OIFetcher, scorer *strategy.Scorer, log *logrus.Entry) *Collector {
	return &Collector{
		Series:       series,
		OI:           oi,
		Scorer:       scorer,
		Params:       calculator.DefaultParams(),
		LookbackDays: 60,
		MaxRetries:   2,
		RetryBackoff: time.Second,
		Log:          log.WithField("component", "collector"),
	}
}

// Collect produces the scored snapshot of symbol. A failing OI lookup
// degrades to OIUnavailable; only a missing or unusable price series fails.
func (c *Collector) Collect(ctx context.Context, symbol string) (*model.StockResult, error) {
	log := c.Log.WithField("symbol", symbol)

	bars, err := withRetry(ctx, log, "fetch daily bars", c.MaxRetries, c.RetryBackoff, func() ([]model.PriceBar, error) {
		return c.Series.FetchDailyBars(ctx, symbol, c.LookbackDays)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch daily bars: %w", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}

	oi := model.OIUnavailable
	if c.OI != nil {
		p, err := c.OI.FetchOIPattern(ctx, symbol)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			log.WithError(err).Warn("OI pattern unavailable, scoring without it")
		} else {
			oi = p
		}
	}

	rows, issues := calculator.Compute(bars, c.Params)
	for _, is := range issues {
		log.Warnf("rejected %s", is)
	}
	latest := calculator.Latest(rows)
	if latest == nil {
		return nil, fmt.Errorf("%s: all %d bars rejected: %w", symbol, len(bars), ErrNoData)
	}

	scores := c.Scorer.Score(latest, oi)
	return &model.StockResult{
		Symbol:      symbol,
		Date:        latest.Date,
		Price:       latest.Close,
		Volume:      latest.Volume,
		VolumeRatio: latest.VolumeRatio,
		RSI:         latest.RSI,
		MACD:        latest.MACD,
		MACDSignal:  latest.MACDSignal,
		EMA20:       latest.EMA20,
		EMA50:       latest.EMA50,
		ADX:         latest.ADX,
		OIPattern:   oi,
		Scores:      *scores,
		TotalScore:  scores.Total,
		BarIssues:   len(issues),
	}, nil
}
