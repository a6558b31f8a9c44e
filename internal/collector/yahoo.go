package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"SwingScreener/internal/model"
)

// YahooFetcher implements SeriesFetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	BaseURL string
	Suffix  string // exchange suffix appended to bare tickers, e.g. ".NS"
	Client  *http.Client
	Now     func() time.Time
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(suffix, proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: "https://query1.finance.yahoo.com",
		Suffix:  suffix,
		Client:  newHTTPClient(proxyURL, nil),
		Now:     time.Now,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooSymbol appends the exchange suffix unless the ticker already carries
// one or is an index.
func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if f.Suffix == "" || strings.Contains(symbol, ".") || strings.HasPrefix(symbol, "^") {
		return symbol
	}
	return symbol + f.Suffix
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// valueAt returns the value at i, or NaN when it is null or missing.
func valueAt(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return math.NaN()
	}
	return *vals[i]
}

// FetchDailyBars returns daily bars covering the last lookbackDays calendar days.
func (f *YahooFetcher) FetchDailyBars(ctx context.Context, symbol string, lookbackDays int) ([]model.PriceBar, error) {
	now := f.Now()
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("period1", strconv.FormatInt(now.AddDate(0, 0, -lookbackDays).Unix(), 10))
	q.Set("period2", strconv.FormatInt(now.Unix(), 10))
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("yahoo: %s: %w", symbol, ErrNoData)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: %s: %w", symbol, ErrNoData)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.PriceBar, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o := valueAt(quote.Open, i)
		h := valueAt(quote.High, i)
		l := valueAt(quote.Low, i)
		c := valueAt(quote.Close, i)
		if math.IsNaN(o) && math.IsNaN(h) && math.IsNaN(l) && math.IsNaN(c) {
			continue // skip null bars (holidays etc.)
		}
		// Partially null bars are kept as NaN so the calculator rejects them visibly.
		bars = append(bars, model.PriceBar{
			Date:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: valueAt(quote.Volume, i),
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo: %s: %w", symbol, ErrNoData)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}
