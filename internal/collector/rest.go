package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"SwingScreener/internal/model"
)

// RESTFetcher implements SeriesFetcher against a plain JSON bars endpoint:
// GET {BaseURL}/api/v1/bars/daily?symbol=X&limit=N returning an array of bars.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string) *RESTFetcher {
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL, nil),
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bars endpoint.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// FetchDailyBars asks for roughly lookbackDays calendar days of trading bars
// and drops anything older than the window.
func (f *RESTFetcher) FetchDailyBars(ctx context.Context, symbol string, lookbackDays int) ([]model.PriceBar, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("limit", fmt.Sprint(lookbackDays))
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?%s", f.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}
	var raw []restBar
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -lookbackDays)
	bars := make([]model.PriceBar, 0, len(raw))
	for _, rb := range raw {
		t := time.Unix(rb.Timestamp, 0).UTC()
		if t.Before(cutoff) {
			continue
		}
		bars = append(bars, model.PriceBar{
			Date:   t,
			Open:   rb.Open,
			High:   rb.High,
			Low:    rb.Low,
			Close:  rb.Close,
			Volume: rb.Volume,
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("rest: %s: %w", symbol, ErrNoData)
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}
