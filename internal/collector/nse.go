package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"SwingScreener/internal/model"
)

const nseSessionTTL = 5 * time.Minute

// NSEClient talks to the nseindia.com JSON API. The API rejects requests that
// do not carry the cookies set by the home page, so the session is primed
// before use and re-primed periodically.
type NSEClient struct {
	BaseURL string
	OIDays  int
	Client  *http.Client
	Now     func() time.Time

	mu       sync.Mutex
	primedAt time.Time
}

// NewNSEClient creates a client with its own cookie jar.
func NewNSEClient(baseURL string, oiDays int, proxyURL string) *NSEClient {
	jar, _ := cookiejar.New(nil)
	return &NSEClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		OIDays:  oiDays,
		Client:  newHTTPClient(proxyURL, jar),
		Now:     time.Now,
	}
}

func (c *NSEClient) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", c.BaseURL+"/")
}

// prime visits the home page to collect session cookies.
func (c *NSEClient) prime(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.primedAt.IsZero() && c.Now().Sub(c.primedAt) < nseSessionTTL {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/", nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)
	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("nse prime session: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nse prime session: status %d", resp.StatusCode)
	}
	c.primedAt = c.Now()
	return nil
}

func (c *NSEClient) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	if err := c.prime(ctx); err != nil {
		return err
	}
	u := c.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)
	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("nse request %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("nse read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			c.mu.Lock()
			c.primedAt = time.Time{}
			c.mu.Unlock()
		}
		return fmt.Errorf("nse %s: status %d", path, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("nse decode %s: %w", path, err)
	}
	return nil
}

// FetchConstituents returns the member symbols of an NSE index such as "NIFTY 500".
func (c *NSEClient) FetchConstituents(ctx context.Context, index string) ([]string, error) {
	var resp struct {
		Data []struct {
			Symbol string `json:"symbol"`
		} `json:"data"`
	}
	q := url.Values{}
	q.Set("index", index)
	if err := c.getJSON(ctx, "/api/equity-stockIndices", q, &resp); err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(resp.Data))
	for _, d := range resp.Data {
		// The index itself is listed as the first row.
		if d.Symbol == "" || d.Symbol == index {
			continue
		}
		symbols = append(symbols, d.Symbol)
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("nse index %q: %w", index, ErrNoData)
	}
	return symbols, nil
}

// nseNumber accepts both JSON numbers and numeric strings ("1,234.50").
type nseNumber float64

func (n *nseNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "-" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", s, err)
	}
	*n = nseNumber(v)
	return nil
}

type nseFuturesRecord struct {
	Expiry       string    `json:"FH_EXPIRY_DT"`
	Timestamp    string    `json:"FH_TIMESTAMP"`
	ClosingPrice nseNumber `json:"FH_CLOSING_PRICE"`
	OpenInterest nseNumber `json:"FH_OPEN_INT"`
}

const nseDateLayout = "02-Jan-2006"

// FetchOIPattern derives the open-interest pattern from the last OIDays of
// stock futures history. Symbols without futures yield OIUnavailable.
func (c *NSEClient) FetchOIPattern(ctx context.Context, symbol string) (model.OIPattern, error) {
	now := c.Now()
	q := url.Values{}
	q.Set("from", now.AddDate(0, 0, -c.OIDays).Format("02-01-2006"))
	q.Set("to", now.Format("02-01-2006"))
	q.Set("instrumentType", "FUTSTK")
	q.Set("symbol", symbol)

	var resp struct {
		Data []nseFuturesRecord `json:"data"`
	}
	if err := c.getJSON(ctx, "/api/historical/foCPV", q, &resp); err != nil {
		return model.OIUnavailable, err
	}
	if len(resp.Data) == 0 {
		return model.OIUnavailable, nil
	}

	rows := make([]futuresRow, 0, len(resp.Data))
	for _, r := range resp.Data {
		expiry, err := time.Parse(nseDateLayout, r.Expiry)
		if err != nil {
			return model.OIUnavailable, fmt.Errorf("nse %s expiry %q: %w", symbol, r.Expiry, err)
		}
		ts, err := time.Parse(nseDateLayout, r.Timestamp)
		if err != nil {
			return model.OIUnavailable, fmt.Errorf("nse %s timestamp %q: %w", symbol, r.Timestamp, err)
		}
		rows = append(rows, futuresRow{
			Expiry:       expiry,
			Timestamp:    ts,
			Close:        float64(r.ClosingPrice),
			OpenInterest: float64(r.OpenInterest),
		})
	}
	return patternFromRows(rows, now), nil
}
