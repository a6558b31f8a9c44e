package screener

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"SwingScreener/internal/model"
)

// ErrNoSymbols is returned when a scan is started with an empty symbol list.
var ErrNoSymbols = errors.New("no symbols to scan")

// Collector scores a single symbol.
type Collector interface {
	Collect(ctx context.Context, symbol string) (*model.StockResult, error)
}

// Options controls concurrency and pacing of a scan.
type Options struct {
	Workers      int
	BatchSize    int
	BatchPause   time.Duration
	RequestDelay time.Duration
	TopN         int
}

// Screener runs a Collector over many symbols and ranks the results.
type Screener struct {
	collector Collector
	opts      Options
	log       *logrus.Entry
}

// New creates a Screener. Non-positive sizes fall back to 1.
func New(c Collector, opts Options, log *logrus.Entry) *Screener {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = 1
	}
	if opts.TopN < 1 {
		opts.TopN = 1
	}
	return &Screener{collector: c, opts: opts, log: log.WithField("component", "screener")}
}

// TopN is the number of ranked results kept in a summary.
func (s *Screener) TopN() int { return s.opts.TopN }

// SelectSymbols picks the symbols for a request of limit stocks. A limit at
// or above fullScanLimit, or beyond the universe, scans everything.
func SelectSymbols(universe []string, limit, fullScanLimit int) []string {
	if limit <= 0 || limit >= fullScanLimit || limit >= len(universe) {
		return universe
	}
	return universe[:limit]
}

// Run scores symbols in batches of BatchSize, pausing BatchPause between
// them, and returns them ranked by total score. On cancellation the partial
// summary is returned together with ctx.Err().
func (s *Screener) Run(ctx context.Context, symbols []string) (*model.ScanSummary, error) {
	return s.run(ctx, symbols, s.opts.BatchSize, s.opts.BatchPause)
}

// RunUnbatched is Run as a single batch with no pause, for small on-demand scans.
// Workers and RequestDelay still apply.
func (s *Screener) RunUnbatched(ctx context.Context, symbols []string) (*model.ScanSummary, error) {
	return s.run(ctx, symbols, len(symbols), 0)
}

func (s *Screener) run(ctx context.Context, symbols []string, batchSize int, pause time.Duration) (*model.ScanSummary, error) {
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}
	summary := &model.ScanSummary{StartedAt: time.Now(), Requested: len(symbols)}

	batches := (len(symbols) + batchSize - 1) / batchSize
	var runErr error
	for b := 0; b < batches; b++ {
		start := b * batchSize
		end := start + batchSize
		if end > len(symbols) {
			end = len(symbols)
		}
		s.log.Infof("batch %d/%d: scanning %d symbols", b+1, batches, end-start)
		s.runBatch(ctx, symbols[start:end], summary)

		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if b < batches-1 && pause > 0 {
			s.log.Infof("batch %d/%d done, pausing %v", b+1, batches, pause)
			if err := sleep(ctx, pause); err != nil {
				runErr = err
				break
			}
		}
	}

	rank(summary.Results)
	summary.Scored = len(summary.Results)
	n := s.opts.TopN
	if n > len(summary.Results) {
		n = len(summary.Results)
	}
	summary.Top = append([]model.StockResult(nil), summary.Results[:n]...)
	summary.FinishedAt = time.Now()

	s.log.WithFields(logrus.Fields{
		"requested": summary.Requested,
		"scored":    summary.Scored,
		"failed":    len(summary.Failures),
		"elapsed":   summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond),
	}).Info("scan finished")
	return summary, runErr
}

func (s *Screener) runBatch(ctx context.Context, symbols []string, summary *model.ScanSummary) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	sem := make(chan struct{}, s.opts.Workers)

	for _, sym := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			res, err := s.collector.Collect(ctx, symbol)
			mu.Lock()
			if err != nil {
				summary.Failures = append(summary.Failures, model.SymbolFailure{Symbol: symbol, Reason: err.Error()})
				s.log.WithError(err).WithField("symbol", symbol).Warn("symbol skipped")
			} else {
				summary.Results = append(summary.Results, *res)
			}
			mu.Unlock()

			// Hold the slot so each worker paces its own requests.
			if s.opts.RequestDelay > 0 {
				sleep(ctx, s.opts.RequestDelay)
			}
		}(sym)
	}
	wg.Wait()
}

// rank sorts by total score descending, then symbol for a stable order.
func rank(results []model.StockResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].TotalScore != results[j].TotalScore {
			return results[i].TotalScore > results[j].TotalScore
		}
		return results[i].Symbol < results[j].Symbol
	})
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
