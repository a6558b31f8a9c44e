package screener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"SwingScreener/internal/model"
)

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// fakeCollector scores a symbol by a fixed table and tracks concurrency.
type fakeCollector struct {
	scores  map[string]float64
	fail    map[string]bool
	delay   time.Duration
	active  int32
	peak    int32
	mu      sync.Mutex
	visited []string
}

func (f *fakeCollector) Collect(ctx context.Context, symbol string) (*model.StockResult, error) {
	n := atomic.AddInt32(&f.active, 1)
	defer atomic.AddInt32(&f.active, -1)
	for {
		p := atomic.LoadInt32(&f.peak)
		if n <= p || atomic.CompareAndSwapInt32(&f.peak, p, n) {
			break
		}
	}
	f.mu.Lock()
	f.visited = append(f.visited, symbol)
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fail[symbol] {
		return nil, errors.New("no data returned")
	}
	return &model.StockResult{Symbol: symbol, TotalScore: f.scores[symbol]}, nil
}

func symbols(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("S%02d", i)
	}
	return out
}

func TestRun_RanksAndKeepsTopN(t *testing.T) {
	fc := &fakeCollector{
		scores: map[string]float64{"A": 40, "B": 72.5, "C": 10, "D": 72.5, "E": 55},
		fail:   map[string]bool{"C": true},
	}
	s := New(fc, Options{Workers: 3, BatchSize: 10, TopN: 3}, quietLog())
	sum, err := s.Run(context.Background(), []string{"A", "B", "C", "D", "E"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Requested != 5 || sum.Scored != 4 || len(sum.Failures) != 1 {
		t.Errorf("requested=%d scored=%d failures=%d", sum.Requested, sum.Scored, len(sum.Failures))
	}
	if sum.Failures[0].Symbol != "C" {
		t.Errorf("failure symbol = %s, want C", sum.Failures[0].Symbol)
	}
	want := []string{"B", "D", "E"}
	if len(sum.Top) != len(want) {
		t.Fatalf("top has %d entries, want %d", len(sum.Top), len(want))
	}
	for i, w := range want {
		if sum.Top[i].Symbol != w {
			t.Errorf("top[%d] = %s, want %s", i, sum.Top[i].Symbol, w)
		}
	}
	for i := 1; i < len(sum.Results); i++ {
		if sum.Results[i].TotalScore > sum.Results[i-1].TotalScore {
			t.Errorf("results not sorted at %d", i)
		}
	}
}

func TestRun_BoundsConcurrency(t *testing.T) {
	fc := &fakeCollector{delay: 5 * time.Millisecond}
	s := New(fc, Options{Workers: 2, BatchSize: 50, TopN: 5}, quietLog())
	if _, err := s.Run(context.Background(), symbols(12)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if p := atomic.LoadInt32(&fc.peak); p > 2 {
		t.Errorf("peak concurrency %d exceeds 2 workers", p)
	}
	if len(fc.visited) != 12 {
		t.Errorf("visited %d symbols, want 12", len(fc.visited))
	}
}

func TestRun_BatchesWithPause(t *testing.T) {
	fc := &fakeCollector{}
	s := New(fc, Options{Workers: 4, BatchSize: 3, BatchPause: 20 * time.Millisecond, TopN: 5}, quietLog())
	start := time.Now()
	sum, err := s.Run(context.Background(), symbols(7))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// Three batches, two pauses.
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("elapsed %v, expected at least two batch pauses", elapsed)
	}
	if sum.Scored != 7 {
		t.Errorf("scored %d, want 7", sum.Scored)
	}
}

func TestRun_CancelDuringPauseReturnsPartial(t *testing.T) {
	fc := &fakeCollector{}
	s := New(fc, Options{Workers: 2, BatchSize: 2, BatchPause: time.Hour, TopN: 5}, quietLog())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	sum, err := s.Run(ctx, symbols(6))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if sum == nil || sum.Scored != 2 {
		t.Errorf("expected the first batch in the partial summary, got %+v", sum)
	}
}

func TestRunUnbatched_SkipsBatchPause(t *testing.T) {
	fc := &fakeCollector{scores: map[string]float64{"S03": 50}}
	s := New(fc, Options{Workers: 2, BatchSize: 2, BatchPause: time.Hour, TopN: 1}, quietLog())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sum, err := s.RunUnbatched(ctx, symbols(6))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Scored != 6 || sum.Top[0].Symbol != "S03" {
		t.Errorf("scored=%d top=%+v", sum.Scored, sum.Top)
	}
	if p := atomic.LoadInt32(&fc.peak); p > 2 {
		t.Errorf("peak concurrency %d exceeds 2 workers", p)
	}
}

func TestRun_NoSymbols(t *testing.T) {
	s := New(&fakeCollector{}, Options{}, quietLog())
	if _, err := s.Run(context.Background(), nil); !errors.Is(err, ErrNoSymbols) {
		t.Errorf("expected ErrNoSymbols, got %v", err)
	}
	if _, err := s.RunUnbatched(context.Background(), nil); !errors.Is(err, ErrNoSymbols) {
		t.Errorf("unbatched: expected ErrNoSymbols, got %v", err)
	}
}

func TestSelectSymbols(t *testing.T) {
	universe := symbols(10)
	tests := []struct {
		limit, full, want int
	}{
		{5, 500, 5},
		{0, 500, 10},
		{10, 500, 10},
		{50, 500, 10},
		{6, 6, 10},
	}
	for _, tt := range tests {
		if got := len(SelectSymbols(universe, tt.limit, tt.full)); got != tt.want {
			t.Errorf("limit %d full %d: got %d symbols, want %d", tt.limit, tt.full, got, tt.want)
		}
	}
}
