package collector

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"SwingScreener/internal/config"
	"SwingScreener/internal/model"
	"SwingScreener/internal/strategy"
)

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestCollector(m *MockFetcher) *Collector {
	c := NewCollector(m, m, strategy.NewScorer(config.DefaultScoringTables()), quietLog())
	c.RetryBackoff = time.Millisecond
	return c
}

func TestCollect_ScoresSymbol(t *testing.T) {
	m := &MockFetcher{Price: 100, Step: 1, OI: map[string]model.OIPattern{"INFY": model.OILongBuildup}}
	res, err := newTestCollector(m).Collect(context.Background(), "INFY")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if res.Symbol != "INFY" || res.OIPattern != model.OILongBuildup {
		t.Errorf("unexpected result header: %+v", res)
	}
	if res.Price != 159 {
		t.Errorf("price = %v, want 159", res.Price)
	}
	if !res.ADX.Valid || !res.RSI.Valid || !res.VolumeRatio.Valid {
		t.Errorf("expected indicators on a 60-bar series: %+v", res)
	}
	if res.TotalScore != res.Scores.Total || res.TotalScore <= 0 || res.TotalScore > 80 {
		t.Errorf("total = %v (scores total %v)", res.TotalScore, res.Scores.Total)
	}
}

func TestCollect_RetriesThenSucceeds(t *testing.T) {
	m := &MockFetcher{Price: 100, Step: 0.5, Err: errors.New("timeout"), FailN: 2}
	if _, err := newTestCollector(m).Collect(context.Background(), "TCS"); err != nil {
		t.Fatalf("collect: %v", err)
	}
	if m.Calls() != 3 {
		t.Errorf("calls = %d, want 3", m.Calls())
	}
}

func TestCollect_GivesUpAfterRetries(t *testing.T) {
	m := &MockFetcher{Err: errors.New("boom")}
	_, err := newTestCollector(m).Collect(context.Background(), "TCS")
	if err == nil {
		t.Fatal("expected error")
	}
	if m.Calls() != 3 {
		t.Errorf("calls = %d, want 3", m.Calls())
	}
}

func TestCollect_OIFailureDegrades(t *testing.T) {
	m := &MockFetcher{Price: 100, Step: 1, OIErr: errors.New("nse down")}
	res, err := newTestCollector(m).Collect(context.Background(), "SBIN")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if res.OIPattern != model.OIUnavailable {
		t.Errorf("oi = %q, want unavailable", res.OIPattern)
	}
	if v, _ := res.Scores.Score(model.FactorOIPattern); v != 40 {
		t.Errorf("oi score = %v, want 40", v)
	}
}

func TestCollect_AllBarsRejected(t *testing.T) {
	bars := GenerateBars(100, 1, 5)
	for i := range bars {
		bars[i].Close = math.NaN()
	}
	m := &MockFetcher{Bars: map[string][]model.PriceBar{"BAD": bars}}
	_, err := newTestCollector(m).Collect(context.Background(), "BAD")
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestCollect_ShortHistoryStillScores(t *testing.T) {
	m := &MockFetcher{Bars: map[string][]model.PriceBar{"NEW": GenerateBars(50, 1, 10)}}
	res, err := newTestCollector(m).Collect(context.Background(), "NEW")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if res.ADX.Valid || res.RSI.Valid {
		t.Errorf("expected undefined ADX/RSI on 10 bars: %+v", res)
	}
	if v, _ := res.Scores.Score(model.FactorADX); v != 0 {
		t.Errorf("adx score = %v, want 0", v)
	}
}

func TestCollect_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := &MockFetcher{Err: errors.New("boom")}
	if _, err := newTestCollector(m).Collect(ctx, "X"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestStaticUniverse(t *testing.T) {
	u := StaticUniverse{"A", "B"}
	got, err := u.FetchConstituents(context.Background(), "ignored")
	if err != nil || len(got) != 2 {
		t.Fatalf("got %v, %v", got, err)
	}
	got[0] = "Z"
	if u[0] != "A" {
		t.Error("returned slice aliases the universe")
	}
	if _, err := (StaticUniverse{}).FetchConstituents(context.Background(), ""); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}
