package recorder

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/sirupsen/logrus"

	"SwingScreener/internal/model"
)

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func sampleSummary(day time.Time) *model.ScanSummary {
	scored := model.StockResult{
		Symbol:      "INFY",
		Date:        day,
		Price:       1500,
		Volume:      2e6,
		VolumeRatio: null.FloatFrom(1.4),
		RSI:         null.FloatFrom(61),
		MACD:        null.FloatFrom(3.2),
		MACDSignal:  null.FloatFrom(2.1),
		EMA20:       null.FloatFrom(1470),
		EMA50:       null.FloatFrom(1440),
		OIPattern:   model.OILongBuildup,
		Scores: model.ScoreSet{
			Factors: []model.FactorScore{
				{Name: model.FactorVolume, Score: 60},
				{Name: model.FactorADX, Score: 0},
			},
			Total: 9,
		},
		TotalScore: 9,
	}
	return &model.ScanSummary{
		StartedAt:  day,
		FinishedAt: day.Add(time.Minute),
		Requested:  2,
		Scored:     1,
		Failures:   []model.SymbolFailure{{Symbol: "XYZ", Reason: "no data returned"}},
		Results:    []model.StockResult{scored},
	}
}

func exerciseRecorder(t *testing.T, r Recorder) {
	t.Helper()
	ctx := context.Background()
	day1 := time.Date(2024, 11, 19, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	id1, err := r.RecordScan(ctx, sampleSummary(day1))
	if err != nil {
		t.Fatalf("record first scan: %v", err)
	}
	second := sampleSummary(day2)
	second.Results[0].TotalScore = 12.5
	id2, err := r.RecordScan(ctx, second)
	if err != nil {
		t.Fatalf("record second scan: %v", err)
	}
	if id2 <= id1 {
		t.Errorf("run ids not increasing: %d then %d", id1, id2)
	}

	hist, err := r.History(ctx, "INFY", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("expected 2 history rows, got %d", len(hist))
	}
	if !hist[0].Date.Equal(day2) || hist[0].TotalScore != 12.5 || hist[0].RunID != id2 {
		t.Errorf("newest row = %+v", hist[0])
	}
	if hist[1].OIPattern != model.OILongBuildup {
		t.Errorf("oi pattern = %q", hist[1].OIPattern)
	}

	if hist, err := r.History(ctx, "INFY", 1); err != nil || len(hist) != 1 {
		t.Errorf("limit not applied: %d rows, err %v", len(hist), err)
	}
	if hist, err := r.History(ctx, "NONE", 5); err != nil || len(hist) != 0 {
		t.Errorf("unknown symbol: %d rows, err %v", len(hist), err)
	}
}

func TestSQLiteRecorder(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "nested", "scores.db"), quietLog())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()
	exerciseRecorder(t, r)
}

func TestSQLiteRecorder_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.db")
	r, err := NewSQLiteRecorder(path, quietLog())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := r.RecordScan(context.Background(), sampleSummary(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))); err != nil {
		t.Fatalf("record: %v", err)
	}
	r.Close()

	r2, err := NewSQLiteRecorder(path, quietLog())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer r2.Close()
	hist, err := r2.History(context.Background(), "INFY", 5)
	if err != nil || len(hist) != 1 {
		t.Errorf("expected 1 row after reopen, got %d (err %v)", len(hist), err)
	}
}

func TestPostgresRecorder(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	r, err := NewPostgresRecorder(ctx, dsn, DefaultPoolConfig(), quietLog())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()
	if _, err := r.pool.Exec(ctx, `TRUNCATE stock_scores, scan_runs`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	exerciseRecorder(t, r)
}

func TestFactorValues_AbsentIsNull(t *testing.T) {
	vals := factorValues(&model.ScoreSet{Factors: []model.FactorScore{{Name: model.FactorRSI, Score: 85}}})
	if len(vals) != len(scoredFactors) {
		t.Fatalf("got %d values", len(vals))
	}
	for i, f := range scoredFactors {
		if f == model.FactorRSI {
			if vals[i] != 85.0 {
				t.Errorf("rsi value = %v", vals[i])
			}
			continue
		}
		if vals[i] != nil {
			t.Errorf("%s should be nil, got %v", f, vals[i])
		}
	}
}

func TestWithDefaultSSLMode(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@h/db":                 "postgres://u:p@h/db?sslmode=prefer",
		"postgres://u:p@h/db?sslmode=disable": "postgres://u:p@h/db?sslmode=disable",
		"host=h dbname=db":                    "host=h dbname=db",
	}
	for in, want := range tests {
		if got := withDefaultSSLMode(in); got != want {
			t.Errorf("withDefaultSSLMode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	if _, err := r.RecordScan(context.Background(), sampleSummary(time.Now())); err != nil {
		t.Error(err)
	}
	if h, err := r.History(context.Background(), "X", 1); err != nil || h != nil {
		t.Errorf("history = %v, %v", h, err)
	}
}
