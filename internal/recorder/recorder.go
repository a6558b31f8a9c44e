package recorder

import (
	"context"
	"time"

	"SwingScreener/internal/model"
)

// ScoreRecord is one stored score of a symbol.
type ScoreRecord struct {
	RunID      int64           `json:"run_id"`
	Symbol     string          `json:"symbol"`
	Date       time.Time       `json:"date"`
	Price      float64         `json:"price"`
	OIPattern  model.OIPattern `json:"oi_pattern"`
	TotalScore float64         `json:"total_score"`
}

// Recorder persists scan history for later analysis.
type Recorder interface {
	// RecordScan stores the run and every scored symbol, returning the run id.
	RecordScan(ctx context.Context, summary *model.ScanSummary) (int64, error)
	// History returns the most recent scores of symbol, newest first.
	History(ctx context.Context, symbol string, limit int) ([]ScoreRecord, error)
	Close() error
}

// scoredFactors is the column order of per-factor scores.
var scoredFactors = []model.Factor{
	model.FactorVolume,
	model.FactorMACD,
	model.FactorRSI,
	model.FactorEMATrend,
	model.FactorADX,
	model.FactorOIPattern,
}

// factorValues returns the per-factor scores in column order; absent factors are nil.
func factorValues(s *model.ScoreSet) []any {
	out := make([]any, len(scoredFactors))
	for i, f := range scoredFactors {
		if v, ok := s.Score(f); ok {
			out[i] = v
		}
	}
	return out
}
