package strategy

import (
	"github.com/shopspring/decimal"

	"SwingScreener/internal/config"
	"SwingScreener/internal/model"
)

// Scorer maps indicator rows to factor scores using a fixed set of tables.
type Scorer struct {
	tables config.ScoringTables
}

// NewScorer creates a Scorer bound to tables.
func NewScorer(tables config.ScoringTables) *Scorer {
	return &Scorer{tables: tables}
}

// Score computes every factor for row and the weighted total.
// It returns nil only when row is nil.
func (s *Scorer) Score(row *model.IndicatorRow, oi model.OIPattern) *model.ScoreSet {
	if row == nil {
		return nil
	}
	t := &s.tables
	factors := []model.FactorScore{
		scoreVolume(row, t.Volume),
		scoreMACD(row, t.MACD),
		scoreRSI(row, t.RSI),
		scoreTrend(row, t.Trend),
		scoreADX(row, t.ADX),
		scoreOI(oi, t.OI),
	}
	for i := range factors {
		w := t.Weights[factors[i].Name]
		factors[i].Weight = w
		factors[i].Weighted = factors[i].Score * w / 100
	}
	return &model.ScoreSet{
		Factors: factors,
		Total:   WeightedTotal(factors, t.Weights),
	}
}

// ScoreSeries scores the last row of rows, or returns nil when rows is empty.
func (s *Scorer) ScoreSeries(rows []model.IndicatorRow, oi model.OIPattern) *model.ScoreSet {
	if len(rows) == 0 {
		return nil
	}
	return s.Score(&rows[len(rows)-1], oi)
}

// WeightedTotal sums score*weight/100 over factors that have both a score and
// a weight, rounded to two decimals. Weights without a matching score are skipped.
func WeightedTotal(factors []model.FactorScore, weights config.Weights) float64 {
	hundred := decimal.NewFromInt(100)
	total := decimal.Zero
	for _, f := range factors {
		w, ok := weights[f.Name]
		if !ok {
			continue
		}
		total = total.Add(decimal.NewFromFloat(f.Score).Mul(decimal.NewFromFloat(w)).Div(hundred))
	}
	return total.Round(2).InexactFloat64()
}
