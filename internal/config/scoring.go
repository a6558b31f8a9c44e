package config

import (
	"fmt"

	"SwingScreener/internal/model"
)

// Band is one threshold step: values >= Min score Score.
type Band struct {
	Min   float64 `yaml:"min"`
	Score float64 `yaml:"score"`
}

// Bands is a threshold table evaluated from the highest step down.
type Bands struct {
	Steps []Band  `yaml:"steps"`
	Floor float64 `yaml:"floor"`
}

// Lookup returns the score of the first step whose Min is <= v, or Floor.
func (b Bands) Lookup(v float64) float64 {
	for _, s := range b.Steps {
		if v >= s.Min {
			return s.Score
		}
	}
	return b.Floor
}

func (b Bands) validate(name string) error {
	for i, s := range b.Steps {
		if i > 0 && s.Min >= b.Steps[i-1].Min {
			return fmt.Errorf("scoring.%s: steps must be strictly descending (step %d)", name, i)
		}
		if err := checkScore(name, s.Score); err != nil {
			return err
		}
	}
	return checkScore(name, b.Floor)
}

// MACDScores holds the four MACD regimes.
type MACDScores struct {
	StrongBullish float64 `yaml:"strong_bullish"` // hist > 0 and macd > signal
	Bullish       float64 `yaml:"bullish"`        // hist > 0
	WeakBullish   float64 `yaml:"weak_bullish"`   // macd > signal
	Bearish       float64 `yaml:"bearish"`
}

// TrendScores holds the price vs EMA-20/EMA-50 regimes.
type TrendScores struct {
	MinDistancePct    float64 `yaml:"min_distance_pct"`
	AboveBothStrong   float64 `yaml:"above_both_strong"`
	AboveBothModerate float64 `yaml:"above_both_moderate"`
	Above20Only       float64 `yaml:"above_20_only"`
	Between           float64 `yaml:"between"`
	BelowBoth         float64 `yaml:"below_both"`
}

// Weights maps a factor to its share of the total, in points.
type Weights map[model.Factor]float64

// weightAliases maps table keys that differ from the factor name.
var weightAliases = map[model.Factor]model.Factor{
	"trend_ema": model.FactorEMATrend,
}

// normalize folds aliased keys onto their factor.
func (w Weights) normalize() {
	for alias, factor := range weightAliases {
		if v, ok := w[alias]; ok {
			w[factor] = v
			delete(w, alias)
		}
	}
}

// ScoringTables is every threshold and weight the scorer consults.
type ScoringTables struct {
	Weights Weights                     `yaml:"weights"`
	Volume  Bands                       `yaml:"volume"`
	MACD    MACDScores                  `yaml:"macd"`
	RSI     Bands                       `yaml:"rsi"`
	Trend   TrendScores                 `yaml:"trend_ema"`
	ADX     Bands                       `yaml:"adx"`
	OI      map[model.OIPattern]float64 `yaml:"oi_pattern"`
}

// DefaultScoringTables returns a fresh copy of the standard tables.
func DefaultScoringTables() ScoringTables {
	return ScoringTables{
		Weights: Weights{
			model.FactorVolume:    15,
			model.FactorMACD:      13,
			model.FactorRSI:       12,
			model.FactorEMATrend:  20,
			model.FactorADX:       10,
			model.FactorOIPattern: 10,
			model.FactorFIIDII:    20,
		},
		Volume: Bands{
			Steps: []Band{{2.0, 100}, {1.5, 80}, {1.2, 60}, {1.0, 40}},
			Floor: 20,
		},
		MACD: MACDScores{StrongBullish: 100, Bullish: 70, WeakBullish: 40, Bearish: 10},
		RSI: Bands{
			Steps: []Band{{75, 0}, {70, 60}, {55, 100}, {50, 85}, {45, 50}, {40, 25}},
			Floor: 0,
		},
		Trend: TrendScores{
			MinDistancePct:    2,
			AboveBothStrong:   100,
			AboveBothModerate: 80,
			Above20Only:       50,
			Between:           30,
			BelowBoth:         0,
		},
		ADX: Bands{
			Steps: []Band{{40, 100}, {25, 80}, {20, 60}},
			Floor: 30,
		},
		OI: map[model.OIPattern]float64{
			model.OILongBuildup:   100,
			model.OIShortCovering: 80,
			model.OILongUnwinding: 20,
			model.OIShortBuildup:  10,
			model.OINoPattern:     40,
		},
	}
}

// Validate checks table ordering and score ranges.
func (t *ScoringTables) Validate() error {
	for f, w := range t.Weights {
		if w < 0 {
			return fmt.Errorf("scoring.weights.%s must not be negative", f)
		}
	}
	if err := t.Volume.validate("volume"); err != nil {
		return err
	}
	if err := t.RSI.validate("rsi"); err != nil {
		return err
	}
	if err := t.ADX.validate("adx"); err != nil {
		return err
	}
	for _, s := range []float64{t.MACD.StrongBullish, t.MACD.Bullish, t.MACD.WeakBullish, t.MACD.Bearish} {
		if err := checkScore("macd", s); err != nil {
			return err
		}
	}
	for _, s := range []float64{t.Trend.AboveBothStrong, t.Trend.AboveBothModerate, t.Trend.Above20Only, t.Trend.Between, t.Trend.BelowBoth} {
		if err := checkScore("trend_ema", s); err != nil {
			return err
		}
	}
	if t.Trend.MinDistancePct < 0 {
		return fmt.Errorf("scoring.trend_ema.min_distance_pct must not be negative")
	}
	if _, ok := t.OI[model.OINoPattern]; !ok {
		return fmt.Errorf("scoring.oi_pattern.%s is required", model.OINoPattern)
	}
	for p, s := range t.OI {
		if err := checkScore("oi_pattern."+string(p), s); err != nil {
			return err
		}
	}
	return nil
}

func checkScore(name string, s float64) error {
	if s < 0 || s > 100 {
		return fmt.Errorf("scoring.%s: score %.2f outside [0,100]", name, s)
	}
	return nil
}
