package model

// Factor names one scoring dimension.
type Factor string

const (
	FactorVolume    Factor = "volume"
	FactorMACD      Factor = "macd"
	FactorRSI       Factor = "rsi"
	FactorEMATrend  Factor = "ema_trend"
	FactorADX       Factor = "adx"
	FactorOIPattern Factor = "oi_pattern"

	// FactorFIIDII carries a weight but no scorer produces it yet.
	FactorFIIDII Factor = "fii_dii"
)

// FactorScore represents a single factor's scoring result.
type FactorScore struct {
	Name       Factor  `json:"name"`
	Score      float64 `json:"score"`
	Weight     float64 `json:"weight"`
	Weighted   float64 `json:"weighted"`
	Commentary string  `json:"commentary,omitempty"`
}

// ScoreSet is the output of the scorer for one symbol.
type ScoreSet struct {
	Factors []FactorScore `json:"factors"`
	Total   float64       `json:"total"`
}

// Score returns the sub-score for name and whether it is present.
func (s *ScoreSet) Score(name Factor) (float64, bool) {
	if s == nil {
		return 0, false
	}
	for _, f := range s.Factors {
		if f.Name == name {
			return f.Score, true
		}
	}
	return 0, false
}
