package strategy

import (
	"fmt"

	"SwingScreener/internal/config"
	"SwingScreener/internal/model"
)

// scoreVolume scores the volume ratio against its MA20.
// Missing ratio scores 0.
func scoreVolume(row *model.IndicatorRow, bands config.Bands) model.FactorScore {
	if !row.VolumeRatio.Valid {
		return model.FactorScore{Name: model.FactorVolume, Score: 0, Commentary: "volume ratio unavailable"}
	}
	ratio := row.VolumeRatio.Float64
	return model.FactorScore{
		Name:       model.FactorVolume,
		Score:      bands.Lookup(ratio),
		Commentary: fmt.Sprintf("%.2fx avg volume", ratio),
	}
}

// scoreMACD scores the MACD line against its signal and histogram.
func scoreMACD(row *model.IndicatorRow, s config.MACDScores) model.FactorScore {
	if !row.MACD.Valid || !row.MACDSignal.Valid || !row.MACDHist.Valid {
		return model.FactorScore{Name: model.FactorMACD, Score: 0, Commentary: "MACD unavailable"}
	}
	macd, signal, hist := row.MACD.Float64, row.MACDSignal.Float64, row.MACDHist.Float64

	var score float64
	var commentary string
	switch {
	case hist > 0 && macd > signal:
		score = s.StrongBullish
		commentary = "bullish crossover"
	case hist > 0:
		score = s.Bullish
		commentary = "positive histogram"
	case macd > signal:
		score = s.WeakBullish
		commentary = "above signal"
	default:
		score = s.Bearish
		commentary = "bearish"
	}
	return model.FactorScore{
		Name:       model.FactorMACD,
		Score:      score,
		Commentary: fmt.Sprintf("%s, hist %+.2f", commentary, hist),
	}
}

// scoreRSI favours the 55-70 momentum zone and zeroes overbought readings.
func scoreRSI(row *model.IndicatorRow, bands config.Bands) model.FactorScore {
	if !row.RSI.Valid {
		return model.FactorScore{Name: model.FactorRSI, Score: 0, Commentary: "RSI unavailable"}
	}
	rsi := row.RSI.Float64
	return model.FactorScore{
		Name:       model.FactorRSI,
		Score:      bands.Lookup(rsi),
		Commentary: fmt.Sprintf("RSI=%.0f", rsi),
	}
}

// scoreTrend scores close against EMA-20 and EMA-50.
// Close above both with EMA-20 over EMA-50 is the strong case; the distance
// above EMA-20 then decides between strong and moderate. Close above both
// without that ordering falls through to BelowBoth.
func scoreTrend(row *model.IndicatorRow, s config.TrendScores) model.FactorScore {
	if !row.EMA20.Valid || !row.EMA50.Valid {
		return model.FactorScore{Name: model.FactorEMATrend, Score: 0, Commentary: "EMA unavailable"}
	}
	price, ema20, ema50 := row.Close, row.EMA20.Float64, row.EMA50.Float64
	above20 := price > ema20
	above50 := price > ema50

	var score float64
	var commentary string
	switch {
	case above20 && above50 && ema20 > ema50:
		distance := 0.0
		if ema20 > 0 {
			distance = (price - ema20) / ema20 * 100
		}
		if distance >= s.MinDistancePct {
			score = s.AboveBothStrong
		} else {
			score = s.AboveBothModerate
		}
		commentary = fmt.Sprintf("bullish alignment, %+.1f%% vs EMA20", distance)
	case above20 && !above50:
		score = s.Above20Only
		commentary = "above EMA20 only"
	case !above20 && above50:
		score = s.Between
		commentary = "between EMAs"
	default:
		score = s.BelowBoth
		commentary = "no bullish alignment"
	}
	return model.FactorScore{Name: model.FactorEMATrend, Score: score, Commentary: commentary}
}

// scoreADX scores trend strength.
func scoreADX(row *model.IndicatorRow, bands config.Bands) model.FactorScore {
	if !row.ADX.Valid {
		return model.FactorScore{Name: model.FactorADX, Score: 0, Commentary: "ADX unavailable"}
	}
	adx := row.ADX.Float64
	return model.FactorScore{
		Name:       model.FactorADX,
		Score:      bands.Lookup(adx),
		Commentary: fmt.Sprintf("ADX=%.0f", adx),
	}
}

// scoreOI scores the futures open-interest pattern. Unknown or missing
// labels score as no_pattern.
func scoreOI(p model.OIPattern, scores map[model.OIPattern]float64) model.FactorScore {
	label := p
	if !label.Known() {
		label = model.OINoPattern
	}
	score, ok := scores[label]
	if !ok {
		score = scores[model.OINoPattern]
	}
	commentary := string(label)
	if p == model.OIUnavailable {
		commentary = "no F&O data"
	}
	return model.FactorScore{Name: model.FactorOIPattern, Score: score, Commentary: commentary}
}
