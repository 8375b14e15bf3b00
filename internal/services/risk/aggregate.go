package risk

import (
	"StakeWatch/internal/domain/models"
)

// Aggregator folds the four bounded component scores into the composite
// [0, 100] score and classifies it. The regime multiplier only ever inflates:
// a stressed regime can push the composite above the raw component sum before
// the final clamp, it can never mask component risk.
type Aggregator struct {
	p Params
}

func NewAggregator(p Params) *Aggregator { return &Aggregator{p: p} }

// Compose sums the component breakdown and applies the market regime
// multiplier, clamping the result to [0, MaxScore].
func (a *Aggregator) Compose(b models.ComponentBreakdown, mc models.MarketConditions) float64 {
	return clamp(b.Sum()*a.RegimeMultiplier(mc), 0, a.p.MaxScore)
}

// RegimeMultiplier returns the composite inflation factor for the current
// market regime. It is always >= 1.
func (a *Aggregator) RegimeMultiplier(mc models.MarketConditions) float64 {
	mult := 1.0
	switch mc.Sentiment {
	case models.SentimentExtremeFear:
		mult = a.p.ExtremeFearMultiplier
	case models.SentimentExtremeGreed:
		mult = a.p.ExtremeGreedMultiplier
	}
	if mc.PairwiseCorrelation > a.p.CorrelationThreshold {
		mult *= a.p.CorrelationMultiplier
	}
	if mult < 1 {
		mult = 1
	}
	return mult
}

// Classify maps a composite score onto its risk band. Bands are inclusive on
// their upper bound: 30 is still low, 60 still medium, 80 still high.
func (a *Aggregator) Classify(score float64) models.RiskLevel {
	switch {
	case score <= a.p.LowMax:
		return models.RiskLevelLow
	case score <= a.p.MediumMax:
		return models.RiskLevelMedium
	case score <= a.p.HighMax:
		return models.RiskLevelHigh
	default:
		return models.RiskLevelCritical
	}
}
