package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"StakeWatch/internal/domain/models"
)

func TestAggregator_Classify(t *testing.T) {
	agg := NewAggregator(DefaultParams())

	tests := []struct {
		score float64
		want  models.RiskLevel
	}{
		{0, models.RiskLevelLow},
		{30, models.RiskLevelLow},
		{30.01, models.RiskLevelMedium},
		{60, models.RiskLevelMedium},
		{60.01, models.RiskLevelHigh},
		{80, models.RiskLevelHigh},
		{80.01, models.RiskLevelCritical},
		{100, models.RiskLevelCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, agg.Classify(tt.score), "score %v", tt.score)
	}
}

func TestAggregator_NeutralRegimeIsIdentity(t *testing.T) {
	agg := NewAggregator(DefaultParams())
	b := models.ComponentBreakdown{Slashing: 5, Liquidity: 5, Concentration: 10, Market: 5}

	got := agg.Compose(b, models.MarketConditions{Sentiment: models.SentimentNeutral})

	assert.InDelta(t, 25, got, 1e-9)
}

func TestAggregator_RegimeMultipliersStack(t *testing.T) {
	agg := NewAggregator(DefaultParams())

	mc := models.MarketConditions{
		Sentiment:           models.SentimentExtremeFear,
		PairwiseCorrelation: 0.9,
	}

	assert.InDelta(t, 1.15*1.10, agg.RegimeMultiplier(mc), 1e-9)

	mc.Sentiment = models.SentimentExtremeGreed
	assert.InDelta(t, 1.05*1.10, agg.RegimeMultiplier(mc), 1e-9)

	// Plain fear/greed get no multiplier, and correlation at the threshold
	// (not above) does not trigger.
	mc = models.MarketConditions{Sentiment: models.SentimentFear, PairwiseCorrelation: 0.80}
	assert.Equal(t, 1.0, agg.RegimeMultiplier(mc))
}

func TestAggregator_MultiplierInflatesThenClamps(t *testing.T) {
	agg := NewAggregator(DefaultParams())
	b := models.ComponentBreakdown{Slashing: 25, Liquidity: 25, Concentration: 25, Market: 25}

	got := agg.Compose(b, models.MarketConditions{Sentiment: models.SentimentExtremeFear})

	// 100 * 1.15 clamps back to 100.
	assert.Equal(t, 100.0, got)

	// Below the ceiling the inflation is visible.
	b = models.ComponentBreakdown{Slashing: 10, Liquidity: 10, Concentration: 10, Market: 10}
	got = agg.Compose(b, models.MarketConditions{Sentiment: models.SentimentExtremeFear})
	assert.InDelta(t, 46, got, 1e-9)
}

func TestAggregator_MonotonicInComponents(t *testing.T) {
	agg := NewAggregator(DefaultParams())
	mc := models.MarketConditions{Sentiment: models.SentimentNeutral}

	lo := agg.Compose(models.ComponentBreakdown{Slashing: 5, Liquidity: 5, Concentration: 5, Market: 5}, mc)
	hi := agg.Compose(models.ComponentBreakdown{Slashing: 15, Liquidity: 5, Concentration: 5, Market: 5}, mc)

	assert.Greater(t, hi, lo)
}
