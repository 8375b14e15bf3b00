package risk

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StakeWatch/internal/domain/models"
)

func pos(protocol, validator, operator, avs string, eth float64) models.StakingPosition {
	return models.StakingPosition{
		Protocol:    protocol,
		Validator:   validator,
		Operator:    operator,
		AVS:         avs,
		StakedValue: decimal.NewFromFloat(eth),
	}
}

func healthyValidator(addr string) models.ValidatorMetrics {
	return models.ValidatorMetrics{
		Address:         addr,
		AttestationRate: 0.99,
		UptimeHistory:   []float64{1.0, 1.0, 0.99},
		ClientDiversity: 0.7,
	}
}

func TestSlashingCalc_HealthyValidator(t *testing.T) {
	calc := NewSlashingCalc(DefaultParams())
	snap := models.Snapshot{
		Positions: []models.StakingPosition{
			pos("lido", "0xval1", "0xop1", "eigenda", 32),
		},
		Validators: map[string]models.ValidatorMetrics{"0xval1": healthyValidator("0xval1")},
		Operators:  map[string]models.OperatorMetrics{"0xop1": {Address: "0xop1", ExperienceDays: 900}},
	}

	score, risks := calc.Score(snap)

	// perf 10-9.9=0.1, technical 5-3.5=1.5, uptime mean of {0, 0, 0.1}.
	assert.InDelta(t, 0.1+1.5+0.1/3, score.Score, 1e-9)
	assert.Equal(t, 1.0, score.Quality)
	require.Len(t, risks, 1)
	assert.False(t, risks[0].DataMissing)
	assert.Less(t, risks[0].Score, 0.1)
}

func TestSlashingCalc_MissingTelemetryScoresWorstCase(t *testing.T) {
	p := DefaultParams()
	calc := NewSlashingCalc(p)
	snap := models.Snapshot{
		Positions: []models.StakingPosition{
			pos("lido", "0xunknown", "0xop1", "eigenda", 32),
		},
	}

	score, risks := calc.Score(snap)

	assert.Equal(t, p.MaxComponent, score.Score)
	assert.Zero(t, score.Quality)
	require.Len(t, risks, 1)
	assert.True(t, risks[0].DataMissing)
	assert.Equal(t, 1.0, risks[0].Score)
}

func TestSlashingCalc_SlashedValidatorDominates(t *testing.T) {
	calc := NewSlashingCalc(DefaultParams())
	slashed := healthyValidator("0xbad")
	slashed.SlashingEvents = []models.SlashingEvent{
		{Validator: "0xbad", OccurredAt: time.Now().Add(-48 * time.Hour)},
		{Validator: "0xbad", OccurredAt: time.Now().Add(-24 * time.Hour)},
	}
	snap := models.Snapshot{
		Positions: []models.StakingPosition{
			pos("lido", "0xbad", "0xop1", "eigenda", 32),
		},
		Validators: map[string]models.ValidatorMetrics{"0xbad": slashed},
	}

	score, risks := calc.Score(snap)

	// Two events at 8 points each push the validator near the bound.
	assert.Greater(t, score.Score, 16.0)
	require.Len(t, risks, 1)
	assert.Equal(t, 2, risks[0].SlashingEvents)
}

func TestSlashingCalc_StakeWeighting(t *testing.T) {
	calc := NewSlashingCalc(DefaultParams())
	snap := models.Snapshot{
		Positions: []models.StakingPosition{
			pos("lido", "0xgood", "0xop1", "eigenda", 96),
			pos("lido", "0xmissing", "0xop1", "eigenda", 32),
		},
		Validators: map[string]models.ValidatorMetrics{"0xgood": healthyValidator("0xgood")},
	}

	score, risks := calc.Score(snap)

	// 3/4 of stake is well-covered, so the weighted score sits well under the
	// missing validator's 25.
	assert.Less(t, score.Score, 10.0)
	assert.InDelta(t, 0.75, score.Quality, 1e-9)
	require.Len(t, risks, 2)
	// Sorted by address for stable output.
	assert.Equal(t, "0xgood", risks[0].Address)
	assert.Equal(t, "0xmissing", risks[1].Address)
}

func TestSlashingCalc_ZeroStake(t *testing.T) {
	calc := NewSlashingCalc(DefaultParams())
	snap := models.Snapshot{
		Positions: []models.StakingPosition{
			pos("lido", "0xval1", "0xop1", "eigenda", 0),
		},
		Validators: map[string]models.ValidatorMetrics{"0xval1": healthyValidator("0xval1")},
	}

	score, _ := calc.Score(snap)
	assert.Zero(t, score.Score)
}

func TestSlashingCalc_AVSRisks(t *testing.T) {
	calc := NewSlashingCalc(DefaultParams())
	snap := models.Snapshot{
		Positions: []models.StakingPosition{
			pos("lido", "0xv1", "0xop1", "eigenda", 32),
			pos("lido", "0xv2", "0xop2", "tinyavs", 32),
			pos("lido", "0xv3", "0xop3", "ghostavs", 32),
		},
		AVSs: map[string]models.AVSMetrics{
			"eigenda": {ID: "eigenda", OperatorCount: 200},
			"tinyavs": {ID: "tinyavs", OperatorCount: 2, SlashingCount: 3},
		},
	}

	risks := calc.AVSRisks(snap)

	require.Len(t, risks, 3)
	assert.Equal(t, "eigenda", risks[0].ID)
	assert.InDelta(t, 1.0/200, risks[0].Score, 1e-9)
	assert.Equal(t, "ghostavs", risks[1].ID)
	assert.Equal(t, 1.0, risks[1].Score) // no data, worst case
	assert.Equal(t, "tinyavs", risks[2].ID)
	assert.Equal(t, 1.0, risks[2].Score) // 3*0.2 + 0.5, clamped
}

func TestLiquidityCalc_HealthyProtocol(t *testing.T) {
	calc := NewLiquidityCalc(DefaultParams())
	snap := models.Snapshot{
		Positions: []models.StakingPosition{
			pos("lido", "0xv1", "0xop1", "eigenda", 32),
		},
		Liquidity: map[string]models.ProtocolLiquidity{
			"lido": {
				Protocol:           "lido",
				TotalStakedETH:     1_000_000,
				AvailableLiquidity: 900_000,
				DexDepthETH:        50_000,
				ExitQueueDays:      1,
				LargeHolderShare:   0.1,
			},
		},
	}

	score := calc.Score(snap)

	// utilization 0.1*12=1.2, depth fine, queue 0.6, holders 0.6.
	assert.InDelta(t, 2.4, score.Score, 1e-9)
	assert.Equal(t, 1.0, score.Quality)
}

func TestLiquidityCalc_StressedProtocolHitsEveryCap(t *testing.T) {
	p := DefaultParams()
	calc := NewLiquidityCalc(p)
	snap := models.Snapshot{
		Positions: []models.StakingPosition{
			pos("stressed", "0xv1", "0xop1", "eigenda", 32),
		},
		Liquidity: map[string]models.ProtocolLiquidity{
			"stressed": {
				Protocol:           "stressed",
				TotalStakedETH:     1_000_000,
				AvailableLiquidity: 50_000,
				DexDepthETH:        0,
				ExitQueueDays:      30,
				LargeHolderShare:   0.8,
			},
		},
	}

	score := calc.Score(snap)

	// 10 + 8 + 4 + 3 = 25, exactly the component bound.
	assert.Equal(t, p.MaxComponent, score.Score)
}

func TestLiquidityCalc_MissingProtocolData(t *testing.T) {
	p := DefaultParams()
	calc := NewLiquidityCalc(p)
	snap := models.Snapshot{
		Positions: []models.StakingPosition{
			pos("obscure", "0xv1", "0xop1", "eigenda", 32),
		},
	}

	score := calc.Score(snap)

	assert.Equal(t, p.MaxComponent, score.Score)
	assert.Zero(t, score.Quality)
}

func TestLiquidityCalc_EmptyPortfolio(t *testing.T) {
	score := NewLiquidityCalc(DefaultParams()).Score(models.Snapshot{})
	assert.Zero(t, score.Score)
	assert.Equal(t, 1.0, score.Quality)
}

func TestConcentrationCalc_SinglePosition(t *testing.T) {
	p := DefaultParams()
	calc := NewConcentrationCalc(p)
	snap := models.Snapshot{
		Positions: []models.StakingPosition{
			pos("lido", "0xv1", "0xop1", "eigenda", 32),
		},
	}

	score, stats := calc.Score(snap)

	assert.Equal(t, p.MaxComponent, score.Score)
	assert.Equal(t, 1.0, stats.ProtocolHHI)
	assert.Equal(t, 1.0, stats.OperatorHHI)
	assert.Equal(t, 1.0, stats.AVSHHI)
	assert.Equal(t, "lido", stats.TopProtocol)
	assert.Equal(t, 1.0, stats.TopProtocolShare)
	assert.Zero(t, stats.Diversification)
}

func TestConcentrationCalc_EvenSplit(t *testing.T) {
	calc := NewConcentrationCalc(DefaultParams())
	snap := models.Snapshot{
		Positions: []models.StakingPosition{
			pos("lido", "0xv1", "0xop1", "eigenda", 32),
			pos("rocketpool", "0xv2", "0xop2", "lagrange", 32),
		},
	}

	score, stats := calc.Score(snap)

	assert.InDelta(t, 12.5, score.Score, 1e-9)
	assert.InDelta(t, 0.5, stats.ProtocolHHI, 1e-9)
	assert.InDelta(t, 0.5, stats.Diversification, 1e-9)
	assert.InDelta(t, 0.5, stats.TopProtocolShare, 1e-9)
}

func TestConcentrationCalc_EmptyPortfolio(t *testing.T) {
	score, stats := NewConcentrationCalc(DefaultParams()).Score(models.Snapshot{})
	assert.Zero(t, score.Score)
	assert.Equal(t, 1.0, score.Quality)
	assert.Zero(t, stats.ProtocolHHI)
	assert.Empty(t, stats.TopProtocol)
}

func TestMarketCalc_CalmConditions(t *testing.T) {
	calc := NewMarketCalc(DefaultParams())
	snap := models.Snapshot{
		Positions: []models.StakingPosition{
			pos("lido", "0xv1", "0xop1", "eigenda", 32),
		},
		Conditions: models.MarketConditions{
			Volatility30d:        0.3,
			RiskAssetCorrelation: 0.5,
			LiquidityRatio:       0.2,
			RegulatoryRisk:       0.2,
			RateLevel:            0.05,
			Sentiment:            models.SentimentNeutral,
		},
	}

	score := calc.Score(snap)

	// vol 3 + corr 4 + macro (0.8 + 1.0)
	assert.InDelta(t, 8.8, score.Score, 1e-9)
	assert.Equal(t, 1.0, score.Quality)
}

func TestMarketCalc_StressedConditionsHitBound(t *testing.T) {
	p := DefaultParams()
	calc := NewMarketCalc(p)
	snap := models.Snapshot{
		Positions: []models.StakingPosition{
			pos("lido", "0xv1", "0xop1", "eigenda", 32),
		},
		Conditions: models.MarketConditions{
			Volatility30d:        1.5,
			RiskAssetCorrelation: 0.95,
			LiquidityRatio:       0.05,
			RegulatoryRisk:       0.9,
			RateLevel:            0.08,
			Sentiment:            models.SentimentExtremeFear,
		},
	}

	score := calc.Score(snap)

	// 9 + 7 + 4 + 5 = 25 with every term at its cap.
	assert.Equal(t, p.MaxComponent, score.Score)
}

func TestMarketCalc_DegradedFetchScoresWorstCase(t *testing.T) {
	p := DefaultParams()
	calc := NewMarketCalc(p)
	snap := models.Snapshot{
		Positions: []models.StakingPosition{
			pos("lido", "0xv1", "0xop1", "eigenda", 32),
		},
		Degraded: []string{DegradedMarketConditions},
	}

	score := calc.Score(snap)

	assert.Equal(t, p.MaxComponent, score.Score)
	assert.Zero(t, score.Quality)
}

func TestMarketCalc_EmptyPortfolio(t *testing.T) {
	score := NewMarketCalc(DefaultParams()).Score(models.Snapshot{})
	assert.Zero(t, score.Score)
}
