package risk

import (
	"StakeWatch/internal/domain/models"
	domsvc "StakeWatch/internal/domain/service"
)

// DegradedMarketConditions is the snapshot degradation marker for a failed
// market-conditions fetch.
const DegradedMarketConditions = "market_conditions"

// MarketCalc scores market-wide conditions: trailing volatility, correlation
// with broad risk assets, the DEX liquidity ratio and macro factors. When the
// market-conditions fetch failed the component scores at its maximum.
type MarketCalc struct {
	p Params
}

func NewMarketCalc(p Params) *MarketCalc { return &MarketCalc{p: p} }

func (c *MarketCalc) Score(snap models.Snapshot) models.ComponentScore {
	if len(snap.Positions) == 0 {
		return models.ComponentScore{Score: 0, Quality: 1}
	}
	for _, d := range snap.Degraded {
		if d == DegradedMarketConditions {
			return models.ComponentScore{Score: c.p.MaxComponent, Quality: 0}
		}
	}

	mc := snap.Conditions

	volatility := capAt(mc.Volatility30d*c.p.VolatilityScale, c.p.VolatilityCap)
	correlation := capAt(mc.RiskAssetCorrelation*c.p.CorrelationScale, c.p.CorrelationCap)

	var liquidity float64
	if mc.LiquidityRatio < c.p.MinLiquidityRatio {
		liquidity = c.p.LiquidityPenalty
	}

	macro := capAt(mc.RegulatoryRisk*c.p.RegulatoryWeight+mc.RateLevel*c.p.RateWeight, c.p.MacroCap)

	return models.ComponentScore{
		Score:   clamp(volatility+correlation+liquidity+macro, 0, c.p.MaxComponent),
		Quality: 1,
	}
}

var _ domsvc.MarketCalculator = (*MarketCalc)(nil)
