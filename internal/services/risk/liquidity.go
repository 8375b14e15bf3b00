package risk

import (
	"StakeWatch/internal/domain/models"
	domsvc "StakeWatch/internal/domain/service"
)

// LiquidityCalc scores exit-liquidity conditions per protocol and weights the
// result by position value. Missing protocol liquidity data is scored at the
// component maximum for the stake it covers.
type LiquidityCalc struct {
	p Params
}

func NewLiquidityCalc(p Params) *LiquidityCalc { return &LiquidityCalc{p: p} }

func (c *LiquidityCalc) Score(snap models.Snapshot) models.ComponentScore {
	if len(snap.Positions) == 0 {
		return models.ComponentScore{Score: 0, Quality: 1}
	}

	// Aggregate position value per protocol first so each protocol is scored
	// once and weighted by the user's exposure to it.
	exposure := make(map[string]float64)
	for _, pos := range snap.Positions {
		exposure[pos.Protocol] += pos.ValueETH()
	}

	var weighted, weightSum, coveredStake, totalStake float64
	for protocol, w := range exposure {
		totalStake += w

		pl, ok := snap.Liquidity[protocol]
		var score float64
		if !ok {
			score = c.p.MaxComponent
		} else {
			score = c.scoreProtocol(pl)
			coveredStake += w
		}

		weighted += score * w
		weightSum += w
	}

	if weightSum <= 0 {
		return models.ComponentScore{Score: 0, Quality: 1}
	}

	quality := 1.0
	if totalStake > 0 {
		quality = coveredStake / totalStake
	}

	return models.ComponentScore{
		Score:   clamp(weighted/weightSum, 0, c.p.MaxComponent),
		Quality: quality,
	}
}

func (c *LiquidityCalc) scoreProtocol(pl models.ProtocolLiquidity) float64 {
	var utilization float64
	if pl.TotalStakedETH > 0 {
		utilization = clamp(1-pl.AvailableLiquidity/pl.TotalStakedETH, 0, 1)
	}
	score := capAt(utilization*c.p.UtilizationScale, c.p.UtilizationCap)

	// DEX depth below the minimum ramps linearly to the full penalty at zero.
	if pl.DexDepthETH < c.p.MinDexDepthETH && c.p.MinDexDepthETH > 0 {
		ramp := 1 - clamp(pl.DexDepthETH/c.p.MinDexDepthETH, 0, 1)
		score += capAt(ramp*c.p.DexDepthCap, c.p.DexDepthCap)
	}

	score += capAt(pl.ExitQueueDays*c.p.ExitQueueScale, c.p.ExitQueueCap)
	score += capAt(pl.LargeHolderShare*c.p.HolderShareScale, c.p.HolderShareCap)

	return clamp(score, 0, c.p.MaxComponent)
}

var _ domsvc.LiquidityCalculator = (*LiquidityCalc)(nil)
