package service

import (
	"StakeWatch/internal/domain/models"
)

// Component calculators are pure functions of an evaluation snapshot. Each
// returns a score bounded to [0, MaxComponent]; none may mutate the snapshot.

// SlashingCalculator scores validator/operator slashing exposure. It also
// exposes the per-validator and per-AVS normalized risks the alert rules
// reference.
type SlashingCalculator interface {
	Score(snap models.Snapshot) (models.ComponentScore, []models.ValidatorRisk)
	AVSRisks(snap models.Snapshot) []models.AVSRisk
}

// LiquidityCalculator scores exit-liquidity conditions across protocols.
type LiquidityCalculator interface {
	Score(snap models.Snapshot) models.ComponentScore
}

// ConcentrationCalculator scores diversification via HHI over the protocol,
// operator and AVS dimensions.
type ConcentrationCalculator interface {
	Score(snap models.Snapshot) (models.ComponentScore, models.ConcentrationStats)
}

// MarketCalculator scores market-wide conditions (volatility, correlation,
// liquidity ratio, macro).
type MarketCalculator interface {
	Score(snap models.Snapshot) models.ComponentScore
}
