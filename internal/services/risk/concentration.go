package risk

import (
	"StakeWatch/internal/domain/models"
	domsvc "StakeWatch/internal/domain/service"
)

// ConcentrationCalc measures diversification with a Herfindahl-Hirschman
// index over three dimensions (protocol, operator, AVS) and scales the mean
// into the component range. The raw HHIs are reported alongside the score so
// alert rules can reference shares directly.
type ConcentrationCalc struct {
	p Params
}

func NewConcentrationCalc(p Params) *ConcentrationCalc { return &ConcentrationCalc{p: p} }

func (c *ConcentrationCalc) Score(snap models.Snapshot) (models.ComponentScore, models.ConcentrationStats) {
	byProtocol := make(map[string]float64)
	byOperator := make(map[string]float64)
	byAVS := make(map[string]float64)
	for _, pos := range snap.Positions {
		v := pos.ValueETH()
		byProtocol[pos.Protocol] += v
		byOperator[pos.Operator] += v
		byAVS[pos.AVS] += v
	}

	stats := models.ConcentrationStats{
		ProtocolHHI: HHI(byProtocol),
		OperatorHHI: HHI(byOperator),
		AVSHHI:      HHI(byAVS),
	}
	stats.TopProtocol, stats.TopProtocolShare = TopShare(byProtocol)

	mean := (stats.ProtocolHHI + stats.OperatorHHI + stats.AVSHHI) / 3
	stats.Diversification = 1 - mean

	return models.ComponentScore{
		Score:   clamp(mean*c.p.MaxComponent, 0, c.p.MaxComponent),
		Quality: 1, // derived from positions alone, no external fetch
	}, stats
}

var _ domsvc.ConcentrationCalculator = (*ConcentrationCalc)(nil)
