package risk

import (
	"sort"

	"StakeWatch/internal/domain/models"
	domsvc "StakeWatch/internal/domain/service"
)

// SlashingCalc scores slashing exposure per validator and stake-weights the
// portfolio. A validator whose telemetry could not be fetched is scored at the
// component maximum: missing history is treated as worst case, never as zero.
type SlashingCalc struct {
	p Params
}

func NewSlashingCalc(p Params) *SlashingCalc { return &SlashingCalc{p: p} }

func (c *SlashingCalc) Score(snap models.Snapshot) (models.ComponentScore, []models.ValidatorRisk) {
	if len(snap.Positions) == 0 {
		return models.ComponentScore{Score: 0, Quality: 1}, nil
	}

	perValidator := make(map[string]models.ValidatorRisk)
	var weighted, weightSum, coveredStake, totalStake float64

	for _, pos := range snap.Positions {
		w := pos.ValueETH()
		totalStake += w

		vm, ok := snap.Validators[pos.Validator]
		var score float64
		events := 0
		if !ok {
			score = c.p.MaxComponent
		} else {
			score = c.scoreValidator(vm, snap.Operators[pos.Operator])
			events = len(vm.SlashingEvents)
			coveredStake += w
		}

		weighted += score * w
		weightSum += w

		perValidator[pos.Validator] = models.ValidatorRisk{
			Address:        pos.Validator,
			Score:          score / c.p.MaxComponent,
			SlashingEvents: events,
			DataMissing:    !ok,
		}
	}

	// Division-by-zero guard: zero total stake carries zero slashing risk.
	if weightSum <= 0 {
		return models.ComponentScore{Score: 0, Quality: 1}, sortedValidatorRisks(perValidator)
	}

	quality := 1.0
	if totalStake > 0 {
		quality = coveredStake / totalStake
	}

	return models.ComponentScore{
		Score:   clamp(weighted/weightSum, 0, c.p.MaxComponent),
		Quality: quality,
	}, sortedValidatorRisks(perValidator)
}

// scoreValidator sums the four slashing terms and clamps to the component
// bound: attestation performance, slashing history (validator + operator),
// client diversity, and mean uptime shortfall over the history window.
func (c *SlashingCalc) scoreValidator(vm models.ValidatorMetrics, om models.OperatorMetrics) float64 {
	perf := c.p.AttestationBase - vm.AttestationRate*c.p.AttestationScale
	if perf < 0 {
		perf = 0
	}

	reputation := float64(len(vm.SlashingEvents)+om.SlashingCount) * c.p.SlashingPenalty

	technical := c.p.DiversityBase - vm.ClientDiversity*c.p.DiversityScale
	if technical < 0 {
		technical = 0
	}

	var uptime float64
	if n := len(vm.UptimeHistory); n > 0 {
		for _, u := range vm.UptimeHistory {
			d := c.p.UptimeBase - u*c.p.UptimeScale
			if d > 0 {
				uptime += d
			}
		}
		uptime /= float64(n)
	}

	return clamp(perf+reputation+technical+uptime, 0, c.p.MaxComponent)
}

// AVSRisks derives a normalized risk per AVS the user is exposed to, from the
// service's slashing record and operator set size.
func (c *SlashingCalc) AVSRisks(snap models.Snapshot) []models.AVSRisk {
	seen := make(map[string]bool)
	out := make([]models.AVSRisk, 0, len(snap.AVSs))
	for _, pos := range snap.Positions {
		if pos.AVS == "" || seen[pos.AVS] {
			continue
		}
		seen[pos.AVS] = true

		am, ok := snap.AVSs[pos.AVS]
		if !ok {
			out = append(out, models.AVSRisk{ID: pos.AVS, Score: 1})
			continue
		}
		score := float64(am.SlashingCount) * 0.2
		if am.OperatorCount > 0 {
			score += 1 / float64(am.OperatorCount)
		} else {
			score += 1
		}
		out = append(out, models.AVSRisk{ID: pos.AVS, Score: clamp(score, 0, 1)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedValidatorRisks(m map[string]models.ValidatorRisk) []models.ValidatorRisk {
	out := make([]models.ValidatorRisk, 0, len(m))
	for _, vr := range m {
		out = append(out, vr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

var _ domsvc.SlashingCalculator = (*SlashingCalc)(nil)
