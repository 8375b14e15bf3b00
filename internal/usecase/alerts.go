package usecase

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"StakeWatch/internal/domain/models"
	"StakeWatch/internal/services/risk"
)

// AlertGenerator evaluates the alert rules against the same snapshot the
// calculators scored. Every rule fires independently: a dominant single
// component raises its alert even when the composite stays moderate.
type AlertGenerator struct {
	p risk.Params
}

func NewAlertGenerator(p risk.Params) *AlertGenerator { return &AlertGenerator{p: p} }

// Generate produces the alert list for one evaluation. Output order is
// deterministic; IDs are the only non-reproducible field.
func (g *AlertGenerator) Generate(snap models.Snapshot, validatorRisks []models.ValidatorRisk, stats models.ConcentrationStats) []models.RiskAlert {
	alerts := make([]models.RiskAlert, 0, 4)

	alerts = append(alerts, g.validatorAlerts(snap, validatorRisks)...)

	if a, ok := g.concentrationAlert(snap, stats); ok {
		alerts = append(alerts, a)
	}

	alerts = append(alerts, g.slashingAlerts(snap)...)

	return alerts
}

func (g *AlertGenerator) validatorAlerts(snap models.Snapshot, risks []models.ValidatorRisk) []models.RiskAlert {
	var out []models.RiskAlert
	for _, vr := range risks {
		var sev models.AlertSeverity
		switch {
		case vr.Score > g.p.ValidatorCritical:
			sev = models.SeverityCritical
		case vr.Score > g.p.ValidatorHigh:
			sev = models.SeverityHigh
		default:
			continue
		}

		out = append(out, models.RiskAlert{
			ID:             uuid.NewString(),
			Type:           models.AlertValidatorRisk,
			Severity:       sev,
			Message:        fmt.Sprintf("validator %s risk score %.2f", vr.Address, vr.Score),
			Timestamp:      snap.TakenAt,
			ActionRequired: sev == models.SeverityCritical,
			Details: map[string]interface{}{
				"validator":       vr.Address,
				"score":           vr.Score,
				"slashing_events": vr.SlashingEvents,
				"data_missing":    vr.DataMissing,
			},
		})
	}
	return out
}

func (g *AlertGenerator) concentrationAlert(snap models.Snapshot, stats models.ConcentrationStats) (models.RiskAlert, bool) {
	if stats.TopProtocolShare <= g.p.ConcentrationAlert {
		return models.RiskAlert{}, false
	}
	return models.RiskAlert{
		ID:        uuid.NewString(),
		Type:      models.AlertConcentrationRisk,
		Severity:  models.SeverityMedium,
		Message:   fmt.Sprintf("%.0f%% of staked value is in protocol %s", stats.TopProtocolShare*100, stats.TopProtocol),
		Timestamp: snap.TakenAt,
		SuggestedActions: []string{
			"spread stake across additional restaking protocols",
			"delegate to operators outside the dominant protocol",
			"cap any single protocol at 50% of portfolio value",
		},
		Details: map[string]interface{}{
			"top_protocol":       stats.TopProtocol,
			"top_protocol_share": stats.TopProtocolShare,
			"protocol_hhi":       stats.ProtocolHHI,
		},
	}, true
}

func (g *AlertGenerator) slashingAlerts(snap models.Snapshot) []models.RiskAlert {
	events := snap.RecentSlashingEvents(g.p.SlashingLookback)
	// Map-backed collection; order the events before emitting.
	sort.Slice(events, func(i, j int) bool {
		if !events[i].OccurredAt.Equal(events[j].OccurredAt) {
			return events[i].OccurredAt.Before(events[j].OccurredAt)
		}
		return events[i].Validator < events[j].Validator
	})

	out := make([]models.RiskAlert, 0, len(events))
	for _, ev := range events {
		out = append(out, models.RiskAlert{
			ID:             uuid.NewString(),
			Type:           models.AlertSlashingEvent,
			Severity:       models.SeverityCritical,
			Message:        fmt.Sprintf("validator %s was slashed", ev.Validator),
			Timestamp:      snap.TakenAt,
			ActionRequired: true,
			Details: map[string]interface{}{
				"validator":   ev.Validator,
				"operator":    ev.Operator,
				"reason":      ev.Reason,
				"penalty_eth": ev.PenaltyETH,
				"occurred_at": ev.OccurredAt,
			},
		})
	}
	return out
}
