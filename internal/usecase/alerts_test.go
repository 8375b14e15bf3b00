package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StakeWatch/internal/domain/models"
	"StakeWatch/internal/services/risk"
)

func TestAlertGenerator_ValidatorSeverityBands(t *testing.T) {
	gen := NewAlertGenerator(risk.DefaultParams())
	snap := models.Snapshot{TakenAt: time.Now().UTC()}
	risks := []models.ValidatorRisk{
		{Address: "0xsafe", Score: 0.59},
		{Address: "0xhigh", Score: 0.61},
		{Address: "0xcrit", Score: 0.81, DataMissing: true},
	}

	alerts := gen.Generate(snap, risks, models.ConcentrationStats{})

	require.Len(t, alerts, 2)
	assert.Equal(t, models.SeverityHigh, alerts[0].Severity)
	assert.False(t, alerts[0].ActionRequired)
	assert.Equal(t, models.SeverityCritical, alerts[1].Severity)
	assert.True(t, alerts[1].ActionRequired)
	assert.Equal(t, true, alerts[1].Details["data_missing"])
}

func TestAlertGenerator_ConcentrationThresholdIsExclusive(t *testing.T) {
	gen := NewAlertGenerator(risk.DefaultParams())
	snap := models.Snapshot{TakenAt: time.Now().UTC()}

	// Exactly 50% does not fire; strictly more does.
	alerts := gen.Generate(snap, nil, models.ConcentrationStats{TopProtocol: "lido", TopProtocolShare: 0.50})
	assert.Empty(t, alerts)

	alerts = gen.Generate(snap, nil, models.ConcentrationStats{TopProtocol: "lido", TopProtocolShare: 0.51})
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertConcentrationRisk, alerts[0].Type)
	assert.Equal(t, models.SeverityMedium, alerts[0].Severity)
	assert.Len(t, alerts[0].SuggestedActions, 3)
	assert.Equal(t, "lido", alerts[0].Details["top_protocol"])
}

func TestAlertGenerator_SlashingEventsOrderedAndWindowed(t *testing.T) {
	gen := NewAlertGenerator(risk.DefaultParams())
	now := time.Now().UTC()
	snap := models.Snapshot{
		TakenAt: now,
		Validators: map[string]models.ValidatorMetrics{
			"0xb": {Address: "0xb", SlashingEvents: []models.SlashingEvent{
				{Validator: "0xb", OccurredAt: now.Add(-time.Hour)},
				{Validator: "0xb", OccurredAt: now.Add(-30 * 24 * time.Hour)}, // outside lookback
			}},
			"0xa": {Address: "0xa", SlashingEvents: []models.SlashingEvent{
				{Validator: "0xa", OccurredAt: now.Add(-time.Hour)},
				{Validator: "0xa", OccurredAt: now.Add(-2 * time.Hour)},
			}},
		},
	}

	alerts := gen.Generate(snap, nil, models.ConcentrationStats{})

	require.Len(t, alerts, 3)
	for _, a := range alerts {
		assert.Equal(t, models.AlertSlashingEvent, a.Type)
		assert.Equal(t, models.SeverityCritical, a.Severity)
		assert.True(t, a.ActionRequired)
	}
	// Oldest first; ties break on validator address.
	assert.Equal(t, "0xa", alerts[0].Details["validator"])
	assert.Equal(t, "0xa", alerts[1].Details["validator"])
	assert.Equal(t, "0xb", alerts[2].Details["validator"])
}

func TestAlertGenerator_AlertIDsAreUnique(t *testing.T) {
	gen := NewAlertGenerator(risk.DefaultParams())
	snap := models.Snapshot{TakenAt: time.Now().UTC()}
	risks := []models.ValidatorRisk{
		{Address: "0x1", Score: 0.9},
		{Address: "0x2", Score: 0.9},
	}

	alerts := gen.Generate(snap, risks, models.ConcentrationStats{TopProtocol: "lido", TopProtocolShare: 0.9})

	seen := map[string]bool{}
	for _, a := range alerts {
		require.NotEmpty(t, a.ID)
		assert.False(t, seen[a.ID])
		seen[a.ID] = true
	}
}
