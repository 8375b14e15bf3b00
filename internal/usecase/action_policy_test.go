package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"StakeWatch/internal/domain/models"
)

func TestActionPolicy_DefaultProfileBands(t *testing.T) {
	policy := NewActionPolicy()
	profile := models.DefaultRiskProfile() // 70/75/90

	tests := []struct {
		score float64
		want  models.Action
	}{
		{0, models.ActionNone},
		{69.99, models.ActionNone},
		{70, models.ActionWarn},
		{74.99, models.ActionWarn},
		{75, models.ActionRebalance},
		{89.99, models.ActionRebalance},
		{90, models.ActionEmergencyExit},
		{100, models.ActionEmergencyExit},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, policy.Decide(profile, tt.score), "score %.2f", tt.score)
	}
}

func TestActionPolicy_HighestThresholdWins(t *testing.T) {
	policy := NewActionPolicy()
	// Overlapping thresholds: a score clearing all three must yield only the
	// most severe action.
	profile := models.RiskProfile{
		MaxRiskScore:           100,
		WarningThreshold:       50,
		RebalanceThreshold:     50,
		EmergencyExitThreshold: 50,
	}
	assert.Equal(t, models.ActionEmergencyExit, policy.Decide(profile, 50))
}
