package usecase

import (
	"StakeWatch/internal/domain/models"
)

// ActionPolicy turns a composite score and a user's risk profile into exactly
// one recommendation. Precedence is strictly highest-threshold-first; the
// policy never recommends execution itself.
type ActionPolicy struct{}

func NewActionPolicy() *ActionPolicy { return &ActionPolicy{} }

func (ActionPolicy) Decide(profile models.RiskProfile, score float64) models.Action {
	switch {
	case score >= profile.EmergencyExitThreshold:
		return models.ActionEmergencyExit
	case score >= profile.RebalanceThreshold:
		return models.ActionRebalance
	case score >= profile.WarningThreshold:
		return models.ActionWarn
	default:
		return models.ActionNone
	}
}
