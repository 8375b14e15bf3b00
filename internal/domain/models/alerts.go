package models

import "time"

// AlertSeverity orders alerts for consumers; it is not derived from the
// composite score.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// AlertType identifies the rule that fired.
type AlertType string

const (
	AlertValidatorRisk     AlertType = "validator_risk"
	AlertConcentrationRisk AlertType = "concentration_risk"
	AlertSlashingEvent     AlertType = "slashing_event"
)

// RiskAlert is a self-contained alert: it carries everything a consumer needs
// so it can be serialized, queued, and broadcast independently. Alerts are
// generated fresh each evaluation and never mutated once emitted.
type RiskAlert struct {
	ID               string                 `json:"id"`
	Type             AlertType              `json:"type"`
	Severity         AlertSeverity          `json:"severity"`
	Message          string                 `json:"message"`
	Timestamp        time.Time              `json:"timestamp"`
	ActionRequired   bool                   `json:"action_required"`
	SuggestedActions []string               `json:"suggested_actions,omitempty"`
	Details          map[string]interface{} `json:"details,omitempty"`
}
