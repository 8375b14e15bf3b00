package models

import "github.com/shopspring/decimal"

// StakingPosition is one restaked slice of a user's portfolio. Positions are
// immutable snapshots per evaluation; calculators must never mutate them.
type StakingPosition struct {
	Protocol    string          `json:"protocol"`
	Validator   string          `json:"validator"`
	Operator    string          `json:"operator"`
	AVS         string          `json:"avs"`
	StakedValue decimal.Decimal `json:"staked_value"`
}

// Valid reports whether the position can participate in a risk evaluation.
// Invalid positions are rejected individually, never aborting the evaluation.
func (p StakingPosition) Valid() bool {
	return p.Protocol != "" && p.Validator != "" && !p.StakedValue.IsNegative()
}

// ValueETH returns the staked value as a float for ratio arithmetic.
func (p StakingPosition) ValueETH() float64 {
	return p.StakedValue.InexactFloat64()
}

// RiskProfile is the per-user action-threshold configuration. It is read-only
// input to the action policy; the engine never writes it.
type RiskProfile struct {
	MaxRiskScore           float64 `json:"max_risk_score"`
	WarningThreshold       float64 `json:"warning_threshold"`
	RebalanceThreshold     float64 `json:"rebalance_threshold"`
	EmergencyExitThreshold float64 `json:"emergency_exit_threshold"`
}

// DefaultRiskProfile returns the 70/75/90 defaults.
func DefaultRiskProfile() RiskProfile {
	return RiskProfile{
		MaxRiskScore:           100,
		WarningThreshold:       70,
		RebalanceThreshold:     75,
		EmergencyExitThreshold: 90,
	}
}
