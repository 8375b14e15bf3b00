package models

import "time"

// RiskLevel is the monotonic classification of a composite score.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// ComponentScore is one bounded sub-score plus the quality of the data that
// produced it. Score lives in [0, MaxComponent]; Quality in [0,1].
type ComponentScore struct {
	Score   float64 `json:"score"`
	Quality float64 `json:"quality"`
}

// ComponentBreakdown holds the four bounded component scores the composite is
// derived from. The composite must always be reproducible from it.
type ComponentBreakdown struct {
	Slashing      float64 `json:"slashing"`
	Liquidity     float64 `json:"liquidity"`
	Concentration float64 `json:"concentration"`
	Market        float64 `json:"market"`
}

// Sum returns the unweighted component sum, the composite before the market
// regime multiplier.
func (b ComponentBreakdown) Sum() float64 {
	return b.Slashing + b.Liquidity + b.Concentration + b.Market
}

// ValidatorRisk is a normalized per-validator risk in [0,1] exposed for
// alerting ("validator risk > 0.8").
type ValidatorRisk struct {
	Address        string  `json:"address"`
	Score          float64 `json:"score"`
	SlashingEvents int     `json:"slashing_events"`
	DataMissing    bool    `json:"data_missing,omitempty"`
}

// AVSRisk is a normalized per-AVS risk in [0,1].
type AVSRisk struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// ConcentrationStats carries the raw HHIs alongside the scaled component so
// alert rules can reference shares ("more than 50% in one protocol") directly.
type ConcentrationStats struct {
	ProtocolHHI       float64 `json:"protocol_hhi"`
	OperatorHHI       float64 `json:"operator_hhi"`
	AVSHHI            float64 `json:"avs_hhi"`
	TopProtocol       string  `json:"top_protocol,omitempty"`
	TopProtocolShare  float64 `json:"top_protocol_share"`
	Diversification   float64 `json:"diversification"` // 1 - mean(HHIs)
}

// RiskMetadata qualifies how trustworthy the evaluation inputs were.
type RiskMetadata struct {
	DataQuality float64  `json:"data_quality"` // 1 = all sources fresh
	Uncertainty float64  `json:"uncertainty"`  // 1 - DataQuality
	Degraded    []string `json:"degraded,omitempty"`
}

// RiskMetrics is the full evaluation result for one user. It is a computed
// value with no identity of its own: recomputed on cache miss and always
// replaced atomically, never patched in place.
type RiskMetrics struct {
	UserAddress      string             `json:"user_address"`
	OverallRiskScore float64            `json:"overall_risk_score"` // [0,100]
	RiskLevel        RiskLevel          `json:"risk_level"`
	Breakdown        ComponentBreakdown `json:"breakdown"`
	ValidatorRisks   []ValidatorRisk    `json:"validator_risks,omitempty"`
	AVSRisks         []AVSRisk          `json:"avs_risks,omitempty"`
	Concentration    ConcentrationStats `json:"concentration"`
	LastUpdated      time.Time          `json:"last_updated"`
	Metadata         RiskMetadata       `json:"metadata"`
}

// RiskHistoryPoint is one persisted audit-trail row of a past evaluation.
type RiskHistoryPoint struct {
	UserAddress string             `json:"user_address"`
	Score       float64            `json:"score"`
	Level       RiskLevel          `json:"level"`
	Breakdown   ComponentBreakdown `json:"breakdown"`
	DataQuality float64            `json:"data_quality"`
	RecordedAt  time.Time          `json:"recorded_at"`
}

// Action is the single recommendation the policy emits per evaluation.
// Execution is delegated to an external collaborator.
type Action string

const (
	ActionNone          Action = "none"
	ActionWarn          Action = "warn"
	ActionRebalance     Action = "rebalance"
	ActionEmergencyExit Action = "emergency_exit"
)
