package models

import "time"

// SlashingEvent is a provable validator penalty reported by the indexer.
type SlashingEvent struct {
	Validator  string    `json:"validator"`
	Operator   string    `json:"operator,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	PenaltyETH float64   `json:"penalty_eth,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ValidatorMetrics is per-validator telemetry used by the slashing calculator.
// Rates and diversity are fractions in [0,1]; UptimeHistory holds one sample
// per day with the most recent last.
type ValidatorMetrics struct {
	Address         string          `json:"address"`
	AttestationRate float64         `json:"attestation_rate"`
	UptimeHistory   []float64       `json:"uptime_history"`
	ClientDiversity float64         `json:"client_diversity"`
	SlashingEvents  []SlashingEvent `json:"slashing_events"`
}

// OperatorMetrics summarizes an operator's slashing history and track record.
type OperatorMetrics struct {
	Address        string `json:"address"`
	SlashingCount  int    `json:"slashing_count"`
	ExperienceDays int    `json:"experience_days"`
}

// AVSMetrics summarizes one actively validated service.
type AVSMetrics struct {
	ID            string  `json:"id"`
	TotalStakeETH float64 `json:"total_stake_eth"`
	OperatorCount int     `json:"operator_count"`
	SlashingCount int     `json:"slashing_count"`
}

// ProtocolLiquidity describes exit conditions for one restaking protocol.
type ProtocolLiquidity struct {
	Protocol           string  `json:"protocol"`
	TotalStakedETH     float64 `json:"total_staked_eth"`
	AvailableLiquidity float64 `json:"available_liquidity"`
	DexDepthETH        float64 `json:"dex_depth_eth"`
	ExitQueueDays      float64 `json:"exit_queue_days"`
	LargeHolderShare   float64 `json:"large_holder_share"`
}

// Sentiment buckets the market fear/greed reading.
type Sentiment string

const (
	SentimentExtremeFear  Sentiment = "extreme_fear"
	SentimentFear         Sentiment = "fear"
	SentimentNeutral      Sentiment = "neutral"
	SentimentGreed        Sentiment = "greed"
	SentimentExtremeGreed Sentiment = "extreme_greed"
)

// MarketConditions is the market-wide input shared by the market calculator
// and the aggregator's regime multiplier.
type MarketConditions struct {
	Volatility30d        float64   `json:"volatility_30d"` // annualized
	ETHCorrelation       float64   `json:"eth_correlation"`
	RiskAssetCorrelation float64   `json:"risk_asset_correlation"`
	PairwiseCorrelation  float64   `json:"pairwise_correlation"` // avg among held assets
	LiquidityRatio       float64   `json:"liquidity_ratio"`
	RegulatoryRisk       float64   `json:"regulatory_risk"` // 0..1 index
	RateLevel            float64   `json:"rate_level"`      // policy rate, decimal
	Sentiment            Sentiment `json:"sentiment"`
}
