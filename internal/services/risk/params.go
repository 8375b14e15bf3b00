package risk

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Params holds every cap, scale and threshold the calculators, aggregator,
// alert rules and action policy use. Defaults mirror the four-component,
// 100-point model (4 x 25); none of the literals are inlined at call sites so
// operators can tune them from config.
type Params struct {
	MaxComponent float64 `yaml:"max_component"`

	// Slashing calculator.
	AttestationBase  float64 `yaml:"attestation_base"`
	AttestationScale float64 `yaml:"attestation_scale"`
	SlashingPenalty  float64 `yaml:"slashing_penalty"` // per recorded event
	DiversityBase    float64 `yaml:"diversity_base"`
	DiversityScale   float64 `yaml:"diversity_scale"`
	UptimeBase       float64 `yaml:"uptime_base"`
	UptimeScale      float64 `yaml:"uptime_scale"`

	// Liquidity calculator.
	UtilizationScale float64 `yaml:"utilization_scale"`
	UtilizationCap   float64 `yaml:"utilization_cap"`
	MinDexDepthETH   float64 `yaml:"min_dex_depth_eth"`
	DexDepthCap      float64 `yaml:"dex_depth_cap"`
	ExitQueueScale   float64 `yaml:"exit_queue_scale"` // per queue day
	ExitQueueCap     float64 `yaml:"exit_queue_cap"`
	HolderShareScale float64 `yaml:"holder_share_scale"`
	HolderShareCap   float64 `yaml:"holder_share_cap"`

	// Market calculator.
	VolatilityScale   float64 `yaml:"volatility_scale"`
	VolatilityCap     float64 `yaml:"volatility_cap"`
	CorrelationScale  float64 `yaml:"correlation_scale"`
	CorrelationCap    float64 `yaml:"correlation_cap"`
	MinLiquidityRatio float64 `yaml:"min_liquidity_ratio"`
	LiquidityPenalty  float64 `yaml:"liquidity_penalty"`
	RegulatoryWeight  float64 `yaml:"regulatory_weight"`
	RateWeight        float64 `yaml:"rate_weight"`
	MacroCap          float64 `yaml:"macro_cap"`

	// Aggregation. Regime multipliers only ever inflate the composite;
	// the final score is clamped to MaxScore afterwards.
	MaxScore               float64 `yaml:"max_score"`
	ExtremeFearMultiplier  float64 `yaml:"extreme_fear_multiplier"`
	ExtremeGreedMultiplier float64 `yaml:"extreme_greed_multiplier"`
	CorrelationThreshold   float64 `yaml:"correlation_threshold"`
	CorrelationMultiplier  float64 `yaml:"correlation_multiplier"`

	// Classification band upper bounds, inclusive.
	LowMax    float64 `yaml:"low_max"`
	MediumMax float64 `yaml:"medium_max"`
	HighMax   float64 `yaml:"high_max"`

	// Alert rules.
	ValidatorCritical  float64       `yaml:"validator_critical"`
	ValidatorHigh      float64       `yaml:"validator_high"`
	ConcentrationAlert float64       `yaml:"concentration_alert"`
	SlashingLookback   time.Duration `yaml:"slashing_lookback"`
}

// DefaultParams returns the stock 4x25 parameterization.
func DefaultParams() Params {
	return Params{
		MaxComponent: 25,

		AttestationBase:  10,
		AttestationScale: 10,
		SlashingPenalty:  8,
		DiversityBase:    5,
		DiversityScale:   5,
		UptimeBase:       10,
		UptimeScale:      10,

		UtilizationScale: 12,
		UtilizationCap:   10,
		MinDexDepthETH:   10_000,
		DexDepthCap:      8,
		ExitQueueScale:   0.6,
		ExitQueueCap:     4,
		HolderShareScale: 6,
		HolderShareCap:   3,

		VolatilityScale:   10,
		VolatilityCap:     9,
		CorrelationScale:  8,
		CorrelationCap:    7,
		MinLiquidityRatio: 0.10,
		LiquidityPenalty:  4,
		RegulatoryWeight:  4,
		RateWeight:        20,
		MacroCap:          5,

		MaxScore:               100,
		ExtremeFearMultiplier:  1.15,
		ExtremeGreedMultiplier: 1.05,
		CorrelationThreshold:   0.80,
		CorrelationMultiplier:  1.10,

		LowMax:    30,
		MediumMax: 60,
		HighMax:   80,

		ValidatorCritical:  0.8,
		ValidatorHigh:      0.6,
		ConcentrationAlert: 0.5,
		SlashingLookback:   7 * 24 * time.Hour,
	}
}

// ParamsFromFile overlays a YAML tuning file on DefaultParams. An empty path
// returns the defaults unchanged.
func ParamsFromFile(path string) (Params, error) {
	p := DefaultParams()
	if path == "" {
		return p, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read params: %w", err)
	}
	if err := yaml.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("parse params: %w", err)
	}
	return p, nil
}
