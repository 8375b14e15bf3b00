package repository

import (
	"context"
	"errors"
	"time"

	"StakeWatch/internal/domain/models"
)

var (
	// ErrDataUnavailable marks a provider timeout or upstream failure. The
	// engine isolates it to the positions/components it affects.
	ErrDataUnavailable = errors.New("provider data unavailable")

	// ErrNoPositions is returned when no position data at all could be
	// obtained for a user; it is the only provider failure surfaced to callers.
	ErrNoPositions = errors.New("no position data available")
)

// PositionProvider supplies a user's staking positions.
type PositionProvider interface {
	GetPositions(ctx context.Context, userAddress string) ([]models.StakingPosition, error)
}

// MarketDataProvider supplies validator/operator/AVS telemetry and market
// conditions. Every call must be time-bounded via ctx; a timeout is treated as
// ErrDataUnavailable, never an indefinite block.
type MarketDataProvider interface {
	GetValidatorMetrics(ctx context.Context, validatorAddress string) (models.ValidatorMetrics, error)
	GetOperatorMetrics(ctx context.Context, operatorAddress string) (models.OperatorMetrics, error)
	GetAVSMetrics(ctx context.Context, avsID string) (models.AVSMetrics, error)
	GetProtocolLiquidity(ctx context.Context, protocol string) (models.ProtocolLiquidity, error)
	GetMarketConditions(ctx context.Context) (models.MarketConditions, error)
}

// RiskHistory persists evaluation results as an append-only audit trail.
type RiskHistory interface {
	Record(ctx context.Context, m *models.RiskMetrics) error
	Range(ctx context.Context, userAddress string, from, to time.Time, limit int) ([]models.RiskHistoryPoint, error)
	Health(ctx context.Context) error
	Close() error
}

// AlertPublisher broadcasts freshly generated alerts to downstream consumers
// (WebSocket broadcaster, notifiers). Failures must never abort an evaluation.
type AlertPublisher interface {
	Publish(ctx context.Context, userAddress string, alerts []models.RiskAlert) error
	Close() error
}

// SlashingStream delivers validator slashing/telemetry events pushed by the
// indexer.
type SlashingStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.SlashingEvent, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Metrics records operational metrics for the risk engine.
type Metrics interface {
	RecordEvaluation(outcome string)
	RecordComponentScore(component string, score float64)
	RecordRiskScore(userAddress string, score float64)
	RecordCacheLookup(kind MetricKind, result string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
