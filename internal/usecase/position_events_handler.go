package usecase

import (
	"context"
	"encoding/json"
	"time"

	domrepo "StakeWatch/internal/domain/repository"
	pkgkafka "StakeWatch/pkg/kafka"
)

// PositionEventsHandler consumes position-update events (deposit, withdrawal,
// delegation change) and invalidates the affected user's cached evaluation so
// the next request re-scores against the new portfolio.
type PositionEventsHandler struct {
	topic   string
	engine  Invalidator
	metrics domrepo.Metrics
}

func NewPositionEventsHandler(topic string, engine Invalidator, metrics domrepo.Metrics) *PositionEventsHandler {
	return &PositionEventsHandler{topic: topic, engine: engine, metrics: metrics}
}

func (h *PositionEventsHandler) Topic() string { return h.topic }

// incoming message schema: {user_address, event_type, ts}
func (h *PositionEventsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		UserAddress string `json:"user_address"`
		EventType   string `json:"event_type"`
		TS          int64  `json:"ts"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.UserAddress == "" {
		h.metrics.RecordError("consumer_empty_user")
		return nil // not retryable, drop
	}
	if m.TS > 1e11 { // ms
		m.TS = m.TS / 1000
	}
	if m.TS > 0 {
		// E2E latency from event time to now (approx)
		h.metrics.RecordLatency("position_event_e2e_seconds", time.Since(time.Unix(m.TS, 0)).Seconds())
	}

	h.engine.Invalidate(m.UserAddress)
	return nil
}

var _ pkgkafka.MessageHandler = (*PositionEventsHandler)(nil)
