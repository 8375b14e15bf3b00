package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"StakeWatch/internal/domain/models"
	domrepo "StakeWatch/internal/domain/repository"
	"StakeWatch/pkg/logger"
	"StakeWatch/pkg/queue"
)

// Invalidator drops a user's cached evaluations. *RiskEngine satisfies it.
type Invalidator interface {
	Invalidate(userAddress string)
}

// StakerLookup resolves which users are exposed to a validator.
type StakerLookup interface {
	UsersForValidator(ctx context.Context, validatorAddress string) ([]string, error)
}

// alertDispatchType is the queue message type the external notifier worker
// consumes.
const alertDispatchType = "alert_dispatch"

// EventDispatcher handles slashing events pushed by the telemetry stream:
// every affected user's cached evaluation is invalidated so the next request
// re-scores, and an immediate critical alert is queued for dispatch without
// waiting for that recomputation.
type EventDispatcher struct {
	engine  Invalidator
	lookup  StakerLookup
	queue   queue.QueueService
	metrics domrepo.Metrics
	log     *logger.Logger
}

func NewEventDispatcher(engine Invalidator, lookup StakerLookup, q queue.QueueService, metrics domrepo.Metrics, log *logger.Logger) *EventDispatcher {
	return &EventDispatcher{engine: engine, lookup: lookup, queue: q, metrics: metrics, log: log}
}

// Process handles a single slashing event.
func (d *EventDispatcher) Process(ctx context.Context, ev *models.SlashingEvent) error {
	if ev == nil {
		return fmt.Errorf("event is nil")
	}

	start := time.Now()

	users, err := d.lookup.UsersForValidator(ctx, ev.Validator)
	if err != nil {
		d.metrics.RecordError("staker_lookup")
		return fmt.Errorf("lookup stakers for %s: %w", ev.Validator, err)
	}

	alert := slashingEventAlert(ev)
	for _, user := range users {
		d.engine.Invalidate(user)

		if d.queue == nil {
			continue
		}
		payload := map[string]interface{}{
			"user_address": user,
			"alert":        alert,
		}
		if err := d.queue.PublishMessage(ctx, alertDispatchType, payload); err != nil {
			d.metrics.RecordError("alert_enqueue")
			d.log.Warn("alert dispatch enqueue failed",
				logger.String("user", user),
				logger.String("validator", ev.Validator),
				logger.Error(err))
		}
	}

	d.log.Info("slashing event dispatched",
		logger.String("validator", ev.Validator),
		logger.Int("affected_users", len(users)))
	d.metrics.RecordLatency("dispatch_event", time.Since(start).Seconds())
	return nil
}

// slashingEventAlert builds the push-path alert for one event. It matches the
// shape the evaluation-path generator emits for the same event.
func slashingEventAlert(ev *models.SlashingEvent) models.RiskAlert {
	return models.RiskAlert{
		ID:             uuid.NewString(),
		Type:           models.AlertSlashingEvent,
		Severity:       models.SeverityCritical,
		Message:        fmt.Sprintf("validator %s was slashed", ev.Validator),
		Timestamp:      time.Now().UTC(),
		ActionRequired: true,
		Details: map[string]interface{}{
			"validator":   ev.Validator,
			"operator":    ev.Operator,
			"reason":      ev.Reason,
			"penalty_eth": ev.PenaltyETH,
			"occurred_at": ev.OccurredAt,
		},
	}
}
