package repository

import (
	"context"

	"StakeWatch/internal/domain/models"
	domrepo "StakeWatch/internal/domain/repository"
	pkgkafka "StakeWatch/pkg/kafka"
)

// KafkaAlertPublisher fans freshly generated alerts out to the alerts topic.
// Messages are keyed by user address so one user's alerts stay ordered within
// a partition.
type KafkaAlertPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaAlertPublisher(producer *pkgkafka.Producer, topic string) domrepo.AlertPublisher {
	return &KafkaAlertPublisher{producer: producer, topic: topic}
}

func (p *KafkaAlertPublisher) Publish(ctx context.Context, userAddress string, alerts []models.RiskAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(alerts))
	for i, a := range alerts {
		msgs[i] = pkgkafka.Message{
			Key: []byte(userAddress),
			Value: map[string]interface{}{
				"user_address": userAddress,
				"alert":        a,
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaAlertPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
