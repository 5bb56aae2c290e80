package repository

import (
	"context"

	"SigPipe/internal/domain/repository"
	pkgkafka "SigPipe/pkg/kafka"
)

// KafkaPublisher implements Publisher for one Kafka topic.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates a Kafka publisher bound to a topic.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, key []byte, value interface{}) error {
	return p.producer.Publish(ctx, p.topic, key, value)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
