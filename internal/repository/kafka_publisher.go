package repository

import (
	"context"
	"fmt"

	"ContraTrack/internal/domain/models"
)

// messageProducer is the part of pkg/kafka.Producer the publisher needs.
type messageProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaAnalysisPublisher emits every report to a topic, keyed by symbol so a
// symbol's reports stay ordered within one partition.
type KafkaAnalysisPublisher struct {
	producer messageProducer
	topic    string
}

func NewKafkaAnalysisPublisher(p messageProducer, topic string) *KafkaAnalysisPublisher {
	return &KafkaAnalysisPublisher{producer: p, topic: topic}
}

func (p *KafkaAnalysisPublisher) PublishAnalysis(ctx context.Context, r *models.AnalysisReport) error {
	if r == nil {
		return nil
	}
	if err := p.producer.Publish(ctx, p.topic, []byte(r.Symbol), r); err != nil {
		return fmt.Errorf("publish analysis %s: %w", r.Symbol, err)
	}
	return nil
}

// Close releases the underlying producer.
func (p *KafkaAnalysisPublisher) Close() error {
	return p.producer.Close()
}
