package repository

import (
	"context"

	"EVDemand/internal/domain/models"
	"EVDemand/internal/domain/repository"
	pkgkafka "EVDemand/pkg/kafka"
)

// producer is the subset of pkgkafka.Producer used here.
type producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}, headers ...pkgkafka.Header) error
	Close() error
}

// KafkaRecorder publishes prediction records to an audit topic, keyed by county.
type KafkaRecorder struct {
	producer producer
	topic    string
}

// NewKafkaRecorder creates a Kafka audit sink.
func NewKafkaRecorder(p producer, topic string) *KafkaRecorder {
	return &KafkaRecorder{producer: p, topic: topic}
}

func (r *KafkaRecorder) Record(ctx context.Context, rec *models.PredictionRecord) error {
	return r.producer.Publish(ctx, r.topic, []byte(rec.Request.County), rec,
		pkgkafka.Header{Key: "source", Value: []byte(rec.Source)},
		pkgkafka.Header{Key: "record_id", Value: []byte(rec.ID)},
	)
}

// Close is a no-op; the producer is shared and closed by the app.
func (r *KafkaRecorder) Close() error { return nil }

// KafkaResultPublisher answers Kafka callers on the results topic. The
// original request key is reused so callers can correlate replies.
type KafkaResultPublisher struct {
	producer producer
	topic    string
}

func NewKafkaResultPublisher(p producer, topic string) *KafkaResultPublisher {
	return &KafkaResultPublisher{producer: p, topic: topic}
}

func (p *KafkaResultPublisher) PublishResult(ctx context.Context, key string, rec *models.PredictionRecord) error {
	if key == "" {
		key = rec.ID
	}
	return p.producer.Publish(ctx, p.topic, []byte(key), rec,
		pkgkafka.Header{Key: "record_id", Value: []byte(rec.ID)},
	)
}

func (p *KafkaResultPublisher) Close() error { return nil }

// NoopRecorder discards records.
type NoopRecorder struct{}

func (NoopRecorder) Record(context.Context, *models.PredictionRecord) error { return nil }

func (NoopRecorder) Close() error { return nil }

var (
	_ repository.PredictionRecorder = (*KafkaRecorder)(nil)
	_ repository.PredictionRecorder = NoopRecorder{}
	_ repository.ResultPublisher    = (*KafkaResultPublisher)(nil)
)
