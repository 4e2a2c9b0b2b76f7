package repository

import (
	"context"

	"EVDemand/internal/domain/models"
)

// PredictionRecorder is an audit sink for transport-level predictions.
type PredictionRecorder interface {
	Record(ctx context.Context, rec *models.PredictionRecord) error
	Close() error
}

// ResultPublisher delivers results back to asynchronous callers.
type ResultPublisher interface {
	PublishResult(ctx context.Context, key string, rec *models.PredictionRecord) error
	Close() error
}

// PredictionStore is a queryable PredictionRecorder.
type PredictionStore interface {
	PredictionRecorder
	Init(ctx context.Context) error // ensure tables
	Recent(ctx context.Context, county string, limit int) ([]*models.PredictionRecord, error)
	Health(ctx context.Context) error
}

type Metrics interface {
	RecordPrediction(source, outcome string)
	RecordError(kind string)
	RecordLastPredicted(county string, value float64)
	RecordUnknownCounty(source string)
	RecordAuditWritten(backend string)
	RecordLatency(op string, seconds float64)
}
