package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"EVDemand/internal/domain/models"
	domrepo "EVDemand/internal/domain/repository"
	pkgkafka "EVDemand/pkg/kafka"
	applogger "EVDemand/pkg/logger"
)

// KafkaRequestsHandler consumes prediction requests and publishes results.
type KafkaRequestsHandler struct {
	topic     string
	processor *RequestProcessor
	results   domrepo.ResultPublisher
	metrics   domrepo.Metrics
	l         *applogger.Logger
}

func NewKafkaRequestsHandler(topic string, processor *RequestProcessor, results domrepo.ResultPublisher, metrics domrepo.Metrics, l *applogger.Logger) *KafkaRequestsHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &KafkaRequestsHandler{topic: topic, processor: processor, results: results, metrics: metrics, l: l}
}

func (h *KafkaRequestsHandler) Topic() string { return h.topic }

// Handle decodes one request. Undecodable payloads are permanent failures and
// go to the DLQ; a failed prediction is still a result and is published.
func (h *KafkaRequestsHandler) Handle(ctx context.Context, b []byte) error {
	var req models.PredictionRequest
	if err := json.Unmarshal(b, &req); err != nil {
		if h.metrics != nil {
			h.metrics.RecordError("consumer_unmarshal")
		}
		return pkgkafka.Permanent(fmt.Errorf("decode prediction request: %w", err))
	}

	rec := h.processor.Process(ctx, SourceKafka, req)
	if h.results == nil {
		return nil
	}
	if err := h.results.PublishResult(ctx, pkgkafka.MessageKey(ctx), rec); err != nil {
		if h.metrics != nil {
			h.metrics.RecordError("publish_result")
		}
		h.l.Error("publish result failed",
			applogger.String("id", rec.ID),
			applogger.String("trace_id", pkgkafka.TraceID(ctx)),
			applogger.Error(err),
		)
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaRequestsHandler)(nil)
