package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"EVDemand/internal/domain/models"
	domrepo "EVDemand/internal/domain/repository"
	applogger "EVDemand/pkg/logger"
	"EVDemand/pkg/util"
)

// Request sources, used for metrics and audit records.
const (
	SourceHTTP  = "http"
	SourceWS    = "ws"
	SourceKafka = "kafka"
)

// Clock returns the current time. Injected so "today" is testable.
type Clock func() time.Time

// RequestProcessor is what every transport calls. It resolves a missing
// as_of_date to today, runs the prediction and records the outcome. It adds no
// domain logic of its own.
type RequestProcessor struct {
	svc      *PredictionService
	recorder domrepo.PredictionRecorder
	backend  string
	metrics  domrepo.Metrics
	now      Clock
	newID    func() string
	l        *applogger.Logger
}

// NewRequestProcessor builds a processor. recorder and metrics may be nil.
func NewRequestProcessor(
	svc *PredictionService,
	recorder domrepo.PredictionRecorder,
	backend string,
	metrics domrepo.Metrics,
	now Clock,
	l *applogger.Logger,
) *RequestProcessor {
	if now == nil {
		now = time.Now
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &RequestProcessor{
		svc:      svc,
		recorder: recorder,
		backend:  backend,
		metrics:  metrics,
		now:      now,
		newID:    uuid.NewString,
		l:        l,
	}
}

// Service exposes the wrapped prediction service.
func (p *RequestProcessor) Service() *PredictionService { return p.svc }

// Prepare fills transport-level defaults and reports lenient fallbacks.
func (p *RequestProcessor) Prepare(source string, req models.PredictionRequest) models.PredictionRequest {
	if req.AsOfDate == "" {
		req.AsOfDate = util.FormatDate(p.now())
	}
	if req.County != "" && !p.svc.KnownCounty(req.County) {
		p.l.Warn("unknown county, using default encoding",
			applogger.String("county", req.County),
			applogger.String("source", source),
		)
		if p.metrics != nil {
			p.metrics.RecordUnknownCounty(source)
		}
	}
	return req
}

// Process runs one prediction and returns its audit record. Recording
// failures are logged and counted; they never change the result.
func (p *RequestProcessor) Process(ctx context.Context, source string, req models.PredictionRequest) *models.PredictionRecord {
	req = p.Prepare(source, req)

	start := time.Now()
	res := p.svc.Predict(ctx, req)
	took := time.Since(start)
	p.observe(source, req, res, took)

	rec := &models.PredictionRecord{
		ID:        p.newID(),
		Source:    source,
		Request:   req,
		Result:    res,
		CreatedAt: p.now().UTC(),
	}
	p.l.Debug("prediction processed",
		applogger.String("id", rec.ID),
		applogger.String("source", source),
		applogger.Bool("ok", res.OK()),
		applogger.Duration("duration_ms", took),
	)

	if p.recorder != nil {
		if err := p.recorder.Record(ctx, rec); err != nil {
			p.l.Error("audit record failed",
				applogger.String("id", rec.ID),
				applogger.String("backend", p.backend),
				applogger.Error(err),
			)
			if p.metrics != nil {
				p.metrics.RecordError("audit")
			}
		} else if p.metrics != nil {
			p.metrics.RecordAuditWritten(p.backend)
		}
	}
	return rec
}

func (p *RequestProcessor) observe(source string, req models.PredictionRequest, res models.PredictionResult, took time.Duration) {
	if p.metrics == nil {
		return
	}
	p.metrics.RecordLatency("predict", took.Seconds())
	if res.OK() {
		p.metrics.RecordPrediction(source, "ok")
		if p.svc.KnownCounty(req.County) {
			p.metrics.RecordLastPredicted(req.County, res.Prediction.PredictedTotal)
		}
		return
	}
	p.metrics.RecordPrediction(source, string(res.Error.Kind))
	p.metrics.RecordError(string(res.Error.Kind))
}
