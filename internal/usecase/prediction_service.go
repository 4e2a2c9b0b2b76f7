package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"EVDemand/internal/domain/models"
	domsvc "EVDemand/internal/domain/service"
	"EVDemand/internal/services/features"
	applogger "EVDemand/pkg/logger"
)

// ErrModelInvocation marks failures of the model capability itself.
var ErrModelInvocation = errors.New("model invocation failed")

// Trend series labels, oldest first.
var trendLabels = [5]string{"3 Months Ago", "2 Months Ago", "Last Month", "Current", "Next Month (Predicted)"}

// PredictionService derives features for a request, runs the model and
// packages the outcome. Failures never escape as Go errors: they become the
// error variant of PredictionResult.
type PredictionService struct {
	builder *features.Builder
	model   domsvc.Model
	l       *applogger.Logger
}

func NewPredictionService(builder *features.Builder, model domsvc.Model, l *applogger.Logger) *PredictionService {
	if l == nil {
		l = applogger.Nop()
	}
	return &PredictionService{builder: builder, model: model, l: l}
}

// Counties lists the county catalog.
func (s *PredictionService) Counties() []models.County {
	return s.builder.Encoder().Counties()
}

// KnownCounty reports whether county is in the catalog.
func (s *PredictionService) KnownCounty(county string) bool {
	return s.builder.Encoder().Known(county)
}

// ModelName returns the name of the injected model.
func (s *PredictionService) ModelName() string {
	return s.model.Name()
}

// Features derives the feature mapping without invoking the model.
func (s *PredictionService) Features(req models.PredictionRequest) (models.Features, error) {
	v, err := s.builder.Build(req)
	if err != nil {
		return nil, err
	}
	return v.Named(), nil
}

// Predict returns a prediction for req, or a structured error.
func (s *PredictionService) Predict(ctx context.Context, req models.PredictionRequest) models.PredictionResult {
	v, err := s.builder.Build(req)
	if err != nil {
		s.l.Debug("prediction rejected",
			applogger.String("county", req.County),
			applogger.String("as_of_date", req.AsOfDate),
			applogger.Error(err),
		)
		return failure(models.ErrorKindValidation, err)
	}

	start := time.Now()
	predicted, err := s.invoke(ctx, v)
	if err != nil {
		s.l.Error("model invocation error",
			applogger.String("model", s.model.Name()),
			applogger.String("county", req.County),
			applogger.Error(err),
		)
		return failure(models.ErrorKindModel, err)
	}

	current, lag1, lag2, lag3 := features.ResolveLags(req)
	direction := models.DirectionDown
	if predicted > current {
		direction = models.DirectionUp
	}

	trend := make([]models.TrendPoint, len(trendLabels))
	for i, value := range []float64{lag3, lag2, lag1, current, predicted} {
		trend[i] = models.TrendPoint{Label: trendLabels[i], Value: value}
	}

	s.l.Debug("prediction ok",
		applogger.String("county", req.County),
		applogger.Float64("predicted_total", predicted),
		applogger.Duration("duration_ms", time.Since(start)),
	)

	return models.PredictionResult{Prediction: &models.Prediction{
		PredictedTotal: predicted,
		CurrentTotal:   current,
		Delta:          predicted - current,
		Direction:      direction,
		Features:       v.Named(),
		Trend:          trend,
		Model:          s.model.Name(),
	}}
}

// invoke runs the model on the single-row vector and checks its output.
func (s *PredictionService) invoke(ctx context.Context, v models.FeatureVector) (predicted float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrModelInvocation, r)
		}
	}()

	out, err := s.model.Predict(ctx, [][]float64{v.Row()})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrModelInvocation, err)
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("%w: expected 1 prediction, got %d", ErrModelInvocation, len(out))
	}
	if math.IsNaN(out[0]) || math.IsInf(out[0], 0) {
		return 0, fmt.Errorf("%w: non-finite prediction %v", ErrModelInvocation, out[0])
	}
	return out[0], nil
}

func failure(kind models.ErrorKind, err error) models.PredictionResult {
	msg := err.Error()
	var verr *features.ValidationError
	if errors.As(err, &verr) {
		msg = verr.Message
	}
	return models.PredictionResult{Error: &models.PredictionError{Kind: kind, Message: msg}}
}
