package features

import (
	"context"
	"fmt"
	"math"
	"time"

	"EVDemand/internal/domain/models"
	"EVDemand/pkg/util"
	"EVDemand/pkg/validate"
)

// Month 0 of months_since_epoch is May 2018, the dataset origin.
const (
	EpochYear  = 2018
	EpochMonth = time.May
)

// ValidationError reports request input that cannot be turned into features.
type ValidationError struct {
	Fields  []validate.FieldError
	Message string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Message
}

func newValidationError(field, code, msg string) *ValidationError {
	return &ValidationError{
		Fields:  []validate.FieldError{{Code: code, Field: field, Message: msg}},
		Message: msg,
	}
}

// Builder turns a PredictionRequest into the canonical FeatureVector.
// It is the only place domain requests are validated.
type Builder struct {
	encoder *CountyEncoder
}

func NewBuilder(encoder *CountyEncoder) *Builder {
	if encoder == nil {
		encoder = NewCountyEncoder()
	}
	return &Builder{encoder: encoder}
}

// Encoder exposes the county encoder used by the builder.
func (b *Builder) Encoder() *CountyEncoder { return b.encoder }

// Build validates req and derives the nine features in canonical order.
func (b *Builder) Build(req models.PredictionRequest) (models.FeatureVector, error) {
	var v models.FeatureVector

	if errs := validate.Struct(context.Background(), &req); len(errs) > 0 {
		return v, &ValidationError{Fields: errs, Message: validate.Join(errs)}
	}

	date, ok := util.ParseDate(req.AsOfDate)
	if !ok {
		return v, newValidationError("as_of_date", "ERR_DATE",
			fmt.Sprintf("as_of_date %q is not a YYYY-MM-DD date", req.AsOfDate))
	}

	current, lag1, lag2, lag3 := ResolveLags(req)
	for _, t := range []struct {
		field string
		value float64
	}{
		{"current_total", current},
		{"lag1", lag1},
		{"lag2", lag2},
		{"lag3", lag3},
	} {
		if math.IsNaN(t.value) || math.IsInf(t.value, 0) || t.value < 0 {
			return v, newValidationError(t.field, "ERR_GTE",
				fmt.Sprintf("%s must be a non-negative number", t.field))
		}
	}

	trend := ComputeTrend([3]float64{lag2, lag1, current})

	v = models.FeatureVector{
		float64(MonthsSinceEpoch(date)),
		float64(b.encoder.Encode(req.County)),
		lag1,
		lag2,
		lag3,
		trend.RollingMean3,
		trend.PctChange1,
		trend.PctChange3,
		trend.GrowthSlope,
	}
	return v, nil
}

// MonthsSinceEpoch returns the linear month offset of t from May 2018.
func MonthsSinceEpoch(t time.Time) int {
	return util.MonthsBetween(EpochYear, EpochMonth, t)
}

// ResolveLags back-fills missing lags: lag1 <- current, lag2 <- lag1, lag3 <- lag2.
// A missing current total resolves to 0; Build rejects that case before it matters.
func ResolveLags(req models.PredictionRequest) (current, lag1, lag2, lag3 float64) {
	if req.CurrentTotal != nil {
		current = *req.CurrentTotal
	}
	lag1 = valueOr(req.Lag1, current)
	lag2 = valueOr(req.Lag2, lag1)
	lag3 = valueOr(req.Lag3, lag2)
	return current, lag1, lag2, lag3
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
