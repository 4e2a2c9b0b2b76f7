package models

import "time"

// PredictionRequest is the raw input for a next-month EV forecast.
// Lags are optional; missing lags are back-filled before feature derivation.
type PredictionRequest struct {
	County       string   `json:"county" validate:"required"`
	AsOfDate     string   `json:"as_of_date" validate:"required"`
	CurrentTotal *float64 `json:"current_total" validate:"required,gte=0"`
	Lag1         *float64 `json:"lag1,omitempty" validate:"omitempty,gte=0"`
	Lag2         *float64 `json:"lag2,omitempty" validate:"omitempty,gte=0"`
	Lag3         *float64 `json:"lag3,omitempty" validate:"omitempty,gte=0"`
}

// Total returns a pointer to v, for building requests in code.
func Total(v float64) *float64 { return &v }

// ErrorKind classifies a failed prediction.
type ErrorKind string

const (
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindModel      ErrorKind = "model"
)

// Direction of the forecast relative to the current total.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// PredictionResult holds exactly one of Prediction or Error.
type PredictionResult struct {
	Prediction *Prediction      `json:"prediction,omitempty"`
	Error      *PredictionError `json:"error,omitempty"`
}

// OK reports whether the result carries a prediction.
func (r PredictionResult) OK() bool { return r.Prediction != nil && r.Error == nil }

// Prediction is the success variant of PredictionResult.
type Prediction struct {
	PredictedTotal float64      `json:"predicted_total"`
	CurrentTotal   float64      `json:"current_total"`
	Delta          float64      `json:"delta"`
	Direction      string       `json:"direction"`
	Features       Features     `json:"features"`
	Trend          []TrendPoint `json:"trend"`
	Model          string       `json:"model,omitempty"`
}

// TrendPoint is one labelled value of the lag3..predicted series.
type TrendPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// PredictionError is the error variant of PredictionResult.
type PredictionError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// PredictionRecord is the audit envelope written after a transport-level prediction.
type PredictionRecord struct {
	ID        string            `json:"id"`
	Source    string            `json:"source"`
	Request   PredictionRequest `json:"request"`
	Result    PredictionResult  `json:"result"`
	CreatedAt time.Time         `json:"created_at"`
}
