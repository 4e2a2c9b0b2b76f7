package service

import "context"

// Model is a previously trained regression model. Each row holds the nine
// features in canonical order; one prediction is returned per row.
// Implementations must be safe for concurrent read-only use.
type Model interface {
	Name() string
	Predict(ctx context.Context, rows [][]float64) ([]float64, error)
}
