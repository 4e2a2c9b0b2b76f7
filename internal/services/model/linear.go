package model

import (
	"context"
	"fmt"

	"EVDemand/internal/domain/models"
	domsvc "EVDemand/internal/domain/service"
)

// Linear is an ordinary least-squares model: y = intercept + Σ coef_i·x_i.
type Linear struct {
	name         string
	intercept    float64
	coefficients [models.NumFeatures]float64
}

// NewLinear builds a linear model. coefficients follow canonical feature order.
func NewLinear(name string, intercept float64, coefficients []float64) (*Linear, error) {
	if len(coefficients) != models.NumFeatures {
		return nil, fmt.Errorf("linear model: expected %d coefficients, got %d", models.NumFeatures, len(coefficients))
	}
	m := &Linear{name: name, intercept: intercept}
	copy(m.coefficients[:], coefficients)
	return m, nil
}

func (m *Linear) Name() string { return m.name }

func (m *Linear) Predict(_ context.Context, rows [][]float64) ([]float64, error) {
	if err := checkRows(rows); err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		y := m.intercept
		for j, c := range m.coefficients {
			y += c * r[j]
		}
		out[i] = y
	}
	return out, nil
}

var _ domsvc.Model = (*Linear)(nil)
