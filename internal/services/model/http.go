package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"EVDemand/internal/domain/models"
	domsvc "EVDemand/internal/domain/service"
	xhttp "EVDemand/pkg/http"
)

// HTTPConfig configures a remote model served over HTTP.
type HTTPConfig struct {
	URL     string
	Name    string
	Timeout time.Duration
	// Retries is the total number of attempts; values below 2 disable retrying.
	Retries int
	// BreakerFailures consecutive failed calls open the circuit for
	// BreakerCooldown. Zero failures disables the breaker.
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

type predictRequest struct {
	Model        string      `json:"model"`
	FeatureNames []string    `json:"feature_names"`
	Rows         [][]float64 `json:"rows"`
}

type predictResponse struct {
	Predictions []float64 `json:"predictions"`
}

// HTTP calls a remote inference service: POST {url}/predict.
type HTTP struct {
	baseURL string
	name    string
	retries int
	client  *xhttp.Client
	breaker *gobreaker.CircuitBreaker
}

func NewHTTP(cfg HTTPConfig) (*HTTP, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("http model: service url is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	name := cfg.Name
	if name == "" {
		name = "remote"
	}
	m := &HTTP{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		name:    name,
		retries: cfg.Retries,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout), xhttp.WithUserAgent("evdemand-model/"+name)),
	}
	if cfg.BreakerFailures > 0 {
		cooldown := cfg.BreakerCooldown
		if cooldown <= 0 {
			cooldown = 30 * time.Second
		}
		failures := cfg.BreakerFailures
		m.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "model:" + name,
			MaxRequests: 1,
			Timeout:     cooldown,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= failures
			},
		})
	}
	return m, nil
}

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("model service circuit open")

func (m *HTTP) Name() string { return m.name }

func (m *HTTP) Predict(ctx context.Context, rows [][]float64) ([]float64, error) {
	if err := checkRows(rows); err != nil {
		return nil, err
	}
	payload := predictRequest{Model: m.name, FeatureNames: models.FeatureNames[:], Rows: rows}

	call := func() (interface{}, error) {
		var resp predictResponse
		if err := m.postJSONWithRetry(ctx, "/predict", payload, &resp); err != nil {
			return nil, err
		}
		return resp.Predictions, nil
	}
	if m.breaker == nil {
		out, err := call()
		if err != nil {
			return nil, err
		}
		return out.([]float64), nil
	}

	out, err := m.breaker.Execute(call)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	if err != nil {
		return nil, err
	}
	return out.([]float64), nil
}

func (m *HTTP) postJSON(ctx context.Context, path string, payload, dest any) error {
	if err := m.client.PostJSON(ctx, m.baseURL+path, payload, dest); err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}

func (m *HTTP) postJSONWithRetry(ctx context.Context, path string, payload, dest any) error {
	if m.retries <= 1 {
		return m.postJSON(ctx, path, payload, dest)
	}
	var err error
	for i := 1; i <= m.retries; i++ {
		if err = m.postJSON(ctx, path, payload, dest); err == nil {
			return nil
		}
		if i == m.retries || !xhttp.Retryable(err) {
			break
		}
		select {
		case <-time.After(time.Duration(i) * 50 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

var _ domsvc.Model = (*HTTP)(nil)
