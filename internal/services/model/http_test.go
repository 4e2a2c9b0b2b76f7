package model

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EVDemand/internal/domain/models"
)

func TestHTTPPredict(t *testing.T) {
	var got predictRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(predictResponse{Predictions: []float64{1234.5}})
	}))
	defer srv.Close()

	m, err := NewHTTP(HTTPConfig{URL: srv.URL + "/", Name: "rf"})
	require.NoError(t, err)

	out, err := m.Predict(context.Background(), [][]float64{row(900)})
	require.NoError(t, err)
	assert.Equal(t, []float64{1234.5}, out)
	assert.Equal(t, "rf", got.Model)
	assert.Equal(t, models.FeatureNames[:], got.FeatureNames)
	assert.Equal(t, [][]float64{row(900)}, got.Rows)
}

func TestHTTPPredictServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	m, err := NewHTTP(HTTPConfig{URL: srv.URL})
	require.NoError(t, err)

	_, err = m.Predict(context.Background(), [][]float64{row(900)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPPredictRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(predictResponse{Predictions: []float64{7}})
	}))
	defer srv.Close()

	m, err := NewHTTP(HTTPConfig{URL: srv.URL, Retries: 3, Timeout: time.Second})
	require.NoError(t, err)

	out, err := m.Predict(context.Background(), [][]float64{row(900)})
	require.NoError(t, err)
	assert.Equal(t, []float64{7}, out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestNewHTTPRequiresURL(t *testing.T) {
	_, err := NewHTTP(HTTPConfig{})
	assert.Error(t, err)
}

func TestHTTPBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	m, err := NewHTTP(HTTPConfig{URL: srv.URL, BreakerFailures: 2, BreakerCooldown: time.Hour})
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err = m.Predict(ctx, [][]float64{row(900)})
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrCircuitOpen))
	}
	_, err = m.Predict(ctx, [][]float64{row(900)})
	assert.True(t, errors.Is(err, ErrCircuitOpen))
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPPredictClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "feature_names mismatch", http.StatusBadRequest)
	}))
	defer srv.Close()

	m, err := NewHTTP(HTTPConfig{URL: srv.URL, Retries: 3})
	require.NoError(t, err)

	_, err = m.Predict(context.Background(), [][]float64{row(900)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feature_names mismatch")
	assert.Equal(t, int32(1), calls.Load())
}
