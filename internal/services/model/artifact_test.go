package model

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const linearYAML = `
type: linear
name: ev-linear
version: "2024-03"
intercept: 10
features: [months_since_epoch, county_code, lag1, lag2, lag3, rolling_mean_3, pct_change_1, pct_change_3, growth_slope]
coefficients: [1, 0, 0.5, 0, 0, 0.5, 0, 0, 2]
`

const forestJSON = `{
  "type": "forest",
  "name": "ev-forest",
  "features": ["months_since_epoch", "county_code", "lag1", "lag2", "lag3", "rolling_mean_3", "pct_change_1", "pct_change_3", "growth_slope"],
  "trees": [
    {"nodes": [
      {"feature": 2, "threshold": 500, "left": 1, "right": 2},
      {"feature": -1, "value": 100},
      {"feature": -1, "value": 1000}
    ]},
    {"nodes": [{"feature": -1, "value": 300}]}
  ]
}`

func row(lag1 float64) []float64 {
	return []float64{70, 0, lag1, 800, 700, 900, 0.1, 0.25, 100}
}

func TestLoadLinear(t *testing.T) {
	m, err := Load([]byte(linearYAML))
	require.NoError(t, err)
	assert.Equal(t, "ev-linear@2024-03", m.Name())

	out, err := m.Predict(context.Background(), [][]float64{row(900)})
	require.NoError(t, err)
	require.Len(t, out, 1)
	// 10 + 70 + 450 + 450 + 200
	assert.InDelta(t, 1180.0, out[0], 1e-9)
}

func TestLoadForestJSON(t *testing.T) {
	m, err := Load([]byte(forestJSON))
	require.NoError(t, err)
	assert.Equal(t, "ev-forest", m.Name())

	out, err := m.Predict(context.Background(), [][]float64{row(900), row(400)})
	require.NoError(t, err)
	assert.Equal(t, []float64{650, 200}, out)
}

func TestLoadRejectsFeatureOrderMismatch(t *testing.T) {
	bad := `
type: linear
features: [county_code, months_since_epoch, lag1, lag2, lag3, rolling_mean_3, pct_change_1, pct_change_3, growth_slope]
coefficients: [1, 1, 1, 1, 1, 1, 1, 1, 1]
`
	_, err := Load([]byte(bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "county_code")
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"short coefficients": `
features: [months_since_epoch, county_code, lag1, lag2, lag3, rolling_mean_3, pct_change_1, pct_change_3, growth_slope]
coefficients: [1, 2]`,
		"unknown type": `
type: svm
features: [months_since_epoch, county_code, lag1, lag2, lag3, rolling_mean_3, pct_change_1, pct_change_3, growth_slope]`,
		"no trees": `
type: forest
features: [months_since_epoch, county_code, lag1, lag2, lag3, rolling_mean_3, pct_change_1, pct_change_3, growth_slope]`,
		"backward child": `
type: forest
features: [months_since_epoch, county_code, lag1, lag2, lag3, rolling_mean_3, pct_change_1, pct_change_3, growth_slope]
trees:
  - nodes:
      - {feature: 0, threshold: 1, left: 0, right: 1}
      - {feature: -1, value: 1}`,
		"feature out of range": `
type: forest
features: [months_since_epoch, county_code, lag1, lag2, lag3, rolling_mean_3, pct_change_1, pct_change_3, growth_slope]
trees:
  - nodes:
      - {feature: 9, threshold: 1, left: 1, right: 2}
      - {feature: -1, value: 1}
      - {feature: -1, value: 2}`,
		"missing features": `coefficients: [1, 1, 1, 1, 1, 1, 1, 1, 1]`,
		"not yaml":         "{{{",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(linearYAML), 0o600))

	m, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ev-linear@2024-03", m.Name())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPredictRejectsWrongRowWidth(t *testing.T) {
	m, err := Load([]byte(linearYAML))
	require.NoError(t, err)
	_, err = m.Predict(context.Background(), [][]float64{{1, 2, 3}})
	assert.Error(t, err)
}
