package features

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EVDemand/internal/domain/models"
)

func kingRequest() models.PredictionRequest {
	return models.PredictionRequest{
		County:       "King",
		AsOfDate:     "2024-03-01",
		CurrentTotal: models.Total(1000),
		Lag1:         models.Total(900),
		Lag2:         models.Total(800),
		Lag3:         models.Total(700),
	}
}

func TestBuildCanonicalVector(t *testing.T) {
	v, err := NewBuilder(nil).Build(kingRequest())
	require.NoError(t, err)

	want := []float64{70, 0, 900, 800, 700, 900, 100.0 / 900.0, 0.25, 100}
	require.Len(t, v.Row(), models.NumFeatures)
	for i, w := range want {
		assert.InDelta(t, w, v[i], 1e-9, models.FeatureNames[i])
	}
	assert.InDelta(t, 0.1111, v[6], 1e-4)
}

func TestBuildNamedOrder(t *testing.T) {
	v, err := NewBuilder(nil).Build(kingRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"months_since_epoch", "county_code", "lag1", "lag2", "lag3",
		"rolling_mean_3", "pct_change_1", "pct_change_3", "growth_slope",
	}, v.Named().Names())
}

func TestBuildBackFillsMissingLags(t *testing.T) {
	req := models.PredictionRequest{County: "Clark", AsOfDate: "2023-01-10", CurrentTotal: models.Total(500)}
	v, err := NewBuilder(nil).Build(req)
	require.NoError(t, err)

	named := v.Named()
	for _, name := range []string{models.FeatureLag1, models.FeatureLag2, models.FeatureLag3, models.FeatureRollingMean3} {
		got, ok := named.Get(name)
		require.True(t, ok)
		assert.Equal(t, 500.0, got, name)
	}
	for _, name := range []string{models.FeaturePctChange1, models.FeaturePctChange3, models.FeatureGrowthSlope} {
		got, _ := named.Get(name)
		assert.Equal(t, 0.0, got, name)
	}
	code, _ := named.Get(models.FeatureCountyCode)
	assert.Equal(t, 4.0, code)
}

func TestBuildBackFillChain(t *testing.T) {
	req := models.PredictionRequest{County: "King", AsOfDate: "2024-03-01", CurrentTotal: models.Total(500), Lag1: models.Total(400)}
	v, err := NewBuilder(nil).Build(req)
	require.NoError(t, err)
	assert.Equal(t, 400.0, v[2])
	assert.Equal(t, 400.0, v[3])
	assert.Equal(t, 400.0, v[4])
}

func TestBuildMonthsSinceEpoch(t *testing.T) {
	cases := map[string]float64{"2018-05-15": 0, "2019-05-15": 12, "2018-06-15": 1, "2024-03-01": 70}
	for date, want := range cases {
		req := kingRequest()
		req.AsOfDate = date
		v, err := NewBuilder(nil).Build(req)
		require.NoError(t, err, date)
		assert.Equal(t, want, v[0], date)
	}
}

func TestBuildUnknownCountyUsesDefaultCode(t *testing.T) {
	req := kingRequest()
	req.County = "Gotham"
	v, err := NewBuilder(nil).Build(req)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v[1])
}

func TestBuildValidationErrors(t *testing.T) {
	cases := map[string]func(r *models.PredictionRequest){
		"invalid date":     func(r *models.PredictionRequest) { r.AsOfDate = "not-a-date" },
		"missing date":     func(r *models.PredictionRequest) { r.AsOfDate = "" },
		"missing county":   func(r *models.PredictionRequest) { r.County = "" },
		"missing current":  func(r *models.PredictionRequest) { r.CurrentTotal = nil },
		"negative current": func(r *models.PredictionRequest) { r.CurrentTotal = models.Total(-1) },
		"negative lag2":    func(r *models.PredictionRequest) { r.Lag2 = models.Total(-5) },
		"infinite lag3":    func(r *models.PredictionRequest) { r.Lag3 = models.Total(math.Inf(1)) },
		"nan lag1":         func(r *models.PredictionRequest) { r.Lag1 = models.Total(math.NaN()) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := kingRequest()
			mutate(&req)
			_, err := NewBuilder(nil).Build(req)
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.NotEmpty(t, verr.Message)
			assert.NotEmpty(t, verr.Fields)
		})
	}
}

func TestBuildInvalidDateMessage(t *testing.T) {
	req := kingRequest()
	req.AsOfDate = "not-a-date"
	_, err := NewBuilder(nil).Build(req)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "as_of_date", verr.Fields[0].Field)
	assert.Contains(t, verr.Message, "not-a-date")
}

func TestBuildIsDeterministic(t *testing.T) {
	b := NewBuilder(nil)
	first, err := b.Build(kingRequest())
	require.NoError(t, err)
	second, err := b.Build(kingRequest())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
