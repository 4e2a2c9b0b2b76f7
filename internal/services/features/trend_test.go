package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRollingMean(t *testing.T) {
	for _, w := range [][3]float64{{1, 2, 3}, {0, 0, 0}, {800, 900, 1000}, {5, 17, 2}} {
		got := ComputeTrend(w).RollingMean3
		assert.InDelta(t, (w[0]+w[1]+w[2])/3, got, 1e-12)
	}
}

func TestPctChange(t *testing.T) {
	assert.InDelta(t, 0.25, PctChange(1000, 800), 1e-12)
	assert.InDelta(t, -0.5, PctChange(50, 100), 1e-12)
	assert.Equal(t, 0.0, PctChange(1000, 0))
	assert.Equal(t, 0.0, PctChange(0, 0))
}

func TestPctChangeGuardsAreIndependent(t *testing.T) {
	// lag1 is zero, lag2 is positive
	stats := ComputeTrend([3]float64{400, 0, 500})
	assert.Equal(t, 0.0, stats.PctChange1)
	assert.InDelta(t, 0.25, stats.PctChange3, 1e-12)

	stats = ComputeTrend([3]float64{0, 400, 500})
	assert.InDelta(t, 0.25, stats.PctChange1, 1e-12)
	assert.Equal(t, 0.0, stats.PctChange3)
}

func TestSlopeConstant(t *testing.T) {
	for _, v := range []float64{0, 1, 42.5, 1e6} {
		assert.Equal(t, 0.0, Slope([]float64{v, v, v}))
	}
}

func TestSlopeArithmetic(t *testing.T) {
	cases := []struct{ v, d float64 }{{0, 1}, {800, 100}, {3.5, 0.25}, {1000, 7}}
	for _, c := range cases {
		got := Slope([]float64{c.v, c.v + c.d, c.v + 2*c.d})
		assert.InDelta(t, c.d, got, 1e-9)
	}
}

func TestSlopeShortWindows(t *testing.T) {
	assert.Equal(t, 0.0, Slope(nil))
	assert.Equal(t, 0.0, Slope([]float64{7}))
	assert.InDelta(t, 3.0, Slope([]float64{1, 4}), 1e-12)
}

func TestSlopeNonLinear(t *testing.T) {
	// least squares over [1, 2, 6]: ((-1)(-2)+0+(1)(3))/2 = 2.5
	assert.InDelta(t, 2.5, Slope([]float64{1, 2, 6}), 1e-12)
}

func TestMeanEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
}
