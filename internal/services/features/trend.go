package features

// TrendStats summarises a [lag2, lag1, current] window.
type TrendStats struct {
	RollingMean3 float64
	PctChange1   float64
	PctChange3   float64
	GrowthSlope  float64
}

// ComputeTrend derives the window statistics. window is ordered oldest first:
// [two months ago, one month ago, current].
func ComputeTrend(window [3]float64) TrendStats {
	lag2, lag1, current := window[0], window[1], window[2]
	return TrendStats{
		RollingMean3: Mean(window[:]),
		PctChange1:   PctChange(current, lag1),
		PctChange3:   PctChange(current, lag2),
		GrowthSlope:  Slope(window[:]),
	}
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// PctChange returns (current-base)/base, or 0 when base is not positive.
func PctChange(current, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return (current - base) / base
}

// Slope returns the least-squares degree-1 slope of ys against x = 0..n-1.
// Fewer than two points have slope 0.
func Slope(ys []float64) float64 {
	n := len(ys)
	if n < 2 {
		return 0
	}
	xMean := float64(n-1) / 2
	yMean := Mean(ys)
	var num, den float64
	for i, y := range ys {
		dx := float64(i) - xMean
		num += dx * (y - yMean)
		den += dx * dx
	}
	return num / den
}
