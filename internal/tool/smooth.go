package tool

import (
	"math"

	"gonum.org/v1/gonum/interp"
)

// maxStrokePoints bounds the size of a committed stroke path so snapshots
// and exports stay cheap even after a long slow drag.
const maxStrokePoints = 128

// ResamplePath re-samples a raw pointer trail to evenly spaced points along
// its arc length, smoothing out the uneven event cadence of the pointer
// device. Input and output are flat coordinate arrays (even = x, odd = y).
func ResamplePath(path []float64) []float64 {
	n := len(path) / 2
	if n < 4 {
		return append([]float64(nil), path...)
	}

	// Cumulative chord length as the interpolation parameter. Consecutive
	// duplicate points are dropped: the parameter must strictly increase.
	ts := make([]float64, 0, n)
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)

	var total float64
	for i := 0; i < n; i++ {
		x, y := path[2*i], path[2*i+1]
		if len(xs) > 0 {
			d := math.Hypot(x-xs[len(xs)-1], y-ys[len(ys)-1])
			if d < 1e-9 {
				continue
			}
			total += d
		}
		ts = append(ts, total)
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if len(xs) < 4 || total < 1e-9 {
		return append([]float64(nil), path...)
	}

	var sx, sy interp.AkimaSpline
	if err := sx.Fit(ts, xs); err != nil {
		return append([]float64(nil), path...)
	}
	if err := sy.Fit(ts, ys); err != nil {
		return append([]float64(nil), path...)
	}

	samples := len(xs)
	if samples > maxStrokePoints {
		samples = maxStrokePoints
	}

	out := make([]float64, 0, samples*2)
	for i := 0; i < samples; i++ {
		t := total * float64(i) / float64(samples-1)
		out = append(out, sx.Predict(t), sy.Predict(t))
	}
	return out
}
