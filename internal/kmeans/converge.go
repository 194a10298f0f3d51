package kmeans

import "math"

// Tolerances of the convergence check. They match the usual floating-point
// "allclose" defaults.
const (
	RelativeTolerance = 1e-5
	AbsoluteTolerance = 1e-8
)

// AllClose reports whether every coordinate of next lies within
// AbsoluteTolerance + RelativeTolerance*|next| of the matching coordinate of
// prev. Slices of different length are never close.
func AllClose(prev, next []Point) bool {
	if len(prev) != len(next) {
		return false
	}
	for i := range prev {
		if !isClose(prev[i].X, next[i].X) || !isClose(prev[i].Y, next[i].Y) {
			return false
		}
	}
	return true
}

// isClose is asymmetric: the relative term scales with b.
func isClose(a, b float64) bool {
	return math.Abs(a-b) <= AbsoluteTolerance+RelativeTolerance*math.Abs(b)
}
