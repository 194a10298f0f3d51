package kmeans

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Assign labels every point with the index of its nearest centroid under
// squared Euclidean distance. Ties go to the lowest centroid index.
func Assign(points, centroids []Point) []int {
	labels := make([]int, len(points))
	for i, p := range points {
		best := 0
		bestDist := math.Inf(1)
		for j, c := range centroids {
			// Strict comparison keeps the first (lowest) index on ties.
			if d := squaredDistance(p, c); d < bestDist {
				bestDist = d
				best = j
			}
		}
		labels[i] = best
	}
	return labels
}

// Step performs one Lloyd iteration: centroids are recomputed as the mean of
// the points labelled to them, then every point is reassigned to the nearest
// new centroid. A cluster without members keeps its previous centroid.
func Step(points, centroids []Point, labels []int) ([]Point, []int) {
	next := updateCentroids(points, centroids, labels, nil)
	return next, Assign(points, next)
}

// updateCentroids returns the per-cluster means. Empty clusters keep the
// previous centroid unless reseed is non-nil, in which case it supplies the
// replacement.
func updateCentroids(points, prev []Point, labels []int, reseed func() Point) []Point {
	k := len(prev)
	xs := make([][]float64, k)
	ys := make([][]float64, k)
	for i, p := range points {
		j := labels[i]
		xs[j] = append(xs[j], p.X)
		ys[j] = append(ys[j], p.Y)
	}

	next := make([]Point, k)
	for j := range next {
		if len(xs[j]) == 0 {
			if reseed != nil {
				next[j] = reseed()
			} else {
				next[j] = prev[j]
			}
			continue
		}
		next[j] = Point{X: stat.Mean(xs[j], nil), Y: stat.Mean(ys[j], nil)}
	}
	return next
}

// Inertia is the within-cluster sum of squared distances.
func Inertia(points, centroids []Point, labels []int) float64 {
	if len(points) == 0 {
		return 0
	}
	dists := make([]float64, len(points))
	for i, p := range points {
		dists[i] = squaredDistance(p, centroids[labels[i]])
	}
	return floats.Sum(dists)
}
