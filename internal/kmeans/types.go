package kmeans

import (
	"encoding/json"
	"fmt"
	"math"
)

// Point is a position in the 2-D plane. On the wire it is the pair [x, y].
type Point struct {
	X, Y float64
}

// MarshalJSON encodes the point as a two element array.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

// UnmarshalJSON decodes a two element array into the point.
func (p *Point) UnmarshalJSON(data []byte) error {
	var xy []float64
	if err := json.Unmarshal(data, &xy); err != nil {
		return err
	}
	if len(xy) != 2 {
		return fmt.Errorf("point must have 2 coordinates, got %d", len(xy))
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// squaredDistance is monotone with the Euclidean distance, so nearest-centroid
// comparisons skip the square root.
func squaredDistance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// Snapshot is the complete clustering state at one iteration.
type Snapshot struct {
	Iteration int     `json:"iteration"`
	Centroids []Point `json:"centroids"`
	Labels    []int   `json:"labels"`

	// Sizes holds the member count of each cluster.
	Sizes []int `json:"sizes"`
	// Reassigned counts points whose label changed since the previous
	// snapshot. Always 0 at iteration 0.
	Reassigned int `json:"reassigned"`
	// Inertia is the sum of squared distances of points to their centroid.
	Inertia float64 `json:"inertia"`
}

// Run is the ordered snapshot history of one clustering invocation.
// Snapshot i has Iteration == i.
type Run struct {
	K             int        `json:"k"`
	MaxIterations int        `json:"max_iter"`
	Converged     bool       `json:"converged"`
	Snapshots     []Snapshot `json:"steps"`
}

// Len returns the number of recorded snapshots.
func (r *Run) Len() int {
	return len(r.Snapshots)
}

// Final returns the last snapshot of the run.
func (r *Run) Final() Snapshot {
	return r.Snapshots[len(r.Snapshots)-1]
}

func clonePoints(points []Point) []Point {
	out := make([]Point, len(points))
	copy(out, points)
	return out
}
