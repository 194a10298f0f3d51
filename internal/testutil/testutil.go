// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/kmeans-explorer/internal/kmeans"
)

// FourPoints is the two-pair layout whose run from centroids pts[0] and
// pts[2] converges at iteration 2.
func FourPoints() []kmeans.Point {
	return []kmeans.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 10, Y: 0}, {X: 10, Y: 1}}
}

// Grid returns an n by n lattice of points with unit spacing.
func Grid(n int) []kmeans.Point {
	out := make([]kmeans.Point, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out = append(out, kmeans.Point{X: float64(i), Y: float64(j)})
		}
	}
	return out
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// DecodeJSON decodes the recorder body into v.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

// AssertValidRun checks the structural invariants every run must satisfy
// over n points.
func AssertValidRun(t *testing.T, run *kmeans.Run, n int) {
	t.Helper()
	if run == nil || run.Len() == 0 {
		t.Fatal("run has no snapshots")
	}
	if run.Len() > run.MaxIterations+1 {
		t.Errorf("run has %d snapshots, cap allows %d", run.Len(), run.MaxIterations+1)
	}
	for i, snap := range run.Snapshots {
		if snap.Iteration != i {
			t.Errorf("snapshot %d has iteration %d", i, snap.Iteration)
		}
		if len(snap.Centroids) != run.K {
			t.Errorf("snapshot %d has %d centroids, want %d", i, len(snap.Centroids), run.K)
		}
		if len(snap.Labels) != n {
			t.Errorf("snapshot %d has %d labels, want %d", i, len(snap.Labels), n)
		}
		total := 0
		for _, size := range snap.Sizes {
			total += size
		}
		if total != n {
			t.Errorf("snapshot %d sizes sum to %d, want %d", i, total, n)
		}
		for p, l := range snap.Labels {
			if l < 0 || l >= run.K {
				t.Errorf("snapshot %d point %d has label %d outside [0,%d)", i, p, l, run.K)
			}
		}
	}
	if run.Snapshots[0].Reassigned != 0 {
		t.Errorf("iteration 0 reassigned = %d, want 0", run.Snapshots[0].Reassigned)
	}
}
