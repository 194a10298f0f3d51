package kmeans

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

// DefaultMaxIterations is the iteration cap used by the explorer when the
// caller does not ask for one.
const DefaultMaxIterations = 10

// EmptyClusterPolicy decides the centroid of a cluster that lost all of its
// members during an update.
type EmptyClusterPolicy int

const (
	// EmptyClusterRetain keeps the previous centroid. Runs stay reproducible
	// from the initial draw alone.
	EmptyClusterRetain EmptyClusterPolicy = iota
	// EmptyClusterReseed moves the centroid onto a uniformly drawn data point.
	EmptyClusterReseed
)

func (p EmptyClusterPolicy) String() string {
	switch p {
	case EmptyClusterRetain:
		return "retain"
	case EmptyClusterReseed:
		return "reseed"
	default:
		return fmt.Sprintf("EmptyClusterPolicy(%d)", int(p))
	}
}

// SimulatorConfig configures a Simulator.
type SimulatorConfig struct {
	// Seed fixes the random source. Nil draws a fresh seed.
	Seed *uint64
	// Rand overrides the random source entirely. Takes precedence over Seed.
	Rand *rand.Rand
	// EmptyCluster selects the empty cluster policy.
	EmptyCluster EmptyClusterPolicy
}

// Simulator runs step-recorded K-Means. It is safe for concurrent use; calls
// share only the random source, which is guarded.
type Simulator struct {
	mu           sync.Mutex
	rng          *rand.Rand
	emptyCluster EmptyClusterPolicy
}

// NewSimulator creates a Simulator from cfg.
func NewSimulator(cfg SimulatorConfig) *Simulator {
	rng := cfg.Rand
	if rng == nil {
		if cfg.Seed != nil {
			rng = rand.New(rand.NewPCG(*cfg.Seed, *cfg.Seed))
		} else {
			rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
	}
	return &Simulator{
		rng:          rng,
		emptyCluster: cfg.EmptyCluster,
	}
}

// Simulate runs K-Means with random initialisation and a fresh random source.
// See Simulator.Simulate.
func Simulate(points []Point, k, maxIterations int) (*Run, error) {
	return NewSimulator(SimulatorConfig{}).Simulate(points, k, maxIterations)
}

// SimulateFrom runs K-Means starting from the given initial centroids instead
// of a random draw. The number of clusters is len(initial).
func SimulateFrom(points, initial []Point, maxIterations int) (*Run, error) {
	return NewSimulator(SimulatorConfig{}).SimulateFrom(points, initial, maxIterations)
}

// Simulate draws k distinct points as initial centroids and records Lloyd's
// algorithm until the centroids stop moving or maxIterations updates have
// been made. Snapshot 0 holds the initial centroids and assignment.
//
// Inputs are validated before any work: ErrEmptyDataset, ErrInvalidClusterCount,
// ErrInvalidIterations or ErrInvalidPoint. A partial Run is never returned.
func (s *Simulator) Simulate(points []Point, k, maxIterations int) (*Run, error) {
	if err := validate(points, k, maxIterations); err != nil {
		return nil, err
	}
	data := clonePoints(points)
	return s.run(data, s.sample(data, k), maxIterations), nil
}

// SimulateFrom is Simulate with forced initial centroids.
func (s *Simulator) SimulateFrom(points, initial []Point, maxIterations int) (*Run, error) {
	if err := validate(points, len(initial), maxIterations); err != nil {
		return nil, err
	}
	for i, c := range initial {
		if !c.IsFinite() {
			return nil, fmt.Errorf("%w: initial centroid %d is not finite", ErrInvalidPoint, i)
		}
	}
	return s.run(clonePoints(points), clonePoints(initial), maxIterations), nil
}

func validate(points []Point, k, maxIterations int) error {
	if len(points) == 0 {
		return ErrEmptyDataset
	}
	if k < 1 || k > len(points) {
		return fmt.Errorf("%w: k=%d must be between 1 and %d", ErrInvalidClusterCount, k, len(points))
	}
	if maxIterations < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidIterations, maxIterations)
	}
	for i, p := range points {
		if !p.IsFinite() {
			return fmt.Errorf("%w: point %d is not finite", ErrInvalidPoint, i)
		}
	}
	return nil
}

// sample draws k distinct points uniformly at random.
func (s *Simulator) sample(points []Point, k int) []Point {
	s.mu.Lock()
	perm := s.rng.Perm(len(points))
	s.mu.Unlock()

	out := make([]Point, k)
	for j := range out {
		out[j] = points[perm[j]]
	}
	return out
}

func (s *Simulator) reseedFunc(points []Point) func() Point {
	if s.emptyCluster != EmptyClusterReseed {
		return nil
	}
	return func() Point {
		s.mu.Lock()
		defer s.mu.Unlock()
		return points[s.rng.IntN(len(points))]
	}
}

func (s *Simulator) run(points, initial []Point, maxIterations int) *Run {
	k := len(initial)
	reseed := s.reseedFunc(points)

	centroids := initial
	labels := Assign(points, centroids)
	members := newMembership(labels, k)

	run := &Run{
		K:             k,
		MaxIterations: maxIterations,
		Snapshots:     make([]Snapshot, 0, maxIterations+1),
	}
	run.Snapshots = append(run.Snapshots, newSnapshot(0, points, centroids, labels, members, nil))

	for i := 1; i <= maxIterations; i++ {
		next := updateCentroids(points, centroids, labels, reseed)
		nextLabels := Assign(points, next)
		nextMembers := newMembership(nextLabels, k)

		run.Snapshots = append(run.Snapshots, newSnapshot(i, points, next, nextLabels, nextMembers, members))

		if AllClose(centroids, next) {
			run.Converged = true
			break
		}
		centroids, labels, members = next, nextLabels, nextMembers
	}

	return run
}

func newSnapshot(iteration int, points, centroids []Point, labels []int, members, prev membership) Snapshot {
	return Snapshot{
		Iteration:  iteration,
		Centroids:  centroids,
		Labels:     labels,
		Sizes:      members.sizes(),
		Reassigned: members.reassigned(prev),
		Inertia:    Inertia(points, centroids, labels),
	}
}
