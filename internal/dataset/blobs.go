// Package dataset generates synthetic 2-D point clouds for the explorer.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/kmeans-explorer/internal/kmeans"
)

// Defaults of the explorer's dataset.
const (
	DefaultSamples    = 400
	DefaultCenters    = 4
	DefaultClusterStd = 0.8
	DefaultBoxMin     = -10.0
	DefaultBoxMax     = 10.0

	// maxRandomSeed bounds the seed drawn when the caller does not pick one,
	// so a seed is short enough to be read back and typed in again.
	maxRandomSeed = 1000
)

// ErrInvalidConfig is returned when a BlobConfig cannot produce a dataset.
var ErrInvalidConfig = errors.New("invalid dataset config")

// BlobConfig describes a set of isotropic Gaussian blobs.
type BlobConfig struct {
	Samples    int        // total number of points
	Centers    int        // number of blobs
	ClusterStd float64    // standard deviation of each blob, per axis
	CenterBox  [2]float64 // bounds of the uniformly drawn blob centers
	Shuffle    bool       // shuffle points across blobs
	Seed       *uint64    // nil draws a fresh seed in [0, 1000)
}

// DefaultBlobConfig returns 400 shuffled points around 4 centers with a
// spread of 0.8, drawn with a fresh seed.
func DefaultBlobConfig() BlobConfig {
	return BlobConfig{
		Samples:    DefaultSamples,
		Centers:    DefaultCenters,
		ClusterStd: DefaultClusterStd,
		CenterBox:  [2]float64{DefaultBoxMin, DefaultBoxMax},
		Shuffle:    true,
	}
}

// Validate checks that the configuration can produce a dataset.
func (c BlobConfig) Validate() error {
	if c.Samples < 1 {
		return fmt.Errorf("%w: samples must be positive, got %d", ErrInvalidConfig, c.Samples)
	}
	if c.Centers < 1 {
		return fmt.Errorf("%w: centers must be positive, got %d", ErrInvalidConfig, c.Centers)
	}
	if c.Centers > c.Samples {
		return fmt.Errorf("%w: centers (%d) exceed samples (%d)", ErrInvalidConfig, c.Centers, c.Samples)
	}
	if math.IsNaN(c.ClusterStd) || math.IsInf(c.ClusterStd, 0) {
		return fmt.Errorf("%w: cluster_std must be finite, got %f", ErrInvalidConfig, c.ClusterStd)
	}
	if c.ClusterStd < 0 {
		return fmt.Errorf("%w: cluster_std must be non-negative, got %f", ErrInvalidConfig, c.ClusterStd)
	}
	for _, b := range c.CenterBox {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return fmt.Errorf("%w: center box bounds must be finite, got [%f, %f]", ErrInvalidConfig, c.CenterBox[0], c.CenterBox[1])
		}
	}
	if !(c.CenterBox[0] < c.CenterBox[1]) {
		return fmt.Errorf("%w: center box [%f, %f] is empty", ErrInvalidConfig, c.CenterBox[0], c.CenterBox[1])
	}
	return nil
}

// Dataset is a generated point cloud together with what produced it.
type Dataset struct {
	Points  []kmeans.Point
	Centers []kmeans.Point
	// Labels holds the blob each point was drawn from.
	Labels []int
	Seed   uint64
}

// Generate draws a blob dataset. Points are split evenly across the centers,
// the first Samples%Centers centers receiving one extra point. The same seed
// always yields the same points in the same order.
func Generate(cfg BlobConfig) (*Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var seed uint64
	if cfg.Seed != nil {
		seed = *cfg.Seed
	} else {
		seed = rand.Uint64N(maxRandomSeed)
	}
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)

	box := distuv.Uniform{Min: cfg.CenterBox[0], Max: cfg.CenterBox[1], Src: src}
	centers := make([]kmeans.Point, cfg.Centers)
	for i := range centers {
		centers[i] = kmeans.Point{X: box.Rand(), Y: box.Rand()}
	}

	ds := &Dataset{
		Points:  make([]kmeans.Point, 0, cfg.Samples),
		Centers: centers,
		Labels:  make([]int, 0, cfg.Samples),
		Seed:    seed,
	}

	for i, c := range centers {
		n := cfg.Samples / cfg.Centers
		if i < cfg.Samples%cfg.Centers {
			n++
		}
		xs := distuv.Normal{Mu: c.X, Sigma: cfg.ClusterStd, Src: src}
		ys := distuv.Normal{Mu: c.Y, Sigma: cfg.ClusterStd, Src: src}
		for j := 0; j < n; j++ {
			ds.Points = append(ds.Points, kmeans.Point{X: xs.Rand(), Y: ys.Rand()})
			ds.Labels = append(ds.Labels, i)
		}
	}

	if cfg.Shuffle {
		rng := rand.New(src)
		rng.Shuffle(len(ds.Points), func(a, b int) {
			ds.Points[a], ds.Points[b] = ds.Points[b], ds.Points[a]
			ds.Labels[a], ds.Labels[b] = ds.Labels[b], ds.Labels[a]
		})
	}

	return ds, nil
}
