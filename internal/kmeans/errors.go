package kmeans

import "errors"

var (
	// ErrEmptyDataset is returned when there are no points to cluster.
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrInvalidClusterCount is returned when k is below 1 or larger than the
	// number of points (k distinct points cannot be drawn for initialisation).
	ErrInvalidClusterCount = errors.New("invalid cluster count")

	// ErrInvalidIterations is returned for a negative iteration cap.
	ErrInvalidIterations = errors.New("invalid iteration cap")

	// ErrInvalidPoint is returned when a coordinate is NaN or infinite.
	ErrInvalidPoint = errors.New("invalid point")
)
