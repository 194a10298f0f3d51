// Package kmeans records Lloyd's K-Means step by step over 2-D points.
//
// Responsibilities: random initialisation, nearest-centroid assignment,
// centroid update, the all-close convergence check and the per-iteration
// snapshot history (Run) that clients replay for visualisation.
// Key types: Point, Snapshot, Run, Simulator.
//
// The package is pure computation. It holds no state between runs and never
// mutates the caller's point slice.
package kmeans
