package kmeans

import "github.com/RoaringBitmap/roaring/v2"

// membership indexes the point indices of each cluster.
type membership []*roaring.Bitmap

func newMembership(labels []int, k int) membership {
	m := make(membership, k)
	for j := range m {
		m[j] = roaring.New()
	}
	for i, label := range labels {
		m[label].Add(uint32(i))
	}
	return m
}

// sizes returns the cardinality of every cluster.
func (m membership) sizes() []int {
	out := make([]int, len(m))
	for j, bm := range m {
		out[j] = int(bm.GetCardinality())
	}
	return out
}

// reassigned counts the points whose cluster differs between prev and m.
// A moved point shows up in the symmetric difference of exactly two clusters.
func (m membership) reassigned(prev membership) int {
	if prev == nil {
		return 0
	}
	var total uint64
	for j := range m {
		total += roaring.Xor(prev[j], m[j]).GetCardinality()
	}
	return int(total / 2)
}

// Members returns the point indices labelled j in the snapshot, in ascending
// order.
func (s Snapshot) Members(j int) []int {
	out := make([]int, 0, s.sizeOf(j))
	for i, label := range s.Labels {
		if label == j {
			out = append(out, i)
		}
	}
	return out
}

func (s Snapshot) sizeOf(j int) int {
	if j < 0 || j >= len(s.Sizes) {
		return 0
	}
	return s.Sizes[j]
}
