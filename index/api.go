package index

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDimensionMismatch reports a vector whose length differs from the index
// dimension. It is a configuration error: the embedding model changed.
var ErrDimensionMismatch = errors.New("index: dimension mismatch")

// Kind names an index implementation.
type Kind string

const (
	// Flat scans every vector; results are exact.
	Flat Kind = "flat"
	// Cover prunes the scan with a cover tree; results are exact for L2.
	Cover Kind = "cover"
)

// Metric selects how neighbors are ranked.
type Metric string

const (
	// L2 ranks by ascending squared Euclidean distance.
	L2 Metric = "l2"
	// InnerProduct ranks by descending dot product.
	InnerProduct Metric = "ip"
)

// Valid reports whether m is a known metric.
func (m Metric) Valid() bool { return m == L2 || m == InnerProduct }

// Closer reports whether score a ranks ahead of score b.
func (m Metric) Closer(a, b float64) bool {
	if m == InnerProduct {
		return a > b
	}
	return a < b
}

// Neighbor is a search hit: the position of the vector in insertion order and
// its score under the index metric.
type Neighbor struct {
	Position int
	Score    float64
}

// Index is an append-only vector index. Positions are assigned in insertion
// order starting at zero; there is no point deletion, removal means building
// a new index.
type Index interface {
	Kind() Kind

	Metric() Metric

	// Dimension returns the vector length, or 0 while no vector was added.
	Dimension() int

	// Len returns the number of stored vectors.
	Len() int

	// Add appends vectors; the first vector ever added fixes the dimension.
	Add(vectors ...[]float32) error

	// Search returns min(k, Len()) neighbors ordered best first; it returns
	// nothing when the index is empty or k <= 0.
	Search(query []float32, k int) ([]Neighbor, error)

	// Vector returns the stored vector at position, or nil when out of range.
	Vector(position int) []float32

	// Clone returns an independent copy that can be appended to without
	// affecting the receiver.
	Clone() Index

	MarshalBinary() ([]byte, error)

	UnmarshalBinary(data []byte) error
}

// CheckDimension validates vectors against dim, where dim 0 means the first
// vector decides. It returns the resulting dimension.
func CheckDimension(dim int, vectors [][]float32) (int, error) {
	for i, v := range vectors {
		if len(v) == 0 {
			return 0, fmt.Errorf("index: vector %d is empty", i)
		}
		if dim == 0 {
			dim = len(v)
			continue
		}
		if len(v) != dim {
			return 0, fmt.Errorf("%w: vector %d has %d, index has %d", ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return dim, nil
}

// Rank sorts neighbors best first under metric and truncates them to k.
// Equal scores keep ascending position order.
func Rank(neighbors []Neighbor, metric Metric, k int) []Neighbor {
	sort.SliceStable(neighbors, func(a, b int) bool {
		if neighbors[a].Score == neighbors[b].Score {
			return neighbors[a].Position < neighbors[b].Position
		}
		return metric.Closer(neighbors[a].Score, neighbors[b].Score)
	})
	if k < len(neighbors) {
		neighbors = neighbors[:k]
	}
	return neighbors
}
