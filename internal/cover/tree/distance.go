package tree

import (
	"math"

	"github.com/viant/vec/search"
)

// Metric names the distance a tree is built over.
type Metric string

const (
	Euclidean Metric = "euclidean"
	// Cosine ranks by angle; on unit vectors it orders like the inner product.
	Cosine Metric = "cosine"
)

// DistanceFunc computes the distance between two points.
type DistanceFunc func(p1, p2 *Point) float32

func (m Metric) distance() DistanceFunc {
	if m == Cosine {
		return CosineDistance
	}
	return EuclideanDistance
}

// CosineDistance is the chord distance between the normalized points,
// sqrt(2 - 2cos). Unlike 1 - cos it satisfies the triangle inequality, which
// the radius pruning relies on. A zero vector is at distance sqrt(2).
func CosineDistance(p1, p2 *Point) float32 {
	m1, m2 := p1.magnitude(), p2.magnitude()
	if m1 == 0 || m2 == 0 {
		return math.Sqrt2
	}
	d := cosineDistanceWithMagnitude(search.Float32s(p1.Vector), p2.Vector, m1, m2)
	if d <= 0 {
		return 0
	}
	return float32(math.Sqrt(2 * float64(d)))
}

// EuclideanDistance returns the Euclidean distance between two points.
func EuclideanDistance(p1, p2 *Point) float32 {
	return search.Float32s(p1.Vector).EuclideanDistance(p2.Vector)
}
