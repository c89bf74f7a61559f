package tree

import "github.com/viant/vec/search"

// Point is a vector stored in (or searched against) the tree.
type Point struct {
	index     int32
	Magnitude float32
	Vector    []float32
	measured  bool
}

// NewPoint constructs a point for the given vector; it carries no value until
// inserted.
func NewPoint(vector ...float32) *Point {
	return &Point{index: -1, Vector: vector}
}

// HasValue reports whether the point has an associated value.
func (p *Point) HasValue() bool {
	return p != nil && p.index >= 0
}

// magnitude is computed once; Insert and Nearest call it before the point is
// shared with readers.
func (p *Point) magnitude() float32 {
	if !p.measured {
		if len(p.Vector) > 0 {
			p.Magnitude = search.Float32s(p.Vector).Magnitude()
		}
		p.measured = true
	}
	return p.Magnitude
}
