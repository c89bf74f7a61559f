package cover

import (
	"fmt"
	"math"

	"github.com/viant/docrag/index"
	"github.com/viant/docrag/internal/cover/tree"
	"github.com/viant/docrag/vector"
)

// Base is the cover tree expansion constant.
const Base = 1.3

// Index is an append-only vector index backed by a cover tree.
type Index struct {
	metric index.Metric
	dim    int
	vecs   [][]float32
	tree   *tree.Tree[int]
	// unit is true while every stored vector has unit length; only then does
	// the cosine tree order candidates like the inner product.
	unit bool
}

// New creates an empty index ranking by metric; an unknown metric falls back
// to L2.
func New(metric index.Metric) *Index {
	if !metric.Valid() {
		metric = index.L2
	}
	return &Index{metric: metric, tree: newTree(metric), unit: true}
}

func newTree(metric index.Metric) *tree.Tree[int] {
	if metric == index.InnerProduct {
		return tree.NewTree[int](Base, tree.Cosine)
	}
	return tree.NewTree[int](Base, tree.Euclidean)
}

func (i *Index) Kind() index.Kind { return index.Cover }

func (i *Index) Metric() index.Metric { return i.metric }

func (i *Index) Dimension() int { return i.dim }

func (i *Index) Len() int { return len(i.vecs) }

func (i *Index) Add(vectors ...[]float32) error {
	dim, err := index.CheckDimension(i.dim, vectors)
	if err != nil {
		return err
	}
	if len(vectors) == 0 {
		return nil
	}
	for _, v := range vectors {
		stored := append([]float32(nil), v...)
		i.tree.Insert(len(i.vecs), tree.NewPoint(stored...))
		i.vecs = append(i.vecs, stored)
		if math.Abs(float64(vector.Magnitude(stored))-1) > 1e-4 {
			i.unit = false
		}
	}
	i.dim = dim
	return nil
}

// Search asks the tree for k candidates and reports their exact scores.
// Inner product over vectors that are not all unit length is scanned.
func (i *Index) Search(query []float32, k int) ([]index.Neighbor, error) {
	if i.dim == 0 || len(i.vecs) == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != i.dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d", index.ErrDimensionMismatch, len(query), i.dim)
	}
	var positions []int
	if i.metric == index.InnerProduct && !i.unit {
		positions = make([]int, len(i.vecs))
		for pos := range positions {
			positions[pos] = pos
		}
	} else {
		for _, c := range i.tree.Nearest(tree.NewPoint(query...), k) {
			positions = append(positions, i.tree.Value(c.Point))
		}
	}
	neighbors := make([]index.Neighbor, 0, len(positions))
	for _, pos := range positions {
		score, err := i.score(query, i.vecs[pos])
		if err != nil {
			return nil, err
		}
		neighbors = append(neighbors, index.Neighbor{Position: pos, Score: score})
	}
	return index.Rank(neighbors, i.metric, k), nil
}

func (i *Index) score(query, v []float32) (float64, error) {
	if i.metric == index.InnerProduct {
		return vector.InnerProduct(query, v)
	}
	return vector.SquaredL2(query, v)
}

func (i *Index) Vector(position int) []float32 {
	if position < 0 || position >= len(i.vecs) {
		return nil
	}
	return i.vecs[position]
}

// Clone rebuilds the tree over the shared vectors.
func (i *Index) Clone() index.Index {
	clone := New(i.metric)
	if err := clone.Add(i.vecs...); err != nil {
		return New(i.metric)
	}
	return clone
}

func (i *Index) MarshalBinary() ([]byte, error) {
	return index.Encode(i.metric, i.dim, i.vecs)
}

// UnmarshalBinary replaces the receiver content and rebuilds the tree.
func (i *Index) UnmarshalBinary(data []byte) error {
	metric, _, vecs, err := index.Decode(data)
	if err != nil {
		return err
	}
	restored := New(metric)
	if err := restored.Add(vecs...); err != nil {
		return err
	}
	*i = *restored
	return nil
}

var _ index.Index = (*Index)(nil)
