package flat

import (
	"fmt"

	"github.com/viant/docrag/index"
	"github.com/viant/docrag/vector"
)

// Index is an exact, append-only vector index.
type Index struct {
	metric index.Metric
	dim    int
	vecs   [][]float32
}

// New creates an empty index ranking by metric; an unknown metric falls back
// to L2.
func New(metric index.Metric) *Index {
	if !metric.Valid() {
		metric = index.L2
	}
	return &Index{metric: metric}
}

func (i *Index) Kind() index.Kind { return index.Flat }

func (i *Index) Metric() index.Metric { return i.metric }

func (i *Index) Dimension() int { return i.dim }

func (i *Index) Len() int { return len(i.vecs) }

// Add validates every vector before appending any of them.
func (i *Index) Add(vectors ...[]float32) error {
	dim, err := index.CheckDimension(i.dim, vectors)
	if err != nil {
		return err
	}
	if len(vectors) == 0 {
		return nil
	}
	for _, v := range vectors {
		i.vecs = append(i.vecs, append([]float32(nil), v...))
	}
	i.dim = dim
	return nil
}

// Search scores every vector and returns the best min(k, Len()).
func (i *Index) Search(query []float32, k int) ([]index.Neighbor, error) {
	if i.dim == 0 || len(i.vecs) == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != i.dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d", index.ErrDimensionMismatch, len(query), i.dim)
	}
	neighbors := make([]index.Neighbor, 0, len(i.vecs))
	for pos, v := range i.vecs {
		score, err := i.score(query, v)
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

// Clone shares the stored vectors, which are never mutated after Add.
func (i *Index) Clone() index.Index {
	return &Index{
		metric: i.metric,
		dim:    i.dim,
		vecs:   append([][]float32(nil), i.vecs...),
	}
}

func (i *Index) MarshalBinary() ([]byte, error) {
	return index.Encode(i.metric, i.dim, i.vecs)
}

// UnmarshalBinary replaces the receiver content, including its metric.
func (i *Index) UnmarshalBinary(data []byte) error {
	metric, dim, vecs, err := index.Decode(data)
	if err != nil {
		return err
	}
	i.metric, i.dim, i.vecs = metric, dim, vecs
	if len(vecs) == 0 {
		i.dim, i.vecs = 0, nil
	}
	return nil
}

var _ index.Index = (*Index)(nil)
