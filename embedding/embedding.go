package embedding

import (
	"context"
	"errors"
	"fmt"
)

// ErrInconsistentDimension reports a batch whose vectors differ in length.
var ErrInconsistentDimension = errors.New("embedding: inconsistent dimension")

// Embedder maps text to fixed-length vectors. Implementations must return
// vectors of the same dimension for the lifetime of the engine using them.
type Embedder interface {
	// Embed returns the vector of a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// ModelInfo identifies the model producing the vectors.
	ModelInfo() string
}

// Func adapts a single-text embedding function to Embedder.
type Func func(ctx context.Context, text string) ([]float32, error)

func (f Func) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

// EmbedBatch calls f for each text in turn.
func (f Func) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := f(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		out[i] = v
	}
	if err := CheckBatch(out, len(texts)); err != nil {
		return nil, err
	}
	return out, nil
}

func (f Func) ModelInfo() string { return "func" }

// CheckBatch verifies that a batch holds want non-empty vectors of one
// dimension.
func CheckBatch(vectors [][]float32, want int) error {
	if len(vectors) != want {
		return fmt.Errorf("embedding: got %d vectors for %d texts", len(vectors), want)
	}
	dim := 0
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("embedding: vector %d is empty", i)
		}
		if dim == 0 {
			dim = len(v)
			continue
		}
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has %d, want %d", ErrInconsistentDimension, i, len(v), dim)
		}
	}
	return nil
}

// Batches splits texts into consecutive groups of at most size.
func Batches(texts []string, size int) [][]string {
	if size <= 0 || size >= len(texts) {
		if len(texts) == 0 {
			return nil
		}
		return [][]string{texts}
	}
	var out [][]string
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		out = append(out, texts[start:end])
	}
	return out
}
