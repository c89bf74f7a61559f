package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/viant/docrag/vector"
)

// DefaultDimension matches all-MiniLM-L6-v2, the sentence-transformer the
// engine is usually paired with.
const DefaultDimension = 384

// Hashing embeds text by feature hashing its lower-cased word tokens into a
// signed bag of words, normalized to unit length. It needs no model and is
// deterministic, which makes it suitable offline and in tests.
type Hashing struct {
	dim int
}

// NewHashing creates a hashing embedder; a non-positive dimension uses
// DefaultDimension.
func NewHashing(dimension int) *Hashing {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Hashing{dim: dimension}
}

func (h *Hashing) Dimension() int { return h.dim }

func (h *Hashing) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v := make([]float32, h.dim)
	for _, token := range Tokens(text) {
		hasher := fnv.New64a()
		_, _ = hasher.Write([]byte(token))
		sum := hasher.Sum64()
		bucket := int(sum % uint64(h.dim))
		if sum>>63 == 1 {
			v[bucket]--
		} else {
			v[bucket]++
		}
	}
	return vector.Normalize(v), nil
}

func (h *Hashing) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := h.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (h *Hashing) ModelInfo() string { return fmt.Sprintf("hashing-%d", h.dim) }

// Tokens lower-cases text and splits it on anything that is not a letter or
// a digit.
func Tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
