// Package compat embeds text through any server exposing the OpenAI
// embeddings API, such as Ollama, vLLM or LocalAI hosting a
// sentence-transformer model.
package compat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/viant/docrag/embedding"
	"github.com/viant/docrag/vector"
)

const (
	// DefaultBaseURL targets a local Ollama server.
	DefaultBaseURL = "http://localhost:11434/v1/"
	// DefaultModel is the sentence-transformer the engine was designed around.
	DefaultModel = "all-minilm"
	// DefaultBatchSize bounds the number of texts per request.
	DefaultBatchSize = 32
)

// Config configures the compatible embedder.
type Config struct {
	BaseURL string
	// APIKey may be empty for servers that do not authenticate.
	APIKey     string
	Model      string
	Dimensions int
	BatchSize  int
	Timeout    time.Duration
	MaxRetries int
	Normalize  bool
}

// Embedder calls an OpenAI-compatible embeddings endpoint.
type Embedder struct {
	client     openai.Client
	model      string
	dimensions int
	batchSize  int
	normalize  bool
}

// New creates an embedder for cfg.
func New(cfg Config) (*Embedder, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	key := cfg.APIKey
	if key == "" {
		key = "unused"
	}
	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(key),
		option.WithMaxRetries(max(cfg.MaxRetries, 0)),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	if cfg.Dimensions < 0 {
		return nil, errors.New("compat: dimensions must not be negative")
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Embedder{
		client:     openai.NewClient(opts...),
		model:      model,
		dimensions: cfg.Dimensions,
		batchSize:  batchSize,
		normalize:  cfg.Normalize,
	}, nil
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, batch := range embedding.Batches(texts, e.batchSize) {
		params := openai.EmbeddingNewParams{
			Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: batch},
			Model:          openai.EmbeddingModel(e.model),
			EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
		}
		if e.dimensions > 0 {
			params.Dimensions = openai.Int(int64(e.dimensions))
		}
		resp, err := e.client.Embeddings.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("compat: create embeddings: %w", err)
		}
		vectors := make([][]float32, len(batch))
		for _, item := range resp.Data {
			if item.Index < 0 || int(item.Index) >= len(batch) {
				return nil, fmt.Errorf("compat: embedding index %d out of range", item.Index)
			}
			v := make([]float32, len(item.Embedding))
			for i, f := range item.Embedding {
				v[i] = float32(f)
			}
			if e.normalize {
				vector.Normalize(v)
			}
			vectors[item.Index] = v
		}
		out = append(out, vectors...)
	}
	if err := embedding.CheckBatch(out, len(texts)); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Embedder) ModelInfo() string { return "compat-" + e.model }

var _ embedding.Embedder = (*Embedder)(nil)
