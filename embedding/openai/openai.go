// Package openai embeds text through the OpenAI embeddings API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	sdk "github.com/sashabaranov/go-openai"

	"github.com/viant/docrag/embedding"
	"github.com/viant/docrag/vector"
)

const (
	// DefaultModel is used when Config.Model is empty.
	DefaultModel = string(sdk.SmallEmbedding3)
	// DefaultBatchSize bounds the number of texts per API request.
	DefaultBatchSize = 64
	// DefaultAPIKeyEnv names the environment variable holding the API key.
	DefaultAPIKeyEnv = "OPENAI_API_KEY"
)

// Config configures the OpenAI embedder.
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	BatchSize int
	Timeout   time.Duration
	// Normalize scales every vector to unit length.
	Normalize bool
}

// Embedder calls the OpenAI embeddings endpoint.
type Embedder struct {
	client    *sdk.Client
	model     string
	batchSize int
	normalize bool
}

// New creates an embedder; an empty APIKey is read from OPENAI_API_KEY.
func New(cfg Config) (*Embedder, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv(DefaultAPIKeyEnv)
	}
	if key == "" {
		return nil, errors.New("openai: API key not set (" + DefaultAPIKeyEnv + ")")
	}
	clientConfig := sdk.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Embedder{
		client:    sdk.NewClientWithConfig(clientConfig),
		model:     model,
		batchSize: batchSize,
		normalize: cfg.Normalize,
	}, nil
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch sends texts in groups of BatchSize and reassembles the vectors
// in input order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, batch := range embedding.Batches(texts, e.batchSize) {
		resp, err := e.client.CreateEmbeddings(ctx, sdk.EmbeddingRequest{
			Model: sdk.EmbeddingModel(e.model),
			Input: batch,
		})
		if err != nil {
			return nil, fmt.Errorf("openai: create embeddings: %w", err)
		}
		vectors := make([][]float32, len(batch))
		for _, item := range resp.Data {
			if item.Index < 0 || item.Index >= len(batch) {
				return nil, fmt.Errorf("openai: embedding index %d out of range", item.Index)
			}
			v := make([]float32, len(item.Embedding))
			for i := range item.Embedding {
				v[i] = float32(item.Embedding[i])
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

func (e *Embedder) ModelInfo() string { return "openai-" + e.model }

var _ embedding.Embedder = (*Embedder)(nil)
