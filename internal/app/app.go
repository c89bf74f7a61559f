// Package app assembles a retrieval engine from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/viant/docrag/config"
	"github.com/viant/docrag/embedding"
	"github.com/viant/docrag/embedding/compat"
	"github.com/viant/docrag/embedding/openai"
	"github.com/viant/docrag/index"
	"github.com/viant/docrag/rag"
	"github.com/viant/docrag/storage"
)

// ErrNoHistory is returned by History and SearchSQL when the store is not
// SQLite.
var ErrNoHistory = errors.New("app: store keeps no change history")

// App holds an engine and the configuration it was built from.
type App struct {
	Config   *config.AppConfig
	Engine   *rag.Engine
	embedder embedding.Embedder
	store    storage.Store
}

// New builds the embedder, the store and the engine described by cfg.
func New(ctx context.Context, cfg *config.AppConfig, logger *log.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	embedder, err := NewEmbedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	store, err := NewStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	engine, err := rag.Open(ctx, embedder,
		rag.WithStore(store),
		rag.WithChunkSize(cfg.Chunker.Size),
		rag.WithIndex(index.Kind(cfg.Index.Kind), index.Metric(cfg.Index.Metric)),
		rag.WithRebuild(rag.RebuildMode(cfg.Index.Rebuild)),
		rag.WithLogger(logger),
	)
	if err != nil {
		if closer, ok := store.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
		return nil, err
	}
	return &App{Config: cfg, Engine: engine, embedder: embedder, store: store}, nil
}

// NewEmbedder creates the embedder selected by cfg.Type.
func NewEmbedder(cfg config.EmbedderConfig) (embedding.Embedder, error) {
	switch cfg.Type {
	case "", "hashing":
		return embedding.NewHashing(cfg.Dimension), nil
	case "openai":
		o := cfg.OpenAI
		if o == nil {
			o = &config.OpenAIConfig{}
		}
		return openai.New(openai.Config{
			BaseURL:   o.BaseURL,
			APIKey:    apiKey(o.APIKeyEnv),
			Model:     o.Model,
			BatchSize: o.BatchSize,
			Timeout:   time.Duration(o.TimeoutSecs) * time.Second,
			Normalize: o.Normalize,
		})
	case "compat":
		c := cfg.Compat
		if c == nil {
			c = &config.CompatConfig{}
		}
		return compat.New(compat.Config{
			BaseURL:    c.BaseURL,
			APIKey:     apiKey(c.APIKeyEnv),
			Model:      c.Model,
			Dimensions: c.Dimensions,
			BatchSize:  c.BatchSize,
			Timeout:    time.Duration(c.TimeoutSecs) * time.Second,
			MaxRetries: c.MaxRetries,
			Normalize:  c.Normalize,
		})
	}
	return nil, fmt.Errorf("app: unsupported embedder type %q", cfg.Type)
}

// NewStore creates the store selected by cfg.Type.
func NewStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "memory":
		return storage.NewMemory(), nil
	case "", "file":
		return storage.NewFileStore(cfg.Path)
	case "sqlite":
		return storage.OpenSQLiteStore(ctx, cfg.Path)
	}
	return nil, fmt.Errorf("app: unsupported storage type %q", cfg.Type)
}

// History returns the newest journal entries when the store is SQLite.
func (a *App) History(ctx context.Context, limit int) ([]storage.JournalEntry, error) {
	journal, ok := a.store.(*storage.SQLiteStore)
	if !ok {
		return nil, ErrNoHistory
	}
	return journal.History(ctx, limit)
}

// SearchSQL ranks the chunks mirrored in SQLite against text with the
// engine's index metric, as a cross check of the in-memory index.
func (a *App) SearchSQL(ctx context.Context, text string, k int) ([]storage.ChunkMatch, error) {
	store, ok := a.store.(*storage.SQLiteStore)
	if !ok {
		return nil, ErrNoHistory
	}
	query, err := a.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return store.SearchChunks(ctx, query, a.Engine.Metric(), k)
}

// Close saves the engine state and releases the store.
func (a *App) Close(ctx context.Context) error {
	return a.Engine.Close(ctx)
}

func apiKey(env string) string {
	if env == "" {
		return ""
	}
	return os.Getenv(env)
}
