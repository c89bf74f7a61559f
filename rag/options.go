package rag

import (
	"io"
	"log"

	"github.com/viant/docrag/index"
	"github.com/viant/docrag/storage"
)

// RebuildMode selects how vectors are obtained when the index is rebuilt
// after a deletion.
type RebuildMode string

const (
	// RebuildReembed embeds every surviving chunk again.
	RebuildReembed RebuildMode = "reembed"
	// RebuildReuse copies surviving vectors from the previous index.
	RebuildReuse RebuildMode = "reuse"
)

// Option configures an Engine.
type Option func(*Engine)

// WithStore persists every committed state to store. Without a store the
// engine lives in memory only.
func WithStore(store storage.Store) Option {
	return func(e *Engine) { e.store = store }
}

// WithChunkSize sets the number of words per chunk.
func WithChunkSize(size int) Option {
	return func(e *Engine) { e.chunkSize = size }
}

// WithIndex selects the index implementation and metric used when the index
// is first created. A loaded index keeps its persisted metric.
func WithIndex(kind index.Kind, metric index.Metric) Option {
	return func(e *Engine) {
		e.kind = kind
		e.metric = metric
	}
}

// WithRebuild selects the rebuild mode.
func WithRebuild(mode RebuildMode) Option {
	return func(e *Engine) { e.rebuild = mode }
}

// WithLogger replaces the default logger; nil discards log output.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		if logger == nil {
			logger = log.New(io.Discard, "", 0)
		}
		e.logger = logger
	}
}
