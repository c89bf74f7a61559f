package rag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/viant/docrag/chunk"
	"github.com/viant/docrag/embedding"
	"github.com/viant/docrag/index"
	"github.com/viant/docrag/storage"
)

// DefaultTopK is the number of chunks a query returns when the caller has no
// preference.
const DefaultTopK = 3

// Stats summarizes the engine state.
type Stats struct {
	DocumentCount  int   `json:"documentCount"`
	LiveChunkCount int   `json:"liveChunkCount"`
	IndexReady     bool  `json:"indexReady"`
	Revision       int64 `json:"revision"`
	// Persisted reports that the committed state is stored durably.
	Persisted bool `json:"persisted"`
}

// Hit is a retrieved chunk.
type Hit struct {
	DocumentID string  `json:"documentId"`
	Position   int     `json:"position"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// Engine is the retrieval engine. Mutations are serialized; queries run
// concurrently against the last committed state.
type Engine struct {
	embedder  embedding.Embedder
	store     storage.Store
	chunkSize int
	kind      index.Kind
	metric    index.Metric
	rebuild   RebuildMode
	logger    *log.Logger

	writeMu sync.Mutex
	current atomic.Pointer[state]
	// loadFailed is set when the persisted state could not be restored; the
	// store is then left untouched until the next mutation.
	loadFailed bool
}

// Open creates an engine and loads the persisted state from the configured
// store. A missing, unreadable or inconsistent state is logged and the engine
// starts empty.
func Open(ctx context.Context, embedder embedding.Embedder, opts ...Option) (*Engine, error) {
	if embedder == nil {
		return nil, errors.New("rag: embedder is nil")
	}
	e := &Engine{
		embedder:  embedder,
		chunkSize: chunk.DefaultSize,
		kind:      index.Flat,
		metric:    index.L2,
		rebuild:   RebuildReembed,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.chunkSize <= 0 {
		e.chunkSize = chunk.DefaultSize
	}
	if !e.metric.Valid() {
		return nil, fmt.Errorf("rag: unsupported metric %q", e.metric)
	}
	if _, err := newIndex(e.kind, e.metric); err != nil {
		return nil, err
	}
	if e.rebuild != RebuildReembed && e.rebuild != RebuildReuse {
		return nil, fmt.Errorf("rag: unsupported rebuild mode %q", e.rebuild)
	}
	e.current.Store(emptyState(0))
	e.load(ctx)
	return e, nil
}

func (e *Engine) load(ctx context.Context) {
	if e.store == nil {
		return
	}
	snapshot, err := e.store.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		e.logger.Printf("No persisted retrieval state, starting empty")
		return
	}
	if err != nil {
		var revision int64
		var corrupt *storage.CorruptError
		if errors.As(err, &corrupt) {
			revision = corrupt.Revision
		}
		e.logger.Printf("Failed to load retrieval state (revision %d), starting empty: %v", revision, err)
		e.loadFailed = true
		e.current.Store(emptyState(revision))
		return
	}
	st, err := restore(snapshot, e.kind, e.metric)
	if err != nil {
		e.logger.Printf("Discarding inconsistent retrieval state (revision %d), starting empty: %v", snapshot.Revision, err)
		e.loadFailed = true
		e.current.Store(emptyState(snapshot.Revision))
		return
	}
	if st.index != nil && st.index.Metric() != e.metric {
		e.logger.Printf("Persisted index uses metric %s, keeping it over configured %s", st.index.Metric(), e.metric)
	}
	e.current.Store(st)
	e.logger.Printf("Loaded retrieval state: %d documents, %d chunks (revision %d)", st.ledger.DocumentCount(), st.ledger.Len(), st.revision)
}

// Ingest chunks text, embeds the chunks and indexes them under id. Ingesting
// an id that is already indexed replaces that document.
func (e *Engine) Ingest(ctx context.Context, id, text string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidDocumentID
	}
	chunks := chunk.Split(text, e.chunkSize)
	if len(chunks) == 0 {
		return fmt.Errorf("%w: %q", ErrNoChunks, id)
	}
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	cur := e.current.Load()
	var next *state
	var err error
	change := storage.Change{Op: storage.OpIngest, DocumentID: id}
	if cur.ledger.Has(id) {
		change.Op = storage.OpReplace
		next, err = e.rebuildWithout(ctx, cur, id, chunks)
	} else {
		next, err = e.appendDocument(ctx, cur, id, chunks)
	}
	if err != nil {
		return err
	}
	next.revision = cur.revision + 1
	if err := e.commit(ctx, next, change); err != nil {
		return err
	}
	e.logger.Printf("Ingested %s: %d chunks (%s)", id, len(chunks), change.Op)
	return nil
}

// Delete removes document id and rebuilds the index from the surviving
// chunks. Removing the last document returns the engine to the empty state.
func (e *Engine) Delete(ctx context.Context, id string) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	cur := e.current.Load()
	if !cur.ledger.Has(id) {
		return fmt.Errorf("%w: %q", ErrUnknownDocument, id)
	}
	next, err := e.rebuildWithout(ctx, cur, id, nil)
	if err != nil {
		return err
	}
	next.revision = cur.revision + 1
	if err := e.commit(ctx, next, storage.Change{Op: storage.OpDelete, DocumentID: id}); err != nil {
		return err
	}
	e.logger.Printf("Deleted %s: %d chunks remain", id, next.ledger.Len())
	return nil
}

func (e *Engine) appendDocument(ctx context.Context, cur *state, id string, chunks []string) (*state, error) {
	vectors, err := e.embed(ctx, chunks)
	if err != nil {
		return nil, err
	}
	var idx index.Index
	if cur.index != nil {
		idx = cur.index.Clone()
	} else if idx, err = newIndex(e.kind, e.metric); err != nil {
		return nil, err
	}
	if err := idx.Add(vectors...); err != nil {
		return nil, indexError(err)
	}
	ledger := cur.ledger.Clone()
	ledger.Append(id, chunks)
	return &state{ledger: ledger, index: idx}, nil
}

// rebuildWithout tombstones drop, compacts the ledger and builds a new index
// over the survivors, then appends extra as the new content of drop.
func (e *Engine) rebuildWithout(ctx context.Context, cur *state, drop string, extra []string) (*state, error) {
	ledger := cur.ledger.Clone()
	ledger.Tombstone(drop)
	compacted, survivors := ledger.Compact()

	var vectors [][]float32
	switch e.rebuild {
	case RebuildReuse:
		if cur.index == nil && len(survivors) > 0 {
			return nil, fmt.Errorf("rag: no index for %d surviving chunks", len(survivors))
		}
		for _, pos := range survivors {
			v := cur.index.Vector(pos)
			if v == nil {
				return nil, fmt.Errorf("rag: no vector at position %d", pos)
			}
			vectors = append(vectors, v)
		}
		if len(extra) > 0 {
			added, err := e.embed(ctx, extra)
			if err != nil {
				return nil, err
			}
			vectors = append(vectors, added...)
		}
	default:
		texts := append(compacted.Chunks(), extra...)
		if len(texts) > 0 {
			var err error
			if vectors, err = e.embed(ctx, texts); err != nil {
				return nil, err
			}
		}
	}
	if len(extra) > 0 {
		compacted.Append(drop, extra)
	}
	if len(vectors) == 0 {
		return &state{ledger: compacted}, nil
	}

	kind, metric := e.kind, e.metric
	if cur.index != nil {
		kind, metric = cur.index.Kind(), cur.index.Metric()
		if dim := cur.index.Dimension(); dim != 0 && len(vectors[0]) != dim {
			return nil, fmt.Errorf("%w: got %d, index has %d", ErrDimensionMismatch, len(vectors[0]), dim)
		}
	}
	idx, err := newIndex(kind, metric)
	if err != nil {
		return nil, err
	}
	if err := idx.Add(vectors...); err != nil {
		return nil, indexError(err)
	}
	return &state{ledger: compacted, index: idx}, nil
}

func (e *Engine) embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("rag: embed %d chunks: %w", len(texts), err)
	}
	if err := embedding.CheckBatch(vectors, len(texts)); err != nil {
		if errors.Is(err, embedding.ErrInconsistentDimension) {
			return nil, fmt.Errorf("%w: %v", ErrDimensionMismatch, err)
		}
		return nil, fmt.Errorf("rag: embed %d chunks: %w", len(texts), err)
	}
	return vectors, nil
}

func indexError(err error) error {
	if errors.Is(err, index.ErrDimensionMismatch) {
		return fmt.Errorf("%w: %v", ErrDimensionMismatch, err)
	}
	return err
}

// commit persists next and then publishes it.
func (e *Engine) commit(ctx context.Context, next *state, change storage.Change) error {
	if e.store != nil {
		snapshot, err := next.snapshot(change)
		if err != nil {
			return &PersistError{Revision: next.revision, Err: err}
		}
		if err := e.store.Save(ctx, snapshot); err != nil {
			e.logger.Printf("Failed to persist retrieval state (revision %d): %v", next.revision, err)
			return &PersistError{Revision: next.revision, Err: err}
		}
		next.persisted = true
		e.loadFailed = false
	}
	e.current.Store(next)
	return nil
}

// Query returns the texts of the min(k, live chunks) chunks nearest to text,
// best first. An empty engine or k <= 0 yields no result.
func (e *Engine) Query(ctx context.Context, text string, k int) ([]string, error) {
	hits, err := e.Search(ctx, text, k)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(hits))
	for i, hit := range hits {
		texts[i] = hit.Text
	}
	return texts, nil
}

// Search is Query with the owning document, position and score of each hit.
func (e *Engine) Search(ctx context.Context, text string, k int) ([]Hit, error) {
	st := e.current.Load()
	if k <= 0 || !st.ready() {
		return nil, nil
	}
	query, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("rag: embed query: %w", err)
	}
	neighbors, err := st.index.Search(query, k)
	if err != nil {
		return nil, indexError(err)
	}
	hits := make([]Hit, 0, len(neighbors))
	for _, n := range neighbors {
		chunkText, ok := st.ledger.Chunk(n.Position)
		if !ok {
			continue
		}
		hits = append(hits, Hit{
			DocumentID: st.ledger.Owner(n.Position),
			Position:   n.Position,
			Text:       chunkText,
			Score:      n.Score,
		})
	}
	return hits, nil
}

// Stats reports document and chunk counts of the committed state.
func (e *Engine) Stats() Stats {
	st := e.current.Load()
	return Stats{
		DocumentCount:  st.ledger.DocumentCount(),
		LiveChunkCount: st.ledger.LiveCount(),
		IndexReady:     st.ready(),
		Revision:       st.revision,
		Persisted:      st.persisted,
	}
}

// ListDocumentIDs returns the indexed document identifiers in ascending
// order.
func (e *Engine) ListDocumentIDs() []string {
	return e.current.Load().ledger.DocumentIDs()
}

// Positions returns the chunk positions of id, or nil when it is not indexed.
func (e *Engine) Positions(id string) []int {
	st := e.current.Load()
	if !st.ledger.Has(id) {
		return nil
	}
	return st.ledger.Positions(id)
}

// Metric returns the metric of the committed index, or the configured metric
// while the engine is empty.
func (e *Engine) Metric() index.Metric {
	if st := e.current.Load(); st.index != nil {
		return st.index.Metric()
	}
	return e.metric
}

// ModelInfo identifies the embedder.
func (e *Engine) ModelInfo() string { return e.embedder.ModelInfo() }

// Close releases the store. The committed state is saved first only when it
// was never persisted; a state that is empty because loading failed is never
// saved, so the unreadable snapshot stays on disk.
func (e *Engine) Close(ctx context.Context) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	if e.store == nil {
		return nil
	}
	var errs []error
	if st := e.current.Load(); !st.persisted && !e.loadFailed {
		if snapshot, err := st.snapshot(storage.Change{}); err != nil {
			errs = append(errs, err)
		} else if err := e.store.Save(ctx, snapshot); err != nil {
			errs = append(errs, &PersistError{Revision: st.revision, Err: err})
		}
	}
	if closer, ok := e.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
