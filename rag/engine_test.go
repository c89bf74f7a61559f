package rag

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/viant/docrag/embedding"
	"github.com/viant/docrag/index"
	"github.com/viant/docrag/storage"
)

// lengthEmbedder maps a text to the one-dimensional vector [len(text)].
var lengthEmbedder = embedding.Func(func(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text))}, nil
})

func openEngine(t *testing.T, embedder embedding.Embedder, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithLogger(nil)}, opts...)
	e, err := Open(context.Background(), embedder, opts...)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return e
}

// TestEngine_IngestQueryDelete walks the engine from Empty to Populated and
// back with a four-word chunk size.
func TestEngine_IngestQueryDelete(t *testing.T) {
	ctx := context.Background()
	e := openEngine(t, lengthEmbedder, WithChunkSize(4))

	if err := e.Ingest(ctx, "d1", "a b c d e f g h"); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	stats := e.Stats()
	if stats.DocumentCount != 1 || stats.LiveChunkCount != 2 || !stats.IndexReady {
		t.Fatalf("Stats after ingest = %+v", stats)
	}
	if !reflect.DeepEqual(e.Positions("d1"), []int{0, 1}) {
		t.Fatalf("Positions(d1) = %v", e.Positions("d1"))
	}
	texts, err := e.Query(ctx, "x", 5)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if !reflect.DeepEqual(texts, []string{"a b c d", "e f g h"}) {
		t.Fatalf("Query = %q", texts)
	}

	if err := e.Delete(ctx, "d1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	stats = e.Stats()
	if stats.DocumentCount != 0 || stats.LiveChunkCount != 0 || stats.IndexReady {
		t.Fatalf("Stats after delete = %+v", stats)
	}
	if stats.Revision != 2 {
		t.Fatalf("Revision = %d, want 2", stats.Revision)
	}
	if texts, err := e.Query(ctx, "x", 5); err != nil || len(texts) != 0 {
		t.Fatalf("Query on empty engine = %q, %v", texts, err)
	}
}

func TestEngine_EmptyQuery(t *testing.T) {
	e := openEngine(t, lengthEmbedder)
	for _, k := range []int{-1, 0, 1, DefaultTopK} {
		texts, err := e.Query(context.Background(), "anything", k)
		if err != nil || len(texts) != 0 {
			t.Fatalf("Query(k=%d) on empty engine = %q, %v", k, texts, err)
		}
	}
	if ids := e.ListDocumentIDs(); len(ids) != 0 {
		t.Fatalf("ListDocumentIDs = %v", ids)
	}
}

func TestEngine_InputErrors(t *testing.T) {
	ctx := context.Background()
	e := openEngine(t, lengthEmbedder)
	if err := e.Ingest(ctx, " ", "text"); !errors.Is(err, ErrInvalidDocumentID) {
		t.Fatalf("expected ErrInvalidDocumentID, got %v", err)
	}
	if err := e.Ingest(ctx, "blank.pdf", " \n\t "); !errors.Is(err, ErrNoChunks) {
		t.Fatalf("expected ErrNoChunks, got %v", err)
	}
	if err := e.Delete(ctx, "missing.pdf"); !errors.Is(err, ErrUnknownDocument) {
		t.Fatalf("expected ErrUnknownDocument, got %v", err)
	}
	if stats := e.Stats(); stats.Revision != 0 || stats.DocumentCount != 0 {
		t.Fatalf("rejected calls changed state: %+v", stats)
	}
}

// TestEngine_RoundTrip verifies that querying with a chunk's exact text
// returns that chunk first.
func TestEngine_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, kind := range []index.Kind{index.Flat, index.Cover} {
		t.Run(string(kind), func(t *testing.T) {
			e := openEngine(t, embedding.NewHashing(256), WithChunkSize(3), WithIndex(kind, index.L2))
			docs := map[string]string{
				"solar.txt":   "solar panels convert sunlight into electricity for homes",
				"baking.txt":  "knead the dough then let bread rise overnight",
				"network.txt": "routers forward packets between separate networks quickly",
			}
			for id, text := range docs {
				if err := e.Ingest(ctx, id, text); err != nil {
					t.Fatalf("Ingest(%s) failed: %v", id, err)
				}
			}
			for _, id := range e.ListDocumentIDs() {
				for _, pos := range e.Positions(id) {
					text, _ := e.current.Load().ledger.Chunk(pos)
					hits, err := e.Search(ctx, text, 1)
					if err != nil {
						t.Fatalf("Search failed: %v", err)
					}
					if len(hits) != 1 || hits[0].Text != text || hits[0].DocumentID != id || hits[0].Position != pos {
						t.Fatalf("Search(%q) = %+v", text, hits)
					}
				}
			}
		})
	}
}

func TestEngine_KBound(t *testing.T) {
	ctx := context.Background()
	e := openEngine(t, lengthEmbedder, WithChunkSize(1))
	if err := e.Ingest(ctx, "words", "one two three four five"); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	for _, k := range []int{1, 3, 5, 9} {
		texts, err := e.Query(ctx, "abc", k)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if want := min(k, 5); len(texts) != want {
			t.Fatalf("Query(k=%d) returned %d, want %d", k, len(texts), want)
		}
	}
	texts, _ := e.Query(ctx, "abc", 2)
	if texts[0] != "one" || texts[1] != "two" {
		t.Fatalf("Query(abc, 2) = %q, want [one two]", texts)
	}
}

// TestEngine_DeleteKeepsOthers verifies that deleting a document leaves the
// nearest chunks of the other documents unchanged.
func TestEngine_DeleteKeepsOthers(t *testing.T) {
	ctx := context.Background()
	for _, mode := range []RebuildMode{RebuildReembed, RebuildReuse} {
		t.Run(string(mode), func(t *testing.T) {
			e := openEngine(t, embedding.NewHashing(256), WithChunkSize(2), WithRebuild(mode))
			_ = e.Ingest(ctx, "a", "apples oranges pears grapes")
			_ = e.Ingest(ctx, "b", "trains buses trams ferries")
			_ = e.Ingest(ctx, "c", "violins cellos flutes oboes")
			queries := []string{"trains buses", "trams ferries", "violins cellos", "flutes oboes"}
			before := map[string][]string{}
			for _, q := range queries {
				before[q], _ = e.Query(ctx, q, 1)
			}
			if err := e.Delete(ctx, "a"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			for _, q := range queries {
				after, err := e.Query(ctx, q, 1)
				if err != nil {
					t.Fatalf("Query failed: %v", err)
				}
				if !reflect.DeepEqual(after, before[q]) {
					t.Fatalf("Query(%q) = %q, want %q", q, after, before[q])
				}
			}
			if !reflect.DeepEqual(e.Positions("b"), []int{0, 1}) || !reflect.DeepEqual(e.Positions("c"), []int{2, 3}) {
				t.Fatalf("positions not compacted: b=%v c=%v", e.Positions("b"), e.Positions("c"))
			}
			assertConsistent(t, e)
		})
	}
}

// assertConsistent checks that the index holds exactly one vector per live
// chunk and that each vector is the embedding of its chunk.
func assertConsistent(t *testing.T, e *Engine) {
	t.Helper()
	st := e.current.Load()
	if err := st.ledger.Validate(); err != nil {
		t.Fatalf("ledger invalid: %v", err)
	}
	if st.ledger.Len() != st.ledger.LiveCount() {
		t.Fatalf("committed ledger holds tombstones: len=%d live=%d", st.ledger.Len(), st.ledger.LiveCount())
	}
	if st.ledger.Len() == 0 {
		if st.index != nil {
			t.Fatalf("empty ledger with an index")
		}
		return
	}
	if st.index.Len() != st.ledger.Len() {
		t.Fatalf("index holds %d vectors for %d chunks", st.index.Len(), st.ledger.Len())
	}
	for pos := 0; pos < st.ledger.Len(); pos++ {
		text, ok := st.ledger.Chunk(pos)
		if !ok {
			t.Fatalf("position %d is not live", pos)
		}
		want, _ := e.embedder.Embed(context.Background(), text)
		if !reflect.DeepEqual(st.index.Vector(pos), want) {
			t.Fatalf("vector at %d does not match its chunk", pos)
		}
	}
}

func TestEngine_Replace(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	e := openEngine(t, embedding.NewHashing(64), WithChunkSize(2), WithStore(store))
	_ = e.Ingest(ctx, "keep", "alpha beta gamma")
	_ = e.Ingest(ctx, "doc", "one two three four")
	if err := e.Ingest(ctx, "doc", "five six"); err != nil {
		t.Fatalf("re-Ingest failed: %v", err)
	}
	stats := e.Stats()
	if stats.DocumentCount != 2 || stats.LiveChunkCount != 3 {
		t.Fatalf("Stats after replace = %+v", stats)
	}
	if !reflect.DeepEqual(e.Positions("doc"), []int{2}) {
		t.Fatalf("Positions(doc) = %v", e.Positions("doc"))
	}
	snapshot, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if snapshot.Change != (storage.Change{Op: storage.OpReplace, DocumentID: "doc"}) {
		t.Fatalf("Change = %+v", snapshot.Change)
	}
	hits, _ := e.Search(ctx, "five six", 1)
	if len(hits) != 1 || hits[0].DocumentID != "doc" {
		t.Fatalf("Search = %+v", hits)
	}
	assertConsistent(t, e)
}

// failingStore fails every Save while fail is set.
type failingStore struct {
	storage.Store
	fail atomic.Bool
}

func (s *failingStore) Save(ctx context.Context, snapshot *storage.Snapshot) error {
	if s.fail.Load() {
		return errors.New("disk full")
	}
	return s.Store.Save(ctx, snapshot)
}

// TestEngine_PersistFailureRollsBack verifies that a failed save leaves the
// engine at its last persisted state.
func TestEngine_PersistFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Store: storage.NewMemory()}
	e := openEngine(t, lengthEmbedder, WithChunkSize(2), WithStore(store))
	if err := e.Ingest(ctx, "a", "one two three"); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	before := e.Stats()
	store.fail.Store(true)

	var persistErr *PersistError
	if err := e.Ingest(ctx, "b", "four five"); !errors.As(err, &persistErr) {
		t.Fatalf("expected PersistError, got %v", err)
	}
	if err := e.Delete(ctx, "a"); !errors.As(err, &persistErr) {
		t.Fatalf("expected PersistError, got %v", err)
	}
	if after := e.Stats(); after != before {
		t.Fatalf("Stats = %+v, want %+v", after, before)
	}
	if !reflect.DeepEqual(e.ListDocumentIDs(), []string{"a"}) {
		t.Fatalf("ListDocumentIDs = %v", e.ListDocumentIDs())
	}

	store.fail.Store(false)
	if err := e.Ingest(ctx, "b", "four five"); err != nil {
		t.Fatalf("Ingest after recovery failed: %v", err)
	}
	if e.Stats().Revision != before.Revision+1 {
		t.Fatalf("Revision = %d, want %d", e.Stats().Revision, before.Revision+1)
	}
}

// switchEmbedder returns vectors of a dimension that can change at runtime.
type switchEmbedder struct{ dim atomic.Int32 }

func (s *switchEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, s.dim.Load())
	v[0] = float32(len(text))
	return v, nil
}

func (s *switchEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i], _ = s.Embed(ctx, text)
	}
	return out, nil
}

func (s *switchEmbedder) ModelInfo() string { return fmt.Sprintf("switch-%d", s.dim.Load()) }

func TestEngine_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	embedder := &switchEmbedder{}
	embedder.dim.Store(2)
	e := openEngine(t, embedder)
	if err := e.Ingest(ctx, "a", "first document"); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	before := e.Stats()
	embedder.dim.Store(3)
	if err := e.Ingest(ctx, "b", "second document"); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("Ingest: expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := e.Query(ctx, "query", 1); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("Query: expected ErrDimensionMismatch, got %v", err)
	}
	if err := e.Ingest(ctx, "a", "replacement text"); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("replace: expected ErrDimensionMismatch, got %v", err)
	}
	if after := e.Stats(); after != before {
		t.Fatalf("Stats = %+v, want %+v", after, before)
	}
}

func TestEngine_PersistAndReload(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "faiss_db")
	store, err := storage.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	embedder := embedding.NewHashing(128)
	e := openEngine(t, embedder, WithChunkSize(3), WithStore(store))
	_ = e.Ingest(ctx, "a.pdf", "the quick brown fox jumps over the lazy dog")
	_ = e.Ingest(ctx, "b.pdf", "a journey of a thousand miles begins with one step")
	_ = e.Delete(ctx, "a.pdf")
	_ = e.Ingest(ctx, "c.pdf", "knowledge is power and power corrupts")
	want, _ := e.Search(ctx, "thousand miles", 2)
	wantStats := e.Stats()
	artifacts := readArtifacts(t, store)
	if err := e.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := openEngine(t, embedder, WithChunkSize(3), WithStore(store))
	if got := reopened.Stats(); got != wantStats {
		t.Fatalf("Stats after reload = %+v, want %+v", got, wantStats)
	}
	got, err := reopened.Search(ctx, "thousand miles", 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Search after reload = %+v, want %+v", got, want)
	}
	if err := reopened.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// a session without mutations leaves the artifacts untouched
	for name, blob := range readArtifacts(t, store) {
		if !bytes.Equal(blob, artifacts[name]) {
			t.Fatalf("%s changed across load and close", name)
		}
	}
}

// TestEngine_CloseAfterFailedLoadKeepsData damages a persisted artifact and
// checks that opening and closing the engine leaves the stored revision in
// place.
func TestEngine_CloseAfterFailedLoadKeepsData(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "faiss_db"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	embedder := embedding.NewHashing(16)
	e := openEngine(t, embedder, WithStore(store))
	if err := e.Ingest(ctx, "a.pdf", "persisted corpus that must survive"); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	path, err := store.ArtifactPath("documents.json")
	if err != nil {
		t.Fatalf("ArtifactPath failed: %v", err)
	}
	original, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	damaged := openEngine(t, embedder, WithStore(store))
	stats := damaged.Stats()
	if stats.DocumentCount != 0 || stats.Persisted || stats.Revision != 1 {
		t.Fatalf("Stats after failed load = %+v", stats)
	}
	if err := damaged.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if after, err := store.ArtifactPath("documents.json"); err != nil || after != path {
		t.Fatalf("current revision moved to %q (%v), want %q", after, err, path)
	}

	if err := os.WriteFile(path, original, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	repaired := openEngine(t, embedder, WithStore(store))
	if !reflect.DeepEqual(repaired.ListDocumentIDs(), []string{"a.pdf"}) {
		t.Fatalf("ListDocumentIDs = %v, want [a.pdf]", repaired.ListDocumentIDs())
	}
	if stats := repaired.Stats(); !stats.Persisted || stats.Revision != 1 {
		t.Fatalf("Stats after repair = %+v", stats)
	}
}

// TestEngine_UnreadableStateKeepsRevision checks that the revision counter
// continues past an unreadable snapshot instead of restarting at zero.
func TestEngine_UnreadableStateKeepsRevision(t *testing.T) {
	ctx := context.Background()
	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "rag.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer db.Close()
	store, err := storage.NewSQLiteStore(ctx, db)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	embedder := embedding.NewHashing(16)
	e := openEngine(t, embedder, WithStore(store))
	_ = e.Ingest(ctx, "a", "first document")
	_ = e.Ingest(ctx, "b", "second document")
	if _, err := db.ExecContext(ctx, `UPDATE rag_artifact SET data = x'01' WHERE name = 'chunks.bin'`); err != nil {
		t.Fatalf("corrupt chunks failed: %v", err)
	}

	reopened := openEngine(t, embedder, WithStore(store))
	if stats := reopened.Stats(); stats.Revision != 2 || stats.DocumentCount != 0 {
		t.Fatalf("Stats after failed load = %+v", stats)
	}
	if err := reopened.Ingest(ctx, "c", "third document"); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	history, err := store.History(ctx, 1)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 1 || history[0].Revision != 3 || history[0].DocumentID != "c" {
		t.Fatalf("History = %+v, want revision 3 for c", history)
	}
}

func TestEngine_PersistedAndMetric(t *testing.T) {
	ctx := context.Background()
	inMemory := openEngine(t, lengthEmbedder)
	_ = inMemory.Ingest(ctx, "a", "no store configured")
	if inMemory.Stats().Persisted {
		t.Fatalf("engine without a store reports Persisted")
	}

	store := storage.NewMemory()
	e := openEngine(t, lengthEmbedder, WithStore(store), WithIndex(index.Flat, index.L2))
	if e.Stats().Persisted {
		t.Fatalf("fresh engine reports Persisted")
	}
	if e.Metric() != index.L2 {
		t.Fatalf("Metric = %s, want l2", e.Metric())
	}
	_ = e.Ingest(ctx, "a", "stored state")
	if !e.Stats().Persisted {
		t.Fatalf("committed state not reported as Persisted")
	}

	reopened := openEngine(t, lengthEmbedder, WithStore(store), WithIndex(index.Flat, index.InnerProduct))
	if reopened.Metric() != index.L2 {
		t.Fatalf("Metric after reload = %s, want persisted l2", reopened.Metric())
	}
	_ = reopened.Delete(ctx, "a")
	if reopened.Metric() != index.InnerProduct {
		t.Fatalf("Metric of empty engine = %s, want configured ip", reopened.Metric())
	}
}

func readArtifacts(t *testing.T, store *storage.FileStore) map[string][]byte {
	t.Helper()
	out := map[string][]byte{}
	for _, name := range []string{"index.bin", "chunks.bin", "documents.json"} {
		path, err := store.ArtifactPath(name)
		if err != nil {
			t.Fatalf("ArtifactPath failed: %v", err)
		}
		blob, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile(%s) failed: %v", name, err)
		}
		out[name] = blob
	}
	return out
}

func TestEngine_InconsistentStateStartsEmpty(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	bad := &storage.Snapshot{
		Revision:  7,
		Index:     nil,
		Chunks:    []string{"orphan chunk"},
		Documents: map[string][]int{"a": {0}},
	}
	if err := store.Save(ctx, bad); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	e := openEngine(t, lengthEmbedder, WithStore(store))
	stats := e.Stats()
	if stats.DocumentCount != 0 || stats.IndexReady || stats.Revision != 7 {
		t.Fatalf("Stats = %+v", stats)
	}
	if err := e.Ingest(ctx, "b", "fresh start"); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if e.Stats().Revision != 8 {
		t.Fatalf("Revision = %d, want 8", e.Stats().Revision)
	}
}

func TestEngine_SQLiteStore(t *testing.T) {
	ctx := context.Background()
	store, err := storage.OpenSQLiteStore(ctx, filepath.Join(t.TempDir(), "rag.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLiteStore failed: %v", err)
	}
	embedder := embedding.NewHashing(32)
	e := openEngine(t, embedder, WithStore(store), WithIndex(index.Cover, index.L2))
	_ = e.Ingest(ctx, "x", "sqlite keeps every artifact in one transaction")
	_ = e.Ingest(ctx, "y", "the journal records each change")
	_ = e.Delete(ctx, "x")
	history, err := store.History(ctx, 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 3 || history[0].Op != storage.OpDelete || history[0].DocumentID != "x" {
		t.Fatalf("History = %+v", history)
	}

	reopened := openEngine(t, embedder, WithStore(store), WithIndex(index.Cover, index.L2))
	if !reflect.DeepEqual(reopened.ListDocumentIDs(), []string{"y"}) {
		t.Fatalf("ListDocumentIDs = %v", reopened.ListDocumentIDs())
	}
	if err := reopened.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestEngine_ConcurrentQueries(t *testing.T) {
	ctx := context.Background()
	e := openEngine(t, embedding.NewHashing(64), WithChunkSize(5))
	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				id := fmt.Sprintf("doc-%d-%d", w, i)
				if err := e.Ingest(ctx, id, fmt.Sprintf("document %d written by worker %d with some words", i, w)); err != nil {
					errs <- err
					return
				}
				if i%3 == 0 {
					if err := e.Delete(ctx, id); err != nil {
						errs <- err
						return
					}
				}
			}
		}(w)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				texts, err := e.Query(ctx, "worker document", 3)
				if err != nil {
					errs <- err
					return
				}
				if len(texts) > 3 {
					errs <- fmt.Errorf("query returned %d results", len(texts))
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent use failed: %v", err)
	}
	// 4 workers x 10 documents, deleting i = 0, 3, 6, 9
	if stats := e.Stats(); stats.DocumentCount != 24 {
		t.Fatalf("DocumentCount = %d, want 24", stats.DocumentCount)
	}
	assertConsistent(t, e)
}

func TestOpen_InvalidOptions(t *testing.T) {
	ctx := context.Background()
	if _, err := Open(ctx, nil); err == nil {
		t.Fatalf("expected error for nil embedder")
	}
	if _, err := Open(ctx, lengthEmbedder, WithIndex("hnsw", index.L2)); err == nil {
		t.Fatalf("expected error for unknown index kind")
	}
	if _, err := Open(ctx, lengthEmbedder, WithIndex(index.Flat, "manhattan")); err == nil {
		t.Fatalf("expected error for unknown metric")
	}
	if _, err := Open(ctx, lengthEmbedder, WithRebuild("lazy")); err == nil {
		t.Fatalf("expected error for unknown rebuild mode")
	}
}
