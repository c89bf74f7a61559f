package rag

import (
	"fmt"

	"github.com/viant/docrag/docstore"
	"github.com/viant/docrag/index"
	"github.com/viant/docrag/index/cover"
	"github.com/viant/docrag/index/flat"
	"github.com/viant/docrag/storage"
)

// state is an immutable committed engine state. The index is nil exactly when
// the ledger holds no chunk.
type state struct {
	ledger    *docstore.Ledger
	index     index.Index
	revision  int64
	persisted bool
}

func emptyState(revision int64) *state {
	return &state{ledger: docstore.New(), revision: revision}
}

func (s *state) ready() bool { return s.index != nil && s.index.Len() > 0 }

func (s *state) snapshot(change storage.Change) (*storage.Snapshot, error) {
	snapshot := &storage.Snapshot{
		Revision:  s.revision,
		Change:    change,
		Chunks:    s.ledger.Chunks(),
		Documents: s.ledger.Documents(),
	}
	if s.ready() {
		data, err := s.index.MarshalBinary()
		if err != nil {
			return nil, err
		}
		snapshot.Index = data
	}
	return snapshot, nil
}

func newIndex(kind index.Kind, metric index.Metric) (index.Index, error) {
	switch kind {
	case index.Flat, "":
		return flat.New(metric), nil
	case index.Cover:
		return cover.New(metric), nil
	}
	return nil, fmt.Errorf("rag: unsupported index kind %q", kind)
}

// restore validates a persisted snapshot: every chunk must be owned by a
// document and the index must hold one vector per chunk.
func restore(snapshot *storage.Snapshot, kind index.Kind, metric index.Metric) (*state, error) {
	ledger, err := docstore.FromArtifacts(snapshot.Chunks, snapshot.Documents)
	if err != nil {
		return nil, err
	}
	if ledger.LiveCount() != ledger.Len() {
		return nil, fmt.Errorf("rag: %d of %d persisted chunks are not owned by a document", ledger.Len()-ledger.LiveCount(), ledger.Len())
	}
	st := &state{ledger: ledger, revision: snapshot.Revision, persisted: true}
	if len(snapshot.Index) == 0 {
		if ledger.Len() > 0 {
			return nil, fmt.Errorf("rag: index missing for %d persisted chunks", ledger.Len())
		}
		return st, nil
	}
	idx, err := newIndex(kind, metric)
	if err != nil {
		return nil, err
	}
	if err := idx.UnmarshalBinary(snapshot.Index); err != nil {
		return nil, err
	}
	if idx.Len() != ledger.Len() {
		return nil, fmt.Errorf("rag: index holds %d vectors for %d chunks", idx.Len(), ledger.Len())
	}
	if idx.Len() > 0 {
		st.index = idx
	}
	return st, nil
}
