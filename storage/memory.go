package storage

import (
	"context"
	"sync"
)

// Memory keeps the last snapshot in encoded form, for tests and ephemeral
// engines.
type Memory struct {
	mu       sync.Mutex
	revision int64
	change   Change
	data     artifacts
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Save(ctx context.Context, snapshot *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeArtifacts(snapshot)
	if err != nil {
		return err
	}
	for name, blob := range data {
		data[name] = append([]byte(nil), blob...)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revision, m.change, m.data = snapshot.Revision, snapshot.Change, data
	return nil
}

func (m *Memory) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrNotFound
	}
	snapshot, err := decodeArtifacts(m.data)
	if err != nil {
		return nil, &CorruptError{Revision: m.revision, Err: err}
	}
	snapshot.Revision, snapshot.Change = m.revision, m.change
	return snapshot, nil
}

var _ Store = (*Memory)(nil)
