package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Load when nothing has been persisted yet.
var ErrNotFound = errors.New("storage: snapshot not found")

// CorruptError reports a persisted snapshot that exists but cannot be read
// back. Revision is the highest revision the store still knows about, so a
// caller starting over does not reuse revision numbers.
type CorruptError struct {
	Revision int64
	Err      error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("storage: unreadable snapshot (revision %d): %v", e.Revision, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// Op names the mutation that produced a snapshot.
type Op string

const (
	OpIngest  Op = "ingest"
	OpReplace Op = "replace"
	OpDelete  Op = "delete"
)

// Change describes the mutation that produced a snapshot.
type Change struct {
	Op         Op     `json:"op,omitempty"`
	DocumentID string `json:"documentId,omitempty"`
}

// Snapshot is the persisted engine state.
type Snapshot struct {
	Revision int64
	Change   Change
	// Index is the serialized vector index; nil while the engine is empty.
	Index     []byte
	Chunks    []string
	Documents map[string][]int
}

// Store saves and loads snapshots.
type Store interface {
	// Save durably replaces the persisted snapshot.
	Save(ctx context.Context, snapshot *Snapshot) error

	// Load returns the last saved snapshot or ErrNotFound.
	Load(ctx context.Context) (*Snapshot, error)
}
