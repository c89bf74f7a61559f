package rag

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDocumentID rejects an empty or blank document identifier.
	ErrInvalidDocumentID = errors.New("rag: invalid document id")
	// ErrNoChunks rejects a document whose text yields no chunk.
	ErrNoChunks = errors.New("rag: document has no text to index")
	// ErrUnknownDocument rejects deleting a document that is not indexed.
	ErrUnknownDocument = errors.New("rag: unknown document")
	// ErrDimensionMismatch reports vectors whose length differs from the
	// index; the embedding model changed and the engine needs reconfiguring.
	ErrDimensionMismatch = errors.New("rag: embedding dimension mismatch")
)

// PersistError wraps a failure to save a new state. The engine keeps serving
// the last persisted state.
type PersistError struct {
	Revision int64
	Err      error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("rag: persist revision %d: %v", e.Revision, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
