// Package rag implements the retrieval engine of a retrieval-augmented
// chatbot. Documents are split into chunks, embedded and appended to a vector
// index; queries return the texts of the nearest chunks.
//
// The engine is either Empty (no live chunks, no index) or Populated. Ingest
// appends to copies of the index and chunk ledger, Delete tombstones a
// document and rebuilds the index from the surviving chunks. Every mutation
// is persisted before it is published, and published states are immutable,
// so concurrent queries always observe a complete state and a failed save
// leaves the engine at its last persisted state.
package rag
