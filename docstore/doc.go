// Package docstore keeps the chunk ledger of the retrieval engine: the
// ordered chunk sequence whose positions mirror the vector index, and the
// mapping from document identifier to the positions of its chunks.
//
// A deleted document is first tombstoned (its chunk texts blanked and its
// entry removed), then the ledger is compacted so surviving chunks occupy
// contiguous positions in their original relative order.
package docstore
