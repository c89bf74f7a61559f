// Package index defines the append-only vector index used by the retrieval
// engine: vectors are addressed by their insertion position, searched for the
// k nearest neighbors under a metric, and serialized in a compact binary
// format shared by every implementation.
// Implementations live in the flat (exact scan) and cover (cover tree)
// subpackages.
package index
