// Package tree implements a cover tree over float32 vectors with exact
// best-first k-nearest-neighbor search. Subtree radii are cached per node and
// refreshed lazily after inserts.
//
// This implementation is adapted from github.com/viant/gds/tree/cover.
package tree
