// Package cover provides a vector index that prunes kNN search with a cover
// tree. Under L2 the results equal those of the flat index. Under inner
// product the tree ranks by angle while every stored vector has unit length
// and the index falls back to a full scan otherwise. It shares the flat binary
// format and rebuilds the tree on load.
package cover
