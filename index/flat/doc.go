// Package flat provides an exact vector index that answers kNN queries by
// scoring every stored vector. It is the default index of the retrieval
// engine.
package flat
