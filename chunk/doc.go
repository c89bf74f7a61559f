// Package chunk splits document text into word-bounded chunks that become the
// unit of embedding and retrieval.
package chunk
