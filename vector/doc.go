// Package vector holds the float32 vector helpers shared by the index and
// storage packages:
//   - little-endian BLOB encoding of single vectors and fixed-dimension matrices
//   - squared L2 distance, inner product and cosine similarity
//   - in-place L2 normalization
package vector
