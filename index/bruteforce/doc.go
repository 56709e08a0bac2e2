// Package bruteforce provides a simple vector index that answers kNN queries
// by scanning all vectors and scoring them in the configured metric space. It
// supports a compact binary format for persistence in the vector_storage table.
package bruteforce
