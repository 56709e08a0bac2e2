// Package index defines a minimal abstraction for vector indexes that can be
// built from embeddings, queried for kNN in a collection's metric space, and
// serialized for persistence in the vector_storage table.
package index
