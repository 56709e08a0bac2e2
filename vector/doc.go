// Package vector holds the numeric primitives shared by the store and the
// indexes:
//   - embedding BLOB encoding used by the records table
//   - similarity and distance functions
//   - Metric, the per-collection distance space
package vector
