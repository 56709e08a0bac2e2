// Package cover provides a cover-tree vector index for the cosine and l2
// metrics. It persists using the brute-force payload behind a COV1 prefix and
// rebuilds the tree on load.
package cover
