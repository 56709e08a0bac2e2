// Package engine provides helpers for working with the modernc.org/sqlite
// driver: opening connections with the pragmas the store relies on and
// registering the vector SQL scalar functions. It keeps a thin surface so
// other packages can share the same driver instance.
package engine
