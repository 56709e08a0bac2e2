// Package replica copies a collection into another store by replaying the
// source collection's change log. The last applied SCN is tracked per
// source/target pair in the target database, so a Replicator can be
// recreated and resumed at any time.
package replica
