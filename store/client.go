// Package store persists named collections of embedded records in SQLite and
// answers nearest-neighbour queries over them.
//
// A Client owns one database. Collections carry their embedding function and
// content loader as fixed configuration; the function name and distance
// metric are recorded on creation and checked whenever the collection is
// opened again. Every record mutation advances the collection's system change
// number (SCN), appends to the change log and invalidates the persisted
// index, so cached indexes are rebuilt lazily on the next query.
package store

import (
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/viant/mmvec/engine"
	mmerr "github.com/viant/mmvec/errors"
	"github.com/viant/mmvec/index"
)

// DatabaseFile is the database file created inside a persistent client's directory.
const DatabaseFile = "mmvec.sqlite"

// Client is a handle to a collection database.
type Client struct {
	db        *sql.DB
	path      string
	ownsDB    bool
	logger    *slog.Logger
	indexKind index.Kind
	cache     *indexCache
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithIndexKind selects the in-memory index used for unfiltered queries.
func WithIndexKind(kind index.Kind) Option {
	return func(c *Client) { c.indexKind = kind }
}

// NewPersistentClient opens or creates the database under directory path.
func NewPersistentClient(path string, opts ...Option) (*Client, error) {
	if path == "" {
		return nil, mmerr.New(mmerr.CodeStoreOpenFailure, "store: empty storage path")
	}
	file := filepath.Join(path, DatabaseFile)
	db, err := engine.OpenPath(file)
	if err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeStoreOpenFailure, "store: opening database", mmerr.Field("path", file))
	}
	c, err := newClient(db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	c.path = path
	c.ownsDB = true
	return c, nil
}

// NewClient wraps an existing database handle, which must have been opened
// through engine.Open or engine.OpenPath. In-memory databases need
// SetMaxOpenConns(1) so every statement sees the same database.
func NewClient(db *sql.DB, opts ...Option) (*Client, error) {
	if db == nil {
		return nil, mmerr.New(mmerr.CodeStoreOpenFailure, "store: nil database")
	}
	return newClient(db, opts...)
}

func newClient(db *sql.DB, opts ...Option) (*Client, error) {
	c := &Client{db: db, logger: slog.Default(), indexKind: index.KindAuto}
	for _, opt := range opts {
		opt(c)
	}
	if err := migrate(context.Background(), db); err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeStoreOpenFailure, "store: migrating schema")
	}
	c.cache = newIndexCache(db, c.indexKind, c.logger)
	return c, nil
}

// Path returns the storage directory, or "" for clients built with NewClient.
func (c *Client) Path() string { return c.path }

// DB exposes the underlying handle.
func (c *Client) DB() *sql.DB { return c.db }

// Heartbeat checks the database is reachable and returns the current time.
func (c *Client) Heartbeat(ctx context.Context) (time.Time, error) {
	if err := c.db.PingContext(ctx); err != nil {
		return time.Time{}, mmerr.Wrap(err, mmerr.CodeStoreDatabaseFailure, "store: heartbeat")
	}
	return time.Now(), nil
}

// Close releases the database when the client opened it.
func (c *Client) Close() error {
	if !c.ownsDB {
		return nil
	}
	return c.db.Close()
}
