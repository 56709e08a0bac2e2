package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/viant/mmvec/embedding"
	mmerr "github.com/viant/mmvec/errors"
	"github.com/viant/mmvec/loader"
	"github.com/viant/mmvec/result"
	"github.com/viant/mmvec/vector"
)

var collectionName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{1,61}[A-Za-z0-9]$`)

// CollectionOptions is the fixed configuration a collection is opened with.
type CollectionOptions struct {
	Embedding embedding.Function
	Loader    loader.Loader
	// Metric defaults to vector.DefaultMetric on creation. On reuse an empty
	// metric accepts whatever the collection was created with.
	Metric   vector.Metric
	Metadata result.Metadata
	// LoadParallelism bounds concurrent URI loads; 0 uses GOMAXPROCS.
	LoadParallelism int
}

// CollectionInfo describes a stored collection.
type CollectionInfo struct {
	ID        string
	Name      string
	Embedding string
	Metric    vector.Metric
	Dimension int
	Metadata  result.Metadata
	SCN       int64
	Count     int
	CreatedAt time.Time
}

// GetOrCreateCollection returns the named collection, creating it on first
// use. Reusing a collection with a different embedding function or metric is
// a conflict.
func (c *Client) GetOrCreateCollection(ctx context.Context, name string, opts CollectionOptions) (*Collection, error) {
	if err := validateCollectionOptions(name, opts); err != nil {
		return nil, err
	}
	created, err := c.insertCollection(ctx, name, opts)
	if err != nil {
		return nil, err
	}
	coll, err := c.openCollection(ctx, name, opts)
	if err != nil {
		return nil, err
	}
	if created {
		c.logger.Info("collection created", "collection", name, "embedding", opts.Embedding.Name(), "metric", coll.info.Metric)
	}
	return coll, nil
}

// CreateCollection creates a collection; it fails with a conflict if the name is taken.
func (c *Client) CreateCollection(ctx context.Context, name string, opts CollectionOptions) (*Collection, error) {
	if err := validateCollectionOptions(name, opts); err != nil {
		return nil, err
	}
	created, err := c.insertCollection(ctx, name, opts)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, mmerr.New(mmerr.CodeStoreCollectionConflict, "store: collection already exists", mmerr.FieldCollection(name))
	}
	return c.openCollection(ctx, name, opts)
}

// GetCollection opens an existing collection; it fails with not-found if absent.
func (c *Client) GetCollection(ctx context.Context, name string, opts CollectionOptions) (*Collection, error) {
	if opts.Embedding == nil {
		return nil, mmerr.New(mmerr.CodeStoreCollectionInvalid, "store: embedding function is required", mmerr.FieldCollection(name))
	}
	return c.openCollection(ctx, name, opts)
}

// ListCollections returns every collection ordered by name.
func (c *Client) ListCollections(ctx context.Context) ([]CollectionInfo, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT c.id, c.name, c.embedding, c.metric, c.dimension, c.metadata, c.scn, c.created_at,
    (SELECT COUNT(*) FROM records r WHERE r.collection_id = c.id)
FROM collections c ORDER BY c.name`)
	if err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeStoreDatabaseFailure, "store: listing collections")
	}
	defer rows.Close()
	var out []CollectionInfo
	for rows.Next() {
		info, err := scanCollectionInfo(rows.Scan, true)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeStoreDatabaseFailure, "store: listing collections")
	}
	return out, nil
}

// DeleteCollection removes a collection with its records, change log and index.
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	info, err := c.collectionInfo(ctx, name)
	if err != nil {
		return err
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return mmerr.Wrap(err, mmerr.CodeStoreDatabaseFailure, "store: begin delete collection", mmerr.FieldCollection(name))
	}
	defer func() { _ = tx.Rollback() }()
	stmts := []string{
		`DELETE FROM records WHERE collection_id = ?`,
		`DELETE FROM record_log WHERE collection_id = ?`,
		`DELETE FROM vector_storage WHERE collection_id = ?`,
		`DELETE FROM collections WHERE id = ?`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, info.ID); err != nil {
			return mmerr.Wrap(err, mmerr.CodeStoreDatabaseFailure, "store: deleting collection", mmerr.FieldCollection(name))
		}
	}
	if err := tx.Commit(); err != nil {
		return mmerr.Wrap(err, mmerr.CodeStoreDatabaseFailure, "store: commit delete collection", mmerr.FieldCollection(name))
	}
	c.cache.invalidate(info.ID)
	c.logger.Info("collection deleted", "collection", name)
	return nil
}

func validateCollectionOptions(name string, opts CollectionOptions) error {
	if !collectionName.MatchString(name) {
		return mmerr.New(mmerr.CodeStoreCollectionInvalid,
			"store: collection name must be 3-63 characters of [A-Za-z0-9._-], starting and ending with a letter or digit",
			mmerr.FieldCollection(name))
	}
	if opts.Embedding == nil {
		return mmerr.New(mmerr.CodeStoreCollectionInvalid, "store: embedding function is required", mmerr.FieldCollection(name))
	}
	if opts.Metric != "" {
		if _, err := vector.ParseMetric(string(opts.Metric)); err != nil {
			return mmerr.Wrap(err, mmerr.CodeStoreCollectionInvalid, "store: invalid metric", mmerr.FieldCollection(name))
		}
	}
	if _, err := normalizeMetadata(opts.Metadata); err != nil {
		return err
	}
	return nil
}

// insertCollection creates the row unless the name exists and reports whether it did.
func (c *Client) insertCollection(ctx context.Context, name string, opts CollectionOptions) (bool, error) {
	metric, _ := vector.ParseMetric(string(opts.Metric))
	md, err := encodeMetadata(opts.Metadata)
	if err != nil {
		return false, err
	}
	res, err := c.db.ExecContext(ctx, `INSERT INTO collections(id, name, embedding, metric, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(name) DO NOTHING`, uuid.NewString(), name, opts.Embedding.Name(), string(metric), md, time.Now().Unix())
	if err != nil {
		return false, mmerr.Wrap(err, mmerr.CodeStoreDatabaseFailure, "store: creating collection", mmerr.FieldCollection(name))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, mmerr.Wrap(err, mmerr.CodeStoreDatabaseFailure, "store: creating collection", mmerr.FieldCollection(name))
	}
	return n > 0, nil
}

func (c *Client) openCollection(ctx context.Context, name string, opts CollectionOptions) (*Collection, error) {
	info, err := c.collectionInfo(ctx, name)
	if err != nil {
		return nil, err
	}
	if info.Embedding != opts.Embedding.Name() {
		return nil, mmerr.New(mmerr.CodeStoreCollectionConflict,
			fmt.Sprintf("store: collection uses embedding function %q, not %q", info.Embedding, opts.Embedding.Name()),
			mmerr.FieldCollection(name))
	}
	if opts.Metric != "" {
		metric, _ := vector.ParseMetric(string(opts.Metric))
		if metric != info.Metric {
			return nil, mmerr.New(mmerr.CodeStoreCollectionConflict,
				fmt.Sprintf("store: collection uses metric %q, not %q", info.Metric, metric),
				mmerr.FieldCollection(name))
		}
	}
	return &Collection{
		client:      c,
		info:        info,
		embed:       opts.Embedding,
		loader:      opts.Loader,
		parallelism: opts.LoadParallelism,
	}, nil
}

func (c *Client) collectionInfo(ctx context.Context, name string) (CollectionInfo, error) {
	row := c.db.QueryRowContext(ctx, `SELECT id, name, embedding, metric, dimension, metadata, scn, created_at
FROM collections WHERE name = ?`, name)
	info, err := scanCollectionInfo(row.Scan, false)
	if errors.Is(err, sql.ErrNoRows) {
		return CollectionInfo{}, mmerr.New(mmerr.CodeStoreCollectionNotFound, "store: collection does not exist", mmerr.FieldCollection(name))
	}
	return info, err
}

func scanCollectionInfo(scan func(dest ...any) error, withCount bool) (CollectionInfo, error) {
	var (
		info      CollectionInfo
		metric    string
		md        sql.NullString
		createdAt int64
	)
	dest := []any{&info.ID, &info.Name, &info.Embedding, &metric, &info.Dimension, &md, &info.SCN, &createdAt}
	if withCount {
		dest = append(dest, &info.Count)
	}
	if err := scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return info, err
		}
		return info, mmerr.Wrap(err, mmerr.CodeStoreDatabaseFailure, "store: reading collection")
	}
	info.Metric = vector.Metric(metric)
	info.CreatedAt = time.Unix(createdAt, 0)
	var err error
	if info.Metadata, err = decodeMetadata(md); err != nil {
		return info, err
	}
	return info, nil
}
