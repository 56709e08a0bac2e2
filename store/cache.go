package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	mmerr "github.com/viant/mmvec/errors"
	"github.com/viant/mmvec/index"
	"github.com/viant/mmvec/vector"
)

type cacheEntry struct {
	scn int64
	idx index.Index
}

// indexCache keeps one in-memory index per collection, valid while the
// collection SCN is unchanged. Concurrent builds for the same SCN are
// collapsed into one.
type indexCache struct {
	db     *sql.DB
	kind   index.Kind
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

func newIndexCache(db *sql.DB, kind index.Kind, logger *slog.Logger) *indexCache {
	return &indexCache{db: db, kind: kind, logger: logger, entries: map[string]cacheEntry{}}
}

func (c *indexCache) invalidate(collectionID string) {
	c.mu.Lock()
	delete(c.entries, collectionID)
	c.mu.Unlock()
}

func (c *indexCache) cached(collectionID string, scn int64) index.Index {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[collectionID]; ok && e.scn == scn {
		return e.idx
	}
	return nil
}

// get returns an index reflecting the collection at its current SCN, loading
// the persisted blob or building and persisting a new one as needed.
func (c *indexCache) get(ctx context.Context, collectionID string, metric vector.Metric) (index.Index, error) {
	scn, err := c.currentSCN(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if idx := c.cached(collectionID, scn); idx != nil {
		return idx, nil
	}
	v, err, _ := c.group.Do(collectionID+"@"+strconv.FormatInt(scn, 10), func() (any, error) {
		if idx := c.cached(collectionID, scn); idx != nil {
			return idx, nil
		}
		idx, builtSCN, err := c.load(ctx, collectionID, metric)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if e, ok := c.entries[collectionID]; !ok || e.scn <= builtSCN {
			c.entries[collectionID] = cacheEntry{scn: builtSCN, idx: idx}
		}
		c.mu.Unlock()
		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(index.Index), nil
}

func (c *indexCache) currentSCN(ctx context.Context, collectionID string) (int64, error) {
	var scn int64
	err := c.db.QueryRowContext(ctx, `SELECT scn FROM collections WHERE id = ?`, collectionID).Scan(&scn)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, mmerr.New(mmerr.CodeStoreCollectionNotFound, "store: collection was deleted", mmerr.Field("collection_id", collectionID))
	}
	if err != nil {
		return 0, mmerr.Wrap(err, mmerr.CodeStoreDatabaseFailure, "store: reading collection scn")
	}
	return scn, nil
}

// load reads the persisted index when it matches the SCN, otherwise builds
// from a consistent snapshot of the records and persists the result.
func (c *indexCache) load(ctx context.Context, collectionID string, metric vector.Metric) (index.Index, int64, error) {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, 0, mmerr.Wrap(err, mmerr.CodeStoreDatabaseFailure, "store: begin index snapshot")
	}
	defer func() { _ = tx.Rollback() }()

	var scn int64
	if err := tx.QueryRowContext(ctx, `SELECT scn FROM collections WHERE id = ?`, collectionID).Scan(&scn); err != nil {
		return nil, 0, mmerr.Wrap(err, mmerr.CodeStoreDatabaseFailure, "store: reading collection scn")
	}

	var (
		storedSCN int64
		blob      []byte
	)
	err = tx.QueryRowContext(ctx, `SELECT scn, "index" FROM vector_storage WHERE collection_id = ?`, collectionID).Scan(&storedSCN, &blob)
	switch {
	case err == nil && storedSCN == scn && len(blob) > 0:
		idx, derr := index.Decode(blob, metric)
		if derr == nil {
			c.logger.Debug("index loaded", "collection_id", collectionID, "scn", scn, "count", idx.Len())
			return idx, scn, nil
		}
		c.logger.Warn("discarding unreadable persisted index", "collection_id", collectionID, "error", derr)
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return nil, 0, mmerr.Wrap(err, mmerr.CodeStoreDatabaseFailure, "store: reading persisted index")
	}

	started := time.Now()
	ids, vecs, err := readEmbeddings(ctx, tx, collectionID)
	if err != nil {
		return nil, 0, err
	}
	if err := tx.Commit(); err != nil {
		return nil, 0, mmerr.Wrap(err, mmerr.CodeStoreDatabaseFailure, "store: end index snapshot")
	}

	dim := 0
	if len(vecs) > 0 {
		dim = len(vecs[0])
	}
	kind := index.Resolve(c.kind, metric, len(ids), dim)
	idx := index.New(kind, metric)
	if err := idx.Build(ids, vecs); err != nil {
		return nil, 0, mmerr.Wrap(err, mmerr.CodeStoreIndexFailure, "store: building index", mmerr.Field("collection_id", collectionID))
	}
	c.logger.Debug("index built", "collection_id", collectionID, "scn", scn, "kind", kind, "count", len(ids), "elapsed", time.Since(started))

	if data, err := index.Encode(idx); err == nil {
		// Only persist while the collection is still at the snapshot SCN.
		_, err = c.db.ExecContext(ctx, `INSERT OR REPLACE INTO vector_storage(collection_id, scn, kind, "index")
SELECT ?, ?, ?, ? WHERE EXISTS (SELECT 1 FROM collections WHERE id = ? AND scn = ?)`,
			collectionID, scn, string(kind), data, collectionID, scn)
		if err != nil {
			c.logger.Warn("persisting index failed", "collection_id", collectionID, "error", err)
		}
	}
	return idx, scn, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func readEmbeddings(ctx context.Context, q queryer, collectionID string) ([]string, [][]float32, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, embedding FROM records WHERE collection_id = ? ORDER BY rowid`, collectionID)
	if err != nil {
		return nil, nil, mmerr.Wrap(err, mmerr.CodeStoreDatabaseFailure, "store: reading embeddings")
	}
	defer rows.Close()
	var (
		ids  []string
		vecs [][]float32
	)
	for rows.Next() {
		var (
			id   string
			blob []byte
		)
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, nil, mmerr.Wrap(err, mmerr.CodeStoreDatabaseFailure, "store: reading embeddings")
		}
		v, err := vector.DecodeEmbedding(blob)
		if err != nil {
			return nil, nil, mmerr.Wrap(err, mmerr.CodeStoreDatabaseFailure, "store: decoding embedding", mmerr.FieldID(id))
		}
		ids = append(ids, id)
		vecs = append(vecs, v)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, mmerr.Wrap(err, mmerr.CodeStoreDatabaseFailure, "store: reading embeddings")
	}
	return ids, vecs, nil
}

func isNoRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }
