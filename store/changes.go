package store

import (
	"context"
	"encoding/json"
	"time"

	mmerr "github.com/viant/mmvec/errors"
)

// ChangeEntry is one row of the change log written by the record triggers.
type ChangeEntry struct {
	CollectionID string
	SCN          int64
	Op           string
	RecordID     string
	Payload      json.RawMessage
	CreatedAt    time.Time
}

// DefaultChangeLimit bounds Changes when no limit is given.
const DefaultChangeLimit = 100

// SCN returns the collection's current system change number.
func (c *Collection) SCN(ctx context.Context) (int64, error) {
	return c.client.cache.currentSCN(ctx, c.info.ID)
}

// Changes returns change log entries with SCN greater than since, oldest first.
func (c *Collection) Changes(ctx context.Context, since int64, limit int) ([]ChangeEntry, error) {
	if limit <= 0 {
		limit = DefaultChangeLimit
	}
	rows, err := c.client.db.QueryContext(ctx, `SELECT collection_id, scn, op, record_id, payload, created_at
FROM record_log WHERE collection_id = ? AND scn > ? ORDER BY scn LIMIT ?`, c.info.ID, since, limit)
	if err != nil {
		return nil, c.dbError(err, "reading change log")
	}
	defer rows.Close()
	var out []ChangeEntry
	for rows.Next() {
		var (
			e         ChangeEntry
			payload   string
			createdAt int64
		)
		if err := rows.Scan(&e.CollectionID, &e.SCN, &e.Op, &e.RecordID, &payload, &createdAt); err != nil {
			return nil, c.dbError(err, "reading change log")
		}
		e.Payload = json.RawMessage(payload)
		e.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, c.dbError(err, "reading change log")
	}
	return out, nil
}

// Reindex discards the cached and persisted index, rebuilds it from the
// stored embeddings, persists it and returns the number of indexed records.
func (c *Collection) Reindex(ctx context.Context) (int, error) {
	started := time.Now()
	if _, err := c.client.db.ExecContext(ctx, `DELETE FROM vector_storage WHERE collection_id = ?`, c.info.ID); err != nil {
		return 0, c.dbError(err, "dropping persisted index")
	}
	c.client.cache.invalidate(c.info.ID)
	idx, err := c.client.cache.get(ctx, c.info.ID, c.info.Metric)
	if err != nil {
		return 0, mmerr.Wrap(err, mmerr.CodeStoreIndexFailure, "store: reindex", mmerr.FieldCollection(c.info.Name))
	}
	c.client.logger.Info("reindexed", "collection", c.info.Name, "count", idx.Len(), "elapsed", time.Since(started))
	return idx.Len(), nil
}

// IndexKind reports the kind of the persisted index, or "" when none is stored.
func (c *Collection) IndexKind(ctx context.Context) (string, error) {
	var kind string
	err := c.client.db.QueryRowContext(ctx, `SELECT kind FROM vector_storage WHERE collection_id = ?`, c.info.ID).Scan(&kind)
	if err != nil {
		if isNoRows(err) {
			return "", nil
		}
		return "", c.dbError(err, "reading index kind")
	}
	return kind, nil
}
