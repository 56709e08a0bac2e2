package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/viant/mmvec/embedding"
	mmerr "github.com/viant/mmvec/errors"
	"github.com/viant/mmvec/loader"
	"github.com/viant/mmvec/result"
	"github.com/viant/mmvec/vector"
)

// Records are positional parallel lists: entry i of every non-empty list
// belongs to IDs[i]. A list is either empty (not supplied) or exactly as long
// as IDs.
//
// Embeddings are taken from Embeddings when supplied, otherwise computed from
// Documents, otherwise from the content behind URIs.
type Records struct {
	IDs        []string
	Embeddings [][]float32
	Documents  []string
	URIs       []string
	Metadatas  []result.Metadata
}

// Len returns the number of records.
func (r Records) Len() int { return len(r.IDs) }

func (r Records) hasContent() bool {
	return len(r.Embeddings) > 0 || len(r.Documents) > 0 || len(r.URIs) > 0
}

type writeMode int

const (
	modeUpsert writeMode = iota
	modeAdd
	modeUpdate
)

func (m writeMode) String() string {
	switch m {
	case modeAdd:
		return "add"
	case modeUpdate:
		return "update"
	}
	return "upsert"
}

// row is a validated record ready to be written.
type row struct {
	id        string
	embedding []byte
	document  sql.NullString
	uri       sql.NullString
	meta      sql.NullString
}

// Upsert inserts new ids and overwrites supplied fields of existing ones.
// Writing identical content leaves the collection unchanged.
func (c *Collection) Upsert(ctx context.Context, recs Records) error {
	return c.write(ctx, recs, modeUpsert)
}

// Add inserts records; it fails with a conflict if any id already exists.
func (c *Collection) Add(ctx context.Context, recs Records) error {
	return c.write(ctx, recs, modeAdd)
}

// Update modifies existing records; it fails with not-found if any id is
// absent. Fields whose lists are empty keep their stored values.
func (c *Collection) Update(ctx context.Context, recs Records) error {
	return c.write(ctx, recs, modeUpdate)
}

func (c *Collection) write(ctx context.Context, recs Records, mode writeMode) error {
	started := time.Now()
	if err := c.validate(recs, mode); err != nil {
		return err
	}
	metas := make([]sql.NullString, len(recs.Metadatas))
	for i, md := range recs.Metadatas {
		enc, err := encodeMetadata(md)
		if err != nil {
			return mmerr.Wrap(err, mmerr.CodeStoreRecordInvalid, "store: invalid metadata", mmerr.FieldCollection(c.info.Name), mmerr.FieldID(recs.IDs[i]))
		}
		metas[i] = enc
	}
	vectors, err := c.embedRecords(ctx, recs)
	if err != nil {
		return err
	}

	rows := make([]row, recs.Len())
	dim := 0
	for i, id := range recs.IDs {
		r := row{id: id}
		if vectors != nil {
			if i == 0 {
				dim = len(vectors[0])
			}
			if len(vectors[i]) == 0 || len(vectors[i]) != dim {
				return mmerr.New(mmerr.CodeStoreEmbeddingDimInvalid, "store: embeddings must share one non-zero dimension",
					mmerr.FieldCollection(c.info.Name), mmerr.FieldID(id), mmerr.Field("dimension", len(vectors[i])))
			}
			blob, err := vector.EncodeEmbedding(vectors[i])
			if err != nil {
				return mmerr.Wrap(err, mmerr.CodeStoreRecordInvalid, "store: invalid embedding", mmerr.FieldCollection(c.info.Name), mmerr.FieldID(id))
			}
			r.embedding = blob
		}
		if len(recs.Documents) > 0 {
			r.document = sql.NullString{String: recs.Documents[i], Valid: true}
		}
		if len(recs.URIs) > 0 {
			r.uri = sql.NullString{String: recs.URIs[i], Valid: true}
		}
		if len(metas) > 0 {
			r.meta = metas[i]
		}
		rows[i] = r
	}

	tx, err := c.client.db.BeginTx(ctx, nil)
	if err != nil {
		return c.dbError(err, "begin write")
	}
	defer func() { _ = tx.Rollback() }()

	if dim > 0 {
		if err := c.checkDimension(ctx, tx, dim); err != nil {
			return err
		}
	}
	switch mode {
	case modeAdd:
		existing, err := existingIDs(ctx, tx, c.info.ID, recs.IDs)
		if err != nil {
			return c.dbError(err, "checking ids")
		}
		if len(existing) > 0 {
			return mmerr.New(mmerr.CodeStoreRecordConflict, "store: ids already exist; use Update or Upsert",
				mmerr.FieldCollection(c.info.Name), mmerr.Field("ids", existing))
		}
	case modeUpdate:
		existing, err := existingIDs(ctx, tx, c.info.ID, recs.IDs)
		if err != nil {
			return c.dbError(err, "checking ids")
		}
		if missing := difference(recs.IDs, existing); len(missing) > 0 {
			return mmerr.New(mmerr.CodeStoreRecordNotFound, "store: ids do not exist; use Add or Upsert",
				mmerr.FieldCollection(c.info.Name), mmerr.Field("ids", missing))
		}
	}

	stmt := c.statement(recs, mode)
	prepared, err := tx.PrepareContext(ctx, stmt.sql)
	if err != nil {
		return c.dbError(err, "preparing write")
	}
	defer prepared.Close()
	for _, r := range rows {
		if _, err := prepared.ExecContext(ctx, stmt.args(r)...); err != nil {
			return c.dbError(err, mode.String()+" record "+r.id)
		}
	}
	if err := tx.Commit(); err != nil {
		return c.dbError(err, "commit write")
	}
	c.client.logger.Debug("records written", "collection", c.info.Name, "mode", mode.String(),
		"count", recs.Len(), "elapsed", time.Since(started))
	return nil
}

func (c *Collection) validate(recs Records, mode writeMode) error {
	name := mmerr.FieldCollection(c.info.Name)
	n := recs.Len()
	if n == 0 {
		return mmerr.New(mmerr.CodeStoreRecordInvalid, "store: ids must not be empty", name)
	}
	lists := []struct {
		field string
		len   int
	}{
		{"embeddings", len(recs.Embeddings)},
		{"documents", len(recs.Documents)},
		{"uris", len(recs.URIs)},
		{"metadatas", len(recs.Metadatas)},
	}
	for _, l := range lists {
		if l.len != 0 && l.len != n {
			return mmerr.New(mmerr.CodeStoreRecordInvalid, "store: "+l.field+" must have one entry per id",
				name, mmerr.Field("ids", n), mmerr.Field(l.field, l.len))
		}
	}
	seen := make(map[string]struct{}, n)
	for _, id := range recs.IDs {
		if strings.TrimSpace(id) == "" {
			return mmerr.New(mmerr.CodeStoreRecordInvalid, "store: ids must not be blank", name)
		}
		if _, dup := seen[id]; dup {
			return mmerr.New(mmerr.CodeStoreRecordInvalid, "store: duplicate id in request", name, mmerr.FieldID(id))
		}
		seen[id] = struct{}{}
	}
	if mode != modeUpdate && !recs.hasContent() {
		return mmerr.New(mmerr.CodeStoreRecordInvalid, "store: one of embeddings, documents or uris is required", name)
	}
	if mode == modeUpdate && !recs.hasContent() && len(recs.Metadatas) == 0 {
		return mmerr.New(mmerr.CodeStoreRecordInvalid, "store: nothing to update", name)
	}
	if len(recs.Embeddings) == 0 && len(recs.Documents) == 0 && len(recs.URIs) > 0 && c.loader == nil {
		return mmerr.New(mmerr.CodeStoreCollectionInvalid, "store: embedding uris requires a loader", name)
	}
	return nil
}

// embedRecords returns one vector per record, or nil when no content was supplied.
func (c *Collection) embedRecords(ctx context.Context, recs Records) ([][]float32, error) {
	var (
		vectors [][]float32
		err     error
	)
	switch {
	case len(recs.Embeddings) > 0:
		return recs.Embeddings, nil
	case len(recs.Documents) > 0:
		vectors, err = c.embed.Embed(ctx, embedding.Texts(recs.Documents...))
	case len(recs.URIs) > 0:
		images, lerr := loader.LoadAll(ctx, c.loader, recs.URIs, c.parallelism)
		if lerr != nil {
			return nil, lerr
		}
		vectors, err = c.embed.Embed(ctx, embedding.Images(images...))
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(vectors) != recs.Len() {
		return nil, mmerr.New(mmerr.CodeEmbeddingUpstreamFailure, "store: embedding function returned wrong number of vectors",
			mmerr.FieldCollection(c.info.Name), mmerr.Field("expected", recs.Len()), mmerr.Field("actual", len(vectors)))
	}
	return vectors, nil
}

// checkDimension pins the collection dimension on first write and rejects
// vectors of any other length afterwards.
func (c *Collection) checkDimension(ctx context.Context, tx *sql.Tx, dim int) error {
	var current int
	if err := tx.QueryRowContext(ctx, `SELECT dimension FROM collections WHERE id = ?`, c.info.ID).Scan(&current); err != nil {
		return c.dbError(err, "reading dimension")
	}
	if current == 0 {
		if _, err := tx.ExecContext(ctx, `UPDATE collections SET dimension = ? WHERE id = ?`, dim, c.info.ID); err != nil {
			return c.dbError(err, "setting dimension")
		}
		c.info.Dimension = dim
		return nil
	}
	if current != dim {
		return mmerr.New(mmerr.CodeStoreEmbeddingDimInvalid, "store: embedding dimension does not match collection",
			mmerr.FieldCollection(c.info.Name), mmerr.Field("expected", current), mmerr.Field("actual", dim))
	}
	return nil
}

type writeStatement struct {
	sql  string
	args func(r row) []any
}

func (c *Collection) statement(recs Records, mode writeMode) writeStatement {
	collectionID := c.info.ID
	if mode == modeUpdate {
		var sets []string
		var pick []func(r row) any
		if recs.hasContent() {
			sets = append(sets, "embedding = ?")
			pick = append(pick, func(r row) any { return r.embedding })
		}
		if len(recs.Documents) > 0 {
			sets = append(sets, "document = ?")
			pick = append(pick, func(r row) any { return r.document })
		}
		if len(recs.URIs) > 0 {
			sets = append(sets, "uri = ?")
			pick = append(pick, func(r row) any { return r.uri })
		}
		if len(recs.Metadatas) > 0 {
			sets = append(sets, "meta = ?")
			pick = append(pick, func(r row) any { return r.meta })
		}
		return writeStatement{
			sql: `UPDATE records SET ` + strings.Join(sets, ", ") + ` WHERE collection_id = ? AND id = ?`,
			args: func(r row) []any {
				out := make([]any, 0, len(pick)+2)
				for _, p := range pick {
					out = append(out, p(r))
				}
				return append(out, collectionID, r.id)
			},
		}
	}

	insert := `INSERT INTO records(collection_id, id, embedding, document, uri, meta) VALUES (?, ?, ?, ?, ?, ?)`
	args := func(r row) []any { return []any{collectionID, r.id, r.embedding, r.document, r.uri, r.meta} }
	if mode == modeAdd {
		return writeStatement{sql: insert, args: args}
	}
	sets := []string{"embedding = excluded.embedding"}
	if len(recs.Documents) > 0 {
		sets = append(sets, "document = excluded.document")
	}
	if len(recs.URIs) > 0 {
		sets = append(sets, "uri = excluded.uri")
	}
	if len(recs.Metadatas) > 0 {
		sets = append(sets, "meta = excluded.meta")
	}
	return writeStatement{
		sql:  insert + ` ON CONFLICT(collection_id, id) DO UPDATE SET ` + strings.Join(sets, ", "),
		args: args,
	}
}

const idChunk = 500

// existingIDs returns which of ids are stored in the collection.
func existingIDs(ctx context.Context, tx *sql.Tx, collectionID string, ids []string) ([]string, error) {
	var found []string
	for start := 0; start < len(ids); start += idChunk {
		chunk := ids[start:min(start+idChunk, len(ids))]
		args := make([]any, 0, len(chunk)+1)
		args = append(args, collectionID)
		for _, id := range chunk {
			args = append(args, id)
		}
		rows, err := tx.QueryContext(ctx, `SELECT id FROM records WHERE collection_id = ? AND id IN (`+placeholders(len(chunk))+`)`, args...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, err
			}
			found = append(found, id)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return found, nil
}

func difference(ids, present []string) []string {
	have := make(map[string]struct{}, len(present))
	for _, id := range present {
		have[id] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
