package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/viant/mmvec/embedding"
	mmerr "github.com/viant/mmvec/errors"
	"github.com/viant/mmvec/loader"
	"github.com/viant/mmvec/result"
	"github.com/viant/mmvec/vector"
)

// Collection is a handle to a named set of embedded records.
type Collection struct {
	client      *Client
	info        CollectionInfo
	embed       embedding.Function
	loader      loader.Loader
	parallelism int
}

// ID is the collection's generated identifier.
func (c *Collection) ID() string { return c.info.ID }

// Name is the name the collection was created with.
func (c *Collection) Name() string { return c.info.Name }

// Metric is the distance space fixed at creation.
func (c *Collection) Metric() vector.Metric { return c.info.Metric }

// Metadata returns the collection-level metadata.
func (c *Collection) Metadata() result.Metadata { return c.info.Metadata }

// EmbeddingFunction returns the function the collection was opened with.
func (c *Collection) EmbeddingFunction() embedding.Function { return c.embed }

// Count returns the number of records.
func (c *Collection) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.client.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE collection_id = ?`, c.info.ID).Scan(&n); err != nil {
		return 0, c.dbError(err, "counting records")
	}
	return n, nil
}

// GetRequest selects records by id and/or predicate. Limit <= 0 means no limit.
type GetRequest struct {
	IDs           []string
	Where         Where
	WhereDocument WhereDocument
	Limit         int
	Offset        int
	Include       result.Include
}

// Get returns matching records in insertion order.
func (c *Collection) Get(ctx context.Context, req GetRequest) (*result.GetResult, error) {
	if req.Offset < 0 {
		return nil, mmerr.New(mmerr.CodeStoreQueryInvalid, "store: offset must not be negative", mmerr.FieldCollection(c.info.Name))
	}
	include := req.Include
	if include == nil {
		include = result.DefaultGetInclude
	}
	if include.Has(result.FieldDistances) {
		return nil, mmerr.New(mmerr.CodeStoreQueryInvalid, "store: distances can only be included in queries", mmerr.FieldCollection(c.info.Name))
	}
	filter, err := c.filter(req.IDs, req.Where, req.WhereDocument)
	if err != nil {
		return nil, err
	}
	limit := -1
	if req.Limit > 0 {
		limit = req.Limit
	}
	q := `SELECT id, document, uri, meta, embedding FROM records WHERE collection_id = ?` + filter.sql +
		` ORDER BY rowid LIMIT ? OFFSET ?`
	args := append(append([]any{c.info.ID}, filter.args...), limit, req.Offset)
	rows, err := c.client.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, c.dbError(err, "getting records")
	}
	records, err := scanRecords(rows, include, false)
	if err != nil {
		return nil, c.dbError(err, "getting records")
	}
	out := &result.GetResult{Include: include}
	for _, r := range records {
		out.Records = append(out.Records, r.Record)
	}
	if include.Has(result.FieldData) {
		if err := c.attachData(ctx, out.Records); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Peek returns the first n records; n <= 0 returns ten.
func (c *Collection) Peek(ctx context.Context, n int) (*result.GetResult, error) {
	if n <= 0 {
		n = 10
	}
	return c.Get(ctx, GetRequest{Limit: n})
}

// Delete removes the records selected by ids and/or where and returns how many
// were deleted. At least one selector is required; unknown ids are ignored.
func (c *Collection) Delete(ctx context.Context, ids []string, where Where) (int, error) {
	if len(ids) == 0 && len(where) == 0 {
		return 0, mmerr.New(mmerr.CodeStoreRecordInvalid, "store: delete needs ids or a where predicate", mmerr.FieldCollection(c.info.Name))
	}
	filter, err := c.filter(ids, where, nil)
	if err != nil {
		return 0, err
	}
	res, err := c.client.db.ExecContext(ctx, `DELETE FROM records WHERE collection_id = ?`+filter.sql,
		append([]any{c.info.ID}, filter.args...)...)
	if err != nil {
		return 0, c.dbError(err, "deleting records")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, c.dbError(err, "deleting records")
	}
	c.client.logger.Debug("records deleted", "collection", c.info.Name, "count", n)
	return int(n), nil
}

// filter compiles the id list and predicates into an AND-prefixed SQL fragment.
func (c *Collection) filter(ids []string, where Where, whereDoc WhereDocument) (*predicate, error) {
	out := &predicate{}
	if len(ids) > 0 {
		out.sql += " AND id IN (" + placeholders(len(ids)) + ")"
		for _, id := range ids {
			out.args = append(out.args, id)
		}
	}
	for _, compile := range []func() (*predicate, error){
		func() (*predicate, error) { return compileWhere(where) },
		func() (*predicate, error) { return compileWhereDocument(whereDoc) },
	} {
		p, err := compile()
		if err != nil {
			return nil, err
		}
		if !p.empty() {
			out.sql += " AND " + p.sql
			out.args = append(out.args, p.args...)
		}
	}
	return out, nil
}

type scannedRecord struct {
	result.Record
	distance float64
}

// scanRecords reads id, document, uri, meta, embedding[, distance] rows and
// keeps only included fields. It closes rows.
func scanRecords(rows *sql.Rows, include result.Include, withDistance bool) ([]scannedRecord, error) {
	defer rows.Close()
	var out []scannedRecord
	for rows.Next() {
		var (
			rec      scannedRecord
			doc, uri sql.NullString
			meta     sql.NullString
			blob     []byte
		)
		dest := []any{&rec.ID, &doc, &uri, &meta, &blob}
		if withDistance {
			dest = append(dest, &rec.distance)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if include.Has(result.FieldDocuments) && doc.Valid {
			rec.Document = &doc.String
		}
		if (include.Has(result.FieldURIs) || include.Has(result.FieldData)) && uri.Valid {
			rec.URI = &uri.String
		}
		if include.Has(result.FieldMetadatas) {
			md, err := decodeMetadata(meta)
			if err != nil {
				return nil, err
			}
			rec.Metadata = md
		}
		if include.Has(result.FieldEmbeddings) {
			v, err := vector.DecodeEmbedding(blob)
			if err != nil {
				return nil, err
			}
			rec.Embedding = v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// attachData loads the content behind each record URI through the loader.
func (c *Collection) attachData(ctx context.Context, records []result.Record) error {
	var (
		uris []string
		pos  []int
	)
	for i, r := range records {
		if r.URI != nil {
			uris = append(uris, *r.URI)
			pos = append(pos, i)
		}
	}
	if len(uris) == 0 {
		return nil
	}
	if c.loader == nil {
		return mmerr.New(mmerr.CodeStoreCollectionInvalid, "store: including data requires a loader", mmerr.FieldCollection(c.info.Name))
	}
	images, err := loader.LoadAll(ctx, c.loader, uris, c.parallelism)
	if err != nil {
		return err
	}
	for n, i := range pos {
		records[i].Data = images[n]
	}
	return nil
}

func (c *Collection) dbError(err error, action string) error {
	return mmerr.Wrap(err, mmerr.CodeStoreDatabaseFailure, "store: "+action, mmerr.FieldCollection(c.info.Name))
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
