package store

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/mmvec/embedding"
	mmerr "github.com/viant/mmvec/errors"
	"github.com/viant/mmvec/loader"
	"github.com/viant/mmvec/result"
	"github.com/viant/mmvec/vector"
)

// QueryRequest asks for the NResults nearest records to each query. Exactly
// one of Texts, URIs or Embeddings must be supplied.
type QueryRequest struct {
	Texts         []string
	URIs          []string
	Embeddings    [][]float32
	NResults      int
	Where         Where
	WhereDocument WhereDocument
	Include       result.Include
}

// Query embeds each query with the collection's embedding function and
// returns up to NResults matches per query, ascending by distance. Fewer
// matches are returned when the collection, or the filtered subset, is smaller.
func (c *Collection) Query(ctx context.Context, req QueryRequest) (*result.QueryResult, error) {
	started := time.Now()
	name := mmerr.FieldCollection(c.info.Name)
	if req.NResults <= 0 {
		return nil, mmerr.New(mmerr.CodeStoreQueryInvalid, "store: n_results must be positive", name, mmerr.Field("n_results", req.NResults))
	}
	supplied := 0
	for _, n := range []int{len(req.Texts), len(req.URIs), len(req.Embeddings)} {
		if n > 0 {
			supplied++
		}
	}
	if supplied != 1 {
		return nil, mmerr.New(mmerr.CodeStoreQueryInvalid, "store: supply exactly one of query texts, uris or embeddings", name)
	}
	include := req.Include
	if include == nil {
		include = result.DefaultQueryInclude
	}
	filter, err := c.filter(nil, req.Where, req.WhereDocument)
	if err != nil {
		return nil, err
	}
	labels, queries, err := c.embedQueries(ctx, req)
	if err != nil {
		return nil, err
	}
	dim, err := c.dimension(ctx)
	if err != nil {
		return nil, err
	}
	for i, q := range queries {
		if dim > 0 && len(q) != dim {
			return nil, mmerr.New(mmerr.CodeStoreEmbeddingDimInvalid, "store: query embedding dimension does not match collection",
				name, mmerr.Field("query", i), mmerr.Field("expected", dim), mmerr.Field("actual", len(q)))
		}
	}

	out := &result.QueryResult{Queries: labels, Include: include, Matches: make([][]result.Match, len(queries))}
	for i, q := range queries {
		var matches []result.Match
		switch {
		case dim == 0:
		case filter.empty():
			matches, err = c.searchIndex(ctx, q, req.NResults, include)
		default:
			matches, err = c.searchFiltered(ctx, q, req.NResults, filter, include)
		}
		if err != nil {
			return nil, err
		}
		if matches == nil {
			matches = []result.Match{}
		}
		out.Matches[i] = matches
	}
	if include.Has(result.FieldData) {
		for _, matches := range out.Matches {
			records := make([]result.Record, len(matches))
			for j := range matches {
				records[j] = matches[j].Record
			}
			if err := c.attachData(ctx, records); err != nil {
				return nil, err
			}
			for j := range matches {
				matches[j].Data = records[j].Data
			}
		}
	}
	c.client.logger.Debug("query", "collection", c.info.Name, "count", len(queries), "n_results", req.NResults,
		"filtered", !filter.empty(), "elapsed", time.Since(started))
	return out, nil
}

func (c *Collection) embedQueries(ctx context.Context, req QueryRequest) ([]string, [][]float32, error) {
	switch {
	case len(req.Embeddings) > 0:
		labels := make([]string, len(req.Embeddings))
		for i := range labels {
			labels[i] = fmt.Sprintf("embedding[%d]", i)
		}
		return labels, req.Embeddings, nil
	case len(req.Texts) > 0:
		vectors, err := c.embed.Embed(ctx, embedding.Texts(req.Texts...))
		if err != nil {
			return nil, nil, err
		}
		return req.Texts, vectors, c.checkQueryVectors(vectors, len(req.Texts))
	default:
		if c.loader == nil {
			return nil, nil, mmerr.New(mmerr.CodeStoreCollectionInvalid, "store: querying by uri requires a loader", mmerr.FieldCollection(c.info.Name))
		}
		images, err := loader.LoadAll(ctx, c.loader, req.URIs, c.parallelism)
		if err != nil {
			return nil, nil, err
		}
		vectors, err := c.embed.Embed(ctx, embedding.Images(images...))
		if err != nil {
			return nil, nil, err
		}
		return req.URIs, vectors, c.checkQueryVectors(vectors, len(req.URIs))
	}
}

// dimension reads the pinned embedding dimension; 0 means nothing was written yet.
func (c *Collection) dimension(ctx context.Context) (int, error) {
	var dim int
	if err := c.client.db.QueryRowContext(ctx, `SELECT dimension FROM collections WHERE id = ?`, c.info.ID).Scan(&dim); err != nil {
		return 0, c.dbError(err, "reading dimension")
	}
	return dim, nil
}

func (c *Collection) checkQueryVectors(vectors [][]float32, expected int) error {
	if len(vectors) != expected {
		return mmerr.New(mmerr.CodeEmbeddingUpstreamFailure, "store: embedding function returned wrong number of vectors",
			mmerr.FieldCollection(c.info.Name), mmerr.Field("expected", expected), mmerr.Field("actual", len(vectors)))
	}
	return nil
}

// searchIndex answers an unfiltered query from the cached in-memory index.
func (c *Collection) searchIndex(ctx context.Context, query []float32, k int, include result.Include) ([]result.Match, error) {
	idx, err := c.client.cache.get(ctx, c.info.ID, c.info.Metric)
	if err != nil {
		return nil, err
	}
	if idx.Len() == 0 {
		return nil, nil
	}
	ids, dists, err := idx.Query(query, k)
	if err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeStoreQueryInvalid, "store: searching index", mmerr.FieldCollection(c.info.Name))
	}
	if len(ids) == 0 {
		return nil, nil
	}
	filter := &predicate{sql: " AND id IN (" + placeholders(len(ids)) + ")"}
	for _, id := range ids {
		filter.args = append(filter.args, id)
	}
	rows, err := c.client.db.QueryContext(ctx, `SELECT id, document, uri, meta, embedding FROM records WHERE collection_id = ?`+filter.sql,
		append([]any{c.info.ID}, filter.args...)...)
	if err != nil {
		return nil, c.dbError(err, "reading matches")
	}
	records, err := scanRecords(rows, include, false)
	if err != nil {
		return nil, c.dbError(err, "reading matches")
	}
	byID := make(map[string]result.Record, len(records))
	for _, r := range records {
		byID[r.ID] = r.Record
	}
	matches := make([]result.Match, 0, len(ids))
	for i, id := range ids {
		rec, ok := byID[id]
		if !ok {
			// deleted after the index snapshot
			continue
		}
		matches = append(matches, result.Match{Record: rec, Distance: dists[i]})
	}
	return matches, nil
}

// searchFiltered scans the records that satisfy the predicates, ranking them
// with vec_distance so filtering happens before the limit.
func (c *Collection) searchFiltered(ctx context.Context, query []float32, k int, filter *predicate, include result.Include) ([]result.Match, error) {
	blob, err := vector.EncodeEmbedding(query)
	if err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeStoreQueryInvalid, "store: invalid query embedding", mmerr.FieldCollection(c.info.Name))
	}
	q := `SELECT id, document, uri, meta, embedding, dist FROM (
    SELECT rowid AS rid, id, document, uri, meta, embedding, vec_distance(?, embedding, ?) AS dist
    FROM records WHERE collection_id = ?` + filter.sql + `
) WHERE dist IS NOT NULL ORDER BY dist, rid LIMIT ?`
	args := append([]any{string(c.info.Metric), blob, c.info.ID}, filter.args...)
	args = append(args, k)
	rows, err := c.client.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, c.dbError(err, "filtered query")
	}
	records, err := scanRecords(rows, include, true)
	if err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeStoreQueryInvalid, "store: filtered query", mmerr.FieldCollection(c.info.Name))
	}
	matches := make([]result.Match, len(records))
	for i, r := range records {
		matches[i] = result.Match{Record: r.Record, Distance: r.distance}
	}
	return matches, nil
}
