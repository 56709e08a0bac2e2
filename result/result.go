// Package result models Get and Query responses as structured per-record
// values and converts them to the columnar results[field][i][j] shape on
// demand.
package result

import (
	"image"
	"slices"
	"strings"

	mmerr "github.com/viant/mmvec/errors"
)

// Field names a column that can be requested in a response.
type Field string

const (
	FieldIDs        Field = "ids"
	FieldDocuments  Field = "documents"
	FieldMetadatas  Field = "metadatas"
	FieldDistances  Field = "distances"
	FieldURIs       Field = "uris"
	FieldEmbeddings Field = "embeddings"
	FieldData       Field = "data"
)

// Include is the set of optional fields a caller asks for. Ids are always returned.
type Include []Field

var (
	DefaultQueryInclude = Include{FieldDocuments, FieldMetadatas, FieldDistances}
	DefaultGetInclude   = Include{FieldDocuments, FieldMetadatas}
)

// ParseInclude validates field names. Empty input yields nil.
func ParseInclude(names []string) (Include, error) {
	var out Include
	for _, raw := range names {
		for _, name := range strings.Split(raw, ",") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" {
				continue
			}
			f := Field(name)
			switch f {
			case FieldDocuments, FieldMetadatas, FieldDistances, FieldURIs, FieldEmbeddings, FieldData:
			default:
				return nil, mmerr.New(mmerr.CodeStoreQueryInvalid, "result: unknown include field", mmerr.Field("field", name))
			}
			if !out.Has(f) {
				out = append(out, f)
			}
		}
	}
	return out, nil
}

func (in Include) Has(f Field) bool { return slices.Contains(in, f) }

// Metadata maps keys to scalar values: string, bool, int64 or float64.
type Metadata map[string]any

// Record is a stored item as returned by Get, carrying only included fields.
type Record struct {
	ID        string
	Document  *string
	URI       *string
	Metadata  Metadata
	Embedding []float32
	Data      image.Image
}

// Match is a Record ranked against a query.
type Match struct {
	Record
	Distance float64
}

// GetResult holds the records returned by Get or Peek.
type GetResult struct {
	Records []Record
	Include Include
}

// IDs returns the record ids in order.
func (r *GetResult) IDs() []string {
	out := make([]string, len(r.Records))
	for i, rec := range r.Records {
		out[i] = rec.ID
	}
	return out
}

// QueryResult holds one ordered match list per query, ascending by distance.
type QueryResult struct {
	Queries []string
	Matches [][]Match
	Include Include
}

// Len returns the number of queries.
func (r *QueryResult) Len() int { return len(r.Matches) }

// Columns converts the result to results[field][query][match]. Only ids and
// included fields are present.
func (r *QueryResult) Columns() map[Field][][]any {
	fields := append(Include{FieldIDs}, r.Include...)
	out := make(map[Field][][]any, len(fields))
	for _, f := range fields {
		perQuery := make([][]any, len(r.Matches))
		for i, matches := range r.Matches {
			row := make([]any, len(matches))
			for j, m := range matches {
				row[j] = m.value(f)
			}
			perQuery[i] = row
		}
		out[f] = perQuery
	}
	return out
}

func (m Match) value(f Field) any {
	switch f {
	case FieldIDs:
		return m.ID
	case FieldDistances:
		return m.Distance
	case FieldDocuments:
		return m.Document
	case FieldMetadatas:
		return m.Metadata
	case FieldURIs:
		return m.URI
	case FieldEmbeddings:
		return m.Embedding
	case FieldData:
		return m.Data
	}
	return nil
}
