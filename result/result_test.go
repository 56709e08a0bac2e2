package result_test

import (
	"bytes"
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mmerr "github.com/viant/mmvec/errors"
	"github.com/viant/mmvec/result"
)

func ptr(s string) *string { return &s }

func sample() *result.QueryResult {
	return &result.QueryResult{
		Queries: []string{"sports, f1"},
		Include: result.Include{result.FieldDistances, result.FieldMetadatas, result.FieldURIs},
		Matches: [][]result.Match{{
			{Record: result.Record{ID: "6", URI: ptr("./images/f1.jpg"), Metadata: result.Metadata{"item_name": "f1 image", "category": "sport"}}, Distance: 0.25},
			{Record: result.Record{ID: "1", URI: ptr("./images/archery.jpg"), Data: image.NewGray(image.Rect(0, 0, 4, 3))}, Distance: 0.5},
		}},
	}
}

func TestPrintOneLinePerMatch(t *testing.T) {
	var buf bytes.Buffer
	p := &result.Printer{Out: &buf}
	res := sample()
	require.NoError(t, p.Print(res.Queries, res))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[sports, f1] id: 6, distance: 0.250000, metadata: {category: sport, item_name: f1 image}, document: None, data: ./images/f1.jpg", lines[0])
	assert.Equal(t, "[sports, f1] id: 1, distance: 0.500000, metadata: None, document: None, data: ./images/archery.jpg (4x3)", lines[1])
}

func TestPrintEmpty(t *testing.T) {
	var buf bytes.Buffer
	p := &result.Printer{Out: &buf}
	require.NoError(t, p.Print([]string{"q"}, &result.QueryResult{Matches: [][]result.Match{{}}}))
	require.NoError(t, p.Print(nil, &result.QueryResult{}))
	require.NoError(t, p.Print(nil, nil))
	assert.Empty(t, buf.String())
}

func TestPrintFewerThanRequested(t *testing.T) {
	var buf bytes.Buffer
	p := &result.Printer{Out: &buf}
	res := &result.QueryResult{Matches: [][]result.Match{
		{{Record: result.Record{ID: "a"}}},
		{},
		{{Record: result.Record{ID: "b"}}, {Record: result.Record{ID: "c"}}},
	}}
	require.NoError(t, p.Print([]string{"x"}, res))
	assert.Equal(t, 3, strings.Count(buf.String(), "\n"))
}

func TestColumns(t *testing.T) {
	cols := sample().Columns()
	assert.Len(t, cols, 4)
	assert.Equal(t, [][]any{{"6", "1"}}, cols[result.FieldIDs])
	assert.Equal(t, [][]any{{0.25, 0.5}}, cols[result.FieldDistances])
	_, ok := cols[result.FieldDocuments]
	assert.False(t, ok)
}

func TestParseInclude(t *testing.T) {
	inc, err := result.ParseInclude([]string{"documents, distances", "data", "documents"})
	require.NoError(t, err)
	assert.Equal(t, result.Include{result.FieldDocuments, result.FieldDistances, result.FieldData}, inc)

	_, err = result.ParseInclude([]string{"pixels"})
	assert.True(t, mmerr.IsInvalidInput(err))
}

func TestPrintRecords(t *testing.T) {
	var buf bytes.Buffer
	p := &result.Printer{Out: &buf}
	require.NoError(t, p.PrintRecords(&result.GetResult{Records: []result.Record{{ID: "1", Document: ptr("doc")}}}))
	assert.Equal(t, "id: 1, metadata: None, document: doc, uri: None\n", buf.String())
}
