package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mmerr "github.com/viant/mmvec/errors"
	"github.com/viant/mmvec/result"
)

func TestParse(t *testing.T) {
	var testCases = []struct {
		description string
		input       string
		expectErr   bool
		expectIDs   []string
		expectURIs  []string
		expectDocs  []string
		expectMeta  []result.Metadata
	}{
		{
			description: "uris with metadata",
			input: `
- id: "1"
  uri: ./images/archery.jpg
  metadata: {item_id: "1", category: sports}
- id: "2"
  uri: ./images/baseball.jpg
`,
			expectIDs:  []string{"1", "2"},
			expectURIs: []string{"./images/archery.jpg", "./images/baseball.jpg"},
			expectMeta: []result.Metadata{{"item_id": "1", "category": "sports"}, nil},
		},
		{
			description: "documents without metadata",
			input: `
- id: a
  document: formula one car
- id: b
  document: ice hockey
`,
			expectIDs:  []string{"a", "b"},
			expectDocs: []string{"formula one car", "ice hockey"},
		},
		{
			description: "uris with captions",
			input: `
- id: "1"
  uri: a.png
  document: archery caption
- id: "2"
  uri: b.png
  document: baseball caption
`,
			expectIDs:  []string{"1", "2"},
			expectURIs: []string{"a.png", "b.png"},
			expectDocs: []string{"archery caption", "baseball caption"},
		},
		{
			description: "caption on some entries",
			input:       "- uri: a.png\n  document: archery caption\n- uri: b.png\n",
			expectErr:   true,
		},
		{
			description: "caption missing on first entry",
			input:       "- uri: a.png\n- uri: b.png\n  document: baseball caption\n",
			expectErr:   true,
		},
		{description: "empty", input: ``, expectErr: true},
		{description: "not a list", input: `id: 1`, expectErr: true},
		{description: "unknown field", input: "- id: a\n  url: x.png\n", expectErr: true},
		{description: "no content", input: "- id: a\n", expectErr: true},
		{description: "mixed content", input: "- uri: a.png\n- document: text\n", expectErr: true},
	}
	for _, testCase := range testCases {
		m, err := Parse(strings.NewReader(testCase.input))
		if testCase.expectErr {
			require.Error(t, err, testCase.description)
			assert.True(t, mmerr.IsInvalidInput(err), testCase.description)
			continue
		}
		require.NoError(t, err, testCase.description)
		recs := m.ToRecords()
		assert.Equal(t, testCase.expectIDs, recs.IDs, testCase.description)
		assert.Equal(t, testCase.expectURIs, recs.URIs, testCase.description)
		assert.Equal(t, testCase.expectDocs, recs.Documents, testCase.description)
		assert.Equal(t, testCase.expectMeta, recs.Metadatas, testCase.description)
	}
}

func TestParseGeneratesIDs(t *testing.T) {
	m, err := Parse(strings.NewReader("- uri: a.png\n- uri: b.png\n"))
	require.NoError(t, err)
	require.Len(t, m.Entries, 2)
	for _, e := range m.Entries {
		_, err := uuid.Parse(e.ID)
		assert.NoError(t, err)
	}
	assert.NotEqual(t, m.Entries[0].ID, m.Entries[1].ID)
}

func TestLoadAndMarshal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.yaml")
	data, err := Demo("images").Marshal()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Demo("images"), m)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, mmerr.IsInvalidInput(err))
}

func TestDemo(t *testing.T) {
	m := Demo("images")
	recs := m.ToRecords()
	require.Len(t, recs.IDs, 10)
	assert.Len(t, recs.URIs, 10)
	assert.Len(t, recs.Metadatas, 10)
	assert.Nil(t, recs.Documents)
	assert.Equal(t, "1", recs.IDs[0])
	assert.Equal(t, "./images/archery.jpg", recs.URIs[0])
	assert.Equal(t, "./images/snowboarding.jpg", recs.URIs[9])
	assert.Equal(t, result.Metadata{"item_id": "1", "category": "sports", "item_name": "Archery image"}, recs.Metadatas[0])
	assert.Equal(t, result.Metadata{"item_id": "6", "category": "sport", "item_name": "f1 image"}, recs.Metadatas[5])
	assert.Equal(t, "/data/img/f1.jpg", Demo("/data/img").Entries[5].URI)
}
