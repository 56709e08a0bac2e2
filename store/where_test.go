package store

import (
	"math"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mmerr "github.com/viant/mmvec/errors"
	"github.com/viant/mmvec/result"
)

func TestCompileWhere(t *testing.T) {
	var testCases = []struct {
		description string
		where       Where
		expectSQL   string
		expectArgs  []any
	}{
		{
			description: "empty",
			where:       nil,
		},
		{
			description: "string equality",
			where:       Where{"category": "sport"},
			expectSQL:   `(json_type(meta, ?) = 'text' AND json_extract(meta, ?) = ?)`,
			expectArgs:  []any{`$."category"`, `$."category"`, "sport"},
		},
		{
			description: "bool equality",
			where:       Where{"live": true},
			expectSQL:   `(json_type(meta, ?) = ?)`,
			expectArgs:  []any{`$."live"`, "true"},
		},
		{
			description: "range",
			where:       Where{"year": map[string]any{"$gte": 2020}},
			expectSQL:   `(json_type(meta, ?) IN ('integer', 'real') AND json_extract(meta, ?) >= ?)`,
			expectArgs:  []any{`$."year"`, `$."year"`, int64(2020)},
		},
		{
			description: "not equal keeps missing keys",
			where:       Where{"k": map[string]any{"$ne": "v"}},
			expectSQL:   `(coalesce((json_type(meta, ?) = 'text' AND json_extract(meta, ?) = ?), 0) = 0)`,
			expectArgs:  []any{`$."k"`, `$."k"`, "v"},
		},
		{
			description: "keys are combined in sorted order",
			where:       Where{"b": 1, "a": 2},
			expectSQL: `((json_type(meta, ?) IN ('integer', 'real') AND json_extract(meta, ?) = ?)` +
				` AND (json_type(meta, ?) IN ('integer', 'real') AND json_extract(meta, ?) = ?))`,
			expectArgs: []any{`$."a"`, `$."a"`, int64(2), `$."b"`, `$."b"`, int64(1)},
		},
	}
	for _, testCase := range testCases {
		p, err := compileWhere(testCase.where)
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expectSQL, p.sql, testCase.description)
		assert.Equal(t, testCase.expectArgs, p.args, testCase.description)
	}
}

func TestCompileWhereDocument(t *testing.T) {
	p, err := compileWhereDocument(WhereDocument{"$or": []any{
		map[string]any{"$contains": "f1"},
		map[string]any{"$not_contains": "golf"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "((instr(document, ?) > 0) OR (document IS NULL OR instr(document, ?) = 0))", p.sql)
	assert.Equal(t, []any{"f1", "golf"}, p.args)

	_, err = compileWhereDocument(WhereDocument{"$regex": "x"})
	assert.Equal(t, mmerr.CodeStoreWhereInvalid, mmerr.CodeOf(err))
	_, err = compileWhereDocument(WhereDocument{"$contains": 1})
	assert.Equal(t, mmerr.CodeStoreWhereInvalid, mmerr.CodeOf(err))
}

func TestMetadataCoercion(t *testing.T) {
	enc, err := encodeMetadata(result.Metadata{"item_id": "1", "n": 3, "f": float32(0.5), "ok": false})
	require.NoError(t, err)
	assert.Equal(t, `{"f":0.5,"item_id":"1","n":3,"ok":false}`, enc.String)

	dec, err := decodeMetadata(enc)
	require.NoError(t, err)
	assert.Equal(t, result.Metadata{"item_id": "1", "n": int64(3), "f": 0.5, "ok": false}, dec)

	empty, err := encodeMetadata(result.Metadata{})
	require.NoError(t, err)
	assert.False(t, empty.Valid)

	v, err := scalar(uint(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)
	if bits.UintSize == 64 {
		_, err = scalar(^uint(0))
		assert.Error(t, err)
		_, err = encodeMetadata(result.Metadata{"k": ^uint(0)})
		assert.True(t, mmerr.IsInvalidInput(err))
	}
	_, err = scalar(uint64(math.MaxUint64))
	assert.Error(t, err)

	for _, md := range []result.Metadata{{"$k": 1}, {"": 1}, {"k": nil}, {"k": map[string]any{}}} {
		_, err := encodeMetadata(md)
		assert.True(t, mmerr.IsInvalidInput(err), "%v", md)
	}
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}
