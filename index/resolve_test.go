package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mmvec/index/cover"
	"github.com/viant/mmvec/vector"
)

func TestParseKind(t *testing.T) {
	k, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindAuto, k)
	k, err = ParseKind("Cover")
	require.NoError(t, err)
	assert.Equal(t, KindCover, k)
	_, err = ParseKind("hnsw")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	assert.Equal(t, KindBrute, Resolve(KindAuto, vector.MetricL2, 10, 512))
	assert.Equal(t, KindCover, Resolve(KindAuto, vector.MetricL2, 20000, 64))
	assert.Equal(t, KindBrute, Resolve(KindAuto, vector.MetricL2, 5000, 512))
	assert.Equal(t, KindCover, Resolve(KindCover, vector.MetricCosine, 1, 1))
	assert.Equal(t, KindBrute, Resolve(KindCover, vector.MetricIP, 20000, 64))
}

func TestEncodeDecode(t *testing.T) {
	for _, kind := range []Kind{KindBrute, KindCover} {
		idx := New(kind, vector.MetricCosine)
		require.NoError(t, idx.Build([]string{"a", "b"}, [][]float32{{1, 0}, {0, 1}}))
		blob, err := Encode(idx)
		require.NoError(t, err)

		restored, err := Decode(blob, vector.MetricCosine)
		require.NoError(t, err)
		_, isCover := restored.(*cover.Index)
		assert.Equal(t, kind == KindCover, isCover)

		ids, dists, err := restored.Query([]float32{0, 1}, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, ids)
		assert.InDelta(t, 0, dists[0], 1e-6)
	}

	_, err := Decode([]byte("not zstd"), vector.MetricL2)
	assert.Error(t, err)
}
