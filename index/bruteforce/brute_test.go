package bruteforce

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mmvec/vector"
)

func TestIndex_QueryOrdersByDistance(t *testing.T) {
	idx := New(vector.MetricL2)
	require.NoError(t, idx.Build(
		[]string{"a", "b", "c"},
		[][]float32{{0, 0}, {3, 4}, {1, 1}},
	))

	ids, dists, err := idx.Query([]float32{0, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids)
	assert.Equal(t, []float64{0, 2}, dists)

	ids, _, err = idx.Query([]float32{0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, ids, 3)
}

func TestIndex_CosineSkipsZeroVectors(t *testing.T) {
	idx := New(vector.MetricCosine)
	require.NoError(t, idx.Build([]string{"z", "x"}, [][]float32{{0, 0}, {1, 0}}))
	ids, dists, err := idx.Query([]float32{1, 0}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, ids)
	assert.InDelta(t, 0, dists[0], 1e-9)
}

func TestIndex_Errors(t *testing.T) {
	idx := New(vector.MetricL2)
	assert.Error(t, idx.Build([]string{"a"}, nil))
	assert.Error(t, idx.Build([]string{"a", "b"}, [][]float32{{1}, {1, 2}}))

	require.NoError(t, idx.Build([]string{"a"}, [][]float32{{1, 2}}))
	_, _, err := idx.Query([]float32{1}, 1)
	assert.Error(t, err)
}

func TestIndex_BinaryRoundTrip(t *testing.T) {
	idx := New(vector.MetricCosine)
	require.NoError(t, idx.Build([]string{"one", "two"}, [][]float32{{1, 0}, {0, 1}}))
	data, err := idx.MarshalBinary()
	require.NoError(t, err)

	restored := New(vector.MetricCosine)
	require.NoError(t, restored.UnmarshalBinary(data))
	assert.Equal(t, 2, restored.Len())
	ids, _, err := restored.Query([]float32{0, 1}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"two"}, ids)

	_, _, err = Decode(data[:len(data)-3])
	assert.Error(t, err)
}

func TestIndex_Empty(t *testing.T) {
	idx := New("")
	require.NoError(t, idx.Build(nil, nil))
	ids, _, err := idx.Query([]float32{1}, 3)
	require.NoError(t, err)
	assert.Empty(t, ids)

	data, err := idx.MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, New("").UnmarshalBinary(data))
}

func TestDecode_RejectsOversizedCount(t *testing.T) {
	blob := Encode([]string{"a"}, [][]float32{{1, 2}}, 2)
	_, _, err := Decode(blob)
	require.NoError(t, err)

	corrupt := append([]byte(nil), blob...)
	binary.LittleEndian.PutUint32(corrupt[4:8], math.MaxUint32)
	_, _, err = Decode(corrupt)
	assert.Error(t, err)

	binary.LittleEndian.PutUint32(corrupt[0:4], 0)
	_, _, err = Decode(corrupt)
	assert.Error(t, err)
}
