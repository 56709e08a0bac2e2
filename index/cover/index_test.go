package cover

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mmvec/index/bruteforce"
	"github.com/viant/mmvec/vector"
)

func randomVectors(n, dim int) ([]string, [][]float32) {
	rng := rand.New(rand.NewSource(42))
	ids := make([]string, n)
	vecs := make([][]float32, n)
	for i := range ids {
		ids[i] = string(rune('a'+i%26)) + string(rune('A'+i/26))
		v := make([]float32, dim)
		for j := range v {
			v[j] = rng.Float32()*2 - 1
		}
		vecs[i] = v
	}
	return ids, vecs
}

func TestIndex_AgreesWithBruteForce(t *testing.T) {
	ids, vecs := randomVectors(200, 8)
	query := vecs[17]
	for _, metric := range []vector.Metric{vector.MetricL2, vector.MetricCosine} {
		cv := New(metric)
		require.NoError(t, cv.Build(ids, vecs))
		bf := bruteforce.New(metric)
		require.NoError(t, bf.Build(ids, vecs))

		gotIDs, gotDists, err := cv.Query(query, 5)
		require.NoError(t, err)
		_, wantDists, err := bf.Query(query, 5)
		require.NoError(t, err)
		require.Len(t, gotIDs, 5)
		assert.Equal(t, ids[17], gotIDs[0], metric)
		for n := range wantDists {
			assert.InDelta(t, wantDists[n], gotDists[n], 1e-4, metric)
		}
	}
}

func TestIndex_RanksMatchBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ids, vecs := randomVectors(200, 8)
	for j := range vecs {
		vecs[j] = vector.Normalize(vecs[j])
	}
	for _, metric := range []vector.Metric{vector.MetricL2, vector.MetricCosine} {
		cv := New(metric)
		require.NoError(t, cv.Build(ids, vecs))
		bf := bruteforce.New(metric)
		require.NoError(t, bf.Build(ids, vecs))

		for q := 0; q < 20; q++ {
			query := make([]float32, 8)
			for j := range query {
				query[j] = rng.Float32()*2 - 1
			}
			gotIDs, gotDists, err := cv.Query(query, 10)
			require.NoError(t, err)
			wantIDs, wantDists, err := bf.Query(query, 10)
			require.NoError(t, err)
			require.Equal(t, wantIDs, gotIDs, "%s query %d", metric, q)
			for n := range wantDists {
				assert.InDelta(t, wantDists[n], gotDists[n], 1e-4, metric)
				assert.GreaterOrEqual(t, gotDists[n], 0.0, metric)
			}
		}
	}
}

func TestIndex_CosineSkipsZeroVectors(t *testing.T) {
	cv := New(vector.MetricCosine)
	require.NoError(t, cv.Build([]string{"zero", "x", "y"}, [][]float32{{0, 0}, {2, 0}, {0, 3}}))
	ids, dists, err := cv.Query([]float32{1, 1}, 5)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x", "y"}, ids)
	assert.InDelta(t, 1-1/math.Sqrt2, dists[0], 1e-6)

	ids, _, err = cv.Query([]float32{0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, ids)

	data, err := cv.MarshalBinary()
	require.NoError(t, err)
	restored := New(vector.MetricCosine)
	require.NoError(t, restored.UnmarshalBinary(data))
	assert.Equal(t, 3, restored.Len())
}

func TestIndex_BinaryRoundTrip(t *testing.T) {
	ids, vecs := randomVectors(20, 4)
	cv := New(vector.MetricL2)
	require.NoError(t, cv.Build(ids, vecs))
	data, err := cv.MarshalBinary()
	require.NoError(t, err)
	assert.True(t, IsCoverBlob(data))

	restored := New(vector.MetricL2)
	require.NoError(t, restored.UnmarshalBinary(data))
	assert.Equal(t, 20, restored.Len())

	assert.Error(t, restored.UnmarshalBinary(data[4:]))
}

func TestIndex_RejectsInnerProduct(t *testing.T) {
	cv := New(vector.MetricIP)
	assert.Error(t, cv.Build([]string{"a"}, [][]float32{{1}}))
}
