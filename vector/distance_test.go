package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	c := []float32{1, 0}

	sim, err := CosineSimilarity(a, b)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)

	sim, err = CosineSimilarity(a, c)
	require.NoError(t, err)
	assert.Equal(t, 1.0, sim)

	_, err = CosineSimilarity(a, []float32{1, 2, 3})
	assert.Error(t, err)
	_, err = CosineSimilarity([]float32{0, 0}, a)
	assert.Error(t, err)
}

func TestL2Distance(t *testing.T) {
	d, err := L2Distance([]float32{0, 0}, []float32{3, 4})
	require.NoError(t, err)
	assert.Equal(t, 5.0, d)

	sq, err := SquaredL2Distance([]float32{0, 0}, []float32{3, 4})
	require.NoError(t, err)
	assert.Equal(t, 25.0, sq)
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	zero := Normalize([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)
}
