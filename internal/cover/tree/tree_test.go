package tree

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTree_KNearestMatchesExhaustiveSearch(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tr := New[int](1.3, DistanceFunctionEuclidean)
	var points []*Point
	for i := 0; i < 300; i++ {
		p := NewPoint([]float32{rng.Float32(), rng.Float32(), rng.Float32()})
		points = append(points, p)
		tr.Insert(i, p)
	}
	require.Equal(t, 300, tr.Len())

	query := NewPoint([]float32{0.5, 0.5, 0.5})
	got := tr.KNearest(query, 5)
	require.Len(t, got, 5)

	want := make([]float32, len(points))
	for i, p := range points {
		want[i] = EuclideanDistance(query, p)
	}
	sort.Slice(want, func(a, b int) bool { return want[a] < want[b] })
	for i := range got {
		assert.InDelta(t, want[i], got[i].Distance, 1e-6)
		if i > 0 {
			assert.LessOrEqual(t, got[i-1].Distance, got[i].Distance)
		}
	}
}

func TestTree_ValuesAndAll(t *testing.T) {
	tr := New[string](0, "")
	tr.Insert("x", NewPoint([]float32{1, 0}))
	tr.Insert("y", NewPoint([]float32{0, 1}))

	all := tr.KNearest(NewPoint([]float32{1, 0.1}), 0)
	require.Len(t, all, 2)
	assert.Equal(t, "x", tr.Value(all[0].Point))
	assert.Equal(t, "y", tr.Value(all[1].Point))
}

func TestTree_Empty(t *testing.T) {
	tr := New[string](2, DistanceFunctionEuclidean)
	assert.Empty(t, tr.KNearest(NewPoint([]float32{1}), 3))
}
