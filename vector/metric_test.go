package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetric(t *testing.T) {
	for name, want := range map[string]Metric{
		"":          MetricL2,
		"L2":        MetricL2,
		"euclidean": MetricL2,
		"cosine":    MetricCosine,
		"ip":        MetricIP,
		"dot":       MetricIP,
	} {
		got, err := ParseMetric(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := ParseMetric("hamming")
	assert.Error(t, err)
}

func TestMetricDistance(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}

	d, err := MetricL2.Distance(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, d, 1e-9)

	d, err = MetricCosine.Distance(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, d, 1e-9)

	d, err = MetricIP.Distance(a, a)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, d, 1e-9)

	// rounding may push 1 - sim below zero for parallel vectors
	v := []float32{0.1, 0.7, 0.3, 0.2}
	w := []float32{0.2, 1.4, 0.6, 0.4}
	for _, pair := range [][2][]float32{{v, v}, {v, w}, {w, v}} {
		d, err = MetricCosine.Distance(pair[0], pair[1])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, d, 0.0)
		assert.InDelta(t, 0.0, d, 1e-9)
	}

	assert.True(t, MetricCosine.IsMetricSpace())
	assert.False(t, MetricIP.IsMetricSpace())
}
