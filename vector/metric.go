package vector

import (
	"fmt"
	"strings"
)

// Metric names the distance space of a collection. Smaller distances mean
// closer records for every metric.
type Metric string

const (
	// MetricL2 is the squared Euclidean distance.
	MetricL2 Metric = "l2"
	// MetricCosine is 1 - cosine similarity.
	MetricCosine Metric = "cosine"
	// MetricIP is 1 - inner product; meaningful for normalized embeddings.
	MetricIP Metric = "ip"
)

// DefaultMetric is used when a collection does not specify one.
const DefaultMetric = MetricL2

// ParseMetric resolves a metric name; an empty name yields DefaultMetric.
func ParseMetric(name string) (Metric, error) {
	switch Metric(strings.ToLower(strings.TrimSpace(name))) {
	case "":
		return DefaultMetric, nil
	case MetricL2, "euclidean":
		return MetricL2, nil
	case MetricCosine, "cos":
		return MetricCosine, nil
	case MetricIP, "dot":
		return MetricIP, nil
	}
	return "", fmt.Errorf("vector: unsupported metric %q", name)
}

// Distance computes the metric distance between a and b.
func (m Metric) Distance(a, b []float32) (float64, error) {
	switch m {
	case MetricL2, "":
		return SquaredL2Distance(a, b)
	case MetricCosine:
		sim, err := CosineSimilarity(a, b)
		if err != nil {
			return 0, err
		}
		return max(0, 1-sim), nil
	case MetricIP:
		dot, err := InnerProduct(a, b)
		if err != nil {
			return 0, err
		}
		return 1 - dot, nil
	}
	return 0, fmt.Errorf("vector: unsupported metric %q", string(m))
}

// IsMetricSpace reports whether a cover tree can serve the metric. Cosine
// qualifies because it is ranked by euclidean distance between unit vectors.
func (m Metric) IsMetricSpace() bool {
	return m == MetricL2 || m == MetricCosine
}
