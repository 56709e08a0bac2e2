package cover

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/viant/mmvec/index/bruteforce"
	"github.com/viant/mmvec/internal/cover/tree"
	"github.com/viant/mmvec/vector"
)

var magic = []byte("COV1")

// DefaultBase is the cover tree expansion base.
const DefaultBase float32 = 1.3

// Index implements a kNN index backed by a cover tree.
type Index struct {
	metric vector.Metric
	base   float32
	ids    []string
	vecs   [][]float32
	dim    int
	tree   *tree.Tree[string]
}

// New creates an empty cover index. Metrics that are not metric spaces are
// rejected at Build time.
func New(metric vector.Metric) *Index {
	if metric == "" {
		metric = vector.DefaultMetric
	}
	return &Index{metric: metric, base: DefaultBase}
}

// IsCoverBlob reports whether an uncompressed blob was produced by Index.
func IsCoverBlob(blob []byte) bool {
	return bytes.HasPrefix(blob, magic)
}

// Len returns the number of indexed vectors.
func (i *Index) Len() int { return len(i.ids) }

// The tree always measures euclidean distance. Cosine indexes store unit
// vectors, where 1 - cos(a, b) == |a - b|^2 / 2.
func (i *Index) checkMetric() error {
	switch i.metric {
	case vector.MetricCosine, vector.MetricL2:
		return nil
	}
	return fmt.Errorf("cover: metric %q is not supported", i.metric)
}

// point maps v into the tree's space. ok is false for vectors cosine cannot
// score.
func (i *Index) point(v []float32) (*tree.Point, bool) {
	if i.metric != vector.MetricCosine {
		return tree.NewPoint(v), true
	}
	unit := vector.Normalize(append([]float32(nil), v...))
	for _, x := range unit {
		if x != 0 {
			return tree.NewPoint(unit), true
		}
	}
	return nil, false
}

func (i *Index) distance(d float32) float64 {
	dd := float64(d) * float64(d)
	if i.metric == vector.MetricCosine {
		dd /= 2
	}
	return dd
}

// Build inserts every vector into a fresh tree.
func (i *Index) Build(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return errors.New("cover: ids/vectors length mismatch")
	}
	if err := i.checkMetric(); err != nil {
		return err
	}
	i.ids = append([]string(nil), ids...)
	i.vecs = append([][]float32(nil), vectors...)
	i.dim = 0
	i.tree = tree.New[string](i.base, tree.DistanceFunctionEuclidean)
	if len(vectors) == 0 {
		return nil
	}
	i.dim = len(vectors[0])
	for j := range vectors {
		if len(vectors[j]) != i.dim {
			return errors.New("cover: inconsistent dims")
		}
		if p, ok := i.point(vectors[j]); ok {
			i.tree.Insert(ids[j], p)
		}
	}
	return nil
}

// Query returns up to k ids ordered by ascending distance.
func (i *Index) Query(query []float32, k int) ([]string, []float64, error) {
	if i.tree == nil || i.dim == 0 {
		return nil, nil, nil
	}
	if len(query) != i.dim {
		return nil, nil, fmt.Errorf("cover: query dim %d != index dim %d", len(query), i.dim)
	}
	q, ok := i.point(query)
	if !ok {
		return nil, nil, nil
	}
	found := i.tree.KNearest(q, k)
	ids := make([]string, len(found))
	dists := make([]float64, len(found))
	for n, nb := range found {
		ids[n] = i.tree.Value(nb.Point)
		dists[n] = i.distance(nb.Distance)
	}
	return ids, dists, nil
}

// MarshalBinary writes the COV1 prefix followed by the brute-force payload.
func (i *Index) MarshalBinary() ([]byte, error) {
	payload := bruteforce.Encode(i.ids, i.vecs, i.dim)
	return append(append([]byte(nil), magic...), payload...), nil
}

// UnmarshalBinary loads the payload and rebuilds the tree.
func (i *Index) UnmarshalBinary(data []byte) error {
	if !IsCoverBlob(data) {
		return errors.New("cover: missing COV1 prefix")
	}
	ids, vecs, err := bruteforce.Decode(data[len(magic):])
	if err != nil {
		return err
	}
	return i.Build(ids, vecs)
}
