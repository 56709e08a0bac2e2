package index

import (
	"fmt"
	"strings"

	"github.com/viant/mmvec/index/bruteforce"
	"github.com/viant/mmvec/index/cover"
	"github.com/viant/mmvec/vector"
)

// Kind names an index implementation.
type Kind string

const (
	KindAuto  Kind = "auto"
	KindBrute Kind = "brute"
	KindCover Kind = "cover"
)

const (
	autoCoverMinDocs            = 4000
	autoCoverMinDim             = 64
	autoCoverMinDensity float64 = 16
)

// ParseKind resolves an index kind name; empty means KindAuto.
func ParseKind(name string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(name))) {
	case "", KindAuto:
		return KindAuto, nil
	case KindBrute, "bruteforce":
		return KindBrute, nil
	case KindCover:
		return KindCover, nil
	}
	return "", fmt.Errorf("index: unsupported kind %q", name)
}

// Resolve picks the concrete kind for a dataset. Cover trees are only used for
// metric spaces; auto switches to cover once the dataset is large and dense.
func Resolve(kind Kind, metric vector.Metric, docCount, dim int) Kind {
	if !metric.IsMetricSpace() {
		return KindBrute
	}
	switch kind {
	case KindCover, KindBrute:
		return kind
	}
	if docCount >= autoCoverMinDocs && dim >= autoCoverMinDim {
		if float64(docCount)/float64(dim) >= autoCoverMinDensity {
			return KindCover
		}
	}
	return KindBrute
}

// New returns an empty index of the given concrete kind.
func New(kind Kind, metric vector.Metric) Index {
	if kind == KindCover && metric.IsMetricSpace() {
		return cover.New(metric)
	}
	return bruteforce.New(metric)
}

// Decode reconstructs an index from a blob produced by Encode.
func Decode(blob []byte, metric vector.Metric) (Index, error) {
	data, err := decompress(blob)
	if err != nil {
		return nil, err
	}
	var idx Index = bruteforce.New(metric)
	if cover.IsCoverBlob(data) {
		idx = cover.New(metric)
	}
	if err := idx.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return idx, nil
}

// Encode serializes and compresses an index for persistence.
func Encode(idx Index) ([]byte, error) {
	data, err := idx.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return compress(data), nil
}
