package engine

import (
	"database/sql/driver"
	"fmt"
	"sync"

	"github.com/viant/mmvec/vector"
	sqlite "modernc.org/sqlite"
)

var registerOnce sync.Once

// RegisterVectorFunctions registers vec_cosine, vec_l2 and vec_distance with
// the driver so they are available on new connections opened after this call.
// Existing open connections will not see new functions.
//
//	vec_cosine(a, b)           cosine similarity
//	vec_l2(a, b)               euclidean distance
//	vec_distance(metric, a, b) distance in the named vector.Metric space, NULL when undefined
func RegisterVectorFunctions() {
	registerOnce.Do(func() {
		_ = sqlite.RegisterDeterministicScalarFunction("vec_cosine", 2, vecCosineImpl)
		_ = sqlite.RegisterDeterministicScalarFunction("vec_l2", 2, vecL2Impl)
		_ = sqlite.RegisterDeterministicScalarFunction("vec_distance", 3, vecDistanceImpl)
	})
}

func asEmbedding(arg driver.Value) ([]float32, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		return vector.DecodeEmbedding(v)
	default:
		return nil, fmt.Errorf("engine: unsupported argument type %T for embedding; want BLOB", arg)
	}
}

func embeddingPair(name string, args []driver.Value) ([]float32, []float32, error) {
	if len(args) != 2 {
		return nil, nil, fmt.Errorf("%s: expected 2 embedding arguments, got %d", name, len(args))
	}
	a, err := asEmbedding(args[0])
	if err != nil {
		return nil, nil, err
	}
	b, err := asEmbedding(args[1])
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func vecCosineImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	a, b, err := embeddingPair("vec_cosine", args)
	if err != nil || a == nil || b == nil {
		return nil, err
	}
	return vector.CosineSimilarity(a, b)
}

func vecL2Impl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	a, b, err := embeddingPair("vec_l2", args)
	if err != nil || a == nil || b == nil {
		return nil, err
	}
	return vector.L2Distance(a, b)
}

func vecDistanceImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("vec_distance: expected 3 arguments, got %d", len(args))
	}
	var name string
	switch v := args[0].(type) {
	case string:
		name = v
	case []byte:
		name = string(v)
	default:
		return nil, fmt.Errorf("vec_distance: metric must be TEXT, got %T", args[0])
	}
	metric, err := vector.ParseMetric(name)
	if err != nil {
		return nil, err
	}
	a, b, err := embeddingPair("vec_distance", args[1:])
	if err != nil || a == nil || b == nil {
		return nil, err
	}
	if len(a) != len(b) {
		return nil, fmt.Errorf("vec_distance: dimension mismatch: %d vs %d", len(a), len(b))
	}
	d, err := metric.Distance(a, b)
	if err != nil {
		// zero-magnitude vectors have no cosine distance
		return nil, nil
	}
	return d, nil
}
