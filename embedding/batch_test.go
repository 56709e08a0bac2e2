package embedding_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/mmvec/embedding"
	mmerr "github.com/viant/mmvec/errors"
)

func TestBatchedSplitsInOrder(t *testing.T) {
	var sizes []int
	fn := func(_ context.Context, batch []embedding.Input) ([][]float32, error) {
		sizes = append(sizes, len(batch))
		out := make([][]float32, len(batch))
		for i, in := range batch {
			out[i] = []float32{float32(len(in.Text))}
		}
		return out, nil
	}
	inputs := embedding.Texts("a", "bb", "ccc", "dddd", "eeeee")
	vecs, err := embedding.Batched(context.Background(), inputs, 2, embedding.NewLimiter(1000), fn)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, sizes)
	assert.Equal(t, [][]float32{{1}, {2}, {3}, {4}, {5}}, vecs)
}

func TestBatchedRejectsShortResponse(t *testing.T) {
	fn := func(_ context.Context, batch []embedding.Input) ([][]float32, error) {
		return [][]float32{{1}}, nil
	}
	_, err := embedding.Batched(context.Background(), embedding.Texts("a", "b"), 0, nil, fn)
	require.Error(t, err)
	assert.True(t, mmerr.IsUpstreamFailure(err))
}

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, embedding.NewLimiter(0))
	l := embedding.NewLimiter(0.5)
	require.NotNil(t, l)
	assert.Equal(t, 1, l.Burst())
}

type fakeFunction struct{ name string }

func (f fakeFunction) Name() string { return f.name }
func (f fakeFunction) Embed(context.Context, []embedding.Input) ([][]float32, error) {
	return nil, nil
}

func TestRegistry(t *testing.T) {
	reg := embedding.NewRegistry()
	reg.Register("Fake", func(_ context.Context, cfg embedding.Config) (embedding.Function, error) {
		return fakeFunction{name: "fake-" + cfg.Model}, nil
	})
	assert.Equal(t, []string{"fake"}, reg.Names())

	fn, err := reg.New(context.Background(), embedding.Config{Provider: "FAKE", Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "fake-m", fn.Name())

	_, err = reg.New(context.Background(), embedding.Config{Provider: "missing"})
	assert.True(t, mmerr.IsNotFound(err))
}
