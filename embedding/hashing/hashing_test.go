package hashing_test

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/mmvec/embedding"
	"github.com/viant/mmvec/embedding/hashing"
	"github.com/viant/mmvec/vector"
)

func solid(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestEmbedTextDeterministic(t *testing.T) {
	fn := hashing.New(128)
	assert.Equal(t, "hash-128", fn.Name())
	a, err := fn.Embed(context.Background(), embedding.Texts("Formula One racing car", "formula one RACING car"))
	require.NoError(t, err)
	require.Len(t, a, 2)
	require.Len(t, a[0], 128)
	assert.Equal(t, a[0], a[1])

	sim, err := vector.CosineSimilarity(a[0], a[0])
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-5)
}

func TestEmbedTextRanksOverlap(t *testing.T) {
	fn := hashing.New(256)
	vecs, err := fn.Embed(context.Background(), embedding.Texts("sports f1", "f1 car on a sports track", "bowl of fruit"))
	require.NoError(t, err)
	near, err := vector.CosineSimilarity(vecs[0], vecs[1])
	require.NoError(t, err)
	far, err := vector.CosineSimilarity(vecs[0], vecs[2])
	require.NoError(t, err)
	assert.Greater(t, near, far)
}

func TestEmbedImage(t *testing.T) {
	fn := hashing.New(0)
	assert.Equal(t, hashing.DefaultDimension, fn.Dimension())
	red := solid(color.RGBA{R: 255, A: 255})
	vecs, err := fn.Embed(context.Background(), embedding.Images(red, red, solid(color.RGBA{B: 255, A: 255})))
	require.NoError(t, err)
	assert.Equal(t, vecs[0], vecs[1])
	assert.NotEqual(t, vecs[0], vecs[2])
	sim, err := vector.CosineSimilarity(vecs[0], vecs[0])
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-5)
}

func TestEmbedEmptyText(t *testing.T) {
	vecs, err := hashing.New(8).Embed(context.Background(), embedding.Texts(""))
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), vecs[0])
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"sports", "f1"}, hashing.Tokenize("Sports, F1"))
	assert.Empty(t, hashing.Tokenize(" ,.; "))
}

func TestEmbedCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := hashing.New(8).Embed(ctx, embedding.Texts("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
