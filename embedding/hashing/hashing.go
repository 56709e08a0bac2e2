// Package hashing implements a deterministic, dependency-free embedding
// function based on feature hashing. It needs no network access and is the
// default provider for local collections and tests.
//
// Text is lower-cased and split into tokens; each token and each adjacent
// token pair is hashed into one of dim buckets with a signed weight. Images
// are reduced to a 16x16 grayscale thumbnail plus a 4x4x4 colour histogram,
// both hashed into the same buckets. Vectors are L2-normalized, so identical
// content always produces identical vectors.
//
// Text and image features occupy the same space but are not semantically
// aligned: a text query will not meaningfully rank images.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/image/draw"

	"github.com/viant/mmvec/embedding"
	mmerr "github.com/viant/mmvec/errors"
	"github.com/viant/mmvec/vector"
)

const (
	DefaultDimension = 512
	thumbnailSide    = 16
	histogramBins    = 4
	bigramWeight     = 0.5
)

// Function is the feature-hashing embedding function.
type Function struct {
	dim int
}

// New returns a hashing function producing dim-dimensional vectors.
// dim <= 0 selects DefaultDimension.
func New(dim int) *Function {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &Function{dim: dim}
}

// Name identifies the function and its dimension, e.g. "hash-512".
func (f *Function) Name() string { return "hash-" + strconv.Itoa(f.dim) }

// Dimension returns the output vector length.
func (f *Function) Dimension() int { return f.dim }

// Embed implements embedding.Function.
func (f *Function) Embed(ctx context.Context, inputs []embedding.Input) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if in.IsImage() {
			out[i] = f.embedImage(in.Image)
			continue
		}
		out[i] = f.embedText(in.Text)
	}
	return out, nil
}

func (f *Function) embedText(text string) []float32 {
	v := make([]float32, f.dim)
	tokens := Tokenize(text)
	for i, tok := range tokens {
		f.add(v, "t:"+tok, 1)
		if i > 0 {
			f.add(v, "b:"+tokens[i-1]+" "+tok, bigramWeight)
		}
	}
	return vector.Normalize(v)
}

func (f *Function) embedImage(img image.Image) []float32 {
	v := make([]float32, f.dim)
	if img.Bounds().Empty() {
		return v
	}
	thumb := image.NewGray(image.Rect(0, 0, thumbnailSide, thumbnailSide))
	draw.ApproxBiLinear.Scale(thumb, thumb.Bounds(), img, img.Bounds(), draw.Src, nil)
	var mean float64
	for _, p := range thumb.Pix {
		mean += float64(p)
	}
	mean /= float64(len(thumb.Pix))
	for i, p := range thumb.Pix {
		f.add(v, "p:"+strconv.Itoa(i), float32((float64(p)-mean)/255))
	}

	var hist [histogramBins * histogramBins * histogramBins]float64
	b := img.Bounds()
	step := max(1, max(b.Dx(), b.Dy())/128)
	var total float64
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r, g, bl, _ := img.At(x, y).RGBA()
			bin := bucket(r)*histogramBins*histogramBins + bucket(g)*histogramBins + bucket(bl)
			hist[bin]++
			total++
		}
	}
	for i, c := range hist {
		if c > 0 {
			f.add(v, "h:"+strconv.Itoa(i), float32(c/total))
		}
	}
	return vector.Normalize(v)
}

func bucket(c uint32) int {
	return int(c>>8) * histogramBins / 256
}

func (f *Function) add(v []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(f.dim))
	if sum>>63 == 1 {
		weight = -weight
	}
	v[idx] += weight
}

// Tokenize lower-cases text and splits it on anything that is not a letter or
// digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Factory adapts New to embedding.Factory.
func Factory(_ context.Context, cfg embedding.Config) (embedding.Function, error) {
	if cfg.Dimensions < 0 {
		return nil, mmerr.New(mmerr.CodeEmbeddingRequestInvalid, fmt.Sprintf("hashing: invalid dimensions %d", cfg.Dimensions))
	}
	return New(cfg.Dimensions), nil
}
