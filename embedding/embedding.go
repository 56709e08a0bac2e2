// Package embedding defines the embedding function contract used by
// collections and the batching helpers shared by remote providers.
package embedding

import (
	"context"
	"image"
)

// Input is a single item to embed: either text or a decoded image.
type Input struct {
	Text  string
	Image image.Image
}

// IsImage reports whether the input carries image content.
func (i Input) IsImage() bool { return i.Image != nil }

// Function maps inputs to fixed-dimension vectors.
// Embed returns exactly one vector per input, in input order.
type Function interface {
	Name() string
	Embed(ctx context.Context, inputs []Input) ([][]float32, error)
}

// Texts wraps strings as text inputs.
func Texts(texts ...string) []Input {
	out := make([]Input, len(texts))
	for i, t := range texts {
		out[i] = Input{Text: t}
	}
	return out
}

// Images wraps decoded images as image inputs.
func Images(images ...image.Image) []Input {
	out := make([]Input, len(images))
	for i, img := range images {
		out[i] = Input{Image: img}
	}
	return out
}
