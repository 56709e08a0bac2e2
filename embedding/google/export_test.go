package google

import (
	"google.golang.org/genai"

	"github.com/viant/mmvec/embedding"
)

// ToContents exposes toContents for white-box testing.
var ToContents = func(batch []embedding.Input) ([]*genai.Content, error) {
	return toContents(batch)
}
