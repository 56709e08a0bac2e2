package openai

import (
	openaisdk "github.com/openai/openai-go"

	"github.com/viant/mmvec/embedding"
)

// BuildParams exposes buildParams for white-box testing.
var BuildParams = func(cfg Config, batch []embedding.Input) openaisdk.EmbeddingNewParams {
	return buildParams(cfg, batch)
}
