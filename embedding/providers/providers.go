// Package providers registers the built-in embedding functions.
package providers

import (
	"github.com/viant/mmvec/embedding"
	"github.com/viant/mmvec/embedding/google"
	"github.com/viant/mmvec/embedding/hashing"
	"github.com/viant/mmvec/embedding/openai"
)

const (
	Hash   = "hash"
	OpenAI = "openai"
	Google = "google"
)

// Default returns a registry with the hash, openai and google providers.
func Default() *embedding.Registry {
	reg := embedding.NewRegistry()
	reg.Register(Hash, hashing.Factory)
	reg.Register(OpenAI, openai.Factory)
	reg.Register(Google, google.Factory)
	return reg
}
