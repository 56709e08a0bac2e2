// Package google provides an embedding function backed by the Gemini API.
// The default model embeds text only; image inputs are sent as inline PNG
// parts when Config.Images declares a model that accepts them.
package google

import (
	"bytes"
	"context"
	"image/png"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/viant/mmvec/embedding"
	mmerr "github.com/viant/mmvec/errors"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-embedding-001"

// Config holds Gemini embedding configuration.
type Config struct {
	APIKey        string
	BaseURL       string
	Model         string
	Dimensions    int
	BatchSize     int
	RatePerSecond float64
	Images        bool
}

// Function implements embedding.Function using Models.EmbedContent.
type Function struct {
	client  *genai.Client
	config  Config
	limiter *rate.Limiter
}

// New creates a Gemini embedding function. Returns an error if the API key is missing.
func New(ctx context.Context, cfg Config) (*Function, error) {
	if cfg.APIKey == "" {
		return nil, mmerr.New(mmerr.CodeEmbeddingRequestInvalid, "google: missing api key", mmerr.Field("provider", "google"))
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, mmerr.Wrapf(err, mmerr.CodeEmbeddingUpstreamFailure, "google: creating client")
	}
	return &Function{client: client, config: cfg, limiter: embedding.NewLimiter(cfg.RatePerSecond)}, nil
}

func (f *Function) Name() string { return "google/" + f.config.Model }

// Embed implements embedding.Function. Image inputs fail unless Config.Images
// is set.
func (f *Function) Embed(ctx context.Context, inputs []embedding.Input) ([][]float32, error) {
	if !f.config.Images {
		for i, in := range inputs {
			if in.IsImage() {
				return nil, mmerr.New(mmerr.CodeEmbeddingModalityInvalid, "google: model is not configured for image inputs",
					mmerr.Field("model", f.config.Model), mmerr.Field("position", i))
			}
		}
	}
	return embedding.Batched(ctx, inputs, f.config.BatchSize, f.limiter, f.embedBatch)
}

func (f *Function) embedBatch(ctx context.Context, batch []embedding.Input) ([][]float32, error) {
	contents, err := toContents(batch)
	if err != nil {
		return nil, err
	}
	var cfg *genai.EmbedContentConfig
	if f.config.Dimensions > 0 {
		dim := int32(f.config.Dimensions)
		cfg = &genai.EmbedContentConfig{OutputDimensionality: &dim}
	}
	resp, err := f.client.Models.EmbedContent(ctx, f.config.Model, contents, cfg)
	if err != nil {
		return nil, mmerr.Wrapf(err, mmerr.CodeEmbeddingUpstreamFailure, "google: embedding content")
	}
	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e == nil {
			return nil, mmerr.New(mmerr.CodeEmbeddingUpstreamFailure, "google: empty embedding", mmerr.Field("position", i))
		}
		out[i] = e.Values
	}
	return out, nil
}

func toContents(batch []embedding.Input) ([]*genai.Content, error) {
	contents := make([]*genai.Content, len(batch))
	for i, in := range batch {
		if !in.IsImage() {
			contents[i] = genai.NewContentFromText(in.Text, genai.RoleUser)
			continue
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, in.Image); err != nil {
			return nil, mmerr.Wrap(err, mmerr.CodeEmbeddingRequestInvalid, "google: encoding image", mmerr.Field("position", i))
		}
		contents[i] = genai.NewContentFromParts([]*genai.Part{genai.NewPartFromBytes(buf.Bytes(), "image/png")}, genai.RoleUser)
	}
	return contents, nil
}

// Factory adapts New to embedding.Factory.
func Factory(ctx context.Context, cfg embedding.Config) (embedding.Function, error) {
	return New(ctx, Config{
		APIKey:        cfg.APIKey,
		BaseURL:       cfg.BaseURL,
		Model:         cfg.Model,
		Dimensions:    cfg.Dimensions,
		BatchSize:     cfg.BatchSize,
		RatePerSecond: cfg.RatePerSecond,
		Images:        cfg.Images,
	})
}
