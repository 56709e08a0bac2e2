// Package openai provides a text embedding function backed by the OpenAI
// embeddings API.
package openai

import (
	"context"
	"sort"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"

	"github.com/viant/mmvec/embedding"
	mmerr "github.com/viant/mmvec/errors"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "text-embedding-3-small"

// Config holds OpenAI embedding configuration.
type Config struct {
	APIKey        string
	BaseURL       string // optional, useful for testing against a mock server
	Model         string
	Dimensions    int
	BatchSize     int
	RatePerSecond float64
	MaxRetries    int
}

// Function implements embedding.Function using the embeddings endpoint.
type Function struct {
	client  openaisdk.Client
	config  Config
	limiter *rate.Limiter
}

// New creates an OpenAI embedding function. Returns an error if the API key is missing.
func New(cfg Config) (*Function, error) {
	if cfg.APIKey == "" {
		return nil, mmerr.New(mmerr.CodeEmbeddingRequestInvalid, "openai: missing api key", mmerr.Field("provider", "openai"))
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Function{
		client:  openaisdk.NewClient(opts...),
		config:  cfg,
		limiter: embedding.NewLimiter(cfg.RatePerSecond),
	}, nil
}

func (f *Function) Name() string { return "openai/" + f.config.Model }

// Embed implements embedding.Function. Image inputs are rejected.
func (f *Function) Embed(ctx context.Context, inputs []embedding.Input) ([][]float32, error) {
	for i, in := range inputs {
		if in.IsImage() {
			return nil, mmerr.New(mmerr.CodeEmbeddingModalityInvalid, "openai: image inputs are not supported",
				mmerr.Field("model", f.config.Model), mmerr.Field("position", i))
		}
	}
	return embedding.Batched(ctx, inputs, f.config.BatchSize, f.limiter, f.embedBatch)
}

func (f *Function) embedBatch(ctx context.Context, batch []embedding.Input) ([][]float32, error) {
	resp, err := f.client.Embeddings.New(ctx, buildParams(f.config, batch))
	if err != nil {
		return nil, mmerr.Wrapf(err, mmerr.CodeEmbeddingUpstreamFailure, "openai: creating embeddings")
	}
	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })
	out := make([][]float32, len(data))
	for i, item := range data {
		vec := make([]float32, len(item.Embedding))
		for j, x := range item.Embedding {
			vec[j] = float32(x)
		}
		out[i] = vec
	}
	return out, nil
}

func buildParams(cfg Config, batch []embedding.Input) openaisdk.EmbeddingNewParams {
	texts := make([]string, len(batch))
	for i, in := range batch {
		texts[i] = in.Text
	}
	params := openaisdk.EmbeddingNewParams{
		Input:          openaisdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:          openaisdk.EmbeddingModel(cfg.Model),
		EncodingFormat: openaisdk.EmbeddingNewParamsEncodingFormatFloat,
	}
	if cfg.Dimensions > 0 {
		params.Dimensions = openaisdk.Int(int64(cfg.Dimensions))
	}
	return params
}

// Factory adapts New to embedding.Factory.
func Factory(_ context.Context, cfg embedding.Config) (embedding.Function, error) {
	return New(Config{
		APIKey:        cfg.APIKey,
		BaseURL:       cfg.BaseURL,
		Model:         cfg.Model,
		Dimensions:    cfg.Dimensions,
		BatchSize:     cfg.BatchSize,
		RatePerSecond: cfg.RatePerSecond,
	})
}
