package openai_test

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/mmvec/embedding"
	"github.com/viant/mmvec/embedding/openai"
	mmerr "github.com/viant/mmvec/errors"
)

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

func newServer(t *testing.T, requests *[]embeddingRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		*requests = append(*requests, req)
		data := make([]map[string]any, len(req.Input))
		// reversed to check ordering by index
		for i := range req.Input {
			j := len(req.Input) - 1 - i
			data[i] = map[string]any{
				"object":    "embedding",
				"index":     j,
				"embedding": []float64{float64(len(req.Input[j])), 1},
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]any{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := openai.New(openai.Config{})
	require.Error(t, err)
	assert.True(t, mmerr.IsInvalidInput(err))
}

func TestEmbedBatches(t *testing.T) {
	var requests []embeddingRequest
	srv := newServer(t, &requests)
	fn, err := openai.New(openai.Config{APIKey: "test", BaseURL: srv.URL + "/v1/", BatchSize: 2})
	require.NoError(t, err)
	assert.Equal(t, "openai/text-embedding-3-small", fn.Name())

	vecs, err := fn.Embed(context.Background(), embedding.Texts("a", "bb", "ccc"))
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 1}, {2, 1}, {3, 1}}, vecs)
	require.Len(t, requests, 2)
	assert.Equal(t, []string{"a", "bb"}, requests[0].Input)
	assert.Equal(t, "text-embedding-3-small", requests[0].Model)
}

func TestEmbedRejectsImages(t *testing.T) {
	fn, err := openai.New(openai.Config{APIKey: "test"})
	require.NoError(t, err)
	_, err = fn.Embed(context.Background(), embedding.Images(image.NewGray(image.Rect(0, 0, 1, 1))))
	require.Error(t, err)
	assert.Equal(t, mmerr.CodeEmbeddingModalityInvalid, mmerr.CodeOf(err))
}

func TestEmbedUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()
	fn, err := openai.New(openai.Config{APIKey: "test", BaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)
	_, err = fn.Embed(context.Background(), embedding.Texts("x"))
	require.Error(t, err)
	assert.True(t, mmerr.IsUpstreamFailure(err))
}

func TestBuildParamsDimensions(t *testing.T) {
	params := openai.BuildParams(openai.Config{Model: "m", Dimensions: 256}, embedding.Texts("x"))
	assert.Equal(t, []string{"x"}, params.Input.OfArrayOfStrings)
	assert.Equal(t, int64(256), params.Dimensions.Value)
}
