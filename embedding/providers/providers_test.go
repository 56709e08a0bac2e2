package providers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/mmvec/embedding"
	"github.com/viant/mmvec/embedding/providers"
	mmerr "github.com/viant/mmvec/errors"
)

func TestDefault(t *testing.T) {
	reg := providers.Default()
	assert.Equal(t, []string{"google", "hash", "openai"}, reg.Names())

	fn, err := reg.New(context.Background(), embedding.Config{Provider: providers.Hash, Dimensions: 64})
	require.NoError(t, err)
	assert.Equal(t, "hash-64", fn.Name())

	_, err = reg.New(context.Background(), embedding.Config{Provider: providers.OpenAI})
	assert.True(t, mmerr.IsInvalidInput(err))
}
