package embedding

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/cache"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/config"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
)

type countingProvider struct {
	calls int
	vec   []float32
	err   error
}

func (p *countingProvider) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return append([]float32(nil), p.vec...), nil
}

func (p *countingProvider) GetModel() string { return "fake" }

func TestCached(t *testing.T) {
	inner := &countingProvider{vec: []float32{1, 2, 3}}
	c := NewCached(inner, cache.NewLRU[[]float32](4, -1))

	v1, err := c.GetEmbedding(context.Background(), "maternity benefit")
	require.NoError(t, err)
	v1[0] = 99 // callers may mutate their copy

	v2, err := c.GetEmbedding(context.Background(), "maternity benefit")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, v2)
	assert.Equal(t, 1, inner.calls)

	_, err = c.GetEmbedding(context.Background(), "gratuity")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

type closingProvider struct {
	countingProvider
	closed int
}

func (p *closingProvider) Close() error { p.closed++; return nil }

func TestCached_Close(t *testing.T) {
	inner := &closingProvider{countingProvider: countingProvider{vec: []float32{1}}}
	lru := cache.NewLRU[[]float32](4, -1)
	c := NewCached(inner, lru)

	_, err := c.GetEmbedding(context.Background(), "gratuity")
	require.NoError(t, err)
	require.Equal(t, 1, lru.Len())

	require.NoError(t, c.Close())
	assert.Equal(t, 0, lru.Len(), "cache is purged")
	assert.Equal(t, 1, inner.closed)

	plain := NewCached(&countingProvider{vec: []float32{1}}, cache.NewLRU[[]float32](4, -1))
	assert.NoError(t, plain.Close(), "providers without Close are left alone")
}

func TestCached_ErrorsNotCached(t *testing.T) {
	inner := &countingProvider{err: errors.New("down")}
	c := NewCached(inner, cache.NewLRU[[]float32](4, -1))
	_, err := c.GetEmbedding(context.Background(), "q")
	require.Error(t, err)
	_, err = c.GetEmbedding(context.Background(), "q")
	require.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestOpenAIProvider_GetEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"object":"list","model":"text-embedding-3-small",
"data":[{"object":"embedding","index":0,"embedding":[0.5,-0.25,1]}],
"usage":{"prompt_tokens":3,"total_tokens":3}}`)
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(config.EmbeddingConfig{Provider: "openai", APIKey: "k", BaseURL: srv.URL, Model: "text-embedding-3-small"}, srv.Client())
	require.NoError(t, err)
	v, err := p.GetEmbedding(context.Background(), "wages")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.25, 1}, v)

	p.dimensions = 4
	_, err = p.GetEmbedding(context.Background(), "wages")
	assert.Error(t, err, "dimension mismatch is reported")
}

func TestNewProvider_MissingKey(t *testing.T) {
	_, err := NewProvider(context.Background(), config.EmbeddingConfig{Provider: "azure", Model: "m"}, nil)
	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.KindConfiguration))
	assert.ErrorIs(t, err, schema.ErrMissingCredentials)
}
