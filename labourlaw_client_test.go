package labourlaw

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/config"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/registry"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/retriever"
)

type recordingCloser struct {
	closed int
	err    error
}

func (r *recordingCloser) Close() error { r.closed++; return r.err }

func TestLabourLawClient_CloseAggregates(t *testing.T) {
	ok := &recordingCloser{}
	broken := &recordingCloser{err: errors.New("socket already closed")}
	c := newLabourLawClient(config.Default(), registry.Default(), nil, broken, nil, ok)

	err := c.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "socket already closed")
	assert.Equal(t, 1, ok.closed, "a failing closer does not stop the rest")
	assert.Equal(t, 1, broken.closed)
}

func TestNewLabourLawClient_TracksClosableProviders(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Provider = "gemini"
	cfg.LLM.APIKey = "test-key"
	cfg.Embedding.Provider = "gemini"
	cfg.Embedding.APIKey = "test-key"
	cfg.Index.Root = t.TempDir()

	c, err := NewLabourLawClient(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, c.closers, 3, "llm, embedding and the index cache")
	_, isIndexCache := c.closers[2].(*retriever.IndexCache)
	assert.True(t, isIndexCache)
	assert.NoError(t, c.Close())
}

func TestNewLabourLawClient_ReleasesProvidersOnFailure(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Provider = "gemini"
	cfg.LLM.APIKey = "test-key"
	cfg.Embedding.Provider = "openai"
	cfg.Embedding.APIKey = "sk-test"
	cfg.Index.Provider = "faiss"

	c, err := NewLabourLawClient(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, c)
	assert.Contains(t, err.Error(), "unsupported index provider")

	cfg = config.Default()
	cfg.Index.Jurisdictions = map[string]string{"Central": "a", "central": "b"}
	_, err = NewLabourLawClient(context.Background(), cfg)
	require.Error(t, err, "registry problems surface before any provider is built")
	assert.Contains(t, err.Error(), "collides")
}
