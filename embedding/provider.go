package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/cache"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/config"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
)

// Provider turns text into a query vector.
type Provider interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
	GetModel() string
}

// NewProvider builds the configured embedding provider, wrapped in an LRU cache when cache_size > 0.
func NewProvider(ctx context.Context, cfg config.EmbeddingConfig, hc *http.Client) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, schema.ConfigurationError("embedding.new_provider", "", fmt.Errorf("%w for embedding provider %q", schema.ErrMissingCredentials, cfg.Provider))
	}
	var (
		p   Provider
		err error
	)
	switch strings.ToLower(cfg.Provider) {
	case "openai", "azure":
		p, err = NewOpenAIProvider(cfg, hc)
	case "gemini":
		p, err = NewGeminiProvider(ctx, cfg)
	default:
		err = schema.ConfigurationError("embedding.new_provider", "", fmt.Errorf("unsupported embedding provider %q", cfg.Provider))
	}
	if err != nil {
		return nil, err
	}
	if cfg.CacheSize > 0 {
		p = NewCached(p, cache.NewLRU[[]float32](cfg.CacheSize, time.Duration(cfg.CacheTTLSeconds)*time.Second))
	}
	return p, nil
}
