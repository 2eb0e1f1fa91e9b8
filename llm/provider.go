package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/config"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
)

// Provider is a black-box text completion service.
type Provider interface {
	GenerateCompletion(ctx context.Context, prompt string) (string, error)
	GetProviderType() string
}

const (
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
	ProviderGemini = "gemini"
)

// NewProvider builds the configured generation provider. hc carries the guarded transport for
// OpenAI-compatible backends and may be nil.
func NewProvider(ctx context.Context, cfg config.LLMConfig, hc *http.Client) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, schema.ConfigurationError("llm.new_provider", "", fmt.Errorf("%w for llm provider %q", schema.ErrMissingCredentials, cfg.Provider))
	}
	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI, ProviderAzure:
		return NewOpenAIProvider(cfg, hc)
	case ProviderGemini:
		return NewGeminiProvider(ctx, cfg)
	default:
		return nil, schema.ConfigurationError("llm.new_provider", "", fmt.Errorf("unsupported llm provider %q", cfg.Provider))
	}
}
