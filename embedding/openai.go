package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v2"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/config"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/llm"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
)

type OpenAIProvider struct {
	client     openai.Client
	provider   string
	model      string
	dimensions int
}

func NewOpenAIProvider(cfg config.EmbeddingConfig, hc *http.Client) (*OpenAIProvider, error) {
	opts, err := llm.ClientOptions(cfg.Provider, cfg.APIKey, cfg.BaseURL, cfg.APIVersion, hc)
	if err != nil {
		return nil, schema.ConfigurationError("embedding.new_openai", "", err)
	}
	return &OpenAIProvider{
		client:     openai.NewClient(opts...),
		provider:   strings.ToLower(cfg.Provider),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

func (p *OpenAIProvider) GetModel() string { return p.model }

func (p *OpenAIProvider) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(p.model),
	})
	if err != nil {
		return nil, fmt.Errorf("%s embedding failed, err: %w", p.provider, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%s embedding: empty vector", p.provider)
	}
	src := resp.Data[0].Embedding
	if p.dimensions > 0 && len(src) != p.dimensions {
		return nil, fmt.Errorf("%s embedding: got %d dimensions, want %d", p.provider, len(src), p.dimensions)
	}
	vec := make([]float32, len(src))
	for i, v := range src {
		vec[i] = float32(v)
	}
	return vec, nil
}
