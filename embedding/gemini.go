package embedding

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/config"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
)

type GeminiProvider struct {
	client *genai.Client
	model  *genai.EmbeddingModel
	name   string
}

func NewGeminiProvider(ctx context.Context, cfg config.EmbeddingConfig) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, schema.ConfigurationError("embedding.new_gemini", "", fmt.Errorf("create gemini client failed, err: %w", err))
	}
	em := client.EmbeddingModel(cfg.Model)
	em.TaskType = genai.TaskTypeRetrievalQuery
	return &GeminiProvider{client: client, model: em, name: cfg.Model}, nil
}

func (p *GeminiProvider) GetModel() string { return p.name }

func (p *GeminiProvider) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	res, err := p.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding failed, err: %w", err)
	}
	if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini embedding: empty vector")
	}
	return res.Embedding.Values, nil
}

func (p *GeminiProvider) Close() error { return p.client.Close() }
