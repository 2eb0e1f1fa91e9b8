package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/config"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
)

// GeminiProvider generates completions with the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiProvider(ctx context.Context, cfg config.LLMConfig) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, schema.ConfigurationError("llm.new_gemini", "", fmt.Errorf("create gemini client failed, err: %w", err))
	}
	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(float32(cfg.Temperature))
	if cfg.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(cfg.MaxTokens))
	}
	return &GeminiProvider{client: client, model: model}, nil
}

func (p *GeminiProvider) GetProviderType() string { return ProviderGemini }

func (p *GeminiProvider) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	resp, err := p.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate content failed, err: %w", err)
	}
	text, ok := candidateText(resp)
	if !ok {
		return "", fmt.Errorf("gemini generate content: %w", schema.ErrEmptyCompletion)
	}
	return text, nil
}

func (p *GeminiProvider) Close() error { return p.client.Close() }

func candidateText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", false
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), true
}
