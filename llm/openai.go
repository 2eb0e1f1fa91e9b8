package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/azure"
	"github.com/openai/openai-go/v2/option"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/config"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
)

// ClientOptions returns request options for an OpenAI or Azure OpenAI client.
// SDK retries are disabled; callers decide what a failure means.
func ClientOptions(provider, apiKey, baseURL, apiVersion string, hc *http.Client) ([]option.RequestOption, error) {
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if hc != nil {
		opts = append(opts, option.WithHTTPClient(hc))
	}
	switch strings.ToLower(provider) {
	case ProviderAzure:
		if baseURL == "" || apiVersion == "" {
			return nil, fmt.Errorf("azure provider requires endpoint and api version")
		}
		opts = append(opts, azure.WithEndpoint(baseURL, apiVersion), azure.WithAPIKey(apiKey))
	case ProviderOpenAI:
		opts = append(opts, option.WithAPIKey(apiKey))
		if baseURL != "" {
			opts = append(opts, option.WithBaseURL(baseURL))
		}
	default:
		return nil, fmt.Errorf("unsupported openai-compatible provider %q", provider)
	}
	return opts, nil
}

// OpenAIProvider generates completions with the chat completions API.
type OpenAIProvider struct {
	client      openai.Client
	provider    string
	model       string
	temperature float64
	maxTokens   int
}

func NewOpenAIProvider(cfg config.LLMConfig, hc *http.Client) (*OpenAIProvider, error) {
	opts, err := ClientOptions(cfg.Provider, cfg.APIKey, cfg.BaseURL, cfg.APIVersion, hc)
	if err != nil {
		return nil, schema.ConfigurationError("llm.new_openai", "", err)
	}
	return &OpenAIProvider{
		client:      openai.NewClient(opts...),
		provider:    strings.ToLower(cfg.Provider),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (p *OpenAIProvider) GetProviderType() string { return p.provider }

func (p *OpenAIProvider) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(p.temperature),
	}
	if p.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(p.maxTokens))
	}
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%s chat completion failed, err: %w", p.provider, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s chat completion: %w", p.provider, schema.ErrEmptyCompletion)
	}
	return resp.Choices[0].Message.Content, nil
}
