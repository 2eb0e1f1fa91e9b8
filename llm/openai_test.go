package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/config"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
)

const completionBody = `{"id":"cmpl-1","object":"chat.completion","created":1,"model":"gpt-4o",
"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"{\"intent\": \"GENERAL\"}"}}]}`

func TestOpenAIProvider_GenerateCompletion(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody)
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(config.LLMConfig{
		Provider: "openai", APIKey: "sk-test", BaseURL: srv.URL, Model: "gpt-4o", MaxTokens: 64,
	}, srv.Client())
	require.NoError(t, err)

	out, err := p.GenerateCompletion(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"intent": "GENERAL"}`, out)
	assert.Equal(t, "openai", p.GetProviderType())

	assert.Equal(t, "gpt-4o", got["model"])
	assert.EqualValues(t, 0, got["temperature"], "temperature 0 is sent explicitly")
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].(map[string]any)["content"])
}

func TestOpenAIProvider_NoRetry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(config.LLMConfig{Provider: "openai", APIKey: "k", BaseURL: srv.URL, Model: "m"}, srv.Client())
	require.NoError(t, err)
	_, err = p.GenerateCompletion(context.Background(), "q")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestAzureProvider_Deployment(t *testing.T) {
	var path, apiVersion, key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		apiVersion = r.URL.Query().Get("api-version")
		key = r.Header.Get("Api-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody)
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(config.LLMConfig{
		Provider: "azure", APIKey: "az", BaseURL: srv.URL, APIVersion: "2024-06-01", Model: "legal-gpt",
	}, srv.Client())
	require.NoError(t, err)
	_, err = p.GenerateCompletion(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "/openai/deployments/legal-gpt/chat/completions", path)
	assert.Equal(t, "2024-06-01", apiVersion)
	assert.Equal(t, "az", key)
}

func TestNewProvider_Configuration(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LLMConfig
	}{
		{"missing key", config.LLMConfig{Provider: "openai", Model: "m"}},
		{"unknown provider", config.LLMConfig{Provider: "dashscope", APIKey: "k"}},
		{"azure without endpoint", config.LLMConfig{Provider: "azure", APIKey: "k", Model: "m"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(context.Background(), tt.cfg, nil)
			require.Error(t, err)
			assert.True(t, schema.IsKind(err, schema.KindConfiguration))
		})
	}
}

func TestCandidateText(t *testing.T) {
	_, ok := candidateText(nil)
	assert.False(t, ok)

	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text("Hello, "), genai.Text("there.")}},
	}}}
	text, ok := candidateText(resp)
	assert.True(t, ok)
	assert.Equal(t, "Hello, there.", text)
}
