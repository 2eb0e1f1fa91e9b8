package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/metrics"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
)

// MockLLMProvider is a mock implementation of llm.Provider for testing
type MockLLMProvider struct {
	response string
	err      error
	prompts  []string
}

func (m *MockLLMProvider) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *MockLLMProvider) GetProviderType() string {
	return "mock"
}

func TestParseIntent(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    schema.Intent
		wantErr bool
	}{
		{"technical", `{"intent": "TECHNICAL"}`, schema.IntentSubstantive, false},
		{"general", `{"intent": "GENERAL"}`, schema.IntentConversational, false},
		{"lowercase with spaces", "  {\"intent\": \" technical \"}\n", schema.IntentSubstantive, false},
		{"substantive label", `{"intent":"SUBSTANTIVE"}`, schema.IntentSubstantive, false},
		{"fenced", "```json\n{\"intent\": \"TECHNICAL\"}\n```", schema.IntentSubstantive, false},
		{"extra fields", `{"intent": "GENERAL", "confidence": 0.9}`, schema.IntentConversational, false},
		{"empty", "", "", true},
		{"prose", "The intent is TECHNICAL", "", true},
		{"truncated", `{"intent": "TECHN`, "", true},
		{"array", `["TECHNICAL"]`, "", true},
		{"missing field", `{"label": "TECHNICAL"}`, "", true},
		{"non-string", `{"intent": 1}`, "", true},
		{"unknown label", `{"intent": "LEGAL"}`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIntent(tt.payload)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, schema.IsKind(err, schema.KindClassificationParse))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_FailOpen(t *testing.T) {
	malformed := []string{"", "sure!", `{"intent":`, `{"intent": "MAYBE"}`, "null"}
	for _, payload := range malformed {
		before := metrics.ParseFallbackCount()
		r := NewLLMRouter(&MockLLMProvider{response: payload}, 0)

		d, err := r.Route(context.Background(), "what is gratuity", "Central")
		require.NoError(t, err, "payload %q", payload)
		assert.Equal(t, schema.IntentConversational, d.Intent)
		assert.True(t, d.Fallback)
		assert.Equal(t, before+1, metrics.ParseFallbackCount(), "fallback is observable")
	}
}

func TestClassify(t *testing.T) {
	m := &MockLLMProvider{response: `{"intent": "TECHNICAL"}`}
	r := NewLLMRouter(m, 0)
	intent, err := r.Classify(context.Background(), "What is the overtime rate?", "Central")
	require.NoError(t, err)
	assert.Equal(t, schema.IntentSubstantive, intent)

	require.Len(t, m.prompts, 1, "exactly one generation call")
	assert.Contains(t, m.prompts[0], "Query: What is the overtime rate? for Central")
	assert.Contains(t, m.prompts[0], `{"intent": "<intent_type>"}`)
}

func TestClassify_GenerationFailure(t *testing.T) {
	r := NewLLMRouter(&MockLLMProvider{err: errors.New("503")}, 0)
	_, err := r.Classify(context.Background(), "hi", "Central")
	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.KindGeneration))
	assert.False(t, schema.IsKind(err, schema.KindClassificationParse))
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("Hello", "")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(p), "Query: Hello"))
}
