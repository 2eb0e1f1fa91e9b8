package labourlaw

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/internal/sqlitefixture"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
)

// fakeOpenAI serves chat completions and embeddings the way the pipeline prompts expect.
func fakeOpenAI(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/embeddings"):
			_, _ = io.WriteString(w, `{"object":"list","model":"test-embed","usage":{"prompt_tokens":1,"total_tokens":1},
"data":[{"object":"embedding","index":0,"embedding":[1,0.1]}]}`)
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			prompt := gjson.GetBytes(body, "messages.0.content").String()
			var reply string
			switch {
			case strings.Contains(prompt, "intelligent routing assistant") && strings.Contains(prompt, "hello"):
				reply = `{"intent": "GENERAL"}`
			case strings.Contains(prompt, "intelligent routing assistant"):
				reply = `{"intent": "TECHNICAL"}`
			case strings.Contains(prompt, "legal information retrieval"):
				reply = "overtime wages, Section 27"
			case strings.Contains(prompt, "Senior Legal Analyst") && strings.Contains(prompt, "[SOURCE: OSHWC_Code_2020.pdf | PAGE: 27]"):
				reply = "A worker is entitled to twice the ordinary rate of wages (OSHWC_Code_2020.pdf, 27)."
			default:
				reply = "Hello! I can answer questions on Indian labour law."
			}
			out, _ := json.Marshal(map[string]any{
				"id": "cmpl", "object": "chat.completion", "created": 1, "model": "test-chat",
				"choices": []any{map[string]any{"index": 0, "finish_reason": "stop",
					"message": map[string]any{"role": "assistant", "content": reply}}},
			})
			_, _ = w.Write(out)
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
}

func testConfig(t *testing.T, baseURL string) map[string]any {
	root := t.TempDir()
	require.NoError(t, sqlitefixture.Write(context.Background(), filepath.Join(root, "unified_central_index.db"), "test-embed", []schema.Document{
		{ID: "oshwc-27", Content: "Where a worker works in excess of eight hours he is entitled to wages at twice the ordinary rate.",
			Vector: []float32{1, 0}, Metadata: map[string]interface{}{"source": "OSHWC_Code_2020.pdf", "page": "27"}},
		{ID: "canteen", Content: "Canteens shall be provided.", Vector: []float32{0, 1},
			Metadata: map[string]interface{}{"source": "OSHWC_Code_2020.pdf", "page": "41"}},
	}))
	return map[string]any{
		"llm":       map[string]any{"provider": "openai", "api_key": "sk-test", "base_url": baseURL, "model": "test-chat"},
		"embedding": map[string]any{"provider": "openai", "api_key": "sk-test", "base_url": baseURL, "model": "test-embed", "dimensions": 2},
		"index":     map[string]any{"provider": "sqlite", "root": root},
	}
}

func call(t *testing.T, c *LabourLawConfig, method string, params any) gjson.Result {
	t.Helper()
	srv, err := c.NewServer("labourlaw-test")
	require.NoError(t, err)
	msg, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": 1, "method": method, "params": params})
	require.NoError(t, err)
	out, err := json.Marshal(srv.HandleMessage(context.Background(), msg))
	require.NoError(t, err)
	require.NoError(t, c.Close())
	return gjson.ParseBytes(out)
}

func TestParseConfig(t *testing.T) {
	c := NewLabourLawConfig()
	require.NoError(t, c.ParseConfig(testConfig(t, "http://127.0.0.1:1")))
	assert.Equal(t, "openai", c.Config().LLM.Provider)
	assert.Equal(t, 2, c.Config().Embedding.Dimensions)
	assert.Equal(t, 12, c.Config().Pipeline.TopK, "defaults survive the overlay")

	require.NoError(t, c.Validate())

	bad := NewLabourLawConfig()
	require.NoError(t, bad.ParseConfig(map[string]any{"llm": map[string]any{"provider": "openai", "api_key": ""}, "index": map[string]any{"provider": "faiss"}}))
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.api_key")
	assert.Contains(t, err.Error(), "index.provider")

	_, err = bad.NewServer("labourlaw-test")
	require.Error(t, err, "NewServer refuses an invalid configuration")
	assert.Nil(t, bad.client)
}

func TestClient_BuiltOnceUntilClosed(t *testing.T) {
	c := NewLabourLawConfig()
	require.NoError(t, c.ParseConfig(testConfig(t, "http://127.0.0.1:1")))

	first, err := c.Client(context.Background())
	require.NoError(t, err)
	second, err := c.Client(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	third, err := c.Client(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	require.NoError(t, c.Close())
}

func TestNewServer_ListTools(t *testing.T) {
	backend := fakeOpenAI(t)
	defer backend.Close()
	c := NewLabourLawConfig()
	require.NoError(t, c.ParseConfig(testConfig(t, backend.URL)))

	res := call(t, c, "tools/list", map[string]any{})
	var names []string
	for _, tool := range res.Get("result.tools").Array() {
		names = append(names, tool.Get("name").String())
	}
	assert.ElementsMatch(t, []string{
		"labour-law-query", "search-legal-fragments", "list-jurisdictions",
		"create-session", "list-sessions", "get-session", "delete-session",
	}, names)
}

func TestNewServer_EndToEnd(t *testing.T) {
	backend := fakeOpenAI(t)
	defer backend.Close()

	tests := []struct {
		name    string
		args    map[string]any
		want    string
		isError bool
	}{
		{"greeting", map[string]any{"query": "hello", "jurisdiction": "Central", "legal_lens": "OSHWC"}, "Hello!", false},
		{"substantive", map[string]any{"query": "What is the overtime rate?", "jurisdiction": "Central", "legal_lens": "OSHWC"}, "(OSHWC_Code_2020.pdf, 27)", false},
		{"unknown jurisdiction", map[string]any{"query": "overtime", "jurisdiction": "Atlantis", "legal_lens": "OSHWC"}, "configuration", true},
		{"index missing", map[string]any{"query": "overtime", "jurisdiction": "Gujarat", "legal_lens": "OSHWC"}, "retrieval", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewLabourLawConfig()
			require.NoError(t, c.ParseConfig(testConfig(t, backend.URL)))
			res := call(t, c, "tools/call", map[string]any{"name": "labour-law-query", "arguments": tt.args})
			assert.Equal(t, tt.isError, res.Get("result.isError").Bool(), res.Raw)
			assert.Contains(t, res.Get("result.content.0.text").String(), tt.want)
		})
	}
}
