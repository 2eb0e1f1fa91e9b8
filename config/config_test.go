package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func validConfig() *Config {
	cfg := Default()
	ApplyEnv(cfg, envMap(map[string]string{
		"AZURE_OPENAI_API_KEY":     "k",
		"AZURE_OPENAI_ENDPOINT":    "https://example.openai.azure.com",
		"AZURE_OPENAI_API_VERSION": "2024-06-01",
	}))
	return cfg
}

func TestDefaultNeedsCredentials(t *testing.T) {
	err := Default().Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	fields := map[string]bool{}
	for _, e := range merr.Errors {
		var ve *ValidationError
		require.True(t, errors.As(e, &ve))
		fields[ve.Field] = true
	}
	assert.True(t, fields["llm.api_key"])
	assert.True(t, fields["llm.base_url"])
	assert.True(t, fields["embedding.api_key"])
	assert.Contains(t, err.Error(), "configuration error(s)")
}

func TestApplyEnv(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "k", cfg.LLM.APIKey)
	assert.Equal(t, "k", cfg.Embedding.APIKey)
	assert.Equal(t, "2024-06-01", cfg.LLM.APIVersion)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)

	ApplyEnv(cfg, envMap(map[string]string{"AZURE_OPENAI_CHAT_DEPLOYMENT": "legal-gpt", "LABOURLAW_INDEX_ROOT": "  /srv/idx "}))
	assert.Equal(t, "legal-gpt", cfg.LLM.Model)
	assert.Equal(t, "/srv/idx", cfg.Index.Root)
}

func TestApplyEnv_ProviderScoped(t *testing.T) {
	cfg := Default()
	cfg.LLM.Provider = "gemini"
	cfg.Embedding.Provider = "openai"
	ApplyEnv(cfg, envMap(map[string]string{
		"GEMINI_API_KEY":       "g",
		"OPENAI_API_KEY":       "o",
		"AZURE_OPENAI_API_KEY": "a",
	}))
	assert.Equal(t, "g", cfg.LLM.APIKey)
	assert.Equal(t, "o", cfg.Embedding.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unsupported llm", func(c *Config) { c.LLM.Provider = "dashscope" }, "llm.provider"},
		{"temperature range", func(c *Config) { c.LLM.Temperature = 3 }, "llm.temperature"},
		{"sqlite root", func(c *Config) { c.Index.Root = "" }, "index.root"},
		{"milvus host", func(c *Config) { c.Index.Provider = "milvus" }, "index.host"},
		{"pgvector dsn", func(c *Config) { c.Index.Provider = "pgvector" }, "index.dsn"},
		{"top_k", func(c *Config) { c.Pipeline.TopK = 0 }, "pipeline.top_k"},
		{"timeout", func(c *Config) { c.Pipeline.Timeouts.RetrievalMs = 0 }, "pipeline.timeouts.retrieval_ms"},
		{"history", func(c *Config) { c.Pipeline.History.MaxTurns = -1 }, "pipeline.history.max_turns"},
		{"empty jurisdiction", func(c *Config) { c.Index.Jurisdictions = map[string]string{"Goa": ""} }, "index.jurisdictions"},
		{"colliding jurisdictions", func(c *Config) {
			c.Index.Jurisdictions = map[string]string{"Central": "idx_a", "central": "idx_b"}
		}, "index.jurisdictions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "["+tt.field+"]")
		})
	}
}

func TestValidate_JurisdictionCollision(t *testing.T) {
	cfg := validConfig()
	cfg.Index.Jurisdictions = map[string]string{"Central": "idx_a", "central": "idx_b", "Goa": "goa_idx"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"central" collides with "Central"`)
	assert.NotContains(t, err.Error(), "Goa")
}

func TestReadFileAndMerge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labourlaw.yaml")
	data := []byte(`
llm:
  provider: openai
  model: gpt-4o-mini
pipeline:
  top_k: 8
index:
  jurisdictions:
    Goa: unified_goa_index
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	raw, err := ReadFile(path)
	require.NoError(t, err)
	cfg := Default()
	require.NoError(t, Merge(cfg, raw))
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 8, cfg.Pipeline.TopK)
	// untouched defaults survive
	assert.Equal(t, 60000, cfg.Pipeline.Timeouts.GenerationMs)
	assert.Equal(t, "unified_goa_index", cfg.Index.Jurisdictions["Goa"])

	require.NoError(t, Merge(cfg, map[string]any{
		"pipeline": map[string]any{"top_k": float64(12)},
		"llm":      map[string]any{"temperature": 0.2},
	}))
	assert.Equal(t, 12, cfg.Pipeline.TopK)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)

	_, err = ReadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	empty, err := ReadFile("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, os.WriteFile(path, []byte("llm: [unclosed"), 0o600))
	_, err = ReadFile(path)
	assert.Error(t, err)
}
