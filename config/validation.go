package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error [%s]: %s", e.Field, e.Message)
}

func formatErrors(es []error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "found %d configuration error(s):\n", len(es))
	for i, err := range es {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err.Error())
	}
	return b.String()
}

// Validate validates the complete configuration. All problems are reported at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	add := func(field, format string, args ...interface{}) {
		result = multierror.Append(result, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	c.validateLLM(add)
	c.validateEmbedding(add)
	c.validateIndex(add)
	c.validatePipeline(add)

	if result != nil {
		result.ErrorFormat = formatErrors
	}
	return result.ErrorOrNil()
}

type addFunc func(field, format string, args ...interface{})

func validateService(prefix, provider, apiKey, baseURL, apiVersion, model string, add addFunc) {
	switch strings.ToLower(provider) {
	case "":
		add(prefix+".provider", "%s provider is required", prefix)
		return
	case "openai", "gemini":
	case "azure":
		if baseURL == "" {
			add(prefix+".base_url", "azure endpoint is required (AZURE_OPENAI_ENDPOINT)")
		}
		if apiVersion == "" {
			add(prefix+".api_version", "azure api version is required (AZURE_OPENAI_API_VERSION)")
		}
	default:
		add(prefix+".provider", "unsupported %s provider %q", prefix, provider)
		return
	}
	if apiKey == "" {
		add(prefix+".api_key", "%s api key is required", prefix)
	}
	if model == "" {
		add(prefix+".model", "%s model is required", prefix)
	}
}

func (c *Config) validateLLM(add addFunc) {
	validateService("llm", c.LLM.Provider, c.LLM.APIKey, c.LLM.BaseURL, c.LLM.APIVersion, c.LLM.Model, add)
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		add("llm.temperature", "temperature must be in [0, 2], got %v", c.LLM.Temperature)
	}
	if c.LLM.MaxTokens < 0 {
		add("llm.max_tokens", "max_tokens must not be negative, got %d", c.LLM.MaxTokens)
	}
}

func (c *Config) validateEmbedding(add addFunc) {
	e := c.Embedding
	validateService("embedding", e.Provider, e.APIKey, e.BaseURL, e.APIVersion, e.Model, add)
	if e.Dimensions < 0 {
		add("embedding.dimensions", "embedding dimensions must not be negative, got %d", e.Dimensions)
	}
}

func (c *Config) validateIndex(add addFunc) {
	switch strings.ToLower(c.Index.Provider) {
	case "":
		add("index.provider", "index provider is required")
	case "sqlite":
		if c.Index.Root == "" {
			add("index.root", "index root directory is required for sqlite provider")
		}
	case "milvus":
		if c.Index.Host == "" {
			add("index.host", "index host is required for milvus provider")
		}
	case "pgvector":
		if c.Index.DSN == "" && (c.Index.Host == "" || c.Index.Database == "") {
			add("index.dsn", "pgvector provider requires dsn, or host and database")
		}
	default:
		add("index.provider", "unsupported index provider %q", c.Index.Provider)
	}
	seen := make(map[string]string, len(c.Index.Jurisdictions))
	for _, name := range sortedKeys(c.Index.Jurisdictions) {
		loc := c.Index.Jurisdictions[name]
		if strings.TrimSpace(name) == "" || strings.TrimSpace(loc) == "" {
			add("index.jurisdictions", "jurisdiction entries need a name and a location, got %q -> %q", name, loc)
			continue
		}
		k := strings.ToLower(strings.TrimSpace(name))
		if prev, ok := seen[k]; ok {
			add("index.jurisdictions", "jurisdiction %q collides with %q (names are case-insensitive)", name, prev)
			continue
		}
		seen[k] = name
	}
}

func (c *Config) validatePipeline(add addFunc) {
	p := c.Pipeline
	if p.TopK <= 0 {
		add("pipeline.top_k", "top_k must be positive, got %d", p.TopK)
	}
	for field, v := range map[string]int{
		"pipeline.timeouts.generation_ms": p.Timeouts.GenerationMs,
		"pipeline.timeouts.embedding_ms":  p.Timeouts.EmbeddingMs,
		"pipeline.timeouts.retrieval_ms":  p.Timeouts.RetrievalMs,
		"pipeline.timeouts.index_load_ms": p.Timeouts.IndexLoadMs,
	} {
		if v <= 0 {
			add(field, "timeout must be positive, got %d", v)
		}
	}
	if p.History.MaxTurns < 0 {
		add("pipeline.history.max_turns", "max_turns must not be negative, got %d", p.History.MaxTurns)
	}
	if p.History.MaxTokens < 0 {
		add("pipeline.history.max_tokens", "max_tokens must not be negative, got %d", p.History.MaxTokens)
	}
	if p.Expansion.Keywords <= 0 {
		add("pipeline.expansion.keywords", "keywords must be positive, got %d", p.Expansion.Keywords)
	}
	if p.Expansion.HardLimit > 0 && p.Expansion.HardLimit < p.Expansion.Keywords {
		add("pipeline.expansion.hard_limit", "hard_limit %d is below keywords %d", p.Expansion.HardLimit, p.Expansion.Keywords)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
