package config

import "time"

// Config represents the main configuration structure for the labour-law MCP server
type Config struct {
	LLM       LLMConfig        `json:"llm" yaml:"llm"`
	Embedding EmbeddingConfig  `json:"embedding" yaml:"embedding"`
	Index     IndexConfig      `json:"index" yaml:"index"`
	Pipeline  PipelineConfig   `json:"pipeline" yaml:"pipeline"`
	HTTP      HTTPClientConfig `json:"http" yaml:"http"`
	Log       LogConfig        `json:"log" yaml:"log"`
}

// LLMConfig defines the text-generation service
type LLMConfig struct {
	Provider    string  `json:"provider" yaml:"provider"` // Available options: azure, openai, gemini
	APIKey      string  `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL     string  `json:"base_url,omitempty" yaml:"base_url,omitempty"` // Azure resource endpoint or OpenAI-compatible base URL
	APIVersion  string  `json:"api_version,omitempty" yaml:"api_version,omitempty"`
	Model       string  `json:"model" yaml:"model"` // model name, or deployment name for azure
	Temperature float64 `json:"temperature" yaml:"temperature"`
	MaxTokens   int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
}

// EmbeddingConfig defines the query embedding model. It must match the model the indices were built with.
type EmbeddingConfig struct {
	Provider        string `json:"provider" yaml:"provider"` // Available options: azure, openai, gemini
	APIKey          string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL         string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	APIVersion      string `json:"api_version,omitempty" yaml:"api_version,omitempty"`
	Model           string `json:"model" yaml:"model"`
	Dimensions      int    `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
	CacheSize       int    `json:"cache_size,omitempty" yaml:"cache_size,omitempty"`
	CacheTTLSeconds int    `json:"cache_ttl_seconds,omitempty" yaml:"cache_ttl_seconds,omitempty"`
}

// IndexConfig selects the per-jurisdiction index backend.
// Jurisdictions maps a jurisdiction name to its index location: a file stem under Root for sqlite,
// a collection for milvus, a table for pgvector. Empty means the built-in registry.
type IndexConfig struct {
	Provider      string            `json:"provider" yaml:"provider"` // Available options: sqlite, milvus, pgvector
	Root          string            `json:"root,omitempty" yaml:"root,omitempty"`
	Host          string            `json:"host,omitempty" yaml:"host,omitempty"`
	Port          int               `json:"port,omitempty" yaml:"port,omitempty"`
	Database      string            `json:"database,omitempty" yaml:"database,omitempty"`
	Username      string            `json:"username,omitempty" yaml:"username,omitempty"`
	Password      string            `json:"password,omitempty" yaml:"password,omitempty"`
	DSN           string            `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	MetricType    string            `json:"metric_type,omitempty" yaml:"metric_type,omitempty"`
	Jurisdictions map[string]string `json:"jurisdictions,omitempty" yaml:"jurisdictions,omitempty"`
}

// PipelineConfig holds query pipeline knobs
type PipelineConfig struct {
	TopK      int             `json:"top_k" yaml:"top_k"`
	Timeouts  TimeoutConfig   `json:"timeouts" yaml:"timeouts"`
	History   HistoryConfig   `json:"history" yaml:"history"`
	Expansion ExpansionConfig `json:"expansion" yaml:"expansion"`
}

// TimeoutConfig bounds every outbound call, in milliseconds.
type TimeoutConfig struct {
	GenerationMs int `json:"generation_ms" yaml:"generation_ms"`
	EmbeddingMs  int `json:"embedding_ms" yaml:"embedding_ms"`
	RetrievalMs  int `json:"retrieval_ms" yaml:"retrieval_ms"`
	IndexLoadMs  int `json:"index_load_ms" yaml:"index_load_ms"`
}

// HistoryConfig bounds the chat history forwarded to the synthesizer.
type HistoryConfig struct {
	MaxTurns  int    `json:"max_turns" yaml:"max_turns"`
	MaxTokens int    `json:"max_tokens" yaml:"max_tokens"`
	Encoding  string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
}

// ExpansionConfig controls keyword expansion.
type ExpansionConfig struct {
	Keywords  int `json:"keywords" yaml:"keywords"`     // number requested from the model
	HardLimit int `json:"hard_limit" yaml:"hard_limit"` // cap applied to over-long replies
}

// HTTPClientConfig configures the shared outbound HTTP client.
type HTTPClientConfig struct {
	TimeoutMs              int      `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
	MaxConsecutiveFailures int      `json:"max_consecutive_failures,omitempty" yaml:"max_consecutive_failures,omitempty"`
	CircuitOpenSeconds     int      `json:"circuit_open_seconds,omitempty" yaml:"circuit_open_seconds,omitempty"`
	HostAllowlist          []string `json:"host_allowlist,omitempty" yaml:"host_allowlist,omitempty"`
}

type LogConfig struct {
	Level       string `json:"level,omitempty" yaml:"level,omitempty"`
	Development bool   `json:"development,omitempty" yaml:"development,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "azure",
			APIVersion:  "2024-02-15-preview",
			Model:       "gpt-4o",
			Temperature: 0,
			MaxTokens:   2048,
		},
		Embedding: EmbeddingConfig{
			Provider:        "azure",
			APIVersion:      "2024-02-15-preview",
			Model:           "text-embedding-3-small",
			Dimensions:      1536,
			CacheSize:       512,
			CacheTTLSeconds: 600,
		},
		Index: IndexConfig{
			Provider:   "sqlite",
			Root:       "indices",
			MetricType: "IP",
		},
		Pipeline: PipelineConfig{
			TopK: 12,
			Timeouts: TimeoutConfig{
				GenerationMs: 60000,
				EmbeddingMs:  15000,
				RetrievalMs:  30000,
				IndexLoadMs:  120000,
			},
			History: HistoryConfig{
				MaxTurns:  10,
				MaxTokens: 2000,
				Encoding:  "cl100k_base",
			},
			Expansion: ExpansionConfig{
				Keywords:  10,
				HardLimit: 20,
			},
		},
		HTTP: HTTPClientConfig{
			TimeoutMs:              60000,
			MaxConsecutiveFailures: 5,
			CircuitOpenSeconds:     5,
		},
		Log: LogConfig{Level: "info"},
	}
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

func (t TimeoutConfig) Generation() time.Duration { return ms(t.GenerationMs) }
func (t TimeoutConfig) Embedding() time.Duration  { return ms(t.EmbeddingMs) }
func (t TimeoutConfig) Retrieval() time.Duration  { return ms(t.RetrievalMs) }
func (t TimeoutConfig) IndexLoad() time.Duration  { return ms(t.IndexLoadMs) }
