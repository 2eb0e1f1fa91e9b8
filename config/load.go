package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReadFile decodes a YAML config file into the generic map ParseConfig and Merge accept.
// An empty path yields an empty map.
func ReadFile(path string) (map[string]any, error) {
	raw := map[string]any{}
	if path == "" {
		return raw, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s failed, err: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config %s failed, err: %w", path, err)
	}
	return raw, nil
}

// Merge overlays a generic map (as delivered by an MCP host) onto cfg.
func Merge(cfg *Config, raw map[string]any) error {
	if len(raw) == 0 {
		return nil
	}
	data, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode server config failed, err: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("decode server config failed, err: %w", err)
	}
	return nil
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overlays credentials and deployment settings from the environment.
// Set variables take precedence over file values.
func ApplyEnv(cfg *Config, lookup LookupFunc) {
	if lookup == nil {
		return
	}
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	switch strings.ToLower(cfg.LLM.Provider) {
	case "azure":
		set(&cfg.LLM.APIKey, "AZURE_OPENAI_API_KEY")
		set(&cfg.LLM.BaseURL, "AZURE_OPENAI_ENDPOINT")
		set(&cfg.LLM.APIVersion, "AZURE_OPENAI_API_VERSION")
		set(&cfg.LLM.Model, "AZURE_OPENAI_CHAT_DEPLOYMENT")
	case "openai":
		set(&cfg.LLM.APIKey, "OPENAI_API_KEY")
		set(&cfg.LLM.BaseURL, "OPENAI_BASE_URL")
	case "gemini":
		set(&cfg.LLM.APIKey, "GEMINI_API_KEY")
	}

	switch strings.ToLower(cfg.Embedding.Provider) {
	case "azure":
		set(&cfg.Embedding.APIKey, "AZURE_OPENAI_API_KEY")
		set(&cfg.Embedding.BaseURL, "AZURE_OPENAI_ENDPOINT")
		set(&cfg.Embedding.APIVersion, "AZURE_OPENAI_API_VERSION")
		set(&cfg.Embedding.Model, "AZURE_OPENAI_EMBEDDING_DEPLOYMENT")
	case "openai":
		set(&cfg.Embedding.APIKey, "OPENAI_API_KEY")
		set(&cfg.Embedding.BaseURL, "OPENAI_BASE_URL")
	case "gemini":
		set(&cfg.Embedding.APIKey, "GEMINI_API_KEY")
	}

	set(&cfg.Index.Root, "LABOURLAW_INDEX_ROOT")
	set(&cfg.Index.DSN, "LABOURLAW_PG_DSN")
	set(&cfg.Index.Password, "LABOURLAW_INDEX_PASSWORD")
	set(&cfg.Log.Level, "LABOURLAW_LOG_LEVEL")
}
