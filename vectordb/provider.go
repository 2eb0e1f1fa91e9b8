package vectordb

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/config"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
)

// VectorStoreProvider searches one attached index.
type VectorStoreProvider interface {
	SearchDocs(ctx context.Context, vector []float32, options *schema.SearchOptions) ([]schema.SearchResult, error)
	Close() error
}

// Opener attaches the index stored at a location. Locations are backend specific.
type Opener interface {
	Open(ctx context.Context, location string) (VectorStoreProvider, error)
	GetProviderType() string
	Close() error
}

const (
	ProviderSQLite   = "sqlite"
	ProviderMilvus   = "milvus"
	ProviderPGVector = "pgvector"
)

// NewOpener builds the configured index backend. embeddingModel is checked against
// the model recorded in sqlite indices.
func NewOpener(cfg config.IndexConfig, embeddingModel string) (Opener, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderSQLite:
		return NewSQLiteOpener(cfg.Root, embeddingModel), nil
	case ProviderMilvus:
		return NewMilvusOpener(cfg), nil
	case ProviderPGVector:
		return NewPGVectorOpener(cfg), nil
	default:
		return nil, schema.ConfigurationError("vectordb.new_opener", "", fmt.Errorf("unsupported index provider %q", cfg.Provider))
	}
}

func topK(options *schema.SearchOptions, def int) int {
	if options == nil || options.TopK <= 0 {
		return def
	}
	return options.TopK
}

func threshold(results []schema.SearchResult, options *schema.SearchOptions) []schema.SearchResult {
	if options == nil || options.Threshold <= 0 {
		return results
	}
	out := results[:0]
	for _, r := range results {
		if r.Score >= options.Threshold {
			out = append(out, r)
		}
	}
	return out
}

// SortByScore orders results by descending score, keeping input order for ties.
func SortByScore(results []schema.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
}
