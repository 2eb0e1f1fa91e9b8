package retriever

import (
	"context"
	"time"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/common/logger"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/embedding"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/metrics"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/registry"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/vectordb"
)

// DefaultTopK is the number of fragments fetched per query.
const DefaultTopK = 12

// Retriever fetches the fragments most similar to a query within one jurisdiction.
type Retriever interface {
	Retrieve(ctx context.Context, jurisdiction, query string, k int) ([]schema.Fragment, error)
}

// JurisdictionRetriever resolves the jurisdiction, attaches its index and runs a similarity search.
type JurisdictionRetriever struct {
	Registry     registry.Resolver
	Indices      *IndexCache
	Embed        embedding.Provider
	TopK         int
	EmbedTimeout time.Duration
}

func (r *JurisdictionRetriever) Retrieve(ctx context.Context, jurisdiction, query string, k int) ([]schema.Fragment, error) {
	entry, err := r.Registry.Resolve(jurisdiction)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		k = r.TopK
	}
	if k <= 0 {
		k = DefaultTopK
	}

	store, err := r.Indices.Get(ctx, entry.Jurisdiction, entry.Location)
	if err != nil {
		return nil, schema.RetrievalError("retriever.attach", entry.Jurisdiction, err)
	}

	vec, err := r.embed(ctx, query)
	if err != nil {
		return nil, schema.GenerationError("retriever.embed", err)
	}

	results, err := store.SearchDocs(ctx, vec, &schema.SearchOptions{TopK: k})
	if err != nil {
		return nil, schema.RetrievalError("retriever.search", entry.Jurisdiction, err)
	}
	vectordb.SortByScore(results)
	if len(results) > k {
		results = results[:k]
	}

	frags := make([]schema.Fragment, len(results))
	for i, res := range results {
		frags[i] = ToFragment(res)
	}
	metrics.ObserveFragments(entry.Jurisdiction, len(frags))
	logger.Debugf("retriever: %d fragments for %s", len(frags), entry.Jurisdiction)
	return frags, nil
}

func (r *JurisdictionRetriever) embed(ctx context.Context, query string) ([]float32, error) {
	if r.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.EmbedTimeout)
		defer cancel()
	}
	return r.Embed.GetEmbedding(ctx, query)
}
