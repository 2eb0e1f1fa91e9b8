package vectordb

import (
	"context"
	"fmt"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/config"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
)

const (
	milvusVectorField  = "vector"
	milvusContentField = "content"
	milvusSearchEf     = 64
)

// MilvusOpener treats each index location as a Milvus collection.
type MilvusOpener struct {
	cfg config.IndexConfig
}

func NewMilvusOpener(cfg config.IndexConfig) *MilvusOpener {
	return &MilvusOpener{cfg: cfg}
}

func (o *MilvusOpener) GetProviderType() string { return ProviderMilvus }

func (o *MilvusOpener) Close() error { return nil }

func (o *MilvusOpener) address() string {
	port := o.cfg.Port
	if port == 0 {
		port = 19530
	}
	return fmt.Sprintf("%s:%d", o.cfg.Host, port)
}

func (o *MilvusOpener) Open(ctx context.Context, collection string) (VectorStoreProvider, error) {
	c, err := client.NewClient(ctx, client.Config{
		Address:  o.address(),
		Username: o.cfg.Username,
		Password: o.cfg.Password,
		DBName:   o.cfg.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("connect milvus %s failed, err: %w", o.address(), err)
	}
	ok, err := c.HasCollection(ctx, collection)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("check collection %s failed, err: %w", collection, err)
	}
	if !ok {
		_ = c.Close()
		return nil, fmt.Errorf("%w: milvus collection %s", ErrIndexNotFound, collection)
	}
	if err := c.LoadCollection(ctx, collection, false); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("load collection %s failed, err: %w", collection, err)
	}
	return &milvusStore{client: c, collection: collection, metric: metricType(o.cfg.MetricType)}, nil
}

func metricType(s string) entity.MetricType {
	switch strings.ToUpper(s) {
	case "L2":
		return entity.L2
	case "COSINE":
		return entity.COSINE
	default:
		return entity.IP
	}
}

type milvusStore struct {
	client     client.Client
	collection string
	metric     entity.MetricType
}

func (s *milvusStore) Close() error { return s.client.Close() }

func (s *milvusStore) SearchDocs(ctx context.Context, vector []float32, options *schema.SearchOptions) ([]schema.SearchResult, error) {
	sp, err := entity.NewIndexHNSWSearchParam(milvusSearchEf)
	if err != nil {
		return nil, err
	}
	outFields := []string{milvusContentField, schema.MetaSource, schema.MetaPage}
	res, err := s.client.Search(ctx, s.collection, nil, "", outFields,
		[]entity.Vector{entity.FloatVector(vector)}, milvusVectorField, s.metric, topK(options, 10), sp)
	if err != nil {
		return nil, fmt.Errorf("milvus search %s failed, err: %w", s.collection, err)
	}
	if len(res) == 0 {
		return nil, nil
	}
	r := res[0]
	results := make([]schema.SearchResult, 0, r.ResultCount)
	for i := 0; i < r.ResultCount; i++ {
		doc := schema.Document{Metadata: map[string]interface{}{}}
		if r.IDs != nil {
			if id, err := r.IDs.GetAsString(i); err == nil {
				doc.ID = id
			}
		}
		doc.Content = columnString(r.Fields, milvusContentField, i)
		if v := columnString(r.Fields, schema.MetaSource, i); v != "" {
			doc.Metadata[schema.MetaSource] = v
		}
		if v := columnString(r.Fields, schema.MetaPage, i); v != "" {
			doc.Metadata[schema.MetaPage] = v
		}
		score := float64(r.Scores[i])
		if s.metric == entity.L2 {
			score = -score
		}
		results = append(results, schema.SearchResult{Document: doc, Score: score})
	}
	SortByScore(results)
	return threshold(results, options), nil
}

func columnString(fields client.ResultSet, name string, i int) string {
	col := fields.GetColumn(name)
	if col == nil {
		return ""
	}
	v, err := col.GetAsString(i)
	if err != nil {
		if n, err := col.GetAsInt64(i); err == nil {
			return fmt.Sprint(n)
		}
		return ""
	}
	return v
}
