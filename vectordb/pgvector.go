package vectordb

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/config"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
)

// PGVectorOpener treats each index location as a table with columns
// (id, content, source, page, embedding vector). All tables share one pool.
type PGVectorOpener struct {
	cfg config.IndexConfig

	mu   sync.Mutex
	pool *pgxpool.Pool
}

func NewPGVectorOpener(cfg config.IndexConfig) *PGVectorOpener {
	return &PGVectorOpener{cfg: cfg}
}

func (o *PGVectorOpener) GetProviderType() string { return ProviderPGVector }

// DSN returns the configured DSN, or one built from host, port, database and credentials.
func (o *PGVectorOpener) DSN() string {
	if o.cfg.DSN != "" {
		return o.cfg.DSN
	}
	port := o.cfg.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(o.cfg.Host, strconv.Itoa(port)),
		Path:   "/" + o.cfg.Database,
	}
	if o.cfg.Username != "" {
		u.User = url.UserPassword(o.cfg.Username, o.cfg.Password)
	}
	return u.String()
}

func (o *PGVectorOpener) getPool(ctx context.Context) (*pgxpool.Pool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pool != nil {
		return o.pool, nil
	}
	pool, err := pgxpool.New(ctx, o.DSN())
	if err != nil {
		return nil, fmt.Errorf("create pg pool failed, err: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres failed, err: %w", err)
	}
	o.pool = pool
	return pool, nil
}

func (o *PGVectorOpener) Open(ctx context.Context, table string) (VectorStoreProvider, error) {
	pool, err := o.getPool(ctx)
	if err != nil {
		return nil, err
	}
	var exists bool
	if err := pool.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, table).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check table %s failed, err: %w", table, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: postgres table %s", ErrIndexNotFound, table)
	}
	return &pgStore{pool: pool, table: pgx.Identifier(strings.Split(table, ".")).Sanitize()}, nil
}

func (o *PGVectorOpener) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pool != nil {
		o.pool.Close()
		o.pool = nil
	}
	return nil
}

type pgStore struct {
	pool  *pgxpool.Pool
	table string
}

// Close is a no-op; the pool belongs to the opener.
func (s *pgStore) Close() error { return nil }

func (s *pgStore) SearchDocs(ctx context.Context, vector []float32, options *schema.SearchOptions) ([]schema.SearchResult, error) {
	query := fmt.Sprintf(`
		SELECT id::text, content, source::text, page::text, 1 - (embedding <=> $1::vector) AS score
		FROM %s
		ORDER BY embedding <=> $1::vector
		LIMIT $2`, s.table)

	rows, err := s.pool.Query(ctx, query, formatVector(vector), topK(options, 10))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.table, err)
	}
	defer rows.Close()

	var results []schema.SearchResult
	for rows.Next() {
		var (
			doc          schema.Document
			source, page *string
			score        float64
		)
		if err := rows.Scan(&doc.ID, &doc.Content, &source, &page, &score); err != nil {
			return nil, fmt.Errorf("failed to scan fragment: %w", err)
		}
		doc.Metadata = map[string]interface{}{}
		if source != nil && *source != "" {
			doc.Metadata[schema.MetaSource] = *source
		}
		if page != nil && *page != "" {
			doc.Metadata[schema.MetaPage] = *page
		}
		results = append(results, schema.SearchResult{Document: doc, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", s.table, err)
	}
	SortByScore(results)
	return threshold(results, options), nil
}

// formatVector renders a pgvector literal.
func formatVector(v []float32) string {
	if len(v) == 0 {
		return "[]"
	}
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(float64(f), 'f', 6, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
