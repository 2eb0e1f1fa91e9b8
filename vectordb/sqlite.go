package vectordb

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/common/logger"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
)

// An index file holds two tables:
//
//	meta(key TEXT PRIMARY KEY, value TEXT)    -- "embedding_model" -> model name
//	fragments(id, content, source, page, embedding BLOB)
//
// Embeddings are little-endian float32 arrays. Files are produced by the ingestion
// pipeline and opened read-only here.
const metaEmbeddingModel = "embedding_model"

// ErrIndexNotFound is returned when no index file exists for a location.
var ErrIndexNotFound = errors.New("index not found")

// SQLiteOpener reads per-jurisdiction indices from files under a root directory.
type SQLiteOpener struct {
	root  string
	model string
}

func NewSQLiteOpener(root, embeddingModel string) *SQLiteOpener {
	return &SQLiteOpener{root: root, model: embeddingModel}
}

func (o *SQLiteOpener) GetProviderType() string { return ProviderSQLite }

func (o *SQLiteOpener) Close() error { return nil }

// Path resolves a location to <root>/<location>/index.db when that directory exists,
// otherwise <root>/<location>.db.
func (o *SQLiteOpener) Path(location string) string {
	dir := filepath.Join(o.root, location)
	if st, err := os.Stat(dir); err == nil && st.IsDir() {
		return filepath.Join(dir, "index.db")
	}
	return dir + ".db"
}

// Open loads every fragment of the index into memory and releases the file.
func (o *SQLiteOpener) Open(ctx context.Context, location string) (VectorStoreProvider, error) {
	path := o.Path(location)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, path)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	defer db.Close()

	var model string
	err = db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, metaEmbeddingModel).Scan(&model)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("read index meta %s: %w", path, err)
	case o.model != "" && model != o.model:
		logger.Warnf("vectordb: index %s was built with %q but queries use %q", location, model, o.model)
	}

	rows, err := db.QueryContext(ctx, `SELECT id, content, source, page, embedding FROM fragments`)
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", path, err)
	}
	defer rows.Close()

	idx := &memoryIndex{}
	for rows.Next() {
		var (
			doc          schema.Document
			source, page sql.NullString
			blob         []byte
		)
		if err := rows.Scan(&doc.ID, &doc.Content, &source, &page, &blob); err != nil {
			return nil, fmt.Errorf("scan fragment: %w", err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("fragment %s: %w", doc.ID, err)
		}
		if idx.dim == 0 {
			idx.dim = len(vec)
		} else if len(vec) != idx.dim {
			return nil, fmt.Errorf("fragment %s has %d dimensions, index has %d", doc.ID, len(vec), idx.dim)
		}
		doc.Metadata = map[string]interface{}{}
		if source.Valid && source.String != "" {
			doc.Metadata[schema.MetaSource] = source.String
		}
		if page.Valid && page.String != "" {
			doc.Metadata[schema.MetaPage] = page.String
		}
		idx.docs = append(idx.docs, doc)
		idx.norms = append(idx.norms, normalize(vec))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read index %s: %w", path, err)
	}
	logger.Infof("vectordb: loaded %d fragments from %s", len(idx.docs), path)
	return idx, nil
}

// memoryIndex is an exact cosine-similarity index over unit vectors.
type memoryIndex struct {
	dim   int
	docs  []schema.Document
	norms [][]float32
}

func (m *memoryIndex) Close() error { return nil }

func (m *memoryIndex) SearchDocs(ctx context.Context, vector []float32, options *schema.SearchOptions) ([]schema.SearchResult, error) {
	if len(m.docs) == 0 {
		return nil, nil
	}
	if len(vector) != m.dim {
		return nil, fmt.Errorf("query has %d dimensions, index has %d", len(vector), m.dim)
	}
	q := normalize(append([]float32(nil), vector...))
	results := make([]schema.SearchResult, len(m.docs))
	for i, v := range m.norms {
		if i%4096 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var dot float64
		for j := range v {
			dot += float64(v[j]) * float64(q[j])
		}
		results[i] = schema.SearchResult{Document: m.docs[i], Score: dot}
	}
	SortByScore(results)
	results = threshold(results, options)
	if k := topK(options, 10); len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	if sum == 0 {
		return v
	}
	n := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= n
	}
	return v
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid vector blob of %d bytes", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
