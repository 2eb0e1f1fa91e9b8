package vectordb

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/config"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/internal/sqlitefixture"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
)

func fixtureDocs() []schema.Document {
	return []schema.Document{
		{ID: "a", Content: "Every worker shall be entitled to overtime wages.", Vector: []float32{1, 0, 0},
			Metadata: map[string]interface{}{"source": "OSHWC_Code_2020.pdf", "page": 14}},
		{ID: "b", Content: "Canteen facilities.", Vector: []float32{0.7, 0.7, 0},
			Metadata: map[string]interface{}{"source": "OSHWC_Code_2020.pdf"}},
		{ID: "c", Content: "Gratuity is payable.", Vector: []float32{0, 0, 1}},
	}
}

func writeFixture(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, sqlitefixture.Write(context.Background(), filepath.Join(dir, name+".db"), "test-model", fixtureDocs()))
}

func TestSQLiteOpenAndSearch(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "unified_central_index")

	o := NewSQLiteOpener(dir, "test-model")
	store, err := o.Open(context.Background(), "unified_central_index")
	require.NoError(t, err)
	defer store.Close()

	res, err := store.SearchDocs(context.Background(), []float32{2, 0.1, 0}, &schema.SearchOptions{TopK: 2})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "a", res[0].Document.ID)
	assert.Equal(t, "b", res[1].Document.ID)
	assert.GreaterOrEqual(t, res[0].Score, res[1].Score)
	assert.Equal(t, "OSHWC_Code_2020.pdf", res[0].Document.Metadata["source"])
	assert.Equal(t, "14", res[0].Document.Metadata["page"])
	_, hasPage := res[1].Document.Metadata["page"]
	assert.False(t, hasPage)

	all, err := store.SearchDocs(context.Background(), []float32{0, 0, 1}, &schema.SearchOptions{TopK: 12})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "c", all[0].Document.ID)

	_, err = store.SearchDocs(context.Background(), []float32{1, 0}, nil)
	assert.Error(t, err, "dimension mismatch")
}

func TestSQLiteOpen_DirectoryLayout(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "unified_gujarat_index")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, sqlitefixture.Write(context.Background(), filepath.Join(sub, "index.db"), "m", fixtureDocs()[:1]))

	o := NewSQLiteOpener(dir, "m")
	assert.Equal(t, filepath.Join(sub, "index.db"), o.Path("unified_gujarat_index"))
	store, err := o.Open(context.Background(), "unified_gujarat_index")
	require.NoError(t, err)
	res, err := store.SearchDocs(context.Background(), []float32{1, 0, 0}, &schema.SearchOptions{TopK: 5})
	require.NoError(t, err)
	assert.Len(t, res, 1)
}

func TestSQLiteOpen_Missing(t *testing.T) {
	o := NewSQLiteOpener(t.TempDir(), "m")
	_, err := o.Open(context.Background(), "unified_jha_index")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIndexNotFound))
}

func TestThreshold(t *testing.T) {
	in := []schema.SearchResult{{Score: 0.9}, {Score: 0.4}, {Score: 0.7}}
	SortByScore(in)
	out := threshold(in, &schema.SearchOptions{Threshold: 0.5})
	require.Len(t, out, 2)
	assert.Equal(t, 0.9, out[0].Score)
	assert.Equal(t, 0.7, out[1].Score)
}

func TestFormatVector(t *testing.T) {
	assert.Equal(t, "[]", formatVector(nil))
	assert.Equal(t, "[0.500000,-1.000000]", formatVector([]float32{0.5, -1}))
}

func TestPGVectorDSN(t *testing.T) {
	o := NewPGVectorOpener(config.IndexConfig{Host: "db", Database: "labour", Username: "u", Password: "p@ss"})
	assert.Equal(t, "postgres://u:p%40ss@db:5432/labour", o.DSN())
	o = NewPGVectorOpener(config.IndexConfig{DSN: "postgres://x"})
	assert.Equal(t, "postgres://x", o.DSN())
}

func TestNewOpener(t *testing.T) {
	o, err := NewOpener(config.IndexConfig{Provider: "SQLite", Root: "x"}, "m")
	require.NoError(t, err)
	assert.Equal(t, ProviderSQLite, o.GetProviderType())

	_, err = NewOpener(config.IndexConfig{Provider: "faiss"}, "m")
	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.KindConfiguration))
}
