// Package sqlitefixture writes small sqlite index files for tests. Production indices are
// built by the ingestion pipeline; this package only mirrors the layout the sqlite opener reads.
package sqlitefixture

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	_ "modernc.org/sqlite"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
)

const ddl = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS fragments (
	id        TEXT PRIMARY KEY,
	content   TEXT NOT NULL,
	source    TEXT,
	page      TEXT,
	embedding BLOB NOT NULL
);
`

// Write stores docs at path, tagged with embeddingModel. Only the "source" and "page"
// metadata keys are kept.
func Write(ctx context.Context, path, embeddingModel string, docs []schema.Document) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO meta (key, value) VALUES ('embedding_model', ?)`, embeddingModel); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	for _, d := range docs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO fragments (id, content, source, page, embedding) VALUES (?, ?, ?, ?, ?)`,
			d.ID, d.Content, metaString(d.Metadata, schema.MetaSource), metaString(d.Metadata, schema.MetaPage), encode(d.Vector),
		); err != nil {
			return fmt.Errorf("write fragment %s: %w", d.ID, err)
		}
	}
	return tx.Commit()
}

func encode(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func metaString(m map[string]interface{}, key string) sql.NullString {
	v, ok := m[key]
	if !ok || v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: fmt.Sprint(v), Valid: true}
}
