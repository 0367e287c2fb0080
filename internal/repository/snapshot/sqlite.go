package snapshot

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kailas-cloud/markdex/internal/db"
	"github.com/kailas-cloud/markdex/internal/domain/bookmark"
	"github.com/kailas-cloud/markdex/internal/vecindex"
)

// SQLite stores entries in one SQLite table, vectors as float32 blobs.
type SQLite struct {
	conn  *sql.DB
	table string
}

// NewSQLite creates the table if needed.
func NewSQLite(ctx context.Context, conn *sql.DB, table string) (*SQLite, error) {
	table, err := validateTable(table)
	if err != nil {
		return nil, err
	}
	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    url         TEXT PRIMARY KEY,
    title       TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    vector      BLOB NOT NULL,
    magnitude   REAL NOT NULL,
    version     INTEGER NOT NULL
);`, table)
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return nil, &db.Error{Op: db.OpSchema, Err: err}
	}
	return &SQLite{conn: conn, table: table}, nil
}

// Save upserts one entry.
func (s *SQLite) Save(ctx context.Context, e *vecindex.Entry) error {
	q := fmt.Sprintf(`INSERT INTO %s (url, title, description, vector, magnitude, version)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(url) DO UPDATE SET
    title = excluded.title,
    description = excluded.description,
    vector = excluded.vector,
    magnitude = excluded.magnitude,
    version = excluded.version`, s.table)
	_, err := s.conn.ExecContext(ctx, q,
		e.Record.URL(), e.Record.Title(), e.Record.Description(),
		db.EncodeVector(e.Vector), float64(e.Magnitude), int64(e.Version),
	)
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// Delete removes the entry for url, if any.
func (s *SQLite) Delete(ctx context.Context, url string) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE url = ?`, s.table)
	if _, err := s.conn.ExecContext(ctx, q, url); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// Load returns every stored entry ordered by URL.
func (s *SQLite) Load(ctx context.Context) ([]vecindex.Entry, error) {
	q := fmt.Sprintf(`SELECT url, title, description, vector, magnitude, version FROM %s ORDER BY url`, s.table)
	rows, err := s.conn.QueryContext(ctx, q)
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	defer rows.Close()

	var out []vecindex.Entry
	for rows.Next() {
		var (
			url, title, description string
			blob                    []byte
			magnitude               float64
			version                 int64
		)
		if err := rows.Scan(&url, &title, &description, &blob, &magnitude, &version); err != nil {
			return nil, &db.Error{Op: db.OpGet, Err: err}
		}
		vec, err := db.DecodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", url, err)
		}
		out = append(out, vecindex.Entry{
			Record:    bookmark.Reconstruct(url, title, description),
			Vector:    vec,
			Magnitude: float32(magnitude),
			Version:   uint64(version),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return out, nil
}

// Ping checks the connection.
func (s *SQLite) Ping(ctx context.Context) error {
	if err := s.conn.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close closes the underlying connection.
func (s *SQLite) Close() {
	_ = s.conn.Close()
}
