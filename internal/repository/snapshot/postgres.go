package snapshot

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/markdex/internal/db"
	"github.com/kailas-cloud/markdex/internal/domain/bookmark"
	"github.com/kailas-cloud/markdex/internal/vecindex"
)

// Postgres stores entries in a pgvector-typed table.
type Postgres struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgres connects to dsn and creates the extension and table if needed.
func NewPostgres(ctx context.Context, dsn, table string) (*Postgres, error) {
	table, err := validateTable(table)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	p := &Postgres{pool: pool, table: table}
	if err := p.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) initialize(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return &db.Error{Op: db.OpSchema, Err: fmt.Errorf("create vector extension: %w", err)}
	}
	// no fixed dimension: the index decides it from the first embedding
	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			url         TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			embedding   vector NOT NULL,
			magnitude   REAL NOT NULL,
			version     BIGINT NOT NULL
		)`, p.table)
	if _, err := p.pool.Exec(ctx, createTable); err != nil {
		return &db.Error{Op: db.OpSchema, Err: fmt.Errorf("create table: %w", err)}
	}
	return nil
}

// Save upserts one entry.
func (p *Postgres) Save(ctx context.Context, e *vecindex.Entry) error {
	q := fmt.Sprintf(`
		INSERT INTO %s (url, title, description, embedding, magnitude, version)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (url) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			embedding = EXCLUDED.embedding,
			magnitude = EXCLUDED.magnitude,
			version = EXCLUDED.version`, p.table)
	_, err := p.pool.Exec(ctx, q,
		e.Record.URL(), e.Record.Title(), e.Record.Description(),
		pgvector.NewVector(e.Vector), e.Magnitude, int64(e.Version),
	)
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// Delete removes the entry for url, if any.
func (p *Postgres) Delete(ctx context.Context, url string) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE url = $1`, p.table)
	if _, err := p.pool.Exec(ctx, q, url); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// Load returns every stored entry ordered by URL.
func (p *Postgres) Load(ctx context.Context) ([]vecindex.Entry, error) {
	q := fmt.Sprintf(`SELECT url, title, description, embedding, magnitude, version FROM %s ORDER BY url`, p.table)
	rows, err := p.pool.Query(ctx, q)
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	defer rows.Close()

	var out []vecindex.Entry
	for rows.Next() {
		var (
			url, title, description string
			embedding               pgvector.Vector
			magnitude               float32
			version                 int64
		)
		if err := rows.Scan(&url, &title, &description, &embedding, &magnitude, &version); err != nil {
			return nil, &db.Error{Op: db.OpGet, Err: err}
		}
		out = append(out, vecindex.Entry{
			Record:    bookmark.Reconstruct(url, title, description),
			Vector:    embedding.Slice(),
			Magnitude: magnitude,
			Version:   uint64(version),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return out, nil
}

// Ping checks the connection.
func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close closes the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
