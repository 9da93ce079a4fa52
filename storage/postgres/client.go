// Package postgres implements storage.IndexClient on Postgres with pgvector.
//
// Documents are kept in one table: the key, the full document as jsonb, the
// vector field (when present) as a pgvector column and the normalized
// published date. Merging concatenates jsonb so stored fields that a new
// document omits are kept.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/folio/core"
	"github.com/poiesic/folio/storage"
)

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Config selects the database and table.
type Config struct {
	DatabaseURL string
	Table       string
	Dimensions  int
}

// Client implements storage.IndexClient.
type Client struct {
	db     *sql.DB
	table  string
	dims   int
	logger *slog.Logger
}

var _ storage.IndexClient = (*Client)(nil)

func newClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("postgres: database url is empty")
	}
	if cfg.Table == "" {
		cfg.Table = "search_documents"
	}
	if !tableNamePattern.MatchString(cfg.Table) {
		return nil, fmt.Errorf("postgres: invalid table name %q", cfg.Table)
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = core.DefaultVectorDimensions
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	c := &Client{
		db:     db,
		table:  cfg.Table,
		dims:   cfg.Dimensions,
		logger: slog.Default().With("component", "postgres-index"),
	}
	if err := c.bootstrap(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return c, nil
}

// NewClient opens the database and creates the table when missing.
//
// Returns storage.IndexClient interface to enforce abstraction.
func NewClient(ctx context.Context, cfg Config) (storage.IndexClient, error) {
	return newClient(ctx, cfg)
}

// Close closes the connection pool.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *Client) bootstrap(ctx context.Context) error {
	for _, stmt := range schemaStatements(c.table, c.dims) {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func schemaStatements(table string, dims int) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id             TEXT PRIMARY KEY,
			body           JSONB NOT NULL,
			embedding      vector(%d),
			published_date TIMESTAMPTZ,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, table, dims),
	}
}

func upsertStatement(table string) string {
	return fmt.Sprintf(`
		INSERT INTO %[1]s (id, body, embedding, published_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			body           = %[1]s.body || EXCLUDED.body,
			embedding      = COALESCE(EXCLUDED.embedding, %[1]s.embedding),
			published_date = COALESCE(EXCLUDED.published_date, %[1]s.published_date),
			updated_at     = now()
		RETURNING (xmax = 0)`, table)
}

// MergeOrUpload upserts documents in one transaction. Rows that fail are
// rolled back to a savepoint so the rest of the batch still commits.
func (c *Client) MergeOrUpload(ctx context.Context, docs []core.SearchDocument) ([]storage.IndexResult, error) {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrRequestFailed, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertStatement(c.table))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrRequestFailed, err)
	}
	defer stmt.Close()

	results := make([]storage.IndexResult, len(docs))
	for i, doc := range docs {
		key := doc.Key()
		if key == "" {
			results[i] = storage.MissingKey(doc)
			continue
		}

		args, err := rowArgs(doc)
		if err != nil {
			results[i] = storage.Failed(key, storage.Status(http.StatusBadRequest), err)
			continue
		}

		if _, err := tx.ExecContext(ctx, "SAVEPOINT doc"); err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrRequestFailed, err)
		}
		var inserted bool
		if err := stmt.QueryRowContext(ctx, args...).Scan(&inserted); err != nil {
			c.logger.Warn("document upsert failed", "key", key, "err", err)
			if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT doc"); rbErr != nil {
				return nil, fmt.Errorf("%w: %w", storage.ErrRequestFailed, rbErr)
			}
			results[i] = storage.Failed(key, storage.Status(http.StatusBadRequest), err)
			continue
		}

		status := http.StatusOK
		if inserted {
			status = http.StatusCreated
		}
		results[i] = storage.Succeeded(key, status)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrRequestFailed, err)
	}
	return results, nil
}

// rowArgs returns id, body, embedding and published date for doc.
func rowArgs(doc core.SearchDocument) ([]any, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	var embedding any
	if raw, ok := doc[core.FieldVector]; ok && raw != nil {
		vec, err := toFloat32s(raw)
		if err != nil {
			return nil, err
		}
		embedding = pgvector.NewVector(vec)
	}

	var published any
	if s, ok := doc[core.FieldPublishedDate].(string); ok && s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			published = t
		}
	}

	return []any{doc.Key(), string(body), embedding, published}, nil
}

func toFloat32s(raw any) ([]float32, error) {
	switch v := raw.(type) {
	case []float32:
		return v, nil
	case []float64:
		out := make([]float32, len(v))
		for i, f := range v {
			out[i] = float32(f)
		}
		return out, nil
	case []any:
		out := make([]float32, len(v))
		for i, item := range v {
			f, ok := item.(float64)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is %T", core.ErrInvalidVector, i, item)
			}
			out[i] = float32(f)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", core.ErrInvalidVector, raw)
	}
}
