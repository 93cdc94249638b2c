// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog is a local product index backed by SQLite. It serves the
// same hybrid queries as the remote search service: FTS5 bm25 for the
// lexical leg and cosine similarity over stored embeddings for the vector
// leg, fused by reciprocal rank.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/pdiddy/creative-writer/internal/embed"
	"github.com/pdiddy/creative-writer/pkg/types"
)

const defaultBatchSize = 16

// Product is one catalog record as imported from a product file.
type Product struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Content   string    `json:"content" yaml:"content"`
	URL       string    `json:"url" yaml:"url"`
	Embedding []float32 `json:"embedding,omitempty" yaml:"embedding,omitempty"`
}

// Store manages the catalog SQLite database.
type Store struct {
	db        *sql.DB
	embedder  embed.Embedder
	converter *md.Converter
	batchSize int
	log       *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithEmbedder sets the embedder used to vectorize products during ingest.
// Without one, products that carry no embedding are only searchable by the
// lexical leg.
func WithEmbedder(e embed.Embedder) Option {
	return func(s *Store) { s.embedder = e }
}

// WithLogger sets the store's logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// NewStore opens or creates the catalog database at cfg.Path and creates the
// schema if it does not exist.
func NewStore(cfg types.CatalogConfig, opts ...Option) (*Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	dsn, err := dataSource(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}

	s := &Store{
		db:        db,
		converter: md.NewConverter("", true, nil),
		batchSize: batch,
		log:       zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// dataSource builds a DSN enabling WAL and foreign keys for either driver.
func dataSource(driver, path string) (string, error) {
	switch driver {
	case "sqlite3":
		return path + "?_journal_mode=WAL&_foreign_keys=on", nil
	case "sqlite":
		return "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", nil
	default:
		return "", fmt.Errorf("%w: catalog.driver %q not supported", types.ErrInvalidConfig, driver)
	}
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS indexes (
			name TEXT PRIMARY KEY,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			index_name TEXT NOT NULL REFERENCES indexes(name) ON DELETE CASCADE,
			id TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			url TEXT,
			embedding BLOB,
			UNIQUE(index_name, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_index ON products(index_name)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='products_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE products_fts USING fts5(title, content, content=products, content_rowid=rowid)`,
		`CREATE TRIGGER products_ai AFTER INSERT ON products BEGIN
			INSERT INTO products_fts(rowid, title, content) VALUES (new.rowid, new.title, new.content);
		END`,
		`CREATE TRIGGER products_ad AFTER DELETE ON products BEGIN
			INSERT INTO products_fts(products_fts, rowid, title, content) VALUES('delete', old.rowid, old.title, old.content);
		END`,
		`CREATE TRIGGER products_au AFTER UPDATE ON products BEGIN
			INSERT INTO products_fts(products_fts, rowid, title, content) VALUES('delete', old.rowid, old.title, old.content);
			INSERT INTO products_fts(rowid, title, content) VALUES (new.rowid, new.title, new.content);
		END`,
	}
	for _, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

// CreateIndex registers a named index. Creating an existing index is a
// no-op.
func (s *Store) CreateIndex(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("index name is empty")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO indexes (name, created_at) VALUES (?, ?)`,
		name, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("creating index %s: %w", name, err)
	}
	return nil
}

// DropIndex removes an index and all of its products.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	if err := s.requireIndex(ctx, name); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM products WHERE index_name = ?`, name); err != nil {
		return fmt.Errorf("deleting products: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM indexes WHERE name = ?`, name); err != nil {
		return fmt.Errorf("deleting index: %w", err)
	}
	return tx.Commit()
}

// Indexes lists index names in lexical order.
func (s *Store) Indexes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM indexes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing indexes: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// Count returns the number of products in an index.
func (s *Store) Count(ctx context.Context, index string) (int, error) {
	if err := s.requireIndex(ctx, index); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM products WHERE index_name = ?`, index,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting products: %w", err)
	}
	return n, nil
}

func (s *Store) requireIndex(ctx context.Context, name string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM indexes WHERE name = ?`, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %q", types.ErrIndexNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("looking up index: %w", err)
	}
	return nil
}
