// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// IngestSummary holds counts from a catalog ingest run.
type IngestSummary struct {
	Indexed int
	Updated int
	Failed  int
}

// Total returns the number of products processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Failed
}

// Ingest normalizes, embeds, and upserts products into index, creating the
// index when it does not exist. Re-ingesting an id replaces the record.
// Products without an id or content are counted as failed and skipped. An
// embedding failure aborts the run before anything is written.
func (s *Store) Ingest(ctx context.Context, index string, products []Product) (IngestSummary, error) {
	if err := s.CreateIndex(ctx, index); err != nil {
		return IngestSummary{}, err
	}

	var summary IngestSummary
	valid := make([]Product, 0, len(products))
	for _, p := range products {
		p.ID = strings.TrimSpace(p.ID)
		p.Content = s.normalize(p.Content)
		if p.ID == "" || p.Content == "" {
			s.log.Warn("skipping product", zap.String("id", p.ID), zap.String("reason", "missing id or content"))
			summary.Failed++
			continue
		}
		valid = append(valid, p)
	}

	if err := s.embedMissing(ctx, valid); err != nil {
		return summary, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range valid {
		var rowid int64
		err := tx.QueryRowContext(ctx,
			`SELECT rowid FROM products WHERE index_name = ? AND id = ?`, index, p.ID,
		).Scan(&rowid)
		exists := err == nil
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return summary, fmt.Errorf("looking up product %s: %w", p.ID, err)
		}

		var blob any
		if len(p.Embedding) > 0 {
			blob = encodeVector(p.Embedding)
		}

		if exists {
			_, err = tx.ExecContext(ctx,
				`UPDATE products SET title = ?, content = ?, url = ?, embedding = ? WHERE rowid = ?`,
				p.Title, p.Content, p.URL, blob, rowid)
		} else {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO products (index_name, id, title, content, url, embedding) VALUES (?, ?, ?, ?, ?, ?)`,
				index, p.ID, p.Title, p.Content, p.URL, blob)
		}
		if err != nil {
			return summary, fmt.Errorf("upserting product %s: %w", p.ID, err)
		}

		if exists {
			summary.Updated++
		} else {
			summary.Indexed++
		}
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("committing ingest: %w", err)
	}

	s.log.Info("ingest complete",
		zap.String("index", index),
		zap.Int("indexed", summary.Indexed),
		zap.Int("updated", summary.Updated),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

// embedMissing fills in embeddings for products that carry none, in
// batches of the configured size.
func (s *Store) embedMissing(ctx context.Context, products []Product) error {
	if s.embedder == nil {
		return nil
	}

	var pending []int
	for i, p := range products {
		if len(p.Embedding) == 0 {
			pending = append(pending, i)
		}
	}

	for start := 0; start < len(pending); start += s.batchSize {
		end := min(start+s.batchSize, len(pending))
		batch := pending[start:end]

		texts := make([]string, len(batch))
		for j, idx := range batch {
			texts[j] = embeddingText(products[idx])
		}
		embedded, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding products: %w", err)
		}
		if len(embedded) != len(batch) {
			return fmt.Errorf("embedding products: got %d vectors for %d products", len(embedded), len(batch))
		}
		for j, idx := range batch {
			products[idx].Embedding = embedded[j].Embedding
		}
		s.log.Debug("embedded product batch", zap.Int("size", len(batch)))
	}
	return nil
}

func embeddingText(p Product) string {
	if p.Title == "" {
		return p.Content
	}
	return p.Title + "\n" + p.Content
}

// normalize converts HTML product descriptions to Markdown so the lexical
// index sees text rather than markup.
func (s *Store) normalize(content string) string {
	content = strings.TrimSpace(content)
	if !looksLikeHTML(content) {
		return content
	}
	out, err := s.converter.ConvertString(content)
	if err != nil {
		s.log.Warn("html conversion failed, keeping raw content", zap.Error(err))
		return content
	}
	return strings.TrimSpace(out)
}

func looksLikeHTML(s string) bool {
	i := strings.IndexByte(s, '<')
	if i < 0 || i+1 >= len(s) {
		return false
	}
	c := s[i+1]
	return (c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '/' || c == '!') && strings.Contains(s[i:], ">")
}
