// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/pdiddy/creative-writer/internal/search"
	"github.com/pdiddy/creative-writer/pkg/types"
)

const (
	// rrfK is the reciprocal rank fusion constant.
	rrfK = 60

	// lexicalDepth bounds how many bm25 hits enter the fusion.
	lexicalDepth = 50
)

var _ search.Searcher = (*Store)(nil)

// Search runs a hybrid query against index. The text drives the bm25 leg and
// the embedding drives the cosine leg (top search.NearestNeighbors). The legs
// are fused by reciprocal rank and the top search.Top results are returned,
// ties broken by id.
func (s *Store) Search(ctx context.Context, item types.EmbeddedQuery, index string) ([]types.SearchResult, error) {
	if err := s.requireIndex(ctx, index); err != nil {
		return nil, err
	}

	lexical, err := s.lexicalLeg(ctx, item.Text, index)
	if err != nil {
		return nil, err
	}
	vector, err := s.vectorLeg(ctx, item.Embedding, index)
	if err != nil {
		return nil, err
	}

	ids := fuse(lexical, vector)
	if len(ids) > search.Top {
		ids = ids[:search.Top]
	}

	results := make([]types.SearchResult, 0, len(ids))
	for _, id := range ids {
		r, err := s.lookup(ctx, index, id)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}

	s.log.Debug("catalog search",
		zap.String("index", index),
		zap.String("query", item.Text),
		zap.Int("lexical", len(lexical)),
		zap.Int("vector", len(vector)),
		zap.Int("results", len(results)))
	return results, nil
}

// lexicalLeg returns product ids ranked by bm25 (best first).
func (s *Store) lexicalLeg(ctx context.Context, text, index string) ([]string, error) {
	match := ftsQuery(text)
	if match == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id
		FROM products_fts
		JOIN products p ON p.rowid = products_fts.rowid
		WHERE products_fts MATCH ? AND p.index_name = ?
		ORDER BY bm25(products_fts), p.id
		LIMIT ?`, match, index, lexicalDepth)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// vectorLeg returns the ids of the search.NearestNeighbors products most
// similar to the query embedding. Products whose stored vector has a
// different dimension are skipped.
func (s *Store) vectorLeg(ctx context.Context, query []float32, index string) ([]string, error) {
	if len(query) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, embedding FROM products WHERE index_name = ? AND embedding IS NOT NULL`, index)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	type scored struct {
		id  string
		sim float64
	}
	var hits []scored
	for rows.Next() {
		var (
			id   string
			blob []byte
		)
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		v, err := decodeVector(blob)
		if err != nil {
			s.log.Warn("skipping corrupt embedding", zap.String("id", id), zap.Error(err))
			continue
		}
		if sim, ok := cosine(query, v); ok {
			hits = append(hits, scored{id, sim})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].sim != hits[j].sim {
			return hits[i].sim > hits[j].sim
		}
		return hits[i].id < hits[j].id
	})
	if len(hits) > search.NearestNeighbors {
		hits = hits[:search.NearestNeighbors]
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.id
	}
	return ids, nil
}

// fuse merges ranked id lists by reciprocal rank fusion. The result is
// ordered by fused score, then id.
func fuse(legs ...[]string) []string {
	scores := make(map[string]float64)
	for _, leg := range legs {
		for rank, id := range leg {
			scores[id] += 1.0 / float64(rrfK+rank+1)
		}
	}

	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}

func (s *Store) lookup(ctx context.Context, index, id string) (types.SearchResult, error) {
	r := types.SearchResult{ID: id}
	var url *string
	err := s.db.QueryRowContext(ctx,
		`SELECT title, content, url FROM products WHERE index_name = ? AND id = ?`, index, id,
	).Scan(&r.Title, &r.Content, &url)
	if err != nil {
		return r, fmt.Errorf("loading product %s: %w", id, err)
	}
	if url != nil {
		r.URL = *url
	}
	return r, nil
}

// ftsQuery turns free text into an FTS5 expression that matches any of its
// words. Each word is quoted so punctuation and FTS operators in the input
// are treated literally.
func ftsQuery(text string) string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(words))
	var terms []string
	for _, w := range words {
		if seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, `"`+w+`"`)
	}
	return strings.Join(terms, " OR ")
}
