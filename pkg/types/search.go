// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the creative-writer pipeline:
// retrieved products, revision state, streamed chunks, configuration, and the
// error taxonomy shared by every stage.
package types

// Query is a short search phrase produced by the product prompt and sent to
// the embedding service.
type Query = string

// EmbeddedQuery pairs a query with its embedding vector. The vector is
// index-aligned with the query batch that produced it and is not modified
// after construction.
type EmbeddedQuery struct {
	// Text is the query text used for the lexical leg of a hybrid search.
	Text string `json:"item" yaml:"item"`

	// Embedding is the vector used for the nearest-neighbour leg.
	Embedding []float32 `json:"embedding" yaml:"embedding"`
}

// SearchResult is a catalog document returned by a hybrid search. ID is the
// document identity; two results with the same ID are the same product.
type SearchResult struct {
	ID      string `json:"id" yaml:"id"`
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
	URL     string `json:"url" yaml:"url"`
}

// ProductSet is an ordered, duplicate-free list of search results. The first
// occurrence of an ID wins; later records with the same ID are dropped.
type ProductSet []SearchResult

// Add appends results whose IDs are not already present and returns the
// number of duplicates that were dropped.
func (s *ProductSet) Add(results ...SearchResult) int {
	seen := make(map[string]struct{}, len(*s)+len(results))
	for _, r := range *s {
		seen[r.ID] = struct{}{}
	}

	dropped := 0
	for _, r := range results {
		if _, ok := seen[r.ID]; ok {
			dropped++
			continue
		}
		seen[r.ID] = struct{}{}
		*s = append(*s, r)
	}
	return dropped
}

// IDs returns the product identifiers in set order.
func (s ProductSet) IDs() []string {
	ids := make([]string, len(s))
	for i, r := range s {
		ids[i] = r.ID
	}
	return ids
}
