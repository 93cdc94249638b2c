// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search runs hybrid (lexical + vector) product lookups against a
// remote search service and formats the results.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/creative-writer/pkg/types"
)

// Fixed caps applied to every hybrid query.
const (
	// NearestNeighbors is k for the vector leg.
	NearestNeighbors = 3

	// Top is the number of results kept from the combined ranking.
	Top = 2
)

// Searcher runs one hybrid query against a named index. Results come back in
// rank order. A missing index returns types.ErrIndexNotFound; transport and
// auth failures return types.ErrUpstreamUnavailable.
type Searcher interface {
	Search(ctx context.Context, item types.EmbeddedQuery, indexName string) ([]types.SearchResult, error)
}

// FormatTable writes products as a human-readable table to w.
func FormatTable(products types.ProductSet, w io.Writer) {
	if len(products) == 0 {
		fmt.Fprintln(w, "No products found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-12s  %-40s  %s\n", "Rank", "ID", "Title", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 90))

	for i, p := range products {
		fmt.Fprintf(w, "%-4d  %-12s  %-40s  %s\n",
			i+1, truncate(p.ID, 12), truncate(p.Title, 40), p.URL)
	}

	fmt.Fprintf(w, "\n%d products\n", len(products))
}

// FormatJSON writes products as indented JSON to w.
func FormatJSON(products types.ProductSet, w io.Writer) error {
	if products == nil {
		products = types.ProductSet{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(products)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
