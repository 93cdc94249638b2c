// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package product turns a free-text product context into a deduplicated set
// of catalog items: the generator proposes search queries, the queries are
// embedded in one batch, and each is run as a hybrid search.
package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/creative-writer/internal/embed"
	"github.com/pdiddy/creative-writer/internal/llm"
	"github.com/pdiddy/creative-writer/internal/prompt"
	"github.com/pdiddy/creative-writer/internal/search"
	"github.com/pdiddy/creative-writer/pkg/types"
)

// Finder retrieves products relevant to a product context. A Finder holds no
// per-call state and may serve concurrent calls.
type Finder struct {
	gen         llm.Generator
	prompts     *prompt.Set
	embedder    embed.Embedder
	searcher    search.Searcher
	index       string
	concurrency int
	log         *zap.Logger
}

// NewFinder wires a Finder from its clients and the search config.
func NewFinder(gen llm.Generator, prompts *prompt.Set, embedder embed.Embedder, searcher search.Searcher, cfg types.SearchConfig, logger *zap.Logger) *Finder {
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Finder{
		gen:         gen,
		prompts:     prompts,
		embedder:    embedder,
		searcher:    searcher,
		index:       cfg.Index,
		concurrency: concurrency,
		log:         logger,
	}
}

// Find runs the query-generation, embedding, and search steps for context.
// Results are merged in query order with the first occurrence of each
// product id kept. A query with no hits contributes nothing.
func (f *Finder) Find(ctx context.Context, productContext string) (types.ProductSet, error) {
	start := time.Now()

	p, err := f.prompts.Render(prompt.Product, prompt.ProductVars{Context: productContext})
	if err != nil {
		return nil, fmt.Errorf("rendering product prompt: %w", err)
	}
	raw, err := f.gen.Complete(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("generating product queries: %w", err)
	}

	queries, err := ParseQueries(raw)
	if err != nil {
		return nil, err
	}
	f.log.Debug("product queries", zap.Strings("queries", queries))
	if len(queries) == 0 {
		return types.ProductSet{}, nil
	}

	items, err := f.embedder.Embed(ctx, queries)
	if err != nil {
		return nil, fmt.Errorf("embedding product queries: %w", err)
	}
	if len(items) != len(queries) {
		return nil, fmt.Errorf("%w: %d embeddings for %d queries", types.ErrUpstreamUnavailable, len(items), len(queries))
	}

	slots, err := f.searchAll(ctx, items)
	if err != nil {
		return nil, err
	}

	products := types.ProductSet{}
	dropped := 0
	for _, results := range slots {
		dropped += products.Add(results...)
	}

	f.log.Info("products found",
		zap.Int("queries", len(queries)),
		zap.Int("products", len(products)),
		zap.Int("duplicates", dropped),
		zap.Duration("elapsed", time.Since(start)))
	return products, nil
}

// searchAll runs one search per item with at most f.concurrency in flight.
// Each result lands in its item's slot so merge order does not depend on
// completion order. The first failure cancels the rest and no search starts
// after it; the error returned is the failure of the earliest query, so it
// matches a sequential run whatever the completion order.
func (f *Finder) searchAll(ctx context.Context, items []types.EmbeddedQuery) ([][]types.SearchResult, error) {
	slots := make([][]types.SearchResult, len(items))
	errs := make([]error, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results, err := f.searcher.Search(gctx, item, f.index)
			if err != nil {
				err = fmt.Errorf("searching %q: %w", item.Text, err)
				// Cancellation caused by another query's failure is not this
				// query's error.
				if ctx.Err() != nil || !errors.Is(err, context.Canceled) {
					errs[i] = err
				}
				return err
			}
			slots[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, e := range errs {
			if e != nil {
				return nil, e
			}
		}
		return nil, err
	}
	return slots, nil
}

// ParseQueries decodes generator output that must be a JSON array of
// strings. Anything else is types.ErrMalformedGenerationOutput; the output
// is never repaired.
func ParseQueries(raw string) ([]types.Query, error) {
	var queries []types.Query
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(raw)))
	if err := dec.Decode(&queries); err != nil {
		return nil, fmt.Errorf("%w: product queries are not a JSON array of strings: %v",
			types.ErrMalformedGenerationOutput, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after product query array", types.ErrMalformedGenerationOutput)
	}
	if queries == nil {
		return nil, fmt.Errorf("%w: product queries are null", types.ErrMalformedGenerationOutput)
	}
	return queries, nil
}
