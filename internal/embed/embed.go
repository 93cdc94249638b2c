// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed turns batches of query text into embedding vectors. Each call
// is one upstream request; results are index-aligned with the input and a
// batch either succeeds completely or fails with ErrUpstreamUnavailable.
package embed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/creative-writer/pkg/types"
)

// Embedder generates embeddings for a batch of queries.
type Embedder interface {
	Embed(ctx context.Context, queries []string) ([]types.EmbeddedQuery, error)
}

// New builds the Embedder selected by cfg.Provider. The config must already
// be validated.
func New(ctx context.Context, cfg types.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Provider {
	case types.ProviderOpenAI, types.ProviderAzure:
		return NewOpenAI(cfg, logger), nil
	case types.ProviderGenAI:
		return NewGenAI(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("%w: embedding provider %q not supported", types.ErrInvalidConfig, cfg.Provider)
	}
}

// pair zips queries with vectors after checking the batch is complete.
func pair(provider string, queries []string, vectors [][]float32) ([]types.EmbeddedQuery, error) {
	if len(vectors) != len(queries) {
		return nil, fmt.Errorf("%w: %s returned %d embeddings for %d queries",
			types.ErrUpstreamUnavailable, provider, len(vectors), len(queries))
	}
	items := make([]types.EmbeddedQuery, len(queries))
	for i, q := range queries {
		if len(vectors[i]) == 0 {
			return nil, fmt.Errorf("%w: %s returned an empty embedding for query %d",
				types.ErrUpstreamUnavailable, provider, i)
		}
		items[i] = types.EmbeddedQuery{Text: q, Embedding: vectors[i]}
	}
	return items, nil
}
