// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/pdiddy/creative-writer/internal/llm"
	"github.com/pdiddy/creative-writer/pkg/types"
)

// OpenAI embeds text with the OpenAI or Azure OpenAI embeddings API.
type OpenAI struct {
	client openai.Client
	model  string
	log    *zap.Logger
}

// NewOpenAI creates an embedder for the openai or azure provider.
func NewOpenAI(cfg types.EmbeddingConfig, logger *zap.Logger, extra ...option.RequestOption) *OpenAI {
	opts := llm.ClientOptions(cfg.Provider, cfg.APIKey, cfg.Endpoint, cfg.APIVersion)
	opts = append(opts, extra...)
	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		log:    logger,
	}
}

// Embed sends all queries in one request. The API reports each vector's
// input index; vectors are placed by that index rather than response order.
func (o *OpenAI) Embed(ctx context.Context, queries []string) ([]types.EmbeddedQuery, error) {
	if len(queries) == 0 {
		return nil, nil
	}

	start := time.Now()
	resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: queries},
		Model: openai.EmbeddingModel(o.model),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openai embeddings: %v", types.ErrUpstreamUnavailable, err)
	}

	if len(resp.Data) != len(queries) {
		return nil, fmt.Errorf("%w: openai returned %d embeddings for %d queries",
			types.ErrUpstreamUnavailable, len(resp.Data), len(queries))
	}
	vectors := make([][]float32, len(queries))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(queries) || vectors[d.Index] != nil {
			return nil, fmt.Errorf("%w: openai embeddings: unexpected index %d", types.ErrUpstreamUnavailable, d.Index)
		}
		v := make([]float32, len(d.Embedding))
		for i, x := range d.Embedding {
			v[i] = float32(x)
		}
		vectors[d.Index] = v
	}

	o.log.Debug("embedded batch",
		zap.String("model", o.model),
		zap.Int("queries", len(queries)),
		zap.Duration("elapsed", time.Since(start)))
	return pair("openai", queries, vectors)
}
