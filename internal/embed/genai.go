// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/pdiddy/creative-writer/pkg/types"
)

// GenAI embeds text with Google's Gemini embedding models. GenAI has native
// batch support: one EmbedContent call carries every query.
type GenAI struct {
	client   *genai.Client
	model    string
	taskType string
	log      *zap.Logger
}

// NewGenAI creates a Gemini embedding client.
func NewGenAI(ctx context.Context, cfg types.EmbeddingConfig, logger *zap.Logger) (*GenAI, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating GenAI client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-embedding-001"
	}
	return &GenAI{client: client, model: model, taskType: cfg.TaskType, log: logger}, nil
}

// Embed sends all queries as one batch of contents.
func (g *GenAI) Embed(ctx context.Context, queries []string) ([]types.EmbeddedQuery, error) {
	if len(queries) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(queries))
	for i, q := range queries {
		contents[i] = genai.NewContentFromText(q, genai.RoleUser)
	}

	result, err := g.client.Models.EmbedContent(ctx, g.model, contents, &genai.EmbedContentConfig{
		TaskType: g.taskType,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: genai embeddings: %v", types.ErrUpstreamUnavailable, err)
	}

	vectors := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		vectors[i] = emb.Values
	}

	g.log.Debug("embedded batch", zap.String("model", g.model), zap.Int("queries", len(queries)))
	return pair("genai", queries, vectors)
}
