// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm abstracts the generative model behind a small interface with a
// blocking completion mode and a pull-based streaming mode. Providers: OpenAI
// and Azure OpenAI (openai-go), Google GenAI, and an offline echo provider.
package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/creative-writer/pkg/types"
)

// Prompt is a rendered chat prompt.
type Prompt struct {
	System string
	User   string
}

// Generator produces text from a prompt. Implementations hold one reusable
// client and keep no per-call state, so a Generator may serve concurrent
// pipelines.
type Generator interface {
	// Complete returns the full completion text.
	Complete(ctx context.Context, p Prompt) (string, error)

	// Stream opens a streaming completion. The returned Stream must be
	// closed by the caller; closing it releases the upstream connection.
	Stream(ctx context.Context, p Prompt) (Stream, error)
}

// Stream is a forward-only sequence of text increments. Next advances to the
// next non-empty increment and reports whether one is available; Err reports
// the failure that ended the stream, if any.
type Stream interface {
	Next() bool
	Text() string
	Err() error
	Close() error
}

// New builds the Generator selected by cfg.Provider. The config must already
// be validated.
func New(ctx context.Context, cfg types.LLMConfig, logger *zap.Logger) (Generator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Provider {
	case types.ProviderOpenAI, types.ProviderAzure:
		return NewOpenAI(cfg, logger), nil
	case types.ProviderGenAI:
		return NewGenAI(ctx, cfg, logger)
	case types.ProviderEcho:
		return &Echo{}, nil
	default:
		return nil, fmt.Errorf("%w: llm provider %q not supported", types.ErrInvalidConfig, cfg.Provider)
	}
}

// upstream wraps a provider error with ErrUpstreamUnavailable.
func upstream(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", types.ErrUpstreamUnavailable, provider, err)
}
