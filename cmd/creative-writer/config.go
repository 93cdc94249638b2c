// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/creative-writer/internal/catalog"
	"github.com/pdiddy/creative-writer/internal/embed"
	"github.com/pdiddy/creative-writer/internal/llm"
	"github.com/pdiddy/creative-writer/internal/product"
	"github.com/pdiddy/creative-writer/internal/prompt"
	"github.com/pdiddy/creative-writer/internal/search"
	"github.com/pdiddy/creative-writer/internal/secrets"
	"github.com/pdiddy/creative-writer/pkg/types"
)

// configKeys are bound to CREATIVE_WRITER_* environment variables; dots
// become underscores, so llm.api_key reads CREATIVE_WRITER_LLM_API_KEY.
var configKeys = []string{
	"llm.provider", "llm.model", "llm.api_key", "llm.endpoint", "llm.api_version",
	"llm.temperature", "llm.max_tokens",
	"embedding.provider", "embedding.model", "embedding.api_key", "embedding.endpoint",
	"embedding.api_version", "embedding.task_type",
	"search.backend", "search.endpoint", "search.api_key", "search.api_version",
	"search.index", "search.vector_field", "search.semantic_configuration",
	"search.concurrency", "search.max_retries", "search.timeout", "search.user_agent",
	"catalog.driver", "catalog.path", "catalog.batch_size",
	"prompts.dir",
	"revision.max_rounds", "revision.parse_mode",
	"output.dir",
}

func bindEnv() {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range configKeys {
		_ = viper.BindEnv(k)
	}
}

// loadConfig layers the config file and environment over the defaults, then
// command-line flags, then secrets for keys still empty. Sections are
// validated by the constructors that need them, so a command only fails on
// settings it actually uses.
func loadConfig(cmd *cobra.Command) (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: %w", types.ErrInvalidConfig, err)
	}

	stringFlag(cmd, "provider", &cfg.LLM.Provider)
	stringFlag(cmd, "model", &cfg.LLM.Model)
	stringFlag(cmd, "backend", &cfg.Search.Backend)
	stringFlag(cmd, "index", &cfg.Search.Index)
	stringFlag(cmd, "catalog", &cfg.Catalog.Path)
	stringFlag(cmd, "prompts-dir", &cfg.Prompts.Dir)
	stringFlag(cmd, "output-dir", &cfg.Output.Dir)
	stringFlag(cmd, "parse-mode", &cfg.Revision.ParseMode)
	intFlag(cmd, "max-rounds", &cfg.Revision.MaxRounds)
	intFlag(cmd, "concurrency", &cfg.Search.Concurrency)

	secrets.Apply(&cfg, loadedSecrets)
	return cfg, nil
}

// stringFlag copies a flag into dst when the user set it.
func stringFlag(cmd *cobra.Command, name string, dst *string) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		*dst = f.Value.String()
	}
}

func intFlag(cmd *cobra.Command, name string, dst *int) {
	if !cmd.Flags().Changed(name) {
		return
	}
	if v, err := cmd.Flags().GetInt(name); err == nil {
		*dst = v
	}
}

func newGenerator(ctx context.Context, cfg types.Config) (llm.Generator, error) {
	if err := cfg.LLM.Validate(); err != nil {
		return nil, err
	}
	return llm.New(ctx, cfg.LLM, logger)
}

func newEmbedder(ctx context.Context, cfg types.Config) (embed.Embedder, error) {
	if err := cfg.Embedding.Validate(); err != nil {
		return nil, err
	}
	return embed.New(ctx, cfg.Embedding, logger)
}

func loadPrompts(cfg types.Config) (*prompt.Set, error) {
	return prompt.Load(cfg.Prompts.Dir)
}

// openCatalog opens the local catalog. A nil embedder leaves products
// without embeddings searchable only by the lexical leg.
func openCatalog(cfg types.Config, embedder embed.Embedder) (*catalog.Store, error) {
	if err := cfg.Catalog.Validate(); err != nil {
		return nil, err
	}
	opts := []catalog.Option{catalog.WithLogger(logger)}
	if embedder != nil {
		opts = append(opts, catalog.WithEmbedder(embedder))
	}
	return catalog.NewStore(cfg.Catalog, opts...)
}

// newSearcher returns the configured search backend and a function that
// releases it.
func newSearcher(cfg types.Config) (search.Searcher, func() error, error) {
	if err := cfg.Search.Validate(); err != nil {
		return nil, nil, err
	}
	if cfg.Search.Backend == types.SearchBackendSQLite {
		store, err := openCatalog(cfg, nil)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
	client := &http.Client{Timeout: cfg.Search.Timeout}
	return search.NewREST(cfg.Search, client, logger), func() error { return nil }, nil
}

// newFinder wires the product finder from the generator, prompts,
// embedder, and search backend.
func newFinder(ctx context.Context, cfg types.Config, gen llm.Generator, prompts *prompt.Set) (*product.Finder, func() error, error) {
	embedder, err := newEmbedder(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	searcher, closeFn, err := newSearcher(cfg)
	if err != nil {
		return nil, nil, err
	}
	return product.NewFinder(gen, prompts, embedder, searcher, cfg.Search, logger), closeFn, nil
}
