// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/creative-writer/internal/catalog"
	"github.com/pdiddy/creative-writer/internal/draft"
	"github.com/pdiddy/creative-writer/internal/llm"
	"github.com/pdiddy/creative-writer/internal/prompt"
	"github.com/pdiddy/creative-writer/internal/writer"
	"github.com/pdiddy/creative-writer/pkg/types"
)

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Stream one article draft to stdout",
	Long: `Write renders the writer prompt from the research, products, and
assignment and prints the draft as it streams. Products come from --products
(a YAML or JSON product file) or, when --product-context is set, from a
product search.

Use --save to store the draft under the output directory so it can be
revised later with "edit --run".`,
	RunE: runWrite,
}

func runWrite(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		return err
	}
	prompts, err := loadPrompts(cfg)
	if err != nil {
		return err
	}
	req, err := draftRequest(ctx, cmd, cfg, gen, prompts)
	if err != nil {
		return err
	}
	if fb, _ := cmd.Flags().GetString("feedback"); fb != "" {
		req.Feedback = types.Feedback(fb)
	}

	seq, err := writer.New(gen, prompts, logger).Write(ctx, req)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	article, err := writer.CollectFunc(seq, func(s string) { fmt.Fprint(out, s) })
	fmt.Fprintln(out)
	if err != nil {
		return err
	}

	if save, _ := cmd.Flags().GetBool("save"); !save {
		return nil
	}
	rec := &draft.Record{
		ResearchContext: req.ResearchContext,
		ProductContext:  req.ProductContext,
		Assignment:      req.Assignment,
		Products:        req.Products,
		Final:           types.RevisionState{Article: article, Feedback: types.NoFeedback},
		History: []types.Round{{
			Article:        article,
			Feedback:       types.NoFeedback,
			EditorFeedback: types.NoFeedback,
			CreatedAt:      time.Now().UTC(),
		}},
	}
	dir, err := draft.Save(cfg.Output.Dir, rec)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Saved draft %s to %s\n", rec.RunID, dir)
	return nil
}

// draftRequest builds the writer inputs shared by write and run.
func draftRequest(ctx context.Context, cmd *cobra.Command, cfg types.Config, gen llm.Generator, prompts *prompt.Set) (writer.Request, error) {
	researchPath, _ := cmd.Flags().GetString("research")
	productsPath, _ := cmd.Flags().GetString("products")

	req := writer.Request{}
	req.ResearchContext, _ = cmd.Flags().GetString("research-context")
	req.ProductContext, _ = cmd.Flags().GetString("product-context")
	req.Assignment, _ = cmd.Flags().GetString("assignment")
	if req.Assignment == "" {
		return req, fmt.Errorf("%w: --assignment is required", types.ErrInvalidConfig)
	}

	if researchPath != "" {
		research, err := readResearch(researchPath)
		if err != nil {
			return req, err
		}
		req.Research = research
	}

	switch {
	case productsPath != "":
		products, err := catalog.LoadProducts(productsPath)
		if err != nil {
			return req, err
		}
		req.Products = productSet(products)
	case strings.TrimSpace(req.ProductContext) != "":
		finder, closeFn, err := newFinder(ctx, cfg, gen, prompts)
		if err != nil {
			return req, err
		}
		defer closeFn()
		products, err := finder.Find(ctx, req.ProductContext)
		if err != nil {
			return req, err
		}
		req.Products = products
	}

	logger.Debug("draft request",
		zap.Bool("research", req.Research != nil),
		zap.Int("products", len(req.Products)))
	return req, nil
}

// readResearch loads free-form research results from a JSON or YAML file.
func readResearch(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading research %s: %w", path, err)
	}

	var research any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &research)
	default:
		err = json.Unmarshal(data, &research)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing research %s: %w", path, err)
	}
	return research, nil
}

// productSet converts catalog records into the writer's product list,
// dropping repeated ids.
func productSet(products []catalog.Product) types.ProductSet {
	set := types.ProductSet{}
	for _, p := range products {
		set.Add(types.SearchResult{ID: p.ID, Title: p.Title, Content: p.Content, URL: p.URL})
	}
	return set
}

// addDraftFlags registers the writer input flags on cmd.
func addDraftFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("research", "", "research results file (JSON or YAML)")
	f.String("research-context", "", "what the research was about")
	f.String("product-context", "", "what products to feature; triggers a product search")
	f.String("products", "", "product file (JSON or YAML) used instead of a product search")
	f.String("assignment", "", "the writing assignment (required)")
	f.Int("concurrency", 0, "parallel product searches (default from config)")
}

func init() {
	addDraftFlags(writeCmd)
	writeCmd.Flags().String("feedback", "", "feedback for the writer to address")
	writeCmd.Flags().Bool("save", false, "save the draft under the output directory")

	rootCmd.AddCommand(writeCmd)
}
