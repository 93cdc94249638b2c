// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/creative-writer/internal/search"
)

var productsCmd = &cobra.Command{
	Use:   "products <context>",
	Short: "Find catalog products relevant to a product context",
	Long: `Products asks the model for search queries that describe the context,
embeds them, runs one hybrid search per query against the configured index,
and prints the merged, de-duplicated products in query order.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProducts,
}

func runProducts(cmd *cobra.Command, args []string) error {
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
	finder, closeFn, err := newFinder(ctx, cfg, gen, prompts)
	if err != nil {
		return err
	}
	defer closeFn()

	products, err := finder.Find(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return search.FormatJSON(products, cmd.OutOrStdout())
	}
	search.FormatTable(products, cmd.OutOrStdout())
	return nil
}

func init() {
	productsCmd.Flags().Bool("json", false, "output results as JSON")
	productsCmd.Flags().Int("concurrency", 0, "parallel searches (default from config)")

	rootCmd.AddCommand(productsCmd)
}
