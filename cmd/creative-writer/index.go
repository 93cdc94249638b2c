// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/creative-writer/internal/catalog"
	"github.com/pdiddy/creative-writer/internal/embed"
)

var indexCmd = &cobra.Command{
	Use:   "index [product-file]",
	Short: "Manage the local SQLite product catalog",
	Long: `Index imports a YAML or JSON product file into the catalog index named
by --index, embedding each product and normalizing HTML content to Markdown.
Re-importing a product id replaces it.

Use --list to show indexes, --drop to delete an index, and --export to write
an index back to a product file, embeddings included.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	list, _ := cmd.Flags().GetBool("list")
	drop, _ := cmd.Flags().GetBool("drop")
	exportPath, _ := cmd.Flags().GetString("export")
	noEmbed, _ := cmd.Flags().GetBool("no-embed")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	index := cfg.Search.Index
	out := cmd.OutOrStdout()

	ingesting := !list && !drop && exportPath == ""
	if ingesting && len(args) == 0 {
		return fmt.Errorf("product file required: provide a file, --list, --drop, or --export")
	}

	var embedder embed.Embedder
	if ingesting && !noEmbed {
		if embedder, err = newEmbedder(ctx, cfg); err != nil {
			return err
		}
	}
	store, err := openCatalog(cfg, embedder)
	if err != nil {
		return err
	}
	defer store.Close()

	switch {
	case list:
		names, err := store.Indexes(ctx)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Fprintln(out, "No indexes found.")
			return nil
		}
		fmt.Fprintf(out, "%-30s  %s\n", "Index", "Products")
		fmt.Fprintln(out, strings.Repeat("-", 42))
		for _, name := range names {
			n, err := store.Count(ctx, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%-30s  %d\n", name, n)
		}
		return nil

	case drop:
		if err := store.DropIndex(ctx, index); err != nil {
			return err
		}
		fmt.Fprintf(out, "Dropped index %s\n", index)
		return nil

	case exportPath != "":
		if err := store.Export(ctx, index, exportPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported %s to %s\n", index, exportPath)
		return nil
	}

	products, err := catalog.LoadProducts(args[0])
	if err != nil {
		return err
	}
	summary, err := store.Ingest(ctx, index, products)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Index %s: %d indexed, %d updated, %d failed (%d total)\n",
		index, summary.Indexed, summary.Updated, summary.Failed, summary.Total())
	if summary.Failed > 0 {
		return fmt.Errorf("%d product(s) failed indexing", summary.Failed)
	}
	return nil
}

func init() {
	f := indexCmd.Flags()
	f.Bool("list", false, "list catalog indexes and product counts")
	f.Bool("drop", false, "drop the index and its products")
	f.String("export", "", "export the index to a .yaml or .json file")
	f.Bool("no-embed", false, "import without embeddings (lexical search only)")

	rootCmd.AddCommand(indexCmd)
}
