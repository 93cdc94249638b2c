//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

const (
	demoCatalog  = "data/demo.db"
	demoIndex    = "demo-products"
	demoProducts = "testdata/products.yaml"
)

// Demo runs the pipeline offline: it imports the sample products into a
// local catalog without embeddings and streams a draft from the echo
// provider, which returns the rendered writer prompt.
func Demo() error {
	mg.Deps(Init, Build)
	bin := filepath.Join(binDir, binName)

	common := []string{"--catalog", demoCatalog, "--index", demoIndex}

	fmt.Println("[demo] Importing sample products.")
	if err := run(bin, append([]string{"index", "--no-embed", demoProducts}, common...)...); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	if err := run(bin, append([]string{"index", "--list"}, common...)...); err != nil {
		return fmt.Errorf("index --list: %w", err)
	}

	fmt.Println("[demo] Streaming a draft with the echo provider.")
	return run(bin, "write",
		"--provider", "echo",
		"--products", demoProducts,
		"--research-context", "Lightweight gear for a first overnight hike",
		"--assignment", "Write a short, friendly gear guide for beginners.",
	)
}
