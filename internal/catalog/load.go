// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// LoadProducts reads a product list from a .yaml, .yml, or .json file.
func LoadProducts(path string) ([]Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var products []Product
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &products)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &products)
	default:
		return nil, fmt.Errorf("unsupported product file %s: want .json, .yaml, or .yml", path)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return products, nil
}

// Products returns every product in index ordered by id, embeddings
// included.
func (s *Store) Products(ctx context.Context, index string) ([]Product, error) {
	if err := s.requireIndex(ctx, index); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, content, url, embedding FROM products WHERE index_name = ? ORDER BY id`, index)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var (
			p    Product
			url  *string
			blob []byte
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &url, &blob); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if url != nil {
			p.URL = *url
		}
		if len(blob) > 0 {
			if p.Embedding, err = decodeVector(blob); err != nil {
				return nil, fmt.Errorf("product %s: %w", p.ID, err)
			}
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Export writes an index to path as YAML or JSON (by extension) in the same
// shape LoadProducts reads, so an exported index can be re-ingested without
// re-embedding.
func (s *Store) Export(ctx context.Context, index, path string) error {
	products, err := s.Products(ctx, index)
	if err != nil {
		return err
	}
	if products == nil {
		products = []Product{}
	}

	var data []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(products, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(products)
	default:
		return fmt.Errorf("unsupported export file %s: want .json, .yaml, or .yml", path)
	}
	if err != nil {
		return fmt.Errorf("marshaling products: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
