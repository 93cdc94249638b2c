// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package draft persists finished articles. Each run gets its own directory
// holding the article as Markdown and HTML plus a YAML record of every
// revision round.
package draft

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/creative-writer/pkg/types"
)

const (
	articleFile = "article.md"
	htmlFile    = "article.html"
	historyFile = "history.yaml"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Record is everything saved for one run.
type Record struct {
	RunID           string              `json:"run_id" yaml:"run_id"`
	CreatedAt       time.Time           `json:"created_at" yaml:"created_at"`
	ResearchContext string              `json:"research_context,omitempty" yaml:"research_context,omitempty"`
	ProductContext  string              `json:"product_context,omitempty" yaml:"product_context,omitempty"`
	Assignment      string              `json:"assignment,omitempty" yaml:"assignment,omitempty"`
	Products        types.ProductSet    `json:"products,omitempty" yaml:"products,omitempty"`
	Final           types.RevisionState `json:"final" yaml:"final"`
	History         []types.Round       `json:"history" yaml:"history"`
	Reason          string              `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Save writes rec under dir/<run id>/ and returns that directory. A missing
// run id is generated and a zero CreatedAt is set to now; rec is updated in
// place. Saving an existing run id overwrites its files.
func Save(dir string, rec *Record) (string, error) {
	if rec.RunID == "" {
		rec.RunID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	runDir := filepath.Join(dir, rec.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("creating run directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(runDir, articleFile), []byte(string(rec.Final.Article)+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", articleFile, err)
	}

	html, err := RenderHTML(rec.Final.Article)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(runDir, htmlFile), []byte(html), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", htmlFile, err)
	}

	data, err := yaml.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshaling history: %w", err)
	}
	if err := os.WriteFile(filepath.Join(runDir, historyFile), data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", historyFile, err)
	}
	return runDir, nil
}

// RenderHTML converts a Markdown article to an HTML fragment.
func RenderHTML(article types.Article) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(article), &buf); err != nil {
		return "", fmt.Errorf("rendering HTML: %w", err)
	}
	return buf.String(), nil
}

// LoadHistory reads the record saved in runDir.
func LoadHistory(runDir string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(runDir, historyFile))
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing history: %w", err)
	}
	return &rec, nil
}

// Runs returns the saved records under dir, newest first. Subdirectories
// without a history file are ignored. A missing dir yields no runs.
func Runs(dir string) ([]*Record, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading output directory: %w", err)
	}

	var runs []*Record
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		rec, err := LoadHistory(filepath.Join(dir, e.Name()))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", e.Name(), err)
		}
		runs = append(runs, rec)
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs, nil
}
