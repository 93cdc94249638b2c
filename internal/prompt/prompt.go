// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prompt renders the agent prompts from named template variables.
// Default templates are embedded; a directory of *.tmpl files overrides them
// by name. Each template defines a "system" and a "user" block.
package prompt

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/pdiddy/creative-writer/internal/llm"
	"github.com/pdiddy/creative-writer/pkg/types"
)

// Template names.
const (
	Product = "product"
	Writer  = "writer"
	Editor  = "editor"
)

//go:embed templates/*.tmpl
var embedded embed.FS

var funcs = template.FuncMap{
	"json": func(v any) (string, error) {
		if v == nil {
			return "", nil
		}
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	},
}

// ProductVars are the product prompt variables.
type ProductVars struct {
	Context string
}

// WriterVars are the writer prompt variables.
type WriterVars struct {
	ResearchContext string
	Research        any
	ProductContext  string
	Products        types.ProductSet
	Assignment      string
	Feedback        types.Feedback
}

// EditorVars are the editor prompt variables. Tagged asks for
// <article>/<feedback> output instead of the --- delimiter.
type EditorVars struct {
	Article  types.Article
	Feedback types.Feedback
	Tagged   bool
}

// Set holds the parsed templates.
type Set struct {
	templates map[string]*template.Template
}

// Load parses the embedded templates and, when dir is not empty, replaces
// any of them with dir/<name>.tmpl. A missing override file is not an error.
func Load(dir string) (*Set, error) {
	s := &Set{templates: make(map[string]*template.Template)}
	for _, name := range []string{Product, Writer, Editor} {
		file := name + ".tmpl"

		src, err := embedded.ReadFile("templates/" + file)
		if err != nil {
			return nil, fmt.Errorf("reading embedded template %s: %w", file, err)
		}
		if dir != "" {
			override, err := os.ReadFile(filepath.Join(dir, file))
			switch {
			case err == nil:
				src = override
			case !os.IsNotExist(err):
				return nil, fmt.Errorf("reading template override %s: %w", file, err)
			}
		}

		t, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(string(src))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", file, err)
		}
		for _, block := range []string{"system", "user"} {
			if t.Lookup(block) == nil {
				return nil, fmt.Errorf("template %s must define %q", file, block)
			}
		}
		s.templates[name] = t
	}
	return s, nil
}

// MustDefault returns the embedded templates and panics if they do not parse.
func MustDefault() *Set {
	s, err := Load("")
	if err != nil {
		panic(err)
	}
	return s
}

// Render executes the system and user blocks of the named template.
func (s *Set) Render(name string, vars any) (llm.Prompt, error) {
	t, ok := s.templates[name]
	if !ok {
		return llm.Prompt{}, fmt.Errorf("unknown template %q", name)
	}

	var sys, usr bytes.Buffer
	if err := t.ExecuteTemplate(&sys, "system", vars); err != nil {
		return llm.Prompt{}, fmt.Errorf("rendering %s system prompt: %w", name, err)
	}
	if err := t.ExecuteTemplate(&usr, "user", vars); err != nil {
		return llm.Prompt{}, fmt.Errorf("rendering %s user prompt: %w", name, err)
	}
	return llm.Prompt{System: sys.String(), User: usr.String()}, nil
}
