// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/creative-writer/pkg/types"
)

func TestRenderProduct(t *testing.T) {
	p, err := MustDefault().Render(Product, ProductVars{Context: "tents and backpacks"})
	require.NoError(t, err)
	assert.Contains(t, p.System, "JSON array of strings")
	assert.Equal(t, "Context:\ntents and backpacks", p.User)
}

func TestRenderWriterIncludesProductsAndResearch(t *testing.T) {
	vars := WriterVars{
		ResearchContext: "Winter camping trends",
		Research:        []map[string]string{{"title": "Snow camping is up", "url": "https://example.com/snow"}},
		ProductContext:  "tents and backpacks",
		Products: types.ProductSet{
			{ID: "1", Title: "TrailMaster X4 Tent", Content: "Four-person tent.", URL: "https://example.com/x4"},
			{ID: "8", Title: "Alpine Explorer Tent", Content: "Two-room tent."},
		},
		Assignment: "Write a fun article.",
		Feedback:   types.NoFeedback,
	}

	p, err := MustDefault().Render(Writer, vars)
	require.NoError(t, err)
	assert.Contains(t, p.System, "## TrailMaster X4 Tent (1)")
	assert.Contains(t, p.System, "Source: https://example.com/x4")
	assert.Contains(t, p.System, "## Alpine Explorer Tent (8)")
	assert.Contains(t, p.System, `"title": "Snow camping is up"`)
	assert.NotContains(t, p.System, "Feedback from the previous draft")
	assert.Equal(t, "Write a fun article.", p.User)
}

func TestRenderWriterWithFeedback(t *testing.T) {
	p, err := MustDefault().Render(Writer, WriterVars{Assignment: "a", Feedback: "Mention the stove."})
	require.NoError(t, err)
	assert.Contains(t, p.System, "# Feedback from the previous draft\nMention the stove.")
}

func TestRenderEditorModes(t *testing.T) {
	set := MustDefault()

	p, err := set.Render(Editor, EditorVars{Article: "Draft text", Feedback: "Shorter intro"})
	require.NoError(t, err)
	assert.Contains(t, p.System, "line containing only ---")
	assert.NotContains(t, p.System, "<article>")
	assert.Equal(t, "# Article\nDraft text\n\n# Feedback\nShorter intro", p.User)

	p, err = set.Render(Editor, EditorVars{Article: "Draft text", Feedback: "Shorter intro", Tagged: true})
	require.NoError(t, err)
	assert.Contains(t, p.System, "<article></article>")
}

func TestLoadOverride(t *testing.T) {
	dir := t.TempDir()
	src := `{{define "system"}}custom system{{end}}{{define "user"}}ctx={{.Context}}{{end}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "product.tmpl"), []byte(src), 0o644))

	set, err := Load(dir)
	require.NoError(t, err)

	p, err := set.Render(Product, ProductVars{Context: "stoves"})
	require.NoError(t, err)
	assert.Equal(t, "custom system", p.System)
	assert.Equal(t, "ctx=stoves", p.User)

	// Templates without an override keep the embedded default.
	p, err = set.Render(Editor, EditorVars{Article: "a", Feedback: "f"})
	require.NoError(t, err)
	assert.Contains(t, p.System, "You are an editor")
}

func TestLoadRejectsInvalidOverrides(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"parse error", `{{define "system"}}{{.Context{{end}}`, "parsing template product.tmpl"},
		{"missing user block", `{{define "system"}}only system{{end}}`, `must define "user"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "product.tmpl"), []byte(tt.src), 0o644))
			_, err := Load(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := MustDefault().Render("critic", nil)
	assert.ErrorContains(t, err, `unknown template "critic"`)
}
