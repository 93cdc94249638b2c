// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package editor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/creative-writer/internal/llm"
	"github.com/pdiddy/creative-writer/internal/prompt"
	"github.com/pdiddy/creative-writer/pkg/types"
)

type fakeGenerator struct {
	out     string
	err     error
	prompts []llm.Prompt
}

func (g *fakeGenerator) Complete(_ context.Context, p llm.Prompt) (string, error) {
	g.prompts = append(g.prompts, p)
	return g.out, g.err
}

func (g *fakeGenerator) Stream(context.Context, llm.Prompt) (llm.Stream, error) {
	return nil, errors.New("not used")
}

// --- Parse ---

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantArticle  types.Article
		wantFeedback types.Feedback
	}{
		{"inline marker", "Revised text here---New feedback", "Revised text here", "New feedback"},
		{"marker on its own line", "# Title\n\nBody.\n---\nTighten the intro.\n", "# Title\n\nBody.", "Tighten the intro."},
		{"no marker", "  Just an article.  ", "Just an article.", types.NoFeedback},
		{"blank feedback", "Article\n---\n   \n", "Article", types.NoFeedback},
		{"explicit none", "Article\n---\nNo Feedback", "Article", types.NoFeedback},
		{"first marker wins", "Article\n---\nFix A.\n---\nFix B.", "Article", "Fix A.\n---\nFix B."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			article, feedback, err := Parse(tt.raw, ModeDelimiter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantArticle, article)
			assert.Equal(t, tt.wantFeedback, feedback)
		})
	}
}

func TestParseDelimiterEmptyArticle(t *testing.T) {
	tests := []struct {
		raw          string
		wantFeedback types.Feedback
	}{
		{"", types.NoFeedback},
		{"   ", types.NoFeedback},
		{"---New feedback", "New feedback"},
		{"\n---\nnotes", "notes"},
	}
	for _, tt := range tests {
		article, feedback, err := Parse(tt.raw, ModeDelimiter)
		require.NoError(t, err, "raw %q", tt.raw)
		assert.Equal(t, types.Article(""), article, "raw %q", tt.raw)
		assert.Equal(t, tt.wantFeedback, feedback, "raw %q", tt.raw)
	}
}

func TestParseTaggedEmptyArticle(t *testing.T) {
	_, _, err := Parse("<article>  </article><feedback>x</feedback>", ModeTagged)
	assert.ErrorIs(t, err, types.ErrMalformedGenerationOutput)
}

func TestParseTagged(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantArticle  types.Article
		wantFeedback types.Feedback
	}{
		{
			"both tags",
			"Sure!\n<article>\nBody with --- inside.\n</article>\n<feedback>Add a stove.</feedback>",
			"Body with --- inside.", "Add a stove.",
		},
		{"article only", "<article>Body</article>", "Body", types.NoFeedback},
		{"unclosed article", "<article>Body\n<feedback>More detail.</feedback>", "Body", "More detail."},
		{"fallback to delimiter", "Body\n---\nMore detail.", "Body", "More detail."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			article, feedback, err := Parse(tt.raw, ModeTagged)
			require.NoError(t, err)
			assert.Equal(t, tt.wantArticle, article)
			assert.Equal(t, tt.wantFeedback, feedback)
		})
	}
}

func TestParseDelimiterIgnoresTags(t *testing.T) {
	article, feedback, err := Parse("<article>Body</article>", ModeDelimiter)
	require.NoError(t, err)
	assert.Equal(t, types.Article("<article>Body</article>"), article)
	assert.Equal(t, types.NoFeedback, feedback)
}

// --- Edit ---

func TestEditRendersPromptAndParses(t *testing.T) {
	gen := &fakeGenerator{out: "Revised text here---New feedback"}
	e := New(gen, prompt.MustDefault(), "", zaptest.NewLogger(t))

	article, feedback, err := e.Edit(context.Background(), "Draft text", "Shorter intro")
	require.NoError(t, err)
	assert.Equal(t, types.Article("Revised text here"), article)
	assert.Equal(t, types.Feedback("New feedback"), feedback)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0].User, "Draft text")
	assert.Contains(t, gen.prompts[0].User, "Shorter intro")
	assert.Contains(t, gen.prompts[0].System, "---")
}

func TestEditTaggedModeRequestsTags(t *testing.T) {
	gen := &fakeGenerator{out: "<article>Better</article><feedback>No Feedback</feedback>"}
	e := New(gen, prompt.MustDefault(), ModeTagged, nil)

	article, feedback, err := e.Edit(context.Background(), "Draft", "Fix it")
	require.NoError(t, err)
	assert.Equal(t, types.Article("Better"), article)
	assert.True(t, feedback.IsNone())
	assert.Contains(t, gen.prompts[0].System, "<article>")
}

func TestEditReturnsGenerationError(t *testing.T) {
	gen := &fakeGenerator{err: errors.Join(types.ErrUpstreamUnavailable, errors.New("timeout"))}
	_, _, err := New(gen, prompt.MustDefault(), ModeDelimiter, nil).Edit(context.Background(), "a", "b")
	require.ErrorIs(t, err, types.ErrUpstreamUnavailable)
	assert.Len(t, gen.prompts, 1, "not retried")
}

func TestEditEmptyArticleDelimiter(t *testing.T) {
	gen := &fakeGenerator{out: "---\nonly feedback"}
	article, feedback, err := New(gen, prompt.MustDefault(), ModeDelimiter, nil).Edit(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Equal(t, types.Article(""), article)
	assert.Equal(t, types.Feedback("only feedback"), feedback)
}

func TestEditMalformedTaggedOutput(t *testing.T) {
	gen := &fakeGenerator{out: "<article></article>"}
	_, _, err := New(gen, prompt.MustDefault(), ModeTagged, nil).Edit(context.Background(), "a", "b")
	require.ErrorIs(t, err, types.ErrMalformedGenerationOutput)
}
