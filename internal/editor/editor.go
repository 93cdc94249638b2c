// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package editor revises a draft against reviewer feedback and parses the
// generator's combined article-plus-feedback output.
package editor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/creative-writer/internal/llm"
	"github.com/pdiddy/creative-writer/internal/prompt"
	"github.com/pdiddy/creative-writer/pkg/types"
)

// Mode selects how editor output is split into article and feedback.
type Mode string

const (
	// ModeDelimiter splits on the first occurrence of "---", inside a line
	// or on its own.
	ModeDelimiter Mode = types.ParseModeDelimiter

	// ModeTagged reads <article> and <feedback> tags, falling back to
	// ModeDelimiter when no <article> tag is present.
	ModeTagged Mode = types.ParseModeTagged
)

// Delimiter separates the article from the feedback in delimiter mode.
const Delimiter = "---"

// Editor runs one revision per Edit call.
type Editor struct {
	gen     llm.Generator
	prompts *prompt.Set
	mode    Mode
	log     *zap.Logger
}

// New creates an Editor. An empty mode means ModeDelimiter.
func New(gen llm.Generator, prompts *prompt.Set, mode Mode, logger *zap.Logger) *Editor {
	if mode == "" {
		mode = ModeDelimiter
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Editor{gen: gen, prompts: prompts, mode: mode, log: logger}
}

// Edit asks the generator to revise article according to feedback and
// returns the revised article with the editor's feedback for the next
// round. Generation failures are returned as-is; nothing is retried.
func (e *Editor) Edit(ctx context.Context, article types.Article, feedback types.Feedback) (types.Article, types.Feedback, error) {
	p, err := e.prompts.Render(prompt.Editor, prompt.EditorVars{
		Article:  article,
		Feedback: feedback,
		Tagged:   e.mode == ModeTagged,
	})
	if err != nil {
		return "", "", fmt.Errorf("rendering editor prompt: %w", err)
	}

	start := time.Now()
	raw, err := e.gen.Complete(ctx, p)
	if err != nil {
		return "", "", fmt.Errorf("editing article: %w", err)
	}

	revised, next, err := Parse(raw, e.mode)
	if err != nil {
		return "", "", err
	}

	e.log.Debug("edit complete",
		zap.Int("article_chars", len(revised)),
		zap.Bool("feedback", !next.IsNone()),
		zap.Duration("elapsed", time.Since(start)))
	return revised, next, nil
}

// Parse splits raw editor output into article and feedback. A missing
// feedback section, or a blank one, yields types.NoFeedback.
//
// In delimiter mode the trimmed text before the marker is the article even
// when it is empty. In tagged mode an <article> element with no content is
// types.ErrMalformedGenerationOutput.
func Parse(raw string, mode Mode) (types.Article, types.Feedback, error) {
	if mode == ModeTagged {
		if article, feedback, ok := parseTagged(raw); ok {
			a, fb := finish(article, feedback)
			if a == "" {
				return "", "", fmt.Errorf("%w: editor returned an empty <article>", types.ErrMalformedGenerationOutput)
			}
			return a, fb, nil
		}
	}
	before, after, _ := strings.Cut(raw, Delimiter)
	a, fb := finish(before, after)
	return a, fb, nil
}

func finish(article, feedback string) (types.Article, types.Feedback) {
	article = strings.TrimSpace(article)
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return types.Article(article), types.NoFeedback
	}
	return types.Article(article), types.Feedback(feedback)
}

// parseTagged extracts the <article> body and the optional <feedback> body.
// ok is false when raw has no <article> tag. An unclosed tag runs to the end
// of the output.
func parseTagged(raw string) (article, feedback string, ok bool) {
	article, ok = tagBody(raw, "article")
	if !ok {
		return "", "", false
	}
	if before, _, cut := strings.Cut(article, "<feedback>"); cut {
		article = before
	}
	feedback, _ = tagBody(raw, "feedback")
	return article, feedback, true
}

func tagBody(raw, tag string) (string, bool) {
	open, closing := "<"+tag+">", "</"+tag+">"
	_, rest, found := strings.Cut(raw, open)
	if !found {
		return "", false
	}
	body, _, _ := strings.Cut(rest, closing)
	return body, true
}
