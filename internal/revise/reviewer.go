// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package revise

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/creative-writer/pkg/types"
)

// Reviewer supplies feedback for the current revision state. Returning
// feedback for which IsNone is true ends the loop.
type Reviewer interface {
	Review(ctx context.Context, state types.RevisionState) (types.Feedback, error)
}

// DefaultDraftReview is the feedback EditorReviewer sends with the draft
// when no Initial feedback is set, so the editor always makes one pass.
const DefaultDraftReview types.Feedback = "Review this draft as its editor and improve it where it falls short."

// EditorReviewer automates review by passing the editor's own feedback back
// into the next round. Initial is the feedback for the draft; empty means
// DefaultDraftReview.
type EditorReviewer struct {
	Initial types.Feedback
}

// Review implements Reviewer.
func (r EditorReviewer) Review(_ context.Context, state types.RevisionState) (types.Feedback, error) {
	if state.Round == 0 {
		if r.Initial.IsNone() {
			return DefaultDraftReview, nil
		}
		return r.Initial, nil
	}
	return state.Feedback, nil
}

// ScriptedReviewer returns a fixed list of feedback, one entry per call,
// then NoFeedback.
type ScriptedReviewer struct {
	Feedback []types.Feedback
	next     int
}

// Review implements Reviewer.
func (r *ScriptedReviewer) Review(context.Context, types.RevisionState) (types.Feedback, error) {
	if r.next >= len(r.Feedback) {
		return types.NoFeedback, nil
	}
	fb := r.Feedback[r.next]
	r.next++
	return fb, nil
}

// PromptReviewer reads one line of feedback per round from an interactive
// reader. A blank line or end of input accepts the article.
type PromptReviewer struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewPromptReviewer reads feedback from in and writes prompts to out.
func NewPromptReviewer(in io.Reader, out io.Writer) *PromptReviewer {
	if out == nil {
		out = io.Discard
	}
	return &PromptReviewer{in: bufio.NewScanner(in), out: out}
}

// Review implements Reviewer.
func (r *PromptReviewer) Review(ctx context.Context, state types.RevisionState) (types.Feedback, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !state.Feedback.IsNone() {
		fmt.Fprintf(r.out, "\nEditor feedback: %s\n", state.Feedback)
	}
	fmt.Fprintf(r.out, "Feedback for round %d (blank to accept): ", state.Round+1)

	if !r.in.Scan() {
		if err := r.in.Err(); err != nil {
			return "", fmt.Errorf("reading feedback: %w", err)
		}
		fmt.Fprintln(r.out)
		return types.NoFeedback, nil
	}
	line := strings.TrimSpace(r.in.Text())
	if line == "" {
		return types.NoFeedback, nil
	}
	return types.Feedback(line), nil
}
