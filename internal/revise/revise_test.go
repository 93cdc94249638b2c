// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package revise

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/creative-writer/internal/writer"
	"github.com/pdiddy/creative-writer/pkg/types"
)

// --- test doubles ---

type fakeDrafter struct {
	chunks   []string
	setupErr error
	midErr   error
	reqs     []writer.Request
}

func (d *fakeDrafter) Write(_ context.Context, req writer.Request) (iter.Seq[types.Chunk], error) {
	d.reqs = append(d.reqs, req)
	if d.setupErr != nil {
		return nil, d.setupErr
	}
	return func(yield func(types.Chunk) bool) {
		for _, c := range d.chunks {
			if !yield(types.TextChunk(c)) {
				return
			}
		}
		if d.midErr != nil {
			yield(types.ErrorChunk(d.midErr))
			return
		}
		yield(types.EndChunk())
	}, nil
}

type edit struct {
	article  types.Article
	feedback types.Feedback
	err      error
}

type fakeReviser struct {
	edits []edit
	calls []types.Feedback
}

func (r *fakeReviser) Edit(_ context.Context, _ types.Article, fb types.Feedback) (types.Article, types.Feedback, error) {
	r.calls = append(r.calls, fb)
	e := r.edits[len(r.calls)-1]
	return e.article, e.feedback, e.err
}

func newController(t *testing.T, d *fakeDrafter, r *fakeReviser, maxRounds int) *Controller {
	t.Helper()
	c := NewController(d, r, maxRounds, zaptest.NewLogger(t))
	c.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return c
}

// --- Run ---

func TestRunDraftOnlyWhenReviewerAccepts(t *testing.T) {
	d := &fakeDrafter{chunks: []string{"Snow ", "camping."}}
	r := &fakeReviser{}
	c := newController(t, d, r, 3)

	var chunks []string
	c.OnChunk = func(s string) { chunks = append(chunks, s) }

	res, err := c.Run(context.Background(), writer.Request{Assignment: "x", Feedback: "ignored"}, &ScriptedReviewer{})
	require.NoError(t, err)

	assert.Equal(t, types.RevisionState{Article: "Snow camping.", Feedback: types.NoFeedback}, res.Final)
	assert.Equal(t, StopReviewerSatisfied, res.Reason)
	assert.Equal(t, []string{"Snow ", "camping."}, chunks)
	require.Len(t, res.History, 1)
	assert.Equal(t, 0, res.History[0].Number)
	assert.Empty(t, r.calls)
	assert.Equal(t, types.NoFeedback, d.reqs[0].Feedback, "draft always starts without feedback")
}

func TestRunDefaultEditorReviewerEditsOnce(t *testing.T) {
	d := &fakeDrafter{chunks: []string{"draft"}}
	r := &fakeReviser{edits: []edit{{article: "edited", feedback: types.NoFeedback}}}

	res, err := newController(t, d, r, 3).Run(context.Background(), writer.Request{}, EditorReviewer{})
	require.NoError(t, err)

	assert.Equal(t, []types.Feedback{DefaultDraftReview}, r.calls)
	assert.Equal(t, StopEditorSatisfied, res.Reason)
	assert.Equal(t, types.RevisionState{Article: "edited", Feedback: types.NoFeedback, Round: 1}, res.Final)
	require.Len(t, res.History, 2)
}

func TestRunEditorLoopUntilEditorSatisfied(t *testing.T) {
	d := &fakeDrafter{chunks: []string{"Draft"}}
	r := &fakeReviser{edits: []edit{
		{article: "Rev 1", feedback: "Add the stove."},
		{article: "Rev 2", feedback: types.NoFeedback},
	}}
	c := newController(t, d, r, 5)

	var rounds []int
	c.OnRound = func(rd types.Round) { rounds = append(rounds, rd.Number) }

	res, err := c.Run(context.Background(), writer.Request{}, EditorReviewer{Initial: "Shorter intro."})
	require.NoError(t, err)

	assert.Equal(t, []types.Feedback{"Shorter intro.", "Add the stove."}, r.calls)
	assert.Equal(t, types.RevisionState{Article: "Rev 2", Feedback: types.NoFeedback, Round: 2}, res.Final)
	assert.Equal(t, StopEditorSatisfied, res.Reason)
	assert.Equal(t, []int{0, 1, 2}, rounds)

	require.Len(t, res.History, 3)
	assert.Equal(t, types.Round{
		Number:         1,
		Feedback:       "Shorter intro.",
		Article:        "Rev 1",
		EditorFeedback: "Add the stove.",
		CreatedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}, res.History[1])
}

func TestRunStopsAtMaxRounds(t *testing.T) {
	d := &fakeDrafter{chunks: []string{"Draft"}}
	r := &fakeReviser{edits: []edit{
		{article: "Rev 1", feedback: "More."},
		{article: "Rev 2", feedback: "Even more."},
		{article: "Rev 3", feedback: "Never reached."},
	}}
	res, err := newController(t, d, r, 2).Run(context.Background(), writer.Request{}, EditorReviewer{Initial: "Go."})
	require.NoError(t, err)

	assert.Len(t, r.calls, 2)
	assert.Equal(t, StopMaxRounds, res.Reason)
	assert.Equal(t, 2, res.Final.Round)
	assert.Equal(t, types.Article("Rev 2"), res.Final.Article)
}

func TestRunScriptedReviewer(t *testing.T) {
	d := &fakeDrafter{chunks: []string{"Draft"}}
	r := &fakeReviser{edits: []edit{
		{article: "Rev 1", feedback: "editor says more"},
		{article: "Rev 2", feedback: "editor says more again"},
	}}
	reviewer := &ScriptedReviewer{Feedback: []types.Feedback{"Mention tents.", "Mention backpacks."}}

	res, err := newController(t, d, r, 5).Run(context.Background(), writer.Request{}, reviewer)
	require.NoError(t, err)

	assert.Equal(t, []types.Feedback{"Mention tents.", "Mention backpacks."}, r.calls)
	assert.Equal(t, StopReviewerSatisfied, res.Reason)
	assert.Equal(t, types.Article("Rev 2"), res.Final.Article)
	assert.Equal(t, types.Feedback("editor says more again"), res.Final.Feedback)
}

func TestRunErrorsAreNotRetried(t *testing.T) {
	t.Run("draft setup", func(t *testing.T) {
		d := &fakeDrafter{setupErr: types.ErrGenerationSetup}
		res, err := newController(t, d, &fakeReviser{}, 3).Run(context.Background(), writer.Request{}, EditorReviewer{})
		require.ErrorIs(t, err, types.ErrGenerationSetup)
		assert.Empty(t, res.History)
		assert.Len(t, d.reqs, 1)
	})

	t.Run("draft mid-stream", func(t *testing.T) {
		d := &fakeDrafter{chunks: []string{"partial"}, midErr: types.ErrUpstreamUnavailable}
		_, err := newController(t, d, &fakeReviser{}, 3).Run(context.Background(), writer.Request{}, EditorReviewer{})
		require.ErrorIs(t, err, types.ErrUpstreamUnavailable)
		assert.Len(t, d.reqs, 1)
	})

	t.Run("editor", func(t *testing.T) {
		d := &fakeDrafter{chunks: []string{"Draft"}}
		r := &fakeReviser{edits: []edit{{err: types.ErrMalformedGenerationOutput}}}
		res, err := newController(t, d, r, 3).Run(context.Background(), writer.Request{}, EditorReviewer{Initial: "Fix."})
		require.ErrorIs(t, err, types.ErrMalformedGenerationOutput)
		assert.Len(t, r.calls, 1)
		require.Len(t, res.History, 1)
		assert.Equal(t, types.Article("Draft"), res.Final.Article)
	})

	t.Run("reviewer", func(t *testing.T) {
		d := &fakeDrafter{chunks: []string{"Draft"}}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := newController(t, d, &fakeReviser{}, 3).Run(ctx, writer.Request{},
			NewPromptReviewer(strings.NewReader("x\n"), nil))
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewControllerClampsMaxRounds(t *testing.T) {
	c := NewController(&fakeDrafter{}, &fakeReviser{}, 0, nil)
	assert.Equal(t, 1, c.maxRounds)
}

// --- reviewers ---

func TestEditorReviewer(t *testing.T) {
	ctx := context.Background()
	fb, err := EditorReviewer{}.Review(ctx, types.RevisionState{Round: 0, Feedback: "ignored at round 0"})
	require.NoError(t, err)
	assert.Equal(t, DefaultDraftReview, fb)

	fb, err = EditorReviewer{Initial: types.NoFeedback}.Review(ctx, types.RevisionState{Round: 0})
	require.NoError(t, err)
	assert.Equal(t, DefaultDraftReview, fb)

	fb, err = EditorReviewer{Initial: "Start here."}.Review(ctx, types.RevisionState{Round: 0})
	require.NoError(t, err)
	assert.Equal(t, types.Feedback("Start here."), fb)

	fb, err = EditorReviewer{Initial: "Start here."}.Review(ctx, types.RevisionState{Round: 2, Feedback: "Editor note."})
	require.NoError(t, err)
	assert.Equal(t, types.Feedback("Editor note."), fb)
}

func TestScriptedReviewerRunsOut(t *testing.T) {
	r := &ScriptedReviewer{Feedback: []types.Feedback{"one"}}
	fb, _ := r.Review(context.Background(), types.RevisionState{})
	assert.Equal(t, types.Feedback("one"), fb)
	fb, _ = r.Review(context.Background(), types.RevisionState{})
	assert.Equal(t, types.NoFeedback, fb)
}

func TestPromptReviewer(t *testing.T) {
	var out bytes.Buffer
	r := NewPromptReviewer(strings.NewReader("  Add a stove.  \n\n"), &out)
	ctx := context.Background()

	fb, err := r.Review(ctx, types.RevisionState{Round: 0, Feedback: types.NoFeedback})
	require.NoError(t, err)
	assert.Equal(t, types.Feedback("Add a stove."), fb)
	assert.Contains(t, out.String(), "Feedback for round 1")
	assert.NotContains(t, out.String(), "Editor feedback")

	fb, err = r.Review(ctx, types.RevisionState{Round: 1, Feedback: "Tighten it."})
	require.NoError(t, err)
	assert.True(t, fb.IsNone())
	assert.Contains(t, out.String(), "Editor feedback: Tighten it.")

	fb, err = r.Review(ctx, types.RevisionState{Round: 2})
	require.NoError(t, err)
	assert.True(t, fb.IsNone(), "end of input accepts")
}

func TestPromptReviewerReadError(t *testing.T) {
	r := NewPromptReviewer(errReader{}, nil)
	_, err := r.Review(context.Background(), types.RevisionState{})
	require.Error(t, err)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("tty closed") }

func TestStateString(t *testing.T) {
	assert.Equal(t, "drafting", Drafting.String())
	assert.Equal(t, "awaiting_feedback", AwaitingFeedback.String())
	assert.Equal(t, "revising", Revising.String())
	assert.Equal(t, "done", Done.String())
	assert.Equal(t, "unknown", State(42).String())
}
