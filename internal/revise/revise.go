// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package revise drives the writer-editor loop: draft once, then alternate
// reviewer feedback and editor revisions until the feedback runs out or the
// round cap is reached.
package revise

import (
	"context"
	"fmt"
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/creative-writer/internal/writer"
	"github.com/pdiddy/creative-writer/pkg/types"
)

// State is a controller state.
type State int

// Controller states, in loop order.
const (
	Drafting State = iota
	AwaitingFeedback
	Revising
	Done
)

func (s State) String() string {
	switch s {
	case Drafting:
		return "drafting"
	case AwaitingFeedback:
		return "awaiting_feedback"
	case Revising:
		return "revising"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// StopReason records why the loop reached Done.
type StopReason string

const (
	// StopReviewerSatisfied means the reviewer returned no feedback.
	StopReviewerSatisfied StopReason = "reviewer_satisfied"

	// StopEditorSatisfied means the editor attached no feedback to its revision.
	StopEditorSatisfied StopReason = "editor_satisfied"

	// StopMaxRounds means the round cap was reached.
	StopMaxRounds StopReason = "max_rounds"
)

// Drafter produces the initial draft as a chunk stream. A returned sequence
// holds an open upstream stream until it is ranged; callers that drop it
// unread pass it to writer.Discard.
type Drafter interface {
	Write(ctx context.Context, req writer.Request) (iter.Seq[types.Chunk], error)
}

// Reviser revises an article against feedback.
type Reviser interface {
	Edit(ctx context.Context, article types.Article, feedback types.Feedback) (types.Article, types.Feedback, error)
}

// Result is the outcome of a Run.
type Result struct {
	Final   types.RevisionState `json:"final" yaml:"final"`
	History []types.Round       `json:"history" yaml:"history"`
	Reason  StopReason          `json:"reason" yaml:"reason"`
}

// Controller runs the revision loop. Set the callbacks before calling Run.
type Controller struct {
	drafter   Drafter
	reviser   Reviser
	maxRounds int
	log       *zap.Logger

	// OnChunk receives each draft chunk as it arrives.
	OnChunk func(string)

	// OnRound receives each completed round, the draft included.
	OnRound func(types.Round)

	now func() time.Time
}

// NewController creates a Controller that stops after maxRounds editor
// passes. maxRounds below 1 is treated as 1.
func NewController(d Drafter, r Reviser, maxRounds int, logger *zap.Logger) *Controller {
	if maxRounds < 1 {
		maxRounds = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{drafter: d, reviser: r, maxRounds: maxRounds, log: logger, now: time.Now}
}

// Run drafts an article from req and revises it until Done. Errors from the
// writer, reviewer, or editor end the run immediately and are not retried;
// the returned Result then holds the rounds completed so far.
func (c *Controller) Run(ctx context.Context, req writer.Request, reviewer Reviewer) (Result, error) {
	var (
		res      Result
		state    types.RevisionState
		feedback types.Feedback
	)

	for st := Drafting; st != Done; {
		c.log.Debug("revision state", zap.Stringer("state", st), zap.Int("round", state.Round))

		switch st {
		case Drafting:
			req.Feedback = types.NoFeedback
			seq, err := c.drafter.Write(ctx, req)
			if err != nil {
				return res, fmt.Errorf("drafting: %w", err)
			}
			article, err := writer.CollectFunc(seq, c.OnChunk)
			if err != nil {
				return res, fmt.Errorf("drafting: %w", err)
			}
			state = types.RevisionState{Article: article, Feedback: types.NoFeedback}
			c.record(&res, types.Round{Article: article, Feedback: types.NoFeedback, EditorFeedback: types.NoFeedback})
			st = AwaitingFeedback

		case AwaitingFeedback:
			if state.Round >= c.maxRounds {
				res.Reason = StopMaxRounds
				st = Done
				continue
			}
			fb, err := reviewer.Review(ctx, state)
			if err != nil {
				return res, fmt.Errorf("reviewing round %d: %w", state.Round, err)
			}
			if fb.IsNone() {
				res.Reason = StopReviewerSatisfied
				st = Done
				continue
			}
			feedback = fb
			st = Revising

		case Revising:
			article, next, err := c.reviser.Edit(ctx, state.Article, feedback)
			if err != nil {
				return res, fmt.Errorf("revising round %d: %w", state.Round+1, err)
			}
			state = types.RevisionState{Article: article, Feedback: next, Round: state.Round + 1}
			c.record(&res, types.Round{
				Number:         state.Round,
				Feedback:       feedback,
				Article:        article,
				EditorFeedback: next,
			})
			if next.IsNone() {
				res.Reason = StopEditorSatisfied
				st = Done
				continue
			}
			st = AwaitingFeedback
		}
		res.Final = state
	}

	res.Final = state
	c.log.Info("revision complete",
		zap.Int("rounds", state.Round),
		zap.String("reason", string(res.Reason)))
	return res, nil
}

func (c *Controller) record(res *Result, r types.Round) {
	r.CreatedAt = c.now().UTC()
	res.History = append(res.History, r)
	if c.OnRound != nil {
		c.OnRound(r)
	}
}
