// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
)

// Article is the free text produced by the writer or the editor. A revision
// never edits an Article in place; it produces a new one.
type Article string

// Feedback is reviewer or editor commentary attached to one Article.
type Feedback string

// NoFeedback is the sentinel meaning the reviewer has nothing further to ask.
const NoFeedback Feedback = "No Feedback"

// IsNone reports whether the feedback is the sentinel or blank.
func (f Feedback) IsNone() bool {
	s := strings.TrimSpace(string(f))
	return s == "" || strings.EqualFold(s, string(NoFeedback))
}

// RevisionState is the article and feedback pair owned by the revision loop.
// Round 0 is the writer draft.
type RevisionState struct {
	Article  Article  `json:"article" yaml:"article"`
	Feedback Feedback `json:"feedback" yaml:"feedback"`
	Round    int      `json:"round" yaml:"round"`
}

// Round records one editor pass for the revision history.
type Round struct {
	// Number is the round the editor produced (1-based; 0 is the draft).
	Number int `json:"number" yaml:"number"`

	// Feedback is the reviewer feedback the editor was asked to address.
	Feedback Feedback `json:"feedback" yaml:"feedback"`

	// Article is the article produced in this round.
	Article Article `json:"article" yaml:"article"`

	// EditorFeedback is the feedback the editor attached to its output.
	EditorFeedback Feedback `json:"editor_feedback" yaml:"editor_feedback"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
