// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/creative-writer/internal/draft"
	"github.com/pdiddy/creative-writer/internal/editor"
	"github.com/pdiddy/creative-writer/pkg/types"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Revise an article once against feedback",
	Long: `Edit sends an article and feedback to the editor and prints the revised
article. The editor's own feedback goes to stderr.

The article comes from a saved run (--run) or a Markdown file (--article).
Without --feedback, the editor feedback recorded for the run is used. The
revision is appended to the run history and saved.`,
	RunE: runEdit,
}

func runEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	runID, _ := cmd.Flags().GetString("run")
	articlePath, _ := cmd.Flags().GetString("article")
	feedbackFlag, _ := cmd.Flags().GetString("feedback")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Revision.Validate(); err != nil {
		return err
	}

	rec, err := editTarget(cfg.Output.Dir, runID, articlePath)
	if err != nil {
		return err
	}

	feedback := types.Feedback(feedbackFlag)
	if feedback.IsNone() {
		feedback = rec.Final.Feedback
	}
	if feedback.IsNone() {
		return fmt.Errorf("%w: no feedback to address; pass --feedback", types.ErrInvalidConfig)
	}

	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		return err
	}
	prompts, err := loadPrompts(cfg)
	if err != nil {
		return err
	}
	ed := editor.New(gen, prompts, editor.Mode(cfg.Revision.ParseMode), logger)

	article, next, err := ed.Edit(ctx, rec.Final.Article, feedback)
	if err != nil {
		return err
	}

	round := types.Round{
		Number:         rec.Final.Round + 1,
		Feedback:       feedback,
		Article:        article,
		EditorFeedback: next,
		CreatedAt:      time.Now().UTC(),
	}
	rec.History = append(rec.History, round)
	rec.Final = types.RevisionState{Article: article, Feedback: next, Round: round.Number}

	fmt.Fprintln(cmd.OutOrStdout(), string(article))
	fmt.Fprintf(cmd.ErrOrStderr(), "Editor feedback: %s\n", next)

	dir, err := draft.Save(cfg.Output.Dir, rec)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Saved round %d of %s to %s\n", round.Number, rec.RunID, dir)
	return nil
}

// editTarget loads the record to revise: a saved run, or a new record
// whose draft is the article file.
func editTarget(outputDir, runID, articlePath string) (*draft.Record, error) {
	switch {
	case runID != "" && articlePath != "":
		return nil, fmt.Errorf("%w: use either --run or --article", types.ErrInvalidConfig)
	case runID != "":
		if !validRunID(runID) {
			return nil, fmt.Errorf("%w: run ID %q must name a directory in the output directory", types.ErrInvalidConfig, runID)
		}
		return draft.LoadHistory(filepath.Join(outputDir, runID))
	case articlePath != "":
		data, err := os.ReadFile(articlePath)
		if err != nil {
			return nil, fmt.Errorf("reading article: %w", err)
		}
		article := types.Article(strings.TrimSpace(string(data)))
		return &draft.Record{
			Final: types.RevisionState{Article: article, Feedback: types.NoFeedback},
			History: []types.Round{{
				Article:        article,
				Feedback:       types.NoFeedback,
				EditorFeedback: types.NoFeedback,
				CreatedAt:      time.Now().UTC(),
			}},
		}, nil
	default:
		return nil, fmt.Errorf("%w: --run or --article is required", types.ErrInvalidConfig)
	}
}

// validRunID reports whether id is a single path element, so joining it to
// the output directory cannot leave that directory.
func validRunID(id string) bool {
	return id != "." && id != ".." && !strings.ContainsAny(id, `/\`) && filepath.Base(id) == id
}

func init() {
	editCmd.Flags().String("run", "", "saved run ID to revise")
	editCmd.Flags().String("article", "", "Markdown article file to revise")
	editCmd.Flags().String("feedback", "", "feedback for the editor to address")
	editCmd.Flags().String("parse-mode", "", "editor output format: delimiter or tagged")

	rootCmd.AddCommand(editCmd)
}
