// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/creative-writer/internal/draft"
	"github.com/pdiddy/creative-writer/internal/editor"
	"github.com/pdiddy/creative-writer/internal/revise"
	"github.com/pdiddy/creative-writer/internal/writer"
	"github.com/pdiddy/creative-writer/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Find products, write a draft, and revise it with the editor",
	Long: `Run performs the full pipeline: product search (when --product-context
is set), a streamed writer draft, and editor revisions until the reviewer has
no further feedback, the editor reports none, or --max-rounds is reached.

By default the editor reviews the draft once unprompted, then its own
feedback drives each further round. With --interactive
you are asked for feedback after every round; a blank line accepts the
article. The final article and the round history are saved under the output
directory.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	interactive, _ := cmd.Flags().GetBool("interactive")
	initial, _ := cmd.Flags().GetString("initial-feedback")
	quiet, _ := cmd.Flags().GetBool("quiet")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Revision.Validate(); err != nil {
		return err
	}

	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		return err
	}
	prompts, err := loadPrompts(cfg)
	if err != nil {
		return err
	}
	req, err := draftRequest(ctx, cmd, cfg, gen, prompts)
	if err != nil {
		return err
	}

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	ctrl := revise.NewController(
		writer.New(gen, prompts, logger),
		editor.New(gen, prompts, editor.Mode(cfg.Revision.ParseMode), logger),
		cfg.Revision.MaxRounds,
		logger,
	)
	if !quiet {
		ctrl.OnChunk = func(s string) { fmt.Fprint(out, s) }
	}
	ctrl.OnRound = func(r types.Round) {
		if r.Number == 0 {
			fmt.Fprintln(errOut, "\n--- draft complete")
			return
		}
		fmt.Fprintf(errOut, "--- round %d complete; editor feedback: %s\n", r.Number, r.EditorFeedback)
	}

	var reviewer revise.Reviewer = revise.EditorReviewer{Initial: types.Feedback(initial)}
	if interactive {
		reviewer = revise.NewPromptReviewer(cmd.InOrStdin(), errOut)
	}

	res, runErr := ctrl.Run(ctx, req, reviewer)
	if len(res.History) == 0 {
		return runErr
	}

	rec := &draft.Record{
		ResearchContext: req.ResearchContext,
		ProductContext:  req.ProductContext,
		Assignment:      req.Assignment,
		Products:        req.Products,
		Final:           res.Final,
		History:         res.History,
		Reason:          string(res.Reason),
	}
	dir, err := draft.Save(cfg.Output.Dir, rec)
	if err != nil {
		return errors.Join(runErr, err)
	}
	logger.Info("run saved",
		zap.String("run_id", rec.RunID),
		zap.String("dir", dir),
		zap.Int("rounds", res.Final.Round))

	if runErr != nil {
		fmt.Fprintf(errOut, "Partial run saved to %s\n", dir)
		return runErr
	}
	if res.Final.Round > 0 || quiet {
		fmt.Fprintf(errOut, "\nFinal article (round %d, %s):\n\n", res.Final.Round, res.Reason)
		fmt.Fprintln(out, string(res.Final.Article))
	}
	fmt.Fprintf(errOut, "Saved run %s to %s\n", rec.RunID, dir)
	return nil
}

func init() {
	addDraftFlags(runCmd)
	f := runCmd.Flags()
	f.Bool("interactive", false, "ask for feedback on stdin after each round")
	f.String("initial-feedback", "", "feedback on the first draft (default: a general editing pass)")
	f.Int("max-rounds", 0, "maximum editor rounds (default from config)")
	f.String("parse-mode", "", "editor output format: delimiter or tagged")
	f.BoolP("quiet", "q", false, "do not stream the draft; print only the final article")

	rootCmd.AddCommand(runCmd)
}
