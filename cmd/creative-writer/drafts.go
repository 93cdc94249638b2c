// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/creative-writer/internal/draft"
)

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "List saved runs, newest first",
	RunE:  runDrafts,
}

func runDrafts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runs, err := draft.Runs(cfg.Output.Dir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No drafts found.")
		return nil
	}
	fmt.Fprintf(out, "%-36s  %-20s  %-6s  %-18s  %s\n", "Run", "Created", "Rounds", "Reason", "Assignment")
	fmt.Fprintln(out, strings.Repeat("-", 120))
	for _, r := range runs {
		assignment := r.Assignment
		if len(assignment) > 30 {
			assignment = assignment[:27] + "..."
		}
		fmt.Fprintf(out, "%-36s  %-20s  %-6d  %-18s  %s\n",
			r.RunID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Final.Round, r.Reason, assignment)
	}
	fmt.Fprintf(out, "\n%d drafts\n", len(runs))
	return nil
}

func init() {
	draftsCmd.Flags().Bool("json", false, "output runs as JSON")

	rootCmd.AddCommand(draftsCmd)
}
