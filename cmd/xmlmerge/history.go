package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nao1215/xmlmerge/internal/config"
	"github.com/nao1215/xmlmerge/internal/database"
	"github.com/nao1215/xmlmerge/internal/report"
)

// defaultHistoryLimit is the number of runs listed when --limit is not given.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
// This command shows runs recorded with "xmlmerge run --history".
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past runs from the history database",
		Long: `History lists runs recorded with "xmlmerge run --history" (or
"history: true" in the configuration file), newest first.

Pass --id to print the full report of one run. The merged catalog itself is
not stored, only the run report.

Examples:
  # List the 20 most recent runs
  xmlmerge history

  # List every recorded run
  xmlmerge history --limit 0

  # Show the report of run 5
  xmlmerge history --id 5

  # Show the report of run 5 as Markdown
  xmlmerge history --id 5 --markdown`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", defaultHistoryLimit,
		"Maximum number of runs to list (0 lists all)")
	cmd.Flags().Int64("id", 0,
		"Show the report of the run with this ID")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output a Markdown report, with --id only")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	id, err := cmd.Flags().GetInt64("id")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return config.ErrConflictingReportFormats
	}

	// Reading history must not create an empty database.
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dbDir, opts)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if id > 0 {
		return showRun(ctx, db, id, out, jsonOutput, markdownOutput)
	}
	return listRuns(ctx, db, limit, out, jsonOutput)
}

// listRuns prints the most recent runs as a table or as JSON.
func listRuns(ctx context.Context, db *database.HistoryDB, limit int, out io.Writer, jsonOutput bool) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		if runs == nil {
			runs = []database.RunRecord{}
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet")
		return nil
	}

	fmt.Fprintf(out, "Run history (%d runs):\n\n", len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %-10s  %-8s  %-8s  %s\n",
		"ID", "Started", "Status", "Sources", "Products", "Location")
	for _, r := range runs {
		fmt.Fprintf(out, "  %-6d  %-20s  %-10s  %-8s  %-8d  %s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Status,
			fmt.Sprintf("%d/%d", r.Succeeded, r.Sources),
			r.Products,
			r.Location,
		)
	}
	fmt.Fprintln(out, "\nUse 'xmlmerge history --id <ID>' to show a run report.")
	return nil
}

// showRun prints the stored report of one run.
func showRun(ctx context.Context, db *database.HistoryDB, id int64, out io.Writer, jsonOutput, markdownOutput bool) error {
	runReport, err := db.GetRun(ctx, id)
	if err != nil {
		return err
	}

	var w report.Writer
	switch {
	case jsonOutput:
		w = report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
	case markdownOutput:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSimpleWriter(out, report.WithVerbose(true))
	}

	_, err = w.Write(runReport)
	return err
}
