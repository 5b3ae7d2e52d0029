package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"umd-lhcb/tupling/pkg/cli"
	"umd-lhcb/tupling/pkg/cutflow/store"
)

var runsFlags struct {
	tree   string
	digest string
	since  string
	until  string
	limit  int
	offset int
	format string
	dryRun bool
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Query recorded cutflow runs",
	Long: `Query, show and prune cutflow runs recorded with "tupling cutflow --record".

The run store is configured in the storage section of the config file.

Subcommands:
  list    - List recorded runs with filters
  show    - Print the cutflow table of one run
  delete  - Delete runs by ID
  prune   - Apply the retention policy now

Examples:
  # Last ten runs on one tree
  tupling runs list --tree TupleB0/DecayTree --limit 10

  # Runs of the same rules since a date
  tupling runs list --digest 3f2a... --since 2026-01-01T00:00:00Z

  # Markdown table of a run
  tupling runs show 6c1e... --format markdown`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs",
	Args:  cobra.NoArgs,
	RunE:  listRuns,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  showRun,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>...",
	Short: "Delete recorded runs",
	Args:  cobra.MinimumNArgs(1),
	RunE:  deleteRuns,
}

var runsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Apply the retention policy",
	Args:  cobra.NoArgs,
	RunE:  pruneRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsDeleteCmd, runsPruneCmd)

	runsListCmd.Flags().StringVar(&runsFlags.tree, "tree", "", "filter by tree")
	runsListCmd.Flags().StringVar(&runsFlags.digest, "digest", "", "filter by rules digest")
	runsListCmd.Flags().StringVar(&runsFlags.since, "since", "", "runs started at or after (RFC3339)")
	runsListCmd.Flags().StringVar(&runsFlags.until, "until", "", "runs started at or before (RFC3339)")
	runsListCmd.Flags().IntVar(&runsFlags.limit, "limit", 100, "max results")
	runsListCmd.Flags().IntVar(&runsFlags.offset, "offset", 0, "pagination offset")
	runsListCmd.Flags().StringVar(&runsFlags.format, "format", "text", "output format: text, json, yaml, csv, markdown")

	runsShowCmd.Flags().StringVar(&runsFlags.format, "format", "text", "output format: text, json, yaml, csv, markdown")

	runsPruneCmd.Flags().BoolVar(&runsFlags.dryRun, "dry-run", false, "report what the policy covers without deleting")
}

// runList is a page of recorded runs.
type runList struct {
	Total int64        `json:"total" yaml:"total"`
	Runs  []*store.Run `json:"runs" yaml:"runs"`
}

// Table implements cli.Tabular.
func (l *runList) Table() cli.Table {
	t := cli.Table{
		Headers:    []string{"ID", "Started", "Tree", "Steps", "Init", "Final", "Digest"},
		RightAlign: []bool{false, false, false, true, true, true, false},
		Rows:       make([][]string, len(l.Runs)),
	}
	for i, run := range l.Runs {
		final := "-"
		if n := len(run.Steps); n > 0 {
			final = strconv.FormatInt(run.Steps[n-1].Output, 10)
		}
		t.Rows[i] = []string{
			run.ID,
			run.StartedAt.Format(time.RFC3339),
			run.Tree,
			strconv.Itoa(len(run.Steps)),
			strconv.FormatInt(run.InitNum, 10),
			final,
			shortDigest(run.RulesDigest),
		}
	}
	return t
}

// runDetail is one recorded run with its cutflow table.
type runDetail struct {
	*store.Run
}

// Table implements cli.Tabular.
func (d runDetail) Table() cli.Table {
	return rowsTable(d.Run.Table())
}

func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}

func listRuns(cmd *cobra.Command, args []string) error {
	formatter, err := outputFormat(runsFlags.format)
	if err != nil {
		return err
	}

	query := &store.Query{
		Tree:        runsFlags.tree,
		RulesDigest: runsFlags.digest,
		Limit:       runsFlags.limit,
		Offset:      runsFlags.offset,
	}
	if query.StartTime, err = parseTimeFlag("since", runsFlags.since); err != nil {
		return err
	}
	if query.EndTime, err = parseTimeFlag("until", runsFlags.until); err != nil {
		return err
	}

	st, err := openStorage(&app.cfg.Storage)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := commandContext(cmd)
	runs, err := st.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query runs: %w", err)
	}
	total, err := st.Count(ctx, &store.Query{
		Tree:        query.Tree,
		RulesDigest: query.RulesDigest,
		StartTime:   query.StartTime,
		EndTime:     query.EndTime,
	})
	if err != nil {
		return fmt.Errorf("failed to count runs: %w", err)
	}

	return formatter.FormatTo(cmd.OutOrStdout(), &runList{Total: total, Runs: runs})
}

func showRun(cmd *cobra.Command, args []string) error {
	formatter, err := outputFormat(runsFlags.format)
	if err != nil {
		return err
	}

	st, err := openStorage(&app.cfg.Storage)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.Get(commandContext(cmd), args[0])
	if err != nil {
		return err
	}

	f, _ := cli.ParseFormat(runsFlags.format)
	if f == cli.FormatJSON || f == cli.FormatYAML {
		return formatter.FormatTo(cmd.OutOrStdout(), run)
	}
	return formatter.FormatTo(cmd.OutOrStdout(), runDetail{run})
}

func deleteRuns(cmd *cobra.Command, args []string) error {
	st, err := openStorage(&app.cfg.Storage)
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.Delete(commandContext(cmd), &store.Query{IDs: args})
	if err != nil {
		return fmt.Errorf("failed to delete runs: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d runs\n", n)
	return nil
}

func pruneRuns(cmd *cobra.Command, args []string) error {
	st, err := openStorage(&app.cfg.Storage)
	if err != nil {
		return err
	}
	defer st.Close()

	retention := retentionConfig(&app.cfg.Storage.Retention)
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	if runsFlags.dryRun {
		total, err := st.Count(ctx, &store.Query{})
		if err != nil {
			return fmt.Errorf("failed to count runs: %w", err)
		}
		fmt.Fprintf(out, "%d runs recorded; retention: %d days, %d runs max\n",
			total, retention.RetentionDays, retention.MaxRuns)
		return nil
	}

	n, err := store.NewPruner(st, retention, app.logger.Slog()).Prune(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "pruned %d runs\n", n)
	return nil
}

// parseTimeFlag parses an optional RFC3339 flag value.
func parseTimeFlag(name, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, cli.NewConfigError(name, fmt.Sprintf("invalid time %q: expected RFC3339", s))
	}
	return &t, nil
}
