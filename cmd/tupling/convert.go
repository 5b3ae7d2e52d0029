package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"umd-lhcb/tupling/pkg/ntuple"
)

var convertFlags struct {
	trees  []string
	driver string
}

var convertCmd = &cobra.Command{
	Use:   "convert <input.yaml> <output.db>",
	Short: "Convert a YAML ntuple to SQLite",
	Long: `Convert a YAML ntuple fixture into a SQLite ntuple database.

Every tree becomes a table and every branch a column. Existing tables of the
same name are replaced.

Examples:
  # Convert all trees
  tupling convert ntuple.yaml ntuple.db

  # Convert one tree with the cgo driver
  tupling convert ntuple.yaml ntuple.db --tree TupleB0/DecayTree --driver sqlite3`,
	Args: cobra.ExactArgs(2),
	RunE: convertNtuple,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringSliceVarP(&convertFlags.trees, "tree", "t", nil, "trees to convert (default: all)")
	convertCmd.Flags().StringVar(&convertFlags.driver, "driver", "", "sqlite driver: sqlite, sqlite3 (uses config if not specified)")
}

func convertNtuple(cmd *cobra.Command, args []string) error {
	src, err := ntuple.LoadYAML(args[0])
	if err != nil {
		return err
	}

	trees := src.Trees()
	if len(convertFlags.trees) > 0 {
		for _, tree := range convertFlags.trees {
			if !slices.Contains(trees, tree) {
				return fmt.Errorf("%w: %q in %s", ntuple.ErrTreeNotFound, tree, args[0])
			}
		}
		trees = convertFlags.trees
	}

	dst, err := ntuple.NewSQLiteSource(&ntuple.SQLiteConfig{
		Path:        args[1],
		Driver:      firstNonEmpty(convertFlags.driver, app.cfg.Data.SQLite.Driver),
		BusyTimeout: app.cfg.Data.SQLite.BusyTimeout,
	})
	if err != nil {
		return err
	}
	defer dst.Close()

	ctx := commandContext(cmd)
	for _, tree := range trees {
		names, err := src.ListBranches(ctx, tree)
		if err != nil {
			return err
		}
		branches, err := src.Branches(ctx, tree, names)
		if err != nil {
			return err
		}
		if err := dst.WriteTree(ctx, tree, branches); err != nil {
			return fmt.Errorf("failed to write tree %q: %w", tree, err)
		}

		entries, _ := src.Entries(ctx, tree)
		app.logger.Info("tree converted", "tree", tree, "branches", len(names), "entries", entries)
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d branches, %d entries\n", tree, len(names), entries)
	}
	return nil
}
