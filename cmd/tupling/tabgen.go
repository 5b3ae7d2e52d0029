package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"umd-lhcb/tupling/pkg/cli"
)

var tabgenFlags struct {
	format    string
	alignment []string
}

var tabgenCmd = &cobra.Command{
	Use:   "tabgen [file...]",
	Short: "Render comma-separated rows as a table",
	Long: `Render comma-separated rows as a table. The first row is the header.
Cells are trimmed. Input is read from the files, or stdin when none are given.

Examples:
  # GitHub markdown table
  printf 'cut,yield\nL0,1200\nHlt1,800\n' | tupling tabgen

  # Aligned text with a right-aligned second column
  tupling tabgen yields.csv --format text --alignment left,right`,
	RunE: generateTable,
}

func init() {
	rootCmd.AddCommand(tabgenCmd)

	tabgenCmd.Flags().StringVarP(&tabgenFlags.format, "format", "f", "markdown", "output format: markdown, text, csv, json, yaml")
	tabgenCmd.Flags().StringSliceVarP(&tabgenFlags.alignment, "alignment", "a", nil, "alignment of each column: left, right")
}

// rawTable is a table read from delimited text.
type rawTable cli.Table

// Table implements cli.Tabular.
func (t rawTable) Table() cli.Table { return cli.Table(t) }

func generateTable(cmd *cobra.Command, args []string) error {
	formatter, err := outputFormat(tabgenFlags.format)
	if err != nil {
		return err
	}

	var readers []io.Reader
	if len(args) == 0 {
		readers = append(readers, cmd.InOrStdin())
	}
	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		readers = append(readers, f)
	}

	table, err := readTable(io.MultiReader(readers...))
	if err != nil {
		return err
	}
	if table.RightAlign, err = parseAlignment(tabgenFlags.alignment, len(table.Headers)); err != nil {
		return err
	}

	return formatter.FormatTo(cmd.OutOrStdout(), table)
}

// readTable reads comma-separated rows. Rows may have different lengths.
func readTable(r io.Reader) (rawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var table rawTable
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return table, fmt.Errorf("failed to read table: %w", err)
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		if table.Headers == nil {
			table.Headers = record
			continue
		}
		table.Rows = append(table.Rows, record)
	}

	if table.Headers == nil {
		return table, fmt.Errorf("no input rows")
	}
	return table, nil
}

// parseAlignment maps left/right names to right-alignment flags. A single
// value applies to every column.
func parseAlignment(names []string, columns int) ([]bool, error) {
	if len(names) == 0 {
		return nil, nil
	}
	if len(names) == 1 {
		names = slices.Repeat(names, columns)
	}
	if len(names) != columns {
		return nil, cli.NewConfigError("alignment", fmt.Sprintf("%d alignments for %d columns", len(names), columns))
	}

	right := make([]bool, columns)
	for i, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "left", "l":
		case "right", "r":
			right[i] = true
		default:
			return nil, cli.NewConfigError("alignment", fmt.Sprintf("unknown alignment %q", name))
		}
	}
	return right, nil
}
