package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is an aligned plain text table (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
	// FormatCSV is CSV output.
	FormatCSV OutputFormat = "csv"
	// FormatYAML is YAML output.
	FormatYAML OutputFormat = "yaml"
	// FormatMarkdown is a GitHub flavored markdown table.
	FormatMarkdown OutputFormat = "markdown"
)

// Formats lists the supported output formats.
var Formats = []OutputFormat{FormatText, FormatJSON, FormatCSV, FormatYAML, FormatMarkdown}

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatCSV, FormatYAML, FormatMarkdown:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	case "":
		return FormatText, nil
	default:
		return "", NewConfigError("format", fmt.Sprintf("unknown output format %q", s))
	}
}

// Table is a rectangular result with a header row.
type Table struct {
	Headers []string
	Rows    [][]string

	// RightAlign marks numeric columns in markdown output.
	RightAlign []bool
}

// Tabular is implemented by results that render as a table. CSV and
// markdown output require it; text output uses it when available.
type Tabular interface {
	Table() Table
}

// Formatter formats command output.
type Formatter interface {
	FormatTo(w io.Writer, data any) error
}

// TextFormatter formats output as plain text.
type TextFormatter struct{}

// FormatTo writes data to writer in text format.
func (f *TextFormatter) FormatTo(w io.Writer, data any) error {
	t, ok := data.(Tabular)
	if !ok {
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}

	table := t.Table()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writeRow := func(cells []string) {
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}

	writeRow(table.Headers)
	for _, row := range table.Rows {
		writeRow(row)
	}
	return tw.Flush()
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes data to writer in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// YAMLFormatter formats output as YAML.
type YAMLFormatter struct{}

// FormatTo writes data to writer in YAML format.
func (f *YAMLFormatter) FormatTo(w io.Writer, data any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}

// CSVFormatter formats tabular output as CSV.
type CSVFormatter struct{}

// FormatTo writes data to writer in CSV format.
func (f *CSVFormatter) FormatTo(w io.Writer, data any) error {
	t, ok := data.(Tabular)
	if !ok {
		return fmt.Errorf("csv output is not supported for %T", data)
	}

	table := t.Table()
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(table.Headers); err != nil {
		return err
	}
	if err := csvWriter.WriteAll(table.Rows); err != nil {
		return err
	}
	return csvWriter.Error()
}

// MarkdownFormatter formats tabular output as a GitHub markdown table.
type MarkdownFormatter struct{}

// FormatTo writes data to writer as a markdown table.
func (f *MarkdownFormatter) FormatTo(w io.Writer, data any) error {
	t, ok := data.(Tabular)
	if !ok {
		return fmt.Errorf("markdown output is not supported for %T", data)
	}

	table := t.Table()
	var sb strings.Builder

	sb.WriteString("| " + strings.Join(escapeCells(table.Headers), " | ") + " |\n")

	sep := make([]string, len(table.Headers))
	for i := range sep {
		sep[i] = ":---"
		if i < len(table.RightAlign) && table.RightAlign[i] {
			sep[i] = "---:"
		}
	}
	sb.WriteString("|" + strings.Join(sep, "|") + "|\n")

	for _, row := range table.Rows {
		sb.WriteString("| " + strings.Join(escapeCells(row), " | ") + " |\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// escapeCells escapes pipes, which would otherwise split a cell. Cut
// expressions routinely contain "|".
func escapeCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	return out
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatCSV:
		return &CSVFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TextFormatter{}
	}
}
