package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/todoscope/pkg/aggregate"
)

// NoTodosMessage is printed when a scan finds nothing.
const NoTodosMessage = "✅ No TODOs found in the repository."

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown report format")

// Format is an output format.
type Format string

// Output formats.
const (
	FormatTree Format = "tree"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatPlot Format = "plot"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatTree, FormatJSON, FormatYAML, FormatPlot}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats() {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Options configures Write.
type Options struct {
	Format Format
	Meta   Meta
	Tree   TreeOptions
	// Summary appends a per-author table to tree output.
	Summary bool
}

// Write renders tree in the requested format.
// An empty tree in tree format prints NoTodosMessage.
func Write(w io.Writer, tree *aggregate.Tree, opts Options) error {
	switch opts.Format {
	case FormatTree, "":
		if tree.Empty() {
			_, err := fmt.Fprintln(w, NoTodosMessage)

			return err
		}

		if err := RenderTree(w, tree, opts.Tree); err != nil {
			return err
		}

		if opts.Summary {
			_, err := fmt.Fprintf(w, "\n%s\n", SummaryTable(tree.Summary()))

			return err
		}

		return nil
	case FormatJSON:
		return WriteJSON(w, NewDocument(tree, opts.Meta))
	case FormatYAML:
		return WriteYAML(w, NewDocument(tree, opts.Meta))
	case FormatPlot:
		return WritePlot(w, tree, opts.Meta)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}
}

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

// WriteYAML writes doc as YAML.
func WriteYAML(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	return enc.Close()
}

// untaggedLabel names the no-tag bucket in the summary table.
const untaggedLabel = "(untagged)"

// SummaryTable renders per-author and per-tag counts.
func SummaryTable(summary aggregate.Summary) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Kind", "Name", "TODOs"})

	for _, c := range summary.Authors {
		tbl.AppendRow(table.Row{"author", c.Name, c.Count})
	}

	tbl.AppendSeparator()

	for _, c := range summary.Tags {
		name := c.Name
		if name == aggregate.NoTag {
			name = untaggedLabel
		}

		tbl.AppendRow(table.Row{"tag", name, c.Count})
	}

	tbl.AppendFooter(table.Row{"", "Total", summary.Total})

	return tbl.Render()
}
