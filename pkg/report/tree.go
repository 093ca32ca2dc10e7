// Package report renders aggregated annotations as a console tree, JSON, YAML or an HTML plot.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/list"

	"github.com/Sumatoshi-tech/todoscope/pkg/aggregate"
	"github.com/Sumatoshi-tech/todoscope/pkg/annotation"
)

// Tree glyphs.
const (
	tagGlyph    = "🏷️"
	authorGlyph = "👤"
)

// TreeWriter builds one indented tree.
type TreeWriter struct {
	l list.Writer
}

// NewTreeWriter creates an empty TreeWriter.
func NewTreeWriter() *TreeWriter {
	l := list.NewWriter()
	l.SetStyle(list.StyleConnectedLight)

	return &TreeWriter{l: l}
}

// Begin adds a node and descends into it.
func (t *TreeWriter) Begin(label string) {
	t.l.AppendItem(label)
	t.l.Indent()
}

// Leaf adds a node at the current depth.
func (t *TreeWriter) Leaf(label string) {
	t.l.AppendItem(label)
}

// End returns to the parent depth.
func (t *TreeWriter) End() {
	t.l.UnIndent()
}

// Render writes the tree followed by a newline.
func (t *TreeWriter) Render(w io.Writer) error {
	_, err := fmt.Fprintln(w, t.l.Render())

	return err
}

// TreeOptions configures RenderTree.
type TreeOptions struct {
	// Workdir is the repository root that Todo paths are relative to.
	Workdir string
	// Cwd is the directory leaf paths are displayed relative to. Empty means absolute.
	Cwd string
}

// RenderTree writes one tree per commit group, separated by blank lines.
func RenderTree(w io.Writer, tree *aggregate.Tree, opts TreeOptions) error {
	groupColor := color.New(color.FgYellow)

	for i, group := range tree.Groups() {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}

		tw := NewTreeWriter()
		tw.Begin(groupColor.Sprint(group.Label))

		for _, tag := range tree.Tags(group) {
			// Untagged authors hang directly off the group.
			tagged := tag != aggregate.NoTag
			if tagged {
				tw.Begin(tagGlyph + " " + tag)
			}

			for _, author := range tree.Authors(group, tag) {
				tw.Begin(authorGlyph + " " + author)

				for _, todo := range tree.Todos(group, tag, author) {
					tw.Leaf(leafLabel(todo, opts))
				}

				tw.End()
			}

			if tagged {
				tw.End()
			}
		}

		tw.End()

		if err := tw.Render(w); err != nil {
			return err
		}
	}

	return nil
}

func leafLabel(todo annotation.Todo, opts TreeOptions) string {
	return fmt.Sprintf("%s:%d - %s", displayPath(todo.Path, opts), todo.Line, todo.Display)
}

func displayPath(rel string, opts TreeOptions) string {
	abs := filepath.Join(opts.Workdir, filepath.FromSlash(rel))
	if opts.Cwd == "" {
		return abs
	}

	shown, err := filepath.Rel(opts.Cwd, abs)
	if err != nil || shown == ".." || strings.HasPrefix(shown, ".."+string(filepath.Separator)) {
		return abs
	}

	return shown
}
