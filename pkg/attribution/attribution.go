// Package attribution maps the lines of a file to the commits that last changed them.
package attribution

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/todoscope/pkg/gitlib"
)

// LineMap maps 1-based line numbers to their commit. Missing lines are unattributed.
type LineMap map[int]gitlib.CommitSummary

// Expand assigns hunk lines sequentially from line 1.
// Runs of zero or negative length contribute nothing.
func Expand(hunks []gitlib.BlameHunk) LineMap {
	m := make(LineMap)
	line := 1

	for _, hunk := range hunks {
		for range max(hunk.Lines, 0) {
			m[line] = hunk.Commit
			line++
		}
	}

	return m
}

// Reconcile re-maps a HEAD attribution onto the working copy of a file.
// Lines kept from the committed version keep their commit, inserted lines
// become unattributed.
func Reconcile(m LineMap, committed, working []byte) LineMap {
	if bytes.Equal(committed, working) {
		return m
	}

	dmp := diffmatchpatch.New()
	src, dst, _ := dmp.DiffLinesToRunes(string(committed), string(working))
	diffs := dmp.DiffMainRunes(src, dst, false)

	out := make(LineMap, len(m))
	oldLine, newLine := 1, 1

	for _, edit := range diffs {
		count := utf8.RuneCountInString(edit.Text)

		switch edit.Type {
		case diffmatchpatch.DiffEqual:
			for i := range count {
				if summary, ok := m[oldLine+i]; ok {
					out[newLine+i] = summary
				}
			}

			oldLine += count
			newLine += count
		case diffmatchpatch.DiffDelete:
			oldLine += count
		case diffmatchpatch.DiffInsert:
			newLine += count
		}
	}

	return out
}

// Outcome classifies how a file was attributed.
type Outcome int

const (
	// Untracked means the file has no committed version.
	Untracked Outcome = iota
	// Attributed means blame succeeded.
	Attributed
	// Failed means blame failed and the file is treated as unattributed.
	Failed
)

// Source is the history backend of an Attributor.
type Source interface {
	HeadFileContents(rel string) ([]byte, error)
	Blame(rel string) ([]gitlib.BlameHunk, error)
}

// Attributor attributes whole files.
type Attributor struct {
	src    Source
	logger *slog.Logger
}

// New creates an Attributor. A nil logger discards diagnostics.
func New(src Source, logger *slog.Logger) *Attributor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Attributor{src: src, logger: logger}
}

// Attribute returns the line map of rel given its working-copy contents.
// Failures never abort: the map is empty and the outcome says why.
func (a *Attributor) Attribute(ctx context.Context, rel string, working []byte) (LineMap, Outcome) {
	committed, err := a.src.HeadFileContents(rel)
	if err != nil {
		if errors.Is(err, gitlib.ErrNotInHead) {
			return LineMap{}, Untracked
		}

		a.logger.WarnContext(ctx, "read committed file failed", "path", rel, "error", err)

		return LineMap{}, Failed
	}

	hunks, err := a.src.Blame(rel)
	if err != nil {
		a.logger.WarnContext(ctx, "blame failed", "path", rel, "error", err)

		return LineMap{}, Failed
	}

	return Reconcile(Expand(hunks), committed, working), Attributed
}
