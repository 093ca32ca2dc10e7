package scan

import (
	"context"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/src-d/enry/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/todoscope/pkg/annotation"
	"github.com/Sumatoshi-tech/todoscope/pkg/attribution"
	"github.com/Sumatoshi-tech/todoscope/pkg/gitlib"
	"github.com/Sumatoshi-tech/todoscope/pkg/selector"
)

type fileStatus int

const (
	statusSkipped fileStatus = iota
	statusNoTodos
	statusUntracked
	statusAttributed
	statusBlameFailed
)

func (s fileStatus) String() string {
	switch s {
	case statusSkipped:
		return "skipped"
	case statusNoTodos:
		return "none"
	case statusUntracked:
		return "untracked"
	case statusAttributed:
		return "attributed"
	case statusBlameFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type fileResult struct {
	status fileStatus
	todos  []annotation.Todo
}

type lineMatch struct {
	line  int
	match annotation.Match
}

// scanFile parses one candidate and attributes its annotations.
// Blame runs only for files that carry at least one annotation.
func (s *Scanner) scanFile(
	ctx context.Context, repo *gitlib.Repository, logger *slog.Logger, cand selector.Candidate, started time.Time,
) fileResult {
	if s.opts.TraceVerbose {
		var span trace.Span

		ctx, span = s.opts.tracer().Start(ctx, "todoscope.file",
			trace.WithAttributes(attribute.String("file.path", cand.Path)))
		defer span.End()
	}

	data, err := os.ReadFile(cand.AbsPath)
	if err != nil {
		logger.WarnContext(ctx, "read file failed", "path", cand.Path, "error", err)
		s.opts.Metrics.RecordSkip(ctx)

		return fileResult{status: statusSkipped}
	}

	var matches []lineMatch

	for i, line := range splitLines(string(data)) {
		match, ok := s.parser.Parse(line)
		if !ok || match.Message == "" {
			continue
		}

		matches = append(matches, lineMatch{line: i + 1, match: match})
	}

	if len(matches) == 0 {
		s.opts.Metrics.RecordFile(ctx, statusNoTodos.String(), 0)

		return fileResult{status: statusNoTodos}
	}

	lines, outcome := attribution.New(repo, logger).Attribute(ctx, cand.Path, data)

	status := statusAttributed

	switch outcome {
	case attribution.Untracked:
		status = statusUntracked
	case attribution.Failed:
		status = statusBlameFailed
		s.opts.Metrics.RecordBlameFailure(ctx)
	case attribution.Attributed:
	}

	language := enry.GetLanguage(path.Base(cand.Path), data)
	todos := make([]annotation.Todo, 0, len(matches))

	for _, lm := range matches {
		todo := annotation.Todo{
			Path:       cand.Path,
			Line:       lm.line,
			Tags:       lm.match.Tags,
			Message:    lm.match.Message,
			Display:    lm.match.Display,
			Author:     annotation.Uncommitted,
			CommitID:   gitlib.ZeroHash(),
			CommitTime: started,
			Language:   language,
		}

		if commit, ok := lines[lm.line]; ok {
			todo.Author = commit.Author
			todo.Email = commit.Email
			todo.CommitID = commit.ID
			todo.CommitTime = commit.When
		}

		todos = append(todos, todo)
	}

	s.opts.Metrics.RecordFile(ctx, status.String(), len(todos))
	logger.DebugContext(ctx, "file scanned", "path", cand.Path, "todos", len(todos), "attribution", status.String())

	return fileResult{status: status, todos: todos}
}

// splitLines splits on "\n", dropping a trailing "\r" per line and the empty
// element after a final newline.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}

	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	return lines
}
