// Package scan runs the annotation pipeline: select candidate files, parse
// and attribute each file, then aggregate.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/todoscope/pkg/aggregate"
	"github.com/Sumatoshi-tech/todoscope/pkg/annotation"
	"github.com/Sumatoshi-tech/todoscope/pkg/gitlib"
	"github.com/Sumatoshi-tech/todoscope/pkg/observability"
	"github.com/Sumatoshi-tech/todoscope/pkg/selector"
)

const tracerName = "todoscope"

// Scan modes.
const (
	ModeTree = "tree"
	ModeDiff = "diff"
)

// ErrUnknownMode is returned for a mode other than tree or diff.
var ErrUnknownMode = errors.New("unknown scan mode")

// Options configures a scan.
type Options struct {
	// Mode is ModeTree (default) or ModeDiff.
	Mode string
	// BaseBranch is the reference branch of ModeDiff.
	BaseBranch string
	// Workers is the number of concurrent blame workers. Values below 2 scan sequentially.
	Workers      int
	Filters      selector.Config
	CommentsOnly bool
	// Emphasis decorates markers in Todo.Display.
	Emphasis func(string) string
	Order    aggregate.Order

	Logger       *slog.Logger
	Tracer       trace.Tracer
	TraceVerbose bool
	Metrics      *observability.ScanMetrics
	// Now overrides the scan start clock.
	Now func() time.Time
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}

	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (o Options) tracer() trace.Tracer {
	if o.Tracer != nil {
		return o.Tracer
	}

	return otel.Tracer(tracerName)
}

func (o Options) mode() string {
	if o.Mode == "" {
		return ModeTree
	}

	return o.Mode
}

// Stats counts what a scan did.
type Stats struct {
	Candidates    int
	Scanned       int
	Skipped       int
	Attributed    int
	Untracked     int
	BlameFailures int
	Todos         int
	Duration      time.Duration
}

// Result is the outcome of a scan.
type Result struct {
	ScanID  string
	Mode    string
	Branch  string
	Workdir string
	Started time.Time
	// Todos are in candidate order, then line order.
	Todos []annotation.Todo
	Tree  *aggregate.Tree
	Stats Stats
}

// Scanner runs scans against one repository.
type Scanner struct {
	repo   *gitlib.Repository
	opts   Options
	parser *annotation.Parser
}

// New creates a Scanner. The repository stays owned by the caller.
func New(repo *gitlib.Repository, opts Options) *Scanner {
	return &Scanner{
		repo: repo,
		opts: opts,
		parser: annotation.NewParser(annotation.ParserConfig{
			CommentsOnly: opts.CommentsOnly,
			Emphasis:     opts.Emphasis,
		}),
	}
}

// Run opens the repository containing path and scans it.
func Run(ctx context.Context, path string, opts Options) (*Result, error) {
	repo, err := gitlib.OpenRepository(path)
	if err != nil {
		return nil, err
	}
	defer repo.Free()

	return New(repo, opts).Run(ctx)
}

// Run executes one scan. Only candidate selection errors abort it:
// per-file failures are logged and the file is skipped or left unattributed.
func (s *Scanner) Run(ctx context.Context) (*Result, error) {
	now := time.Now
	if s.opts.Now != nil {
		now = s.opts.Now
	}

	res := &Result{
		ScanID:  uuid.NewString(),
		Mode:    s.opts.mode(),
		Workdir: s.repo.Workdir(),
		Started: now(),
	}

	if res.Mode == ModeDiff {
		res.Branch = s.opts.BaseBranch
	}

	logger := s.opts.logger().With("scan_id", res.ScanID)

	ctx, span := s.opts.tracer().Start(ctx, "todoscope.scan", trace.WithAttributes(
		attribute.String("scan.mode", res.Mode),
		attribute.String("scan.id", res.ScanID),
	))
	defer span.End()

	err := s.run(ctx, logger, res)

	res.Stats.Duration = time.Since(res.Started)
	s.opts.Metrics.RecordScan(ctx, res.Mode, res.Stats.Duration, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	logger.InfoContext(ctx, "scan complete",
		"mode", res.Mode,
		"candidates", res.Stats.Candidates,
		"scanned", res.Stats.Scanned,
		"todos", res.Stats.Todos,
		"duration", res.Stats.Duration,
	)

	return res, nil
}

func (s *Scanner) run(ctx context.Context, logger *slog.Logger, res *Result) error {
	sel, err := s.selector(res.Mode, logger)
	if err != nil {
		return err
	}

	selCtx, selSpan := s.opts.tracer().Start(ctx, "todoscope.select")
	candidates, err := sel.Candidates(selCtx)
	selSpan.SetAttributes(attribute.Int("scan.candidates", len(candidates)))
	selSpan.End()

	if err != nil {
		return fmt.Errorf("select candidates: %w", err)
	}

	res.Stats.Candidates = len(candidates)
	logger.DebugContext(ctx, "candidates selected", "count", len(candidates))

	results, err := s.process(ctx, logger, candidates, res.Started)
	if err != nil {
		return err
	}

	for _, fr := range results {
		res.Stats.add(fr)
		res.Todos = append(res.Todos, fr.todos...)
	}

	res.Tree = aggregate.Build(res.Todos, aggregate.Options{Order: s.opts.Order, Now: res.Started})

	return nil
}

func (s *Scanner) selector(mode string, logger *slog.Logger) (selector.Selector, error) {
	filters := s.opts.Filters
	if filters.Logger == nil {
		filters.Logger = logger
	}

	switch mode {
	case ModeTree:
		return selector.NewTreeSelector(s.repo, filters), nil
	case ModeDiff:
		return selector.NewDiffSelector(s.repo, s.opts.BaseBranch, filters), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

func (st *Stats) add(fr fileResult) {
	switch fr.status {
	case statusSkipped:
		st.Skipped++

		return
	case statusNoTodos:
		st.Scanned++

		return
	case statusUntracked:
		st.Untracked++
	case statusAttributed:
		st.Attributed++
	case statusBlameFailed:
		st.BlameFailures++
	}

	st.Scanned++
	st.Todos += len(fr.todos)
}
