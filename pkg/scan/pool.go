package scan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Sumatoshi-tech/todoscope/pkg/gitlib"
	"github.com/Sumatoshi-tech/todoscope/pkg/selector"
)

// process scans every candidate. Results are indexed by candidate so the
// output order never depends on which worker finishes first.
func (s *Scanner) process(
	ctx context.Context, logger *slog.Logger, candidates []selector.Candidate, started time.Time,
) ([]fileResult, error) {
	results := make([]fileResult, len(candidates))

	workers := min(s.opts.Workers, len(candidates))
	if workers < 2 {
		for i, cand := range candidates {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			results[i] = s.scanFile(ctx, s.repo, logger, cand, started)
		}

		return results, nil
	}

	repos := []*gitlib.Repository{s.repo}

	defer func() {
		for _, repo := range repos[1:] {
			repo.Free()
		}
	}()

	for range workers - 1 {
		repo, err := gitlib.OpenRepository(s.repo.Workdir())
		if err != nil {
			return nil, fmt.Errorf("open worker repository: %w", err)
		}

		repos = append(repos, repo)
	}

	jobs := make(chan gitlib.Job)
	pool := make([]*gitlib.Worker, 0, len(repos))

	for _, repo := range repos {
		worker := gitlib.NewWorker(repo, jobs)
		worker.Start()

		pool = append(pool, worker)
	}

	logger.DebugContext(ctx, "worker pool started", "workers", len(pool))

	var dispatchErr error

dispatch:
	for i, cand := range candidates {
		job := func(repo *gitlib.Repository) {
			results[i] = s.scanFile(ctx, repo, logger, cand, started)
		}

		select {
		case jobs <- job:
		case <-ctx.Done():
			dispatchErr = ctx.Err()

			break dispatch
		}
	}

	close(jobs)

	for _, worker := range pool {
		worker.Stop()
	}

	if dispatchErr != nil {
		return nil, dispatchErr
	}

	return results, nil
}
