package selector

import (
	"context"
	"fmt"
	"path/filepath"
)

// ChangeLister lists paths changed relative to a branch.
type ChangeLister interface {
	Workdir() string
	ChangedFiles(branch string) ([]string, error)
}

// DiffSelector selects files that differ from the tip of a reference branch.
type DiffSelector struct {
	repo   ChangeLister
	branch string
	filter *Filter
	cfg    Config
}

// NewDiffSelector creates a DiffSelector against branch.
func NewDiffSelector(repo ChangeLister, branch string, cfg Config) *DiffSelector {
	return &DiffSelector{repo: repo, branch: branch, filter: NewFilter(cfg), cfg: cfg}
}

// Branch returns the reference branch name.
func (s *DiffSelector) Branch() string {
	return s.branch
}

// Candidates returns the changed files in diff order.
// A missing branch is returned as an error wrapping gitlib.ErrBranchNotFound.
func (s *DiffSelector) Candidates(ctx context.Context) ([]Candidate, error) {
	paths, err := s.repo.ChangedFiles(s.branch)
	if err != nil {
		return nil, fmt.Errorf("diff against %s: %w", s.branch, err)
	}

	root := s.repo.Workdir()
	logger := s.cfg.logger()
	out := make([]Candidate, 0, len(paths))

	for _, rel := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		slashed := filepath.ToSlash(rel)
		abs := filepath.Join(root, filepath.FromSlash(rel))

		if ok, reason := s.filter.Accept(slashed, abs); !ok {
			logger.Debug("skip file", "path", slashed, "reason", reason)

			continue
		}

		out = append(out, Candidate{Path: slashed, AbsPath: abs})
	}

	return out, nil
}
