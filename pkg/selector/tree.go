package selector

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
)

// IgnoreChecker answers ignore-rule queries for a working tree.
type IgnoreChecker interface {
	Workdir() string
	IsPathIgnored(rel string) (bool, error)
}

// TreeSelector selects every non-ignored text file of the working tree.
type TreeSelector struct {
	repo   IgnoreChecker
	filter *Filter
	cfg    Config
}

// NewTreeSelector creates a TreeSelector.
func NewTreeSelector(repo IgnoreChecker, cfg Config) *TreeSelector {
	return &TreeSelector{repo: repo, filter: NewFilter(cfg), cfg: cfg}
}

// Candidates walks the working tree in lexical order.
func (s *TreeSelector) Candidates(ctx context.Context) ([]Candidate, error) {
	root := s.repo.Workdir()
	logger := s.cfg.logger()

	var out []Candidate

	err := filepath.WalkDir(root, func(abs string, d fs.DirEntry, walkErr error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if walkErr != nil {
			logger.Warn("walk failed", "path", abs, "error", walkErr)

			if d != nil && d.IsDir() {
				return fs.SkipDir
			}

			return nil
		}

		if abs == root {
			return nil
		}

		rel, err := filepath.Rel(root, abs)
		if err != nil {
			return fmt.Errorf("relative path of %s: %w", abs, err)
		}

		slashed := filepath.ToSlash(rel)

		if d.IsDir() {
			if d.Name() == ".git" {
				return fs.SkipDir
			}

			if s.ignored(slashed) || s.filter.SkipDir(slashed) {
				return fs.SkipDir
			}

			return nil
		}

		if s.ignored(slashed) {
			return nil
		}

		if ok, reason := s.filter.Accept(slashed, abs); !ok {
			logger.Debug("skip file", "path", slashed, "reason", reason)

			return nil
		}

		out = append(out, Candidate{Path: slashed, AbsPath: abs})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	return out, nil
}

func (s *TreeSelector) ignored(rel string) bool {
	ignored, err := s.repo.IsPathIgnored(rel)
	if err != nil {
		s.cfg.logger().Warn("ignore check failed", "path", rel, "error", err)

		return false
	}

	return ignored
}
