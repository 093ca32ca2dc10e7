package gitlib

import (
	"errors"
	"fmt"
	"path/filepath"

	git2go "github.com/libgit2/git2go/v34"
)

// ErrBranchNotFound is returned when the base branch of a diff does not exist locally.
var ErrBranchNotFound = errors.New("branch not found")

// ChangedFiles returns the repository-relative paths whose working-directory
// contents differ from the tip of the local branch. Untracked files are
// included, deleted files are not.
func (r *Repository) ChangedFiles(branch string) ([]string, error) {
	ref, err := r.repo.LookupBranch(branch, git2go.BranchLocal)
	if err != nil {
		if git2go.IsErrorCode(err, git2go.ErrorCodeNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrBranchNotFound, branch)
		}

		return nil, fmt.Errorf("lookup branch %s: %w", branch, err)
	}
	defer ref.Free()

	commit, err := r.LookupCommit(HashFromOid(ref.Target()))
	if err != nil {
		return nil, err
	}
	defer commit.Free()

	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}
	defer tree.Free()

	opts, err := git2go.DefaultDiffOptions()
	if err != nil {
		return nil, fmt.Errorf("diff options: %w", err)
	}

	opts.Flags |= git2go.DiffIncludeUntracked | git2go.DiffRecurseUntracked | git2go.DiffShowUntrackedContent

	diff, err := r.repo.DiffTreeToWorkdirWithIndex(tree.tree, &opts)
	if err != nil {
		return nil, fmt.Errorf("diff %s to workdir: %w", branch, err)
	}

	defer func() { _ = diff.Free() }()

	count, err := diff.NumDeltas()
	if err != nil {
		return nil, fmt.Errorf("count deltas: %w", err)
	}

	paths := make([]string, 0, count)

	for i := range count {
		delta, deltaErr := diff.Delta(i)
		if deltaErr != nil {
			return nil, fmt.Errorf("read delta %d: %w", i, deltaErr)
		}

		if delta.Status == git2go.DeltaDeleted {
			continue
		}

		paths = append(paths, filepath.FromSlash(delta.NewFile.Path))
	}

	return paths, nil
}
