package gitlib

import (
	"errors"
	"fmt"
	"path/filepath"

	git2go "github.com/libgit2/git2go/v34"
)

// Sentinel errors for repository access.
var (
	// ErrNotRepository is returned when no repository contains the given path.
	ErrNotRepository = errors.New("not a git repository")
	// ErrBareRepository is returned for repositories without a working directory.
	ErrBareRepository = errors.New("repository has no working directory")
	// ErrNotInHead is returned when a path has no committed version at HEAD.
	ErrNotInHead = errors.New("path not present at HEAD")
)

// Repository wraps a libgit2 repository.
// A Repository must not be used from more than one goroutine at a time.
type Repository struct {
	repo    *git2go.Repository
	workdir string
	commits map[Hash]CommitSummary
}

// OpenRepository discovers and opens the repository containing path.
func OpenRepository(path string) (*Repository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	gitDir, err := git2go.Discover(abs, false, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotRepository, path)
	}

	repo, err := git2go.OpenRepository(gitDir)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	workdir := repo.Workdir()
	if workdir == "" {
		repo.Free()

		return nil, fmt.Errorf("%w: %s", ErrBareRepository, gitDir)
	}

	return &Repository{
		repo:    repo,
		workdir: filepath.Clean(workdir),
		commits: make(map[Hash]CommitSummary),
	}, nil
}

// Workdir returns the absolute working directory root.
func (r *Repository) Workdir() string {
	return r.workdir
}

// Free releases the repository resources.
func (r *Repository) Free() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// Head returns the HEAD reference target.
func (r *Repository) Head() (Hash, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return Hash{}, fmt.Errorf("get HEAD: %w", err)
	}
	defer ref.Free()

	return HashFromOid(ref.Target()), nil
}

// LookupCommit returns the commit with the given hash.
func (r *Repository) LookupCommit(hash Hash) (*Commit, error) {
	commit, err := r.repo.LookupCommit(hash.ToOid())
	if err != nil {
		return nil, fmt.Errorf("lookup commit: %w", err)
	}

	return &Commit{commit: commit, repo: r}, nil
}

// Summary returns the attribution record of a commit, memoized per repository.
func (r *Repository) Summary(hash Hash) (CommitSummary, error) {
	if s, ok := r.commits[hash]; ok {
		return s, nil
	}

	commit, err := r.LookupCommit(hash)
	if err != nil {
		return CommitSummary{}, err
	}
	defer commit.Free()

	s := commit.Summary()
	r.commits[hash] = s

	return s, nil
}

// IsPathIgnored reports whether a repository-relative path matches ignore rules.
func (r *Repository) IsPathIgnored(rel string) (bool, error) {
	ignored, err := r.repo.IsPathIgnored(filepath.ToSlash(rel))
	if err != nil {
		return false, fmt.Errorf("check ignore %s: %w", rel, err)
	}

	return ignored, nil
}

// HeadFileContents returns the committed contents of rel at HEAD.
// Unborn HEAD and paths missing from the HEAD tree yield ErrNotInHead.
func (r *Repository) HeadFileContents(rel string) ([]byte, error) {
	head, err := r.Head()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotInHead, rel)
	}

	commit, err := r.LookupCommit(head)
	if err != nil {
		return nil, err
	}
	defer commit.Free()

	file, err := commit.File(filepath.ToSlash(rel))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotInHead, rel)
	}

	blob, err := r.repo.LookupBlob(file.Hash.ToOid())
	if err != nil {
		return nil, fmt.Errorf("lookup blob %s: %w", file.Hash, err)
	}
	defer blob.Free()

	contents := blob.Contents()
	out := make([]byte, len(contents))
	copy(out, contents)

	return out, nil
}
