package gitlib

import (
	"fmt"
	"path/filepath"

	git2go "github.com/libgit2/git2go/v34"
)

// BlameHunk is a run of consecutive lines last changed by one commit.
// StartLine is 1-based.
type BlameHunk struct {
	Commit    CommitSummary
	StartLine int
	Lines     int
}

// Blame attributes every line of the committed version of rel at HEAD.
// Hunks come back in file order.
func (r *Repository) Blame(rel string) ([]BlameHunk, error) {
	opts, err := git2go.DefaultBlameOptions()
	if err != nil {
		return nil, fmt.Errorf("blame options: %w", err)
	}

	blame, err := r.repo.BlameFile(filepath.ToSlash(rel), &opts)
	if err != nil {
		return nil, fmt.Errorf("blame %s: %w", rel, err)
	}

	defer func() { _ = blame.Free() }()

	count := blame.HunkCount()
	hunks := make([]BlameHunk, 0, count)

	for i := range count {
		hunk, hunkErr := blame.HunkByIndex(i)
		if hunkErr != nil {
			return nil, fmt.Errorf("blame hunk %d of %s: %w", i, rel, hunkErr)
		}

		summary, sumErr := r.Summary(HashFromOid(hunk.FinalCommitId))
		if sumErr != nil {
			return nil, sumErr
		}

		hunks = append(hunks, BlameHunk{
			Commit:    summary,
			StartLine: int(hunk.FinalStartLineNumber),
			Lines:     int(hunk.LinesInHunk),
		})
	}

	return hunks, nil
}
