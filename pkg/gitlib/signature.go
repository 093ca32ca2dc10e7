package gitlib

import "time"

// Signature represents a git signature (author/committer).
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// CommitSummary is the immutable attribution record for a line.
// It is a plain value so attribution maps never hold libgit2 handles.
type CommitSummary struct {
	ID     Hash
	Author string
	Email  string
	When   time.Time
}
