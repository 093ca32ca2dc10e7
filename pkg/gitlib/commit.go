package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// UnknownAuthor is reported for commits whose author has no name.
const UnknownAuthor = "Unknown"

// Commit wraps a libgit2 commit.
type Commit struct {
	commit *git2go.Commit
	repo   *Repository
}

// Hash returns the commit hash.
func (c *Commit) Hash() Hash {
	return HashFromOid(c.commit.Id())
}

// Author returns the commit author.
func (c *Commit) Author() Signature {
	return signatureFrom(c.commit.Author())
}

// Committer returns the commit committer.
func (c *Commit) Committer() Signature {
	return signatureFrom(c.commit.Committer())
}

// Summary returns the attribution record: author identity and commit time.
func (c *Commit) Summary() CommitSummary {
	author := c.Author()

	name := author.Name
	if name == "" {
		name = UnknownAuthor
	}

	return CommitSummary{
		ID:     c.Hash(),
		Author: name,
		Email:  author.Email,
		When:   c.Committer().When,
	}
}

// Tree returns the tree associated with this commit.
func (c *Commit) Tree() (*Tree, error) {
	tree, err := c.commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("get commit tree: %w", err)
	}

	return &Tree{tree: tree}, nil
}

// File returns a specific file from the commit's tree.
func (c *Commit) File(path string) (*File, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}
	defer tree.Free()

	entry, err := tree.EntryByPath(path)
	if err != nil {
		return nil, err
	}

	if !entry.IsBlob() {
		return nil, fmt.Errorf("%w: %s is not a blob", ErrNotInHead, path)
	}

	return &File{Name: path, Hash: entry.Hash()}, nil
}

// Free releases the commit resources.
func (c *Commit) Free() {
	if c.commit != nil {
		c.commit.Free()
		c.commit = nil
	}
}

func signatureFrom(sig *git2go.Signature) Signature {
	if sig == nil {
		return Signature{}
	}

	return Signature{
		Name:  sig.Name,
		Email: sig.Email,
		When:  sig.When,
	}
}
