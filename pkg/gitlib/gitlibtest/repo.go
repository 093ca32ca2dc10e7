// Package gitlibtest builds throwaway git repositories for tests.
package gitlibtest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/todoscope/pkg/gitlib"
)

// DefaultBranch is the branch name test repositories commit to.
const DefaultBranch = "main"

// Repo is a git repository in a temporary directory.
type Repo struct {
	t      testing.TB
	Path   string
	native *git2go.Repository
}

// New initializes an empty repository whose HEAD points at DefaultBranch.
func New(t testing.TB) *Repo {
	t.Helper()

	dir := t.TempDir()

	repo, err := git2go.InitRepository(dir, false)
	require.NoError(t, err)

	t.Cleanup(repo.Free)

	require.NoError(t, repo.SetHead("refs/heads/"+DefaultBranch))

	return &Repo{t: t, Path: dir, native: repo}
}

// Sig returns a signature for name at the given time.
func Sig(name string, when time.Time) gitlib.Signature {
	return gitlib.Signature{Name: name, Email: name + "@example.com", When: when}
}

// WriteFile creates or replaces a file in the working directory.
func (r *Repo) WriteFile(name, content string) {
	r.t.Helper()

	path := filepath.Join(r.Path, name)

	require.NoError(r.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(r.t, os.WriteFile(path, []byte(content), 0o644))
}

// Remove deletes a file from the working directory.
func (r *Repo) Remove(name string) {
	r.t.Helper()

	require.NoError(r.t, os.Remove(filepath.Join(r.Path, name)))
}

// Commit stages the whole working directory and commits it on HEAD.
// The signature is used for both author and committer.
func (r *Repo) Commit(message string, sig gitlib.Signature) gitlib.Hash {
	r.t.Helper()

	index, err := r.native.Index()
	require.NoError(r.t, err)

	defer index.Free()

	require.NoError(r.t, index.AddAll([]string{"*"}, git2go.IndexAddDefault, nil))
	require.NoError(r.t, index.UpdateAll([]string{"*"}, nil))
	require.NoError(r.t, index.Write())

	treeID, err := index.WriteTree()
	require.NoError(r.t, err)

	tree, err := r.native.LookupTree(treeID)
	require.NoError(r.t, err)

	defer tree.Free()

	author := &git2go.Signature{Name: sig.Name, Email: sig.Email, When: sig.When}

	var parents []*git2go.Commit

	head, err := r.native.Head()
	if err == nil {
		headCommit, lookupErr := r.native.LookupCommit(head.Target())
		require.NoError(r.t, lookupErr)

		parents = append(parents, headCommit)

		head.Free()
	}

	oid, err := r.native.CreateCommit("HEAD", author, author, message, tree, parents...)
	require.NoError(r.t, err)

	for _, parent := range parents {
		parent.Free()
	}

	return gitlib.HashFromOid(oid)
}

// Branch creates a local branch at the current HEAD commit.
func (r *Repo) Branch(name string) {
	r.t.Helper()

	head, err := r.native.Head()
	require.NoError(r.t, err)

	defer head.Free()

	commit, err := r.native.LookupCommit(head.Target())
	require.NoError(r.t, err)

	defer commit.Free()

	branch, err := r.native.CreateBranch(name, commit, false)
	require.NoError(r.t, err)

	branch.Free()
}
