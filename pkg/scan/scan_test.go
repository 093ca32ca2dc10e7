package scan_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/todoscope/pkg/aggregate"
	"github.com/Sumatoshi-tech/todoscope/pkg/annotation"
	"github.com/Sumatoshi-tech/todoscope/pkg/gitlib"
	"github.com/Sumatoshi-tech/todoscope/pkg/gitlib/gitlibtest"
	"github.com/Sumatoshi-tech/todoscope/pkg/scan"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

const filePy = `import sys


def add(a, b):
    # TODO(bug): fix overflow
    return a + b
`

func TestRun_SingleAttributedTodo(t *testing.T) {
	t.Parallel()

	tr := gitlibtest.New(t)
	tr.WriteFile("file.py", filePy)
	commit := tr.Commit("add file.py", gitlibtest.Sig("Alice", epoch))

	res, err := scan.Run(context.Background(), tr.Path, scan.Options{})
	require.NoError(t, err)

	require.Len(t, res.Todos, 1)

	todo := res.Todos[0]
	assert.Equal(t, "file.py", todo.Path)
	assert.Equal(t, 5, todo.Line)
	assert.Equal(t, []string{"bug"}, todo.Tags)
	assert.Equal(t, "fix overflow", todo.Message)
	assert.Equal(t, "Alice", todo.Author)
	assert.Equal(t, "Alice@example.com", todo.Email)
	assert.Equal(t, commit, todo.CommitID)
	assert.Equal(t, epoch.Unix(), todo.CommitTime.Unix())
	assert.Equal(t, "Python", todo.Language)

	groups := res.Tree.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"bug"}, res.Tree.Tags(groups[0]))
	assert.Equal(t, []string{"Alice"}, res.Tree.Authors(groups[0], "bug"))
	assert.Len(t, res.Tree.Todos(groups[0], "bug", "Alice"), 1)

	assert.Equal(t, 1, res.Stats.Attributed)
	assert.Equal(t, 1, res.Stats.Todos)
	assert.NotEmpty(t, res.ScanID)
}

func TestRun_UntrackedFileIsUncommitted(t *testing.T) {
	t.Parallel()

	tr := gitlibtest.New(t)
	tr.WriteFile("committed.txt", "nothing here\n")
	tr.Commit("init", gitlibtest.Sig("Alice", epoch))
	tr.WriteFile("notes.md", "- TODO: write docs\n")

	before := time.Now()

	res, err := scan.Run(context.Background(), tr.Path, scan.Options{})
	require.NoError(t, err)

	require.Len(t, res.Todos, 1)

	todo := res.Todos[0]
	assert.Equal(t, annotation.Uncommitted, todo.Author)
	assert.True(t, todo.CommitID.IsZero())
	assert.WithinDuration(t, before, todo.CommitTime, 5*time.Second)
	assert.Equal(t, res.Started, todo.CommitTime)
	assert.Equal(t, 1, res.Stats.Untracked)
}

func TestRun_UnbornHeadIsUncommitted(t *testing.T) {
	t.Parallel()

	tr := gitlibtest.New(t)
	tr.WriteFile("a.go", "// TODO: first\n")

	res, err := scan.Run(context.Background(), tr.Path, scan.Options{})
	require.NoError(t, err)

	require.Len(t, res.Todos, 1)
	assert.Equal(t, annotation.Uncommitted, res.Todos[0].Author)
}

func TestRun_LocalEditsAreUncommitted(t *testing.T) {
	t.Parallel()

	tr := gitlibtest.New(t)
	tr.WriteFile("main.go", "package main\n\n// TODO: old one\nfunc main() {}\n")
	tr.Commit("init", gitlibtest.Sig("Bob", epoch))
	tr.WriteFile("main.go", "package main\n\n// TODO: new one\n// TODO: old one\nfunc main() {}\n")

	res, err := scan.Run(context.Background(), tr.Path, scan.Options{})
	require.NoError(t, err)

	require.Len(t, res.Todos, 2)
	assert.Equal(t, 3, res.Todos[0].Line)
	assert.Equal(t, annotation.Uncommitted, res.Todos[0].Author)
	assert.Equal(t, 4, res.Todos[1].Line)
	assert.Equal(t, "Bob", res.Todos[1].Author)
}

func TestRun_NoTodos(t *testing.T) {
	t.Parallel()

	tr := gitlibtest.New(t)
	tr.WriteFile("clean.go", "package clean\n// autodoc: nothing\n")
	tr.Commit("init", gitlibtest.Sig("Alice", epoch))

	res, err := scan.Run(context.Background(), tr.Path, scan.Options{})
	require.NoError(t, err)

	assert.Empty(t, res.Todos)
	assert.True(t, res.Tree.Empty())
	assert.Equal(t, 1, res.Stats.Scanned)
}

func TestRun_EmptyMessagesDiscarded(t *testing.T) {
	t.Parallel()

	tr := gitlibtest.New(t)
	tr.WriteFile("a.go", "// TODO:\n// TODO: \"\"\n// TODO: real\n")

	res, err := scan.Run(context.Background(), tr.Path, scan.Options{})
	require.NoError(t, err)

	require.Len(t, res.Todos, 1)
	assert.Equal(t, "real", res.Todos[0].Message)
}

func TestRun_DiffMode(t *testing.T) {
	t.Parallel()

	tr := gitlibtest.New(t)
	tr.WriteFile("stable.go", "// TODO: stable\n")
	tr.WriteFile("edited.go", "// TODO: edited\n")
	tr.Commit("init", gitlibtest.Sig("Alice", epoch))
	tr.WriteFile("edited.go", "// TODO: edited\n// TODO(wip): added\n")
	tr.WriteFile("fresh.go", "// TODO: fresh\n")

	res, err := scan.Run(context.Background(), tr.Path, scan.Options{
		Mode:       scan.ModeDiff,
		BaseBranch: gitlibtest.DefaultBranch,
	})
	require.NoError(t, err)

	assert.Equal(t, gitlibtest.DefaultBranch, res.Branch)

	var got []string
	for _, todo := range res.Todos {
		got = append(got, todo.Location()+" "+todo.Author)
	}

	assert.ElementsMatch(t, []string{
		"edited.go:1 Alice",
		"edited.go:2 Uncommitted",
		"fresh.go:1 Uncommitted",
	}, got)
}

func TestRun_DiffModeMissingBranch(t *testing.T) {
	t.Parallel()

	tr := gitlibtest.New(t)
	tr.WriteFile("a.go", "// TODO: x\n")
	tr.Commit("init", gitlibtest.Sig("Alice", epoch))

	res, err := scan.Run(context.Background(), tr.Path, scan.Options{Mode: scan.ModeDiff, BaseBranch: "release"})
	require.ErrorIs(t, err, gitlib.ErrBranchNotFound)
	assert.Nil(t, res)
}

func TestRun_NotARepository(t *testing.T) {
	t.Parallel()

	_, err := scan.Run(context.Background(), t.TempDir(), scan.Options{})
	require.ErrorIs(t, err, gitlib.ErrNotRepository)
}

func TestRun_UnknownMode(t *testing.T) {
	t.Parallel()

	tr := gitlibtest.New(t)

	_, err := scan.Run(context.Background(), tr.Path, scan.Options{Mode: "both"})
	require.ErrorIs(t, err, scan.ErrUnknownMode)
}

func buildHistory(t *testing.T) *gitlibtest.Repo {
	t.Helper()

	tr := gitlibtest.New(t)

	for i, author := range []string{"Carol", "Alice", "Bob"} {
		for j := range 4 {
			tr.WriteFile(fmt.Sprintf("pkg%d/file%d.go", i, j),
				fmt.Sprintf("package p\n// TODO(t%d): item %d by %s\n// TODO: second %d\n", j%2, j, author, j))
		}

		tr.Commit("batch", gitlibtest.Sig(author, epoch.Add(time.Duration(i)*time.Hour)))
	}

	return tr
}

func render(res *scan.Result) string {
	var b strings.Builder

	res.Tree.Walk(func(g aggregate.GroupKey, tag, author string, todos []annotation.Todo) {
		for _, todo := range todos {
			fmt.Fprintf(&b, "%s|%s|%s|%s|%s\n", g.ID, tag, author, todo.Location(), todo.Message)
		}
	})

	return b.String()
}

func TestRun_Idempotent(t *testing.T) {
	t.Parallel()

	tr := buildHistory(t)
	now := func() time.Time { return epoch.Add(24 * time.Hour) }

	first, err := scan.Run(context.Background(), tr.Path, scan.Options{Now: now})
	require.NoError(t, err)

	second, err := scan.Run(context.Background(), tr.Path, scan.Options{Now: now})
	require.NoError(t, err)

	assert.Equal(t, render(first), render(second))
	assert.Equal(t, 24, first.Tree.Len())
	assert.Len(t, first.Tree.Groups(), 3)
}

func TestRun_WorkersMatchSequential(t *testing.T) {
	t.Parallel()

	tr := buildHistory(t)
	now := func() time.Time { return epoch.Add(24 * time.Hour) }

	sequential, err := scan.Run(context.Background(), tr.Path, scan.Options{Now: now})
	require.NoError(t, err)

	parallel, err := scan.Run(context.Background(), tr.Path, scan.Options{Now: now, Workers: 4})
	require.NoError(t, err)

	assert.Len(t, parallel.Todos, len(sequential.Todos))
	assert.Equal(t, render(sequential), render(parallel))

	groups := parallel.Tree.Groups()
	require.Len(t, groups, 3)
	assert.Equal(t, "Carol", parallel.Tree.Authors(groups[0], aggregate.NoTag)[0])
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()

	tr := buildHistory(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := scan.Run(ctx, tr.Path, scan.Options{Workers: 2})
	require.ErrorIs(t, err, context.Canceled)
}
