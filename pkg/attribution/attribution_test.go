package attribution_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/todoscope/pkg/attribution"
	"github.com/Sumatoshi-tech/todoscope/pkg/gitlib"
	"github.com/Sumatoshi-tech/todoscope/pkg/gitlib/gitlibtest"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func summary(name string) gitlib.CommitSummary {
	return gitlib.CommitSummary{
		ID:     gitlib.NewHash(fmt.Sprintf("%040x", len(name))),
		Author: name,
		When:   epoch,
	}
}

func TestExpand(t *testing.T) {
	t.Parallel()

	alice, bob := summary("alice"), summary("bob")

	m := attribution.Expand([]gitlib.BlameHunk{
		{Commit: alice, Lines: 2},
		{Commit: bob, Lines: 0},
		{Commit: bob, Lines: 3},
		{Commit: alice, Lines: -4},
	})

	require.Len(t, m, 5)
	assert.Equal(t, alice, m[1])
	assert.Equal(t, alice, m[2])
	assert.Equal(t, bob, m[3])
	assert.Equal(t, bob, m[5])

	_, ok := m[6]
	assert.False(t, ok)
}

func TestExpand_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, attribution.Expand(nil))
}

func TestReconcile(t *testing.T) {
	t.Parallel()

	alice := summary("alice")
	committed := []byte("a\nb\nc\n")
	m := attribution.LineMap{1: alice, 2: alice, 3: alice}

	t.Run("unchanged", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, m, attribution.Reconcile(m, committed, committed))
	})

	t.Run("insert shifts lines", func(t *testing.T) {
		t.Parallel()

		got := attribution.Reconcile(m, committed, []byte("a\nNEW\nb\nc\n"))

		assert.Equal(t, attribution.LineMap{1: alice, 3: alice, 4: alice}, got)
	})

	t.Run("delete and modify", func(t *testing.T) {
		t.Parallel()

		got := attribution.Reconcile(m, committed, []byte("b\nC\n"))

		assert.Equal(t, attribution.LineMap{1: alice}, got)
	})
}

type fakeSource struct {
	contents []byte
	headErr  error
	hunks    []gitlib.BlameHunk
	blameErr error
}

func (f fakeSource) HeadFileContents(string) ([]byte, error) { return f.contents, f.headErr }

func (f fakeSource) Blame(string) ([]gitlib.BlameHunk, error) { return f.hunks, f.blameErr }

func TestAttributor_Outcomes(t *testing.T) {
	t.Parallel()

	alice := summary("alice")
	ctx := context.Background()

	m, outcome := attribution.New(fakeSource{headErr: gitlib.ErrNotInHead}, nil).Attribute(ctx, "x", []byte("a\n"))
	assert.Equal(t, attribution.Untracked, outcome)
	assert.Empty(t, m)

	m, outcome = attribution.New(fakeSource{headErr: errors.New("odb")}, nil).Attribute(ctx, "x", []byte("a\n"))
	assert.Equal(t, attribution.Failed, outcome)
	assert.Empty(t, m)

	m, outcome = attribution.New(fakeSource{contents: []byte("a\n"), blameErr: errors.New("boom")}, nil).
		Attribute(ctx, "x", []byte("a\n"))
	assert.Equal(t, attribution.Failed, outcome)
	assert.Empty(t, m)

	m, outcome = attribution.New(fakeSource{
		contents: []byte("a\n"),
		hunks:    []gitlib.BlameHunk{{Commit: alice, StartLine: 1, Lines: 1}},
	}, nil).Attribute(ctx, "x", []byte("a\nb\n"))
	assert.Equal(t, attribution.Attributed, outcome)
	assert.Equal(t, attribution.LineMap{1: alice}, m)
}

func TestAttributor_RealRepository(t *testing.T) {
	t.Parallel()

	tr := gitlibtest.New(t)
	tr.WriteFile("f.go", "one\ntwo\n")
	first := tr.Commit("first", gitlibtest.Sig("Alice", epoch))
	tr.WriteFile("f.go", "one\ntwo\nthree\n")
	second := tr.Commit("second", gitlibtest.Sig("Bob", epoch.Add(time.Hour)))

	repo, err := gitlib.OpenRepository(tr.Path)
	require.NoError(t, err)

	defer repo.Free()

	m, outcome := attribution.New(repo, nil).Attribute(context.Background(), "f.go", []byte("zero\none\ntwo\nthree\n"))
	require.Equal(t, attribution.Attributed, outcome)

	require.Len(t, m, 3)
	assert.Equal(t, first, m[2].ID)
	assert.Equal(t, first, m[3].ID)
	assert.Equal(t, second, m[4].ID)
	assert.Equal(t, "Bob", m[4].Author)
}
