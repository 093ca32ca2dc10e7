// Package aggregate groups annotations by commit, tag and author.
package aggregate

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/todoscope/pkg/annotation"
	"github.com/Sumatoshi-tech/todoscope/pkg/gitlib"
)

// NoTag is the tag bucket of annotations without explicit tags. It sorts first.
const NoTag = "__no_tag__"

// Order is the chronological order of groups.
type Order int

const (
	// OldestFirst sorts groups by ascending commit time.
	OldestFirst Order = iota
	// NewestFirst sorts groups by descending commit time.
	NewestFirst
)

// ParseOrder maps "oldest" and "newest" to an Order.
func ParseOrder(s string) (Order, error) {
	switch s {
	case "", "oldest":
		return OldestFirst, nil
	case "newest":
		return NewestFirst, nil
	default:
		return OldestFirst, fmt.Errorf("%w: %q", ErrUnknownOrder, s)
	}
}

// String returns the configuration spelling of o.
func (o Order) String() string {
	if o == NewestFirst {
		return "newest"
	}

	return "oldest"
}

// GroupKey identifies the commit group of an annotation.
// Identity is ID; Label is for display and SortKey for ordering.
type GroupKey struct {
	ID      gitlib.Hash
	Label   string
	SortKey int64
	When    time.Time
}

// Options configures Build.
type Options struct {
	Order Order
	// Now is the reference time of relative labels.
	Now time.Time
}

type bucket map[string]map[string][]annotation.Todo

// Tree is the grouped result. It is read-only after Build.
type Tree struct {
	order  Order
	keys   map[gitlib.Hash]GroupKey
	groups map[gitlib.Hash]bucket
	total  int
}

// NewKey derives the group key of a commit.
func NewKey(id gitlib.Hash, when, now time.Time) GroupKey {
	return GroupKey{
		ID:      id,
		Label:   fmt.Sprintf("[%s/%s]", id.Short(), humanize.RelTime(when, now, "ago", "from now")),
		SortKey: when.UnixNano(),
		When:    when,
	}
}

// Build groups todos. Leaves keep the order of todos.
func Build(todos []annotation.Todo, opts Options) *Tree {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	tree := &Tree{
		order:  opts.Order,
		keys:   make(map[gitlib.Hash]GroupKey),
		groups: make(map[gitlib.Hash]bucket),
		total:  len(todos),
	}

	for _, todo := range todos {
		if _, ok := tree.keys[todo.CommitID]; !ok {
			tree.keys[todo.CommitID] = NewKey(todo.CommitID, todo.CommitTime, now)
			tree.groups[todo.CommitID] = make(bucket)
		}

		tags := todo.Tags
		if len(tags) == 0 {
			tags = []string{NoTag}
		}

		group := tree.groups[todo.CommitID]

		for _, tag := range tags {
			authors, ok := group[tag]
			if !ok {
				authors = make(map[string][]annotation.Todo)
				group[tag] = authors
			}

			authors[todo.Author] = append(authors[todo.Author], todo)
		}
	}

	return tree
}

// Len returns the number of distinct annotations, before tag fan-out.
func (t *Tree) Len() int {
	return t.total
}

// Empty reports whether the tree holds no annotations.
func (t *Tree) Empty() bool {
	return t.total == 0
}

// Groups returns the group keys in chronological order; ties break on commit hash.
func (t *Tree) Groups() []GroupKey {
	keys := make([]GroupKey, 0, len(t.keys))
	for _, key := range t.keys {
		keys = append(keys, key)
	}

	slices.SortFunc(keys, func(a, b GroupKey) int {
		c := cmp.Compare(a.SortKey, b.SortKey)
		if t.order == NewestFirst {
			c = -c
		}

		if c != 0 {
			return c
		}

		return cmp.Compare(a.ID.String(), b.ID.String())
	})

	return keys
}

// Tags returns the tags of a group, NoTag first, the rest lexical.
func (t *Tree) Tags(g GroupKey) []string {
	group := t.groups[g.ID]
	tags := make([]string, 0, len(group))

	for tag := range group {
		tags = append(tags, tag)
	}

	slices.SortFunc(tags, func(a, b string) int {
		switch {
		case a == b:
			return 0
		case a == NoTag:
			return -1
		case b == NoTag:
			return 1
		default:
			return cmp.Compare(a, b)
		}
	})

	return tags
}

// Authors returns the authors under a group and tag, lexical.
func (t *Tree) Authors(g GroupKey, tag string) []string {
	authors := t.groups[g.ID][tag]
	out := make([]string, 0, len(authors))

	for author := range authors {
		out = append(out, author)
	}

	slices.Sort(out)

	return out
}

// Todos returns a leaf list in discovery order.
func (t *Tree) Todos(g GroupKey, tag, author string) []annotation.Todo {
	return t.groups[g.ID][tag][author]
}

// Walk visits every leaf in rendering order.
func (t *Tree) Walk(fn func(g GroupKey, tag, author string, todos []annotation.Todo)) {
	for _, g := range t.Groups() {
		for _, tag := range t.Tags(g) {
			for _, author := range t.Authors(g, tag) {
				fn(g, tag, author, t.Todos(g, tag, author))
			}
		}
	}
}
