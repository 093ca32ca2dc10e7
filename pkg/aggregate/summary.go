package aggregate

import (
	"cmp"
	"errors"
	"slices"
)

// ErrUnknownOrder is returned by ParseOrder.
var ErrUnknownOrder = errors.New("unknown group order")

// Count is a labelled tally.
type Count struct {
	Name  string
	Count int
}

// Summary holds annotation counts across the whole tree.
type Summary struct {
	Total   int
	Groups  int
	Authors []Count
	// Tags counts fan-out entries, so an annotation with two tags counts twice.
	Tags []Count
}

// Summary tallies annotations per author and per tag, most frequent first.
func (t *Tree) Summary() Summary {
	authors := make(map[string]int)
	tags := make(map[string]int)

	for _, group := range t.groups {
		seen := make(map[string]bool)

		for tag, byAuthor := range group {
			for author, todos := range byAuthor {
				tags[tag] += len(todos)

				for _, todo := range todos {
					if loc := todo.Location(); !seen[loc] {
						seen[loc] = true
						authors[author]++
					}
				}
			}
		}
	}

	return Summary{
		Total:   t.total,
		Groups:  len(t.groups),
		Authors: sortedCounts(authors),
		Tags:    sortedCounts(tags),
	}
}

func sortedCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for name, n := range m {
		out = append(out, Count{Name: name, Count: n})
	}

	slices.SortFunc(out, func(a, b Count) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}

		return cmp.Compare(a.Name, b.Name)
	})

	return out
}
