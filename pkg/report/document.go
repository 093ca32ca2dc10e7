package report

import (
	"time"

	"github.com/Sumatoshi-tech/todoscope/pkg/aggregate"
)

// Meta describes the scan a report was produced by.
type Meta struct {
	ScanID      string
	Mode        string
	Branch      string
	GeneratedAt time.Time
}

// Document is the serialized form of a report, shared by JSON and YAML.
type Document struct {
	ScanID      string          `json:"scan_id"          yaml:"scan_id"`
	Mode        string          `json:"mode"             yaml:"mode"`
	Branch      string          `json:"branch,omitempty" yaml:"branch,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"     yaml:"generated_at"`
	Total       int             `json:"total"            yaml:"total"`
	Groups      []GroupDocument `json:"groups"           yaml:"groups"`
	Authors     []CountDocument `json:"authors"          yaml:"authors"`
	Tags        []CountDocument `json:"tags"             yaml:"tags"`
}

// GroupDocument is one commit group.
type GroupDocument struct {
	Commit string        `json:"commit" yaml:"commit"`
	Label  string        `json:"label"  yaml:"label"`
	Time   time.Time     `json:"time"   yaml:"time"`
	Tags   []TagDocument `json:"tags"   yaml:"tags"`
}

// TagDocument is one tag bucket of a group.
type TagDocument struct {
	Tag     string           `json:"tag"     yaml:"tag"`
	Authors []AuthorDocument `json:"authors" yaml:"authors"`
}

// AuthorDocument is one author bucket of a tag.
type AuthorDocument struct {
	Author string         `json:"author" yaml:"author"`
	Todos  []TodoDocument `json:"todos"  yaml:"todos"`
}

// TodoDocument is one annotation.
type TodoDocument struct {
	Path     string   `json:"path"               yaml:"path"`
	Line     int      `json:"line"               yaml:"line"`
	Tags     []string `json:"tags"               yaml:"tags"`
	Message  string   `json:"message"            yaml:"message"`
	Text     string   `json:"text"               yaml:"text"`
	Email    string   `json:"email,omitempty"    yaml:"email,omitempty"`
	Language string   `json:"language,omitempty" yaml:"language,omitempty"`
}

// CountDocument is a labelled tally.
type CountDocument struct {
	Name  string `json:"name"  yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// NewDocument converts a tree into its serialized form, preserving tree order.
func NewDocument(tree *aggregate.Tree, meta Meta) Document {
	summary := tree.Summary()

	doc := Document{
		ScanID:      meta.ScanID,
		Mode:        meta.Mode,
		Branch:      meta.Branch,
		GeneratedAt: meta.GeneratedAt.UTC(),
		Total:       tree.Len(),
		Groups:      []GroupDocument{},
		Authors:     countDocuments(summary.Authors),
		Tags:        countDocuments(summary.Tags),
	}

	for _, group := range tree.Groups() {
		gd := GroupDocument{
			Commit: group.ID.String(),
			Label:  group.Label,
			Time:   group.When.UTC(),
		}

		for _, tag := range tree.Tags(group) {
			td := TagDocument{Tag: tag}

			for _, author := range tree.Authors(group, tag) {
				ad := AuthorDocument{Author: author}

				for _, todo := range tree.Todos(group, tag, author) {
					tags := todo.Tags
					if tags == nil {
						tags = []string{}
					}

					ad.Todos = append(ad.Todos, TodoDocument{
						Path:     todo.Path,
						Line:     todo.Line,
						Tags:     tags,
						Message:  todo.Message,
						Text:     todo.Display,
						Email:    todo.Email,
						Language: todo.Language,
					})
				}

				td.Authors = append(td.Authors, ad)
			}

			gd.Tags = append(gd.Tags, td)
		}

		doc.Groups = append(doc.Groups, gd)
	}

	return doc
}

func countDocuments(counts []aggregate.Count) []CountDocument {
	out := make([]CountDocument, 0, len(counts))
	for _, c := range counts {
		out = append(out, CountDocument(c))
	}

	return out
}
