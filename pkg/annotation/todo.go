// Package annotation extracts TODO annotations from source lines.
package annotation

import (
	"fmt"
	"time"

	"github.com/Sumatoshi-tech/todoscope/pkg/gitlib"
)

// Uncommitted is the author reported for lines with no commit attribution.
const Uncommitted = "Uncommitted"

// Todo is one reportable annotation with its attribution resolved.
type Todo struct {
	// Path is repository-relative and slash separated.
	Path string
	// Line is 1-based.
	Line    int
	Tags    []string
	Message string
	// Display is the trimmed source line with the marker emphasized.
	Display    string
	Author     string
	Email      string
	CommitID   gitlib.Hash
	CommitTime time.Time
	Language   string
}

// Attributed reports whether the line was resolved to a commit.
func (t Todo) Attributed() bool {
	return !t.CommitID.IsZero()
}

// Location returns "path:line".
func (t Todo) Location() string {
	return fmt.Sprintf("%s:%d", t.Path, t.Line)
}
