package annotation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/todoscope/pkg/annotation"
	"github.com/Sumatoshi-tech/todoscope/pkg/gitlib"
)

func TestTodo(t *testing.T) {
	t.Parallel()

	todo := annotation.Todo{Path: "src/a.go", Line: 12, Author: annotation.Uncommitted}

	assert.Equal(t, "src/a.go:12", todo.Location())
	assert.False(t, todo.Attributed())

	todo.CommitID = gitlib.NewHash("0123456789abcdef0123456789abcdef01234567")
	assert.True(t, todo.Attributed())
}
