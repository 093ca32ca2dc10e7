package report_test

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/todoscope/pkg/report"
)

type schemaNode struct {
	Properties  map[string]*schemaNode `json:"properties"`
	Items       *schemaNode            `json:"items"`
	Definitions map[string]*schemaNode `json:"definitions"`
}

func jsonFields(v any) []string {
	t := reflect.TypeOf(v)

	names := make([]string, 0, t.NumField())
	for i := range t.NumField() {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func propertyNames(node *schemaNode) []string {
	names := make([]string, 0, len(node.Properties))
	for name := range node.Properties {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Every serialized field must be described by the schema and vice versa.
func TestSchema_CoversDocument(t *testing.T) {
	t.Parallel()

	var root schemaNode
	require.NoError(t, json.Unmarshal([]byte(report.Schema()), &root))

	group := root.Properties["groups"].Items
	tag := group.Properties["tags"].Items
	author := tag.Properties["authors"].Items

	assert.Equal(t, jsonFields(report.Document{}), propertyNames(&root))
	assert.Equal(t, jsonFields(report.GroupDocument{}), propertyNames(group))
	assert.Equal(t, jsonFields(report.TagDocument{}), propertyNames(tag))
	assert.Equal(t, jsonFields(report.AuthorDocument{}), propertyNames(author))
	assert.Equal(t, jsonFields(report.TodoDocument{}), propertyNames(root.Definitions["todo"]))
	assert.Equal(t, jsonFields(report.CountDocument{}), propertyNames(root.Definitions["counts"].Items))
}
