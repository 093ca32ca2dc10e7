package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/todoscope/pkg/config"
	"github.com/Sumatoshi-tech/todoscope/pkg/gitlib"
	"github.com/Sumatoshi-tech/todoscope/pkg/gitlib/gitlibtest"
	"github.com/Sumatoshi-tech/todoscope/pkg/report"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	root := NewRootCommand()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.ExecuteContext(context.Background())

	return stdout.String(), stderr.String(), err
}

func sampleRepo(t *testing.T) *gitlibtest.Repo {
	t.Helper()

	tr := gitlibtest.New(t)
	tr.WriteFile("file.py", "import sys\n\n\ndef add(a, b):\n    # TODO(bug): fix overflow\n    return a + b\n")
	tr.Commit("add file.py", gitlibtest.Sig("Alice", epoch))

	return tr
}

func TestRoot_TreeOutput(t *testing.T) {
	tr := sampleRepo(t)

	stdout, _, err := execute(t, "", tr.Path, "--no-color", "--summary")
	require.NoError(t, err)

	assert.Contains(t, stdout, "🏷️ bug")
	assert.Contains(t, stdout, "👤 Alice")
	assert.Contains(t, stdout, "file.py:5 - # TODO(bug): fix overflow")
	assert.Contains(t, stdout, "author")
}

func TestScan_JSONOutputMatchesSchema(t *testing.T) {
	t.Parallel()

	tr := sampleRepo(t)

	stdout, _, err := execute(t, "", "scan", tr.Path, "--format", "json")
	require.NoError(t, err)
	require.NoError(t, report.ValidateJSON([]byte(stdout)))
	assert.Contains(t, stdout, `"fix overflow"`)
	assert.Contains(t, stdout, `"mode": "tree"`)
}

func TestScan_NoTodos(t *testing.T) {
	t.Parallel()

	tr := gitlibtest.New(t)
	tr.WriteFile("main.go", "package main\n")
	tr.Commit("init", gitlibtest.Sig("Alice", epoch))

	stdout, _, err := execute(t, "", "scan", tr.Path)
	require.NoError(t, err)
	assert.Equal(t, report.NoTodosMessage+"\n", stdout)
}

func TestScan_DiffMode(t *testing.T) {
	t.Parallel()

	tr := sampleRepo(t)
	tr.Branch("base")
	tr.WriteFile("new.go", "package main\n\n// TODO: wire it\n")

	stdout, _, err := execute(t, "", "scan", tr.Path, "--diff", "base", "--format", "yaml")
	require.NoError(t, err)

	assert.Contains(t, stdout, "mode: diff")
	assert.Contains(t, stdout, "branch: base")
	assert.Contains(t, stdout, "wire it")
	assert.NotContains(t, stdout, "fix overflow")
}

func TestScan_MetricsFile(t *testing.T) {
	t.Parallel()

	tr := sampleRepo(t)
	metricsPath := filepath.Join(t.TempDir(), "todoscope.prom")

	_, _, err := execute(t, "", "scan", tr.Path, "--format", "json", "--metrics-file", metricsPath)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "todoscope_todos_found")
}

func TestScan_ConfigFileInRepository(t *testing.T) {
	t.Parallel()

	tr := sampleRepo(t)
	tr.WriteFile(".todoscope.yaml", "report:\n  format: json\n")

	stdout, _, err := execute(t, "", "scan", tr.Path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "{"), stdout)
}

func TestScan_ExitCodes(t *testing.T) {
	t.Parallel()

	tr := sampleRepo(t)

	tests := []struct {
		name   string
		args   []string
		code   int
		target error
	}{
		{"not a repository", []string{"scan", t.TempDir()}, ExitFailure, gitlib.ErrNotRepository},
		{"missing branch", []string{"scan", tr.Path, "--diff", "nope"}, ExitUsage, gitlib.ErrBranchNotFound},
		{"empty branch", []string{"scan", tr.Path, "--diff", ""}, ExitUsage, errInvalidFlag},
		{"unknown format", []string{"scan", tr.Path, "--format", "xml"}, ExitUsage, config.ErrInvalidFormat},
		{"bad workers", []string{"scan", tr.Path, "--workers", "0"}, ExitUsage, config.ErrInvalidWorkers},
		{"unparsable flag", []string{"scan", tr.Path, "--workers", "many"}, ExitUsage, errInvalidFlag},
		{"missing config file", []string{"scan", tr.Path, "--config", "/no/such/file.yaml"}, ExitUsage, config.ErrInvalidConfigFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := execute(t, "", tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, ExitCodeOf(err))
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tr := sampleRepo(t)

	reportJSON, _, err := execute(t, "", "scan", tr.Path, "--format", "json")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(path, []byte(reportJSON), 0o600))

	stdout, _, err := execute(t, "", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "valid")

	stdout, _, err = execute(t, reportJSON, "validate", "-")
	require.NoError(t, err)
	assert.Equal(t, "-: valid\n", stdout)
}

func TestValidate_Invalid(t *testing.T) {
	t.Parallel()

	_, stderr, err := execute(t, `{"total": "many"}`, "validate", "-")
	require.Error(t, err)
	assert.Equal(t, ExitUsage, ExitCodeOf(err))
	assert.ErrorIs(t, err, report.ErrInvalidReport)
	assert.NotEmpty(t, stderr)
}

func TestValidate_MissingFile(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "", "validate", filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCodeOf(err))
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "todoscope "), stdout)
}

func TestMCPCommand_Flags(t *testing.T) {
	t.Parallel()

	cmd := NewMCPCommand()
	assert.Equal(t, "mcp", cmd.Use)
	assert.NotEmpty(t, cmd.Long)

	flag := cmd.Flags().Lookup("debug")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestExitCodeOf(t *testing.T) {
	t.Parallel()

	plain := errors.New("boom")

	assert.Equal(t, ExitOK, ExitCodeOf(nil))
	assert.Equal(t, ExitFailure, ExitCodeOf(plain))
	assert.Equal(t, ExitUsage, ExitCodeOf(WithExitCode(ExitUsage, plain)))
	assert.Equal(t, ExitFailure, ExitCodeOf(WithExitCode(0, plain)))
	require.NoError(t, WithExitCode(ExitUsage, nil))

	wrapped := WithExitCode(ExitUsage, plain)
	assert.ErrorIs(t, wrapped, plain)
	assert.Equal(t, "boom", wrapped.Error())
}
