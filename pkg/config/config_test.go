package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/todoscope/pkg/config"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()

	path := filepath.Join(dir, ".todoscope.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.Load(config.LoadOptions{SearchDirs: []string{t.TempDir()}})
	require.NoError(t, err)

	assert.Equal(t, config.ModeTree, cfg.Scan.Mode)
	assert.Equal(t, "main", cfg.Scan.BaseBranch)
	assert.Equal(t, 1, cfg.Scan.Workers)
	assert.Equal(t, 1024, cfg.Scan.SniffBytes)
	assert.Equal(t, "tree", cfg.Report.Format)
	assert.Equal(t, "oldest", cfg.Report.Order)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, config.LogFormatText, cfg.Logging.Format)
	assert.Zero(t, cfg.Scan.MaxFileSizeBytes())
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_FileFromSearchDir(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	dir := t.TempDir()
	writeConfig(t, dir, `
scan:
  mode: diff
  base_branch: develop
  workers: 4
  max_file_size: 2MB
  exclude: ["*.pb.go", "docs"]
report:
  order: newest
`)

	cfg, err := config.Load(config.LoadOptions{SearchDirs: []string{dir}})
	require.NoError(t, err)

	assert.Equal(t, config.ModeDiff, cfg.Scan.Mode)
	assert.Equal(t, "develop", cfg.Scan.BaseBranch)
	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.Equal(t, int64(2_000_000), cfg.Scan.MaxFileSizeBytes())
	assert.Equal(t, []string{"*.pb.go", "docs"}, cfg.Scan.Exclude)
	assert.Equal(t, "newest", cfg.Report.Order)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	dir := t.TempDir()
	path := writeConfig(t, dir, "scan:\n  workers: 2\n")

	t.Setenv("TODOSCOPE_SCAN_WORKERS", "8")
	t.Setenv("TODOSCOPE_REPORT_FORMAT", "json")

	cfg, err := config.Load(config.LoadOptions{Path: path})
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Scan.Workers)
	assert.Equal(t, "json", cfg.Report.Format)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TODOSCOPE_SCAN_WORKERS", "8")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("workers", 1, "")
	flags.String("format", "tree", "")
	require.NoError(t, flags.Parse([]string{"--workers", "3"}))

	cfg, err := config.Load(config.LoadOptions{
		SearchDirs: []string{t.TempDir()},
		Flags:      flags,
		Bindings: map[string]string{
			"scan.workers":  "workers",
			"report.format": "format",
			"scan.missing":  "no-such-flag",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Scan.Workers)
	assert.Equal(t, "tree", cfg.Report.Format)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	_, err := config.Load(config.LoadOptions{Path: filepath.Join(t.TempDir(), "nope.yaml")})
	require.ErrorIs(t, err, config.ErrInvalidConfigFile)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   error
	}{
		{"mode", func(c *config.Config) { c.Scan.Mode = "both" }, config.ErrInvalidMode},
		{"branch", func(c *config.Config) { c.Scan.Mode, c.Scan.BaseBranch = config.ModeDiff, " " }, config.ErrMissingBranch},
		{"workers", func(c *config.Config) { c.Scan.Workers = 0 }, config.ErrInvalidWorkers},
		{"sniff", func(c *config.Config) { c.Scan.SniffBytes = -1 }, config.ErrInvalidSniffBytes},
		{"size", func(c *config.Config) { c.Scan.MaxFileSize = "lots" }, config.ErrInvalidFileSize},
		{"exclude", func(c *config.Config) { c.Scan.Exclude = []string{"[a-"} }, config.ErrInvalidExclude},
		{"format", func(c *config.Config) { c.Report.Format = "xml" }, config.ErrInvalidFormat},
		{"order", func(c *config.Config) { c.Report.Order = "random" }, config.ErrInvalidOrder},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, config.ErrInvalidLogFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Default()
			require.NoError(t, config.Validate(cfg))

			tt.mutate(cfg)
			require.ErrorIs(t, config.Validate(cfg), tt.want)
		})
	}
}
