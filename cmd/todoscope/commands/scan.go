// Package commands implements CLI command handlers for todoscope.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/todoscope/pkg/aggregate"
	"github.com/Sumatoshi-tech/todoscope/pkg/annotation"
	"github.com/Sumatoshi-tech/todoscope/pkg/config"
	"github.com/Sumatoshi-tech/todoscope/pkg/gitlib"
	"github.com/Sumatoshi-tech/todoscope/pkg/observability"
	"github.com/Sumatoshi-tech/todoscope/pkg/report"
	"github.com/Sumatoshi-tech/todoscope/pkg/scan"
	"github.com/Sumatoshi-tech/todoscope/pkg/selector"
	"github.com/Sumatoshi-tech/todoscope/pkg/version"
)

// Flag names shared by the root and scan commands.
const (
	flagDiff         = "diff"
	flagFormat       = "format"
	flagNewestFirst  = "newest-first"
	flagNoColor      = "no-color"
	flagWorkers      = "workers"
	flagCommentsOnly = "comments-only"
	flagSkipVendor   = "skip-vendor"
	flagExclude      = "exclude"
	flagMaxFileSize  = "max-file-size"
	flagMetricsFile  = "metrics-file"
	flagSummary      = "summary"
	flagConfig       = "config"
	flagVerbose      = "verbose"
	flagQuiet        = "quiet"
)

// flagBindings maps config keys to the flags that override them.
var flagBindings = map[string]string{
	"scan.workers":           flagWorkers,
	"scan.comments_only":     flagCommentsOnly,
	"scan.skip_vendor":       flagSkipVendor,
	"scan.exclude":           flagExclude,
	"scan.max_file_size":     flagMaxFileSize,
	"report.format":          flagFormat,
	"report.no_color":        flagNoColor,
	"report.summary":         flagSummary,
	"telemetry.metrics_file": flagMetricsFile,
}

// ScanCommand holds the state of one scan invocation.
type ScanCommand struct {
	diffBranch  string
	newestFirst bool
	configPath  string
}

// NewScanCommand creates the scan command.
func NewScanCommand() *cobra.Command {
	sc := &ScanCommand{}

	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Report TODO annotations grouped by commit, tag and author",
		Long: `Scan the working tree of a Git repository for TODO annotations.

Every annotation is attributed to the commit and author that last changed its
line. Lines not yet committed are attributed to "Uncommitted". With --diff only
files that differ from the given local branch are scanned.`,
		Args: cobra.MaximumNArgs(1),
		RunE: sc.run,
	}

	sc.registerFlags(cmd)

	return cmd
}

func (sc *ScanCommand) registerFlags(cmd *cobra.Command) {
	defaults := config.Default()

	flags := cmd.Flags()
	flags.StringVar(&sc.diffBranch, flagDiff, "", "Scan only files changed against this local branch")
	flags.String(flagFormat, defaults.Report.Format, "Output format: tree, json, yaml, plot")
	flags.BoolVar(&sc.newestFirst, flagNewestFirst, false, "List the newest commit groups first")
	flags.Bool(flagNoColor, false, "Disable colored output")
	flags.Int(flagWorkers, defaults.Scan.Workers, "Number of concurrent blame workers")
	flags.Bool(flagCommentsOnly, false, "Only report markers that follow a comment leader")
	flags.Bool(flagSkipVendor, false, "Skip vendored and generated directories")
	flags.StringSlice(flagExclude, nil, "Glob patterns of paths to skip (repeatable)")
	flags.String(flagMaxFileSize, defaults.Scan.MaxFileSize, "Skip files larger than this size (e.g. '2MB'; empty = no limit)")
	flags.String(flagMetricsFile, "", "Write scan metrics in Prometheus text format to this file")
	flags.Bool(flagSummary, false, "Append per-author and per-tag counts to tree output")
	flags.StringVar(&sc.configPath, flagConfig, "", "Config file (default: .todoscope.yaml in the repository root or $HOME)")
}

func (sc *ScanCommand) run(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	repo, err := gitlib.OpenRepository(path)
	if err != nil {
		return classify(err)
	}
	defer repo.Free()

	cfg, err := sc.loadConfig(cmd, repo.Workdir())
	if err != nil {
		return classify(err)
	}

	providers, err := observability.InitWithOutput(observabilityConfig(cfg), cmd.ErrOrStderr())
	if err != nil {
		return classify(err)
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	metrics, err := observability.NewScanMetrics(providers.Meter)
	if err != nil {
		return classify(err)
	}

	if cfg.Report.NoColor {
		color.NoColor = true
	}

	opts, err := scanOptions(cfg, providers, metrics)
	if err != nil {
		return classify(err)
	}

	res, err := scan.New(repo, opts).Run(cmd.Context())
	if err != nil {
		return classify(err)
	}

	return classify(writeReport(cmd.OutOrStdout(), cfg, res))
}

// loadConfig layers flags over env, file and defaults. --diff and
// --newest-first map onto two keys or a value, so they are applied after Load.
func (sc *ScanCommand) loadConfig(cmd *cobra.Command, workdir string) (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{
		Path:       sc.configPath,
		SearchDirs: []string{workdir},
		Flags:      cmd.Flags(),
		Bindings:   flagBindings,
	})
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed(flagDiff) {
		if sc.diffBranch == "" {
			return nil, flagError("--%s needs a branch name", flagDiff)
		}

		cfg.Scan.Mode = config.ModeDiff
		cfg.Scan.BaseBranch = sc.diffBranch
	}

	if sc.newestFirst {
		cfg.Report.Order = aggregate.NewestFirst.String()
	}

	if verbose, _ := cmd.Flags().GetBool(flagVerbose); verbose {
		cfg.Logging.Level = slog.LevelDebug.String()
	}

	if quiet, _ := cmd.Flags().GetBool(flagQuiet); quiet {
		cfg.Logging.Level = slog.LevelError.String()
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func observabilityConfig(cfg *config.Config) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = observability.ModeCLI
	obsCfg.OTLPEndpoint = firstNonEmpty(cfg.Telemetry.OTLPEndpoint, os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(
		firstNonEmpty(cfg.Telemetry.OTLPHeaders, os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
	)
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure || os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true"
	obsCfg.MetricsFile = cfg.Telemetry.MetricsFile
	obsCfg.TraceVerbose = cfg.Telemetry.TraceVerbose
	obsCfg.LogLevel = observability.ParseLevel(cfg.Logging.Level)
	obsCfg.LogJSON = cfg.Logging.Format == config.LogFormatJSON

	return obsCfg
}

func scanOptions(
	cfg *config.Config, providers observability.Providers, metrics *observability.ScanMetrics,
) (scan.Options, error) {
	order, err := aggregate.ParseOrder(cfg.Report.Order)
	if err != nil {
		return scan.Options{}, err
	}

	format, err := report.ParseFormat(cfg.Report.Format)
	if err != nil {
		return scan.Options{}, err
	}

	opts := scan.Options{
		Mode:       cfg.Scan.Mode,
		BaseBranch: cfg.Scan.BaseBranch,
		Workers:    cfg.Scan.Workers,
		Filters: selector.Config{
			SniffBytes:  cfg.Scan.SniffBytes,
			MaxFileSize: cfg.Scan.MaxFileSizeBytes(),
			SkipVendor:  cfg.Scan.SkipVendor,
			Exclude:     cfg.Scan.Exclude,
			Logger:      providers.Logger,
		},
		CommentsOnly: cfg.Scan.CommentsOnly,
		Order:        order,
		Logger:       providers.Logger,
		Tracer:       providers.Tracer,
		TraceVerbose: providers.TraceVerbose,
		Metrics:      metrics,
	}

	if format == report.FormatTree && !cfg.Report.NoColor {
		opts.Emphasis = annotation.Red
	}

	return opts, nil
}

func writeReport(w io.Writer, cfg *config.Config, res *scan.Result) error {
	format, err := report.ParseFormat(cfg.Report.Format)
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}

	err = report.Write(w, res.Tree, report.Options{
		Format: format,
		Meta: report.Meta{
			ScanID:      res.ScanID,
			Mode:        res.Mode,
			Branch:      res.Branch,
			GeneratedAt: res.Started,
		},
		Tree:    report.TreeOptions{Workdir: res.Workdir, Cwd: cwd},
		Summary: cfg.Report.Summary,
	})
	if err != nil && !errors.Is(err, io.ErrClosedPipe) {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
