package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/todoscope/pkg/config"
	"github.com/Sumatoshi-tech/todoscope/pkg/mcp"
	"github.com/Sumatoshi-tech/todoscope/pkg/observability"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	var (
		debug      bool
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The server exposes one tool:
  - todoscope_scan: scan a repository and return its TODO annotations grouped
    by commit, tag and author as a JSON report`,
		Args: cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return classify(err)
			}

			cfg, err := config.Load(config.LoadOptions{Path: configPath, SearchDirs: []string{cwd}})
			if err != nil {
				return classify(err)
			}

			providers, err := observability.InitWithOutput(mcpObservabilityConfig(cfg, debug), cobraCmd.ErrOrStderr())
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

			defaults, err := scanOptions(cfg, providers, metrics)
			if err != nil {
				return classify(err)
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:   providers.Logger,
				Metrics:  metrics,
				Tracer:   providers.Tracer,
				Defaults: defaults,
			})

			return classify(srv.Run(cobraCmd.Context()))
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")
	cmd.Flags().StringVar(&configPath, flagConfig, "", "Config file supplying scan defaults")

	return cmd
}

// mcpObservabilityConfig logs JSON, since stdout carries the protocol.
func mcpObservabilityConfig(cfg *config.Config, debug bool) observability.Config {
	obsCfg := observabilityConfig(cfg)
	obsCfg.Mode = observability.ModeMCP
	obsCfg.LogJSON = true

	if debug {
		obsCfg.LogLevel = slog.LevelDebug
		obsCfg.TraceVerbose = true
	}

	return obsCfg
}
