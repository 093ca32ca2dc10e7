package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/todoscope/pkg/aggregate"
	"github.com/Sumatoshi-tech/todoscope/pkg/report"
	"github.com/Sumatoshi-tech/todoscope/pkg/scan"
)

// ToolNameScan is the name of the scan tool.
const ToolNameScan = "todoscope_scan"

// MaxWorkers caps the worker count a tool call may request.
const MaxWorkers = 64

// Sentinel errors for tool input validation.
var (
	// ErrEmptyPath indicates the path parameter is empty.
	ErrEmptyPath = errors.New("path parameter is required and must not be empty")
	// ErrPathNotAbsolute indicates the path is not absolute.
	ErrPathNotAbsolute = errors.New("path must be an absolute path")
	// ErrPathNotFound indicates the path does not exist.
	ErrPathNotFound = errors.New("path does not exist")
	// ErrMissingBranch indicates diff mode was requested without a branch.
	ErrMissingBranch = errors.New("branch is required in diff mode")
	// ErrInvalidWorkers indicates a worker count out of range.
	ErrInvalidWorkers = errors.New("workers out of range")
)

// ScanInput is the input schema for the todoscope_scan tool.
type ScanInput struct {
	Branch       string   `json:"branch,omitempty"        jsonschema:"base branch for diff mode"`
	CommentsOnly bool     `json:"comments_only,omitempty" jsonschema:"only report markers inside comments"`
	Exclude      []string `json:"exclude,omitempty"       jsonschema:"glob patterns of paths to skip"`
	Mode         string   `json:"mode,omitempty"          jsonschema:"tree (default) scans every tracked and untracked file; diff scans files changed against branch"`
	NewestFirst  bool     `json:"newest_first,omitempty"  jsonschema:"order commit groups newest first"`
	Path         string   `json:"path"                    jsonschema:"absolute path inside a Git working tree"`
	Workers      int      `json:"workers,omitempty"       jsonschema:"concurrent blame workers (default: 1)"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

func (s *Server) handleScan(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input ScanInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if err := validateScanInput(input); err != nil {
		return errorResult(err)
	}

	res, err := scan.Run(ctx, input.Path, s.scanOptions(input))
	if err != nil {
		return errorResult(err)
	}

	doc := report.NewDocument(res.Tree, report.Meta{
		ScanID:      res.ScanID,
		Mode:        res.Mode,
		Branch:      res.Branch,
		GeneratedAt: res.Started,
	})

	return jsonResult(doc)
}

func (s *Server) scanOptions(input ScanInput) scan.Options {
	opts := s.defaults
	opts.Emphasis = nil

	if opts.Logger == nil {
		opts.Logger = s.logger
	}

	if opts.Metrics == nil {
		opts.Metrics = s.metrics
	}

	if s.tracer != nil {
		opts.Tracer = s.tracer
	}

	if input.Mode != "" {
		opts.Mode = input.Mode
	}

	if input.Branch != "" {
		opts.BaseBranch = input.Branch
	}

	if input.Workers > 0 {
		opts.Workers = input.Workers
	}

	if input.NewestFirst {
		opts.Order = aggregate.NewestFirst
	}

	if input.CommentsOnly {
		opts.CommentsOnly = true
	}

	if len(input.Exclude) > 0 {
		opts.Filters.Exclude = append(append([]string(nil), opts.Filters.Exclude...), input.Exclude...)
	}

	return opts
}

func validateScanInput(input ScanInput) error {
	if input.Path == "" {
		return ErrEmptyPath
	}

	if !filepath.IsAbs(input.Path) {
		return fmt.Errorf("%w: %s", ErrPathNotAbsolute, input.Path)
	}

	if _, err := os.Stat(input.Path); err != nil {
		return fmt.Errorf("%w: %s", ErrPathNotFound, input.Path)
	}

	if input.Mode == scan.ModeDiff && input.Branch == "" {
		return ErrMissingBranch
	}

	if input.Workers < 0 || input.Workers > MaxWorkers {
		return fmt.Errorf("%w: %d (max %d)", ErrInvalidWorkers, input.Workers, MaxWorkers)
	}

	for _, pattern := range input.Exclude {
		if _, err := path.Match(pattern, ""); err != nil {
			return fmt.Errorf("exclude pattern %q: %w", pattern, err)
		}
	}

	return nil
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}
