// Package selector decides which files of a working tree are scanned.
package selector

import (
	"context"
	"io"
	"log/slog"
)

// DefaultSniffBytes is the prefix length inspected by the binary check.
const DefaultSniffBytes = 1024

// Candidate is a file eligible for scanning.
type Candidate struct {
	// Path is repository-relative and slash separated.
	Path string
	// AbsPath is the location on disk.
	AbsPath string
}

// Selector produces the candidate set of a scan.
type Selector interface {
	Candidates(ctx context.Context) ([]Candidate, error)
}

// Config holds the filters shared by every selection policy.
type Config struct {
	// SniffBytes is the prefix length read by the binary check. Zero means DefaultSniffBytes.
	SniffBytes int
	// MaxFileSize skips files larger than this many bytes. Zero means unlimited.
	MaxFileSize int64
	// SkipVendor skips vendored and generated dependency paths.
	SkipVendor bool
	// Exclude lists path.Match globs matched against the path and each parent directory.
	Exclude []string
	Logger  *slog.Logger
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}

	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (c Config) sniffBytes() int {
	if c.SniffBytes > 0 {
		return c.SniffBytes
	}

	return DefaultSniffBytes
}
