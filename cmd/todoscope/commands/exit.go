package commands

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/todoscope/pkg/config"
	"github.com/Sumatoshi-tech/todoscope/pkg/gitlib"
	"github.com/Sumatoshi-tech/todoscope/pkg/scan"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	// ExitUsage covers configuration errors and failed report validation.
	ExitUsage = 2
)

// ExitCoder is an error that selects the process exit code.
type ExitCoder interface {
	error
	ExitCode() int
}

// ExitError carries an explicit exit code. errors.Is and errors.As see the cause.
type ExitError struct {
	code  int
	cause error
}

func (e *ExitError) Error() string { return e.cause.Error() }

// ExitCode returns the process exit code.
func (e *ExitError) ExitCode() int { return e.code }

func (e *ExitError) Unwrap() error { return e.cause }

// WithExitCode wraps cause so that ExitCodeOf reports code. A nil cause stays nil.
func WithExitCode(code int, cause error) error {
	if cause == nil {
		return nil
	}

	if code <= 0 {
		code = ExitFailure
	}

	return &ExitError{code: code, cause: cause}
}

// ExitCodeOf extracts the exit code of err: 0 for nil, 1 when err carries none.
func ExitCodeOf(err error) int {
	if err == nil {
		return ExitOK
	}

	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}

	return ExitFailure
}

// usageErrors are the failures caused by how todoscope was invoked or configured.
var usageErrors = []error{
	gitlib.ErrBranchNotFound,
	scan.ErrUnknownMode,
	config.ErrInvalidMode,
	config.ErrMissingBranch,
	config.ErrInvalidWorkers,
	config.ErrInvalidSniffBytes,
	config.ErrInvalidFileSize,
	config.ErrInvalidExclude,
	config.ErrInvalidFormat,
	config.ErrInvalidOrder,
	config.ErrInvalidLogFormat,
	config.ErrInvalidConfigFile,
	config.ErrInvalidConfigValue,
	errInvalidFlag,
}

var errInvalidFlag = errors.New("invalid flag")

// classify attaches an exit code to err based on its sentinel.
func classify(err error) error {
	if err == nil {
		return nil
	}

	for _, target := range usageErrors {
		if errors.Is(err, target) {
			return WithExitCode(ExitUsage, err)
		}
	}

	return WithExitCode(ExitFailure, err)
}

func flagError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvalidFlag, fmt.Sprintf(format, args...))
}
