package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/todoscope/pkg/report"
)

// stdinArg selects standard input as the report source.
const stdinArg = "-"

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <report.json|->",
		Short: "Validate a JSON report against the report schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readReport(cmd.InOrStdin(), args[0])
			if err != nil {
				return WithExitCode(ExitFailure, err)
			}

			return validateReport(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], data)
		},
	}
}

func readReport(stdin io.Reader, name string) ([]byte, error) {
	if name == stdinArg {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}

		return data, nil
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}

	return data, nil
}

func validateReport(stdout, stderr io.Writer, name string, data []byte) error {
	err := report.ValidateJSON(data)
	if err == nil {
		_, writeErr := fmt.Fprintf(stdout, "%s: valid\n", name)

		return writeErr
	}

	var verr *report.ValidationError
	if errors.As(err, &verr) {
		for _, problem := range verr.Problems {
			fmt.Fprintf(stderr, "  - %s\n", problem)
		}
	}

	return WithExitCode(ExitUsage, fmt.Errorf("%s: %w", name, err))
}
