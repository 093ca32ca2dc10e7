package report

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON string

// ErrInvalidReport is returned when a document does not match the report schema.
var ErrInvalidReport = errors.New("invalid report")

// Schema returns the JSON schema of Document.
func Schema() string {
	return schemaJSON
}

// ValidationError lists the schema violations of a document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %d problem(s)", ErrInvalidReport, len(e.Problems))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidReport
}

// ValidateJSON checks data against the report schema.
// Schema violations return a *ValidationError; malformed JSON returns a plain error.
func ValidateJSON(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("validate report: %w", err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", verr.Field(), verr.Description()))
	}

	return &ValidationError{Problems: problems}
}
