package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/novel/internal/compiler"
	"github.com/roach88/novel/internal/scenario"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Steps  int                        `json:"steps,omitempty"`
	Errors []scenario.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario>",
		Short: "Validate a scenario without playing it",
		Long: `Validate a scenario file against the document schema and graph rules.

YAML documents are checked against the CUE schema first, then for
duplicate step ids, dangling jump targets and choices without options.
All errors are reported, not just the first. CUE sources (.cue) are
compiled and checked the same way.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	errs, steps, err := ValidateFile(path)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		return outputValidateError(formatter, ErrCodeGeneric, err.Error(), nil)
	}
	formatter.VerboseLog("Checked %d step(s) in %s", steps, path)

	if len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}
	return outputValidateSuccess(formatter, steps)
}

// ValidateFile validates one scenario file and returns every error found
// plus the step count. The error return is for files that cannot be read.
func ValidateFile(path string) ([]scenario.ValidationError, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("scenario not found: %s", path)}
	}

	if filepath.Ext(path) == ".cue" {
		g, err := compiler.CompileCUE(path)
		if err != nil {
			loadErr := convertLoadError(err, path)
			return []scenario.ValidationError{{
				Field:   "cue",
				Message: loadErr.Message,
				Code:    loadErr.Code,
				Line:    getLineFromLoadError(loadErr),
			}}, 0, nil
		}
		return nil, g.Len(), nil
	}

	if errs := compiler.ValidateDocument(data); len(errs) > 0 {
		return errs, 0, nil
	}
	g, err := scenario.Decode(data)
	if err != nil {
		return nil, 0, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	}
	return nil, g.Len(), nil
}

// getLineFromLoadError extracts the line number of a load error's position.
func getLineFromLoadError(e *LoadError) int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, steps int) error {
	if formatter.Format == "json" {
		result := ValidationResult{Valid: true, Steps: steps}
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Scenario valid (%d steps)\n", steps)
	return nil
}

// outputValidateError outputs a single command error.
func outputValidateError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Unreadable input is a command-level error (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []scenario.ValidationError) error {
	if formatter.Format == "json" {
		result := ValidationResult{
			Valid:  false,
			Errors: errs,
		}

		failure := &CLIError{Code: errs[0].Code, Message: errs[0].Message}
		if err := formatter.Report(result, failure); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintf(formatter.Writer, "%s Validation failed\n", mark(false))
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
