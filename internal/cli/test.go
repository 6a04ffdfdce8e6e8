package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/novel/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update  bool   // regenerate golden files
	Filter  string // playthrough filter (glob pattern)
	Workers int
}

// PlaythroughResult holds the result of a single playthrough.
type PlaythroughResult struct {
	Name   string   `json:"name"`
	Path   string   `json:"path"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Playthroughs []PlaythroughResult `json:"playthroughs"`
	Passed       int                 `json:"passed"`
	Failed       int                 `json:"failed"`
	Total        int                 `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <playthroughs-dir>",
		Short: "Run scripted playthroughs",
		Long: `Run every *.play.yaml playthrough under a directory.

Each playthrough plays a scenario with scripted input and checks its
assertions. When golden/<name>.golden exists next to the playthrough,
the recorded trace must match it byte for byte.

Exit codes:
  0 - All playthroughs passed
  1 - One or more playthroughs failed
  2 - Command error (invalid paths, etc.)

Examples:
  novel test ./playthroughs
  novel test ./playthroughs --filter "cafe_*"
  novel test ./playthroughs --update
  novel test ./playthroughs --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter playthroughs by glob pattern")
	cmd.Flags().IntVar(&opts.Workers, "workers", rootOpts.Config.Workers, "playthroughs run in parallel")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("playthroughs directory not found: %s", dir))
	}

	paths, err := findPlaythroughFiles(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find playthroughs", err)
	}

	if len(paths) == 0 {
		if opts.Format == "json" {
			return outputTestJSON(formatter, TestResult{
				Playthroughs: []PlaythroughResult{},
				Total:        0,
			})
		}
		fmt.Fprintln(formatter.Writer, "No playthroughs found.")
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter.VerboseLog("Running %d playthrough(s) with %d worker(s)", len(paths), opts.Workers)
	outcomes, err := harness.RunAll(ctx, paths, opts.Workers)
	if err != nil {
		return WrapExitError(ExitCommandError, "test run interrupted", err)
	}

	result := TestResult{
		Playthroughs: make([]PlaythroughResult, 0, len(outcomes)),
		Total:        len(outcomes),
	}
	for _, outcome := range outcomes {
		pr := checkOutcome(outcome, opts)
		if opts.Format != "json" {
			printPlaythroughResult(formatter.Writer, pr)
		}
		result.Playthroughs = append(result.Playthroughs, pr)
		if pr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputTestJSON(formatter, result)
	}
	return outputTestText(formatter.Writer, result)
}

// findPlaythroughFiles discovers playthroughs, keeping those whose name
// (file name without the .play.yaml suffix) matches filter.
func findPlaythroughFiles(dir, filter string) ([]string, error) {
	paths, err := harness.Discover(dir)
	if err != nil {
		return nil, err
	}
	if filter == "" {
		return paths, nil
	}

	var out []string
	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), harness.PlaythroughSuffix)
		matched, err := filepath.Match(filter, name)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if matched {
			out = append(out, path)
		}
	}
	return out, nil
}

// checkOutcome folds assertions and the golden trace into one result.
func checkOutcome(o harness.Outcome, opts *TestOptions) PlaythroughResult {
	pr := PlaythroughResult{Name: filepath.Base(o.Path), Path: o.Path}
	if o.Playthrough != nil {
		pr.Name = o.Playthrough.Name
	}

	if o.Err != nil {
		pr.Errors = []string{o.Err.Error()}
		return pr
	}

	goldenPath := goldenFilePath(o.Path, o.Playthrough.Name)
	if opts.Update {
		if err := updateGoldenFile(goldenPath, o.Playthrough.Name, o.Result); err != nil {
			pr.Errors = []string{fmt.Sprintf("failed to update golden file: %v", err)}
			return pr
		}
	} else if _, err := os.Stat(goldenPath); err == nil {
		match, err := compareWithGolden(goldenPath, o.Playthrough.Name, o.Result)
		if err != nil {
			pr.Errors = []string{fmt.Sprintf("golden comparison failed: %v", err)}
			return pr
		}
		if !match {
			pr.Errors = append(pr.Errors, "trace does not match golden file (run with --update to regenerate)")
		}
	}

	pr.Errors = append(pr.Errors, o.Result.Errors...)
	pr.Pass = len(pr.Errors) == 0
	return pr
}

func printPlaythroughResult(w io.Writer, pr PlaythroughResult) {
	fmt.Fprintf(w, "%s %s\n", mark(pr.Pass), pr.Name)
	for _, e := range pr.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

// goldenFilePath returns golden/<name>.golden next to the playthrough.
func goldenFilePath(playthroughFile, name string) string {
	return filepath.Join(filepath.Dir(playthroughFile), "golden", name+".golden")
}

// updateGoldenFile writes the current trace as the golden file.
func updateGoldenFile(goldenPath, name string, result *harness.Result) error {
	if err := os.MkdirAll(filepath.Dir(goldenPath), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}

	data, err := harness.MarshalTrace(name, result)
	if err != nil {
		return fmt.Errorf("failed to marshal trace: %w", err)
	}

	if err := os.WriteFile(goldenPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// compareWithGolden compares the result trace against the golden file.
func compareWithGolden(goldenPath, name string, result *harness.Result) (bool, error) {
	goldenData, err := os.ReadFile(goldenPath)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}

	currentData, err := harness.MarshalTrace(name, result)
	if err != nil {
		return false, fmt.Errorf("failed to marshal current trace: %w", err)
	}

	return bytes.Equal(goldenData, currentData), nil
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(formatter *OutputFormatter, result TestResult) error {
	var failure *CLIError
	if result.Failed > 0 {
		failure = &CLIError{
			Code:    ErrCodeTestFailed,
			Message: fmt.Sprintf("%d playthrough(s) failed", result.Failed),
		}
	}
	if err := formatter.Report(result, failure); err != nil {
		return err
	}
	if failure != nil {
		return NewExitError(ExitFailure, failure.Message)
	}
	return nil
}

// outputTestText outputs the test result as text.
func outputTestText(w io.Writer, result TestResult) error {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d playthrough(s) failed", result.Failed))
	}

	fmt.Fprintf(w, "%s All playthroughs passed\n", mark(true))
	return nil
}
