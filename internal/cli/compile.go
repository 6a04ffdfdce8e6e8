package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/novel/internal/ir"
	"github.com/roach88/novel/internal/scenario"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult summarizes a compiled scenario.
type CompilationResult struct {
	Title  string         `json:"title,omitempty"`
	Steps  int            `json:"steps"`
	Kinds  map[string]int `json:"kinds"`
	Hash   string         `json:"hash"`
	Output string         `json:"output,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <scenario.cue>",
		Short: "Compile a CUE scenario to a YAML document",
		Long: `Compile a CUE-authored scenario into the YAML scenario document format.

The CUE source may use definitions and hidden fields as helpers; its
regular fields must form a scenario. The result is validated like
"novel validate" before it is written.

Without --output the document is printed to stdout.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	g, err := LoadScenario(path)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return outputCompileError(formatter, loadErr)
		}
		return outputCompileError(formatter, &LoadError{Code: ErrCodeGeneric, Message: err.Error()})
	}
	formatter.VerboseLog("Compiled %d step(s) from %s", g.Len(), path)

	doc, err := g.Encode()
	if err != nil {
		return outputCompileError(formatter, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("encoding scenario: %v", err)})
	}

	result, err := summarize(g)
	if err != nil {
		return outputCompileError(formatter, &LoadError{Code: ErrCodeGeneric, Message: err.Error()})
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, doc, 0644); err != nil {
			return outputCompileError(formatter, &LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("writing output file: %v", err)})
		}
		result.Output = opts.Output
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	if opts.Output == "" {
		_, err := formatter.Writer.Write(doc)
		return err
	}
	return outputCompileText(formatter, result)
}

// summarize counts steps by kind and fingerprints the graph.
func summarize(g *scenario.Graph) (CompilationResult, error) {
	hash, err := g.Hash()
	if err != nil {
		return CompilationResult{}, fmt.Errorf("hashing scenario: %w", err)
	}
	result := CompilationResult{
		Title: g.Title,
		Steps: g.Len(),
		Kinds: make(map[string]int),
		Hash:  hash,
	}
	for _, step := range g.Steps() {
		result.Kinds[ir.Kind(step.Content)]++
	}
	return result, nil
}

// outputCompileText prints the summary after writing a file.
func outputCompileText(formatter *OutputFormatter, result CompilationResult) error {
	fmt.Fprintf(formatter.Writer, "✓ Compiled %d step(s)\n\n", result.Steps)

	kinds := make([]string, 0, len(result.Kinds))
	for k := range result.Kinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(formatter.Writer, "  %s: %d\n", k, result.Kinds[k])
	}
	fmt.Fprintln(formatter.Writer)
	fmt.Fprintf(formatter.Writer, "Wrote scenario to %s\n", result.Output)
	return nil
}

// outputCompileError outputs a compilation error with its position.
func outputCompileError(formatter *OutputFormatter, loadErr *LoadError) error {
	if formatter.Format != "json" && loadErr.Pos.IsValid() {
		fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
			loadErr.Pos.Filename(),
			loadErr.Pos.Line(),
			loadErr.Pos.Column())
	}
	var details interface{}
	if len(loadErr.Errors) > 0 {
		details = loadErr.Errors
	}
	_ = formatter.Error(loadErr.Code, loadErr.Message, details)
	// Compilation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", loadErr.Code, loadErr.Message))
}
