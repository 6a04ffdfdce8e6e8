package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/roach88/novel/internal/locale"
	"github.com/roach88/novel/internal/scenario"
)

// LocalizeOptions holds flags for the localize command.
type LocalizeOptions struct {
	*RootOptions
	Language string
	Output   string // locales directory
	Check    bool
	Force    bool
}

// LocalizeResult reports a written scaffold or a coverage check.
type LocalizeResult struct {
	Language string   `json:"language"`
	Path     string   `json:"path,omitempty"`
	Steps    int      `json:"steps"`
	Applied  int      `json:"applied,omitempty"`
	Missing  []string `json:"missing,omitempty"`
	Rejected []string `json:"rejected,omitempty"`
}

// NewLocalizeCommand creates the localize command.
func NewLocalizeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LocalizeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "localize <scenario>",
		Short: "Write or check a localization file",
		Long: `Write a translation scaffold for a scenario, or check an existing one.

The scaffold holds the text, phrase and image-select steps of the
scenario keyed by step id, in the authored language. Translate the
labels and bodies in place; step kinds and option keys must stay.

With --check, the localization in the locales directory is applied to
the scenario and untranslated or incompatible steps are reported.

Examples:
  novel localize --lang fr ./story.yaml
  novel localize --lang fr --check ./story.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocalize(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Language, "lang", "", "target language (BCP 47 tag, required)")
	_ = cmd.MarkFlagRequired("lang")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", rootOpts.Config.LocalesDir, "locales directory (default: locales/ next to the scenario)")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "check an existing localization instead of writing one")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite an existing localization file")

	return cmd
}

func runLocalize(opts *LocalizeOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	tag, err := language.Parse(opts.Language)
	if err != nil {
		_ = formatter.Error(ErrCodeLocale, fmt.Sprintf("invalid language %q: %v", opts.Language, err), nil)
		return WrapExitError(ExitCommandError, "invalid language", err)
	}

	g, err := LoadScenario(path)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
		}
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	dir := localesDir(opts.Output, path)

	if opts.Check {
		return runLocalizeCheck(opts, formatter, g, dir)
	}

	set := locale.Extract(g, tag)
	data, err := set.Encode()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode localization", err)
	}

	out := filepath.Join(dir, locale.FileName(tag))
	if _, err := os.Stat(out); err == nil && !opts.Force {
		_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("%s exists (use --force to overwrite)", out), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s exists", out))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return WrapExitError(ExitCommandError, "failed to create locales directory", err)
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing %s: %v", out, err), nil)
		return WrapExitError(ExitCommandError, "failed to write localization", err)
	}

	result := LocalizeResult{Language: tag.String(), Path: out, Steps: set.Len()}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Wrote %d step(s) to %s\n", result.Steps, out)
	return nil
}

func runLocalizeCheck(opts *LocalizeOptions, formatter *OutputFormatter, g *scenario.Graph, dir string) error {
	report, err := applyLocale(context.Background(), g, opts.Language, dir)
	if err != nil {
		_ = formatter.Error(ErrCodeLocale, err.Error(), nil)
		return WrapExitError(ExitCommandError, "localization check failed", err)
	}

	result := LocalizeResult{
		Language: report.Language.String(),
		Steps:    g.Len(),
		Applied:  report.Applied,
	}
	for _, id := range report.Missing {
		result.Missing = append(result.Missing, id.String())
	}
	for _, id := range report.Rejected {
		result.Rejected = append(result.Rejected, id.String())
	}
	complete := len(result.Missing) == 0 && len(result.Rejected) == 0

	if opts.Format == "json" {
		var failure *CLIError
		if !complete {
			failure = &CLIError{Code: ErrCodeLocale, Message: "localization incomplete"}
		}
		if err := formatter.Report(result, failure); err != nil {
			return err
		}
	} else {
		w := formatter.Writer
		fmt.Fprintf(w, "Localization %s: %d step(s) applied\n", result.Language, result.Applied)
		for _, id := range result.Missing {
			fmt.Fprintf(w, "  missing  %s\n", id)
		}
		for _, id := range result.Rejected {
			fmt.Fprintf(w, "  rejected %s\n", id)
		}
		if complete {
			fmt.Fprintf(w, "%s Localization complete\n", mark(true))
		} else {
			fmt.Fprintf(w, "%s Localization incomplete\n", mark(false))
		}
	}

	if !complete {
		return NewExitError(ExitFailure, fmt.Sprintf("%d missing, %d rejected", len(result.Missing), len(result.Rejected)))
	}
	return nil
}
