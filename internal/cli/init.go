package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/novel/internal/ir"
	"github.com/roach88/novel/internal/scenario"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Title string
	Force bool
}

// InitResult lists the files written by init.
type InitResult struct {
	Scenario    string `json:"scenario"`
	Playthrough string `json:"playthrough"`
	Locales     string `json:"locales"`
}

const starterPlaythrough = `name: start
description: "Leaving says goodbye before the end"
scenario: ../scenario.yaml
actions:
  - advance: true
  - choose: leave
  - advance: true
assertions:
  - type: current_step
    step: end
  - type: history_contains
    step: choice
    value: leave
  - type: background
    source: bg/room.png
`

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init <dir>",
		Short: "Create a starter scenario project",
		Long: `Create a scenario project with a small branching story.

Writes:
  <dir>/scenario.yaml                   the story, with generated step ids
  <dir>/playthroughs/start.play.yaml    a scripted playthrough for "novel test"
  <dir>/locales/                        where "novel localize" puts translations

Examples:
  novel init ./mystory
  novel init --title "The Lighthouse" ./lighthouse`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "Untitled", "scenario title")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite existing files")

	return cmd
}

func runInit(opts *InitOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	result := InitResult{
		Scenario:    filepath.Join(dir, "scenario.yaml"),
		Playthrough: filepath.Join(dir, "playthroughs", "start.play.yaml"),
		Locales:     filepath.Join(dir, "locales"),
	}

	if !opts.Force {
		for _, path := range []string{result.Scenario, result.Playthrough} {
			if _, err := os.Stat(path); err == nil {
				_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("%s exists (use --force to overwrite)", path), nil)
				return NewExitError(ExitCommandError, fmt.Sprintf("%s exists", path))
			}
		}
	}

	g, err := starterScenario(scenario.UUIDv7Generator{})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build starter scenario", err)
	}
	g.Title = opts.Title

	for _, d := range []string{dir, filepath.Dir(result.Playthrough), result.Locales} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return WrapExitError(ExitCommandError, "failed to create directory", err)
		}
	}
	if err := g.Save(result.Scenario); err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to write scenario", err)
	}
	if err := os.WriteFile(result.Playthrough, []byte(starterPlaythrough), 0644); err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to write playthrough", err)
	}
	formatter.VerboseLog("Wrote %d step(s) to %s", g.Len(), result.Scenario)

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	w := formatter.Writer
	fmt.Fprintf(w, "✓ Created %s\n\n", dir)
	fmt.Fprintf(w, "  %s\n  %s\n  %s/\n\n", result.Scenario, result.Playthrough, result.Locales)
	fmt.Fprintf(w, "Try: novel play %s\n", result.Scenario)
	return nil
}

// starterScenario builds:
//
//	background change bg/room.png
//	hello:  text
//	choice: phrase [stay, leave]
//	        jump if check(choice, leave) -> leave
//	stay:   text
//	        jump -> end
//	leave:  text
//	end:    text
func starterScenario(gen scenario.IDGenerator) (*scenario.Graph, error) {
	b := scenario.NewBuilder(gen)
	leave, end := b.Reserve(), b.Reserve()

	b.Add("", ir.Background{Command: ir.BackgroundCommand{
		Kind:   ir.BackgroundChange,
		Source: ir.StringPtr("bg/room.png"),
	}})
	b.Add("hello", ir.Text{Author: "Guide", Body: "Welcome. Will you stay a while?"})
	choice := b.Add("choice", ir.Phrase{Options: []ir.Option{
		{Key: "stay", Label: "Stay"},
		{Key: "leave", Label: "Leave"},
	}})
	b.Add("", ir.Jump{Condition: ir.Check{Step: choice, Value: "leave"}, Target: leave})
	b.Add("stay", ir.Text{Author: "Guide", Body: "Make yourself at home."})
	b.Add("", ir.Jump{Target: end})
	b.Place(leave, "leave", ir.Text{Author: "Guide", Body: "Safe travels."})
	b.Place(end, "end", ir.Text{Body: "The end."})

	g, err := b.Graph()
	if err != nil {
		return nil, err
	}
	g.Language = "en"
	if errs := g.Validate(); len(errs) > 0 {
		return nil, errs[0]
	}
	return g, nil
}
