package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/novel/internal/engine"
	"github.com/roach88/novel/internal/inspector"
	"github.com/roach88/novel/internal/ir"
	"github.com/roach88/novel/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Slot     string
}

// ReplayResult holds the replay of one save slot.
type ReplayResult struct {
	Slot            string    `json:"slot"`
	Seq             int64     `json:"seq"`
	ScenarioMatches bool      `json:"scenario_matches"`
	Current         ir.Step   `json:"current"`
	Decisions       int       `json:"decisions"`
	Commands        []ir.Step `json:"commands"`
	Screen          []ir.Step `json:"screen"`
	Consistent      bool      `json:"consistent"` // replayed screen equals the saved one
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}
	cfg := rootOpts.Config

	cmd := &cobra.Command{
		Use:   "replay <scenario>",
		Short: "Replay a save slot and verify its screen",
		Long: `Load a save slot against a scenario and replay the recorded path.

Every stage direction from the first step to the saved cursor is
replayed into a fresh screen, which is compared with the screen stored
alongside the save.

Exit codes:
  0 - The save loads and its screen replays identically
  1 - The save no longer fits the scenario or the screens differ
  2 - Command error (slot not found, etc.)

Examples:
  novel replay --db ./saves.db --slot chapter1 ./story.yaml
  novel replay --format json ./story.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", cfg.Database, "path to SQLite save database")
	cmd.Flags().StringVar(&opts.Slot, "slot", cfg.Slot, "save slot name")

	return cmd
}

func runReplay(opts *ReplayOptions, path string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	g, err := LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	st, err := openSlots(ctx, opts.RootOptions, opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open slot store", err)
	}
	defer st.Close()

	slot, err := st.ReadSlot(ctx, opts.Slot)
	if errors.Is(err, store.ErrSlotNotFound) {
		return NewExitError(ExitCommandError, fmt.Sprintf("slot %q not found", opts.Slot))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read slot", err)
	}

	hash, err := g.Hash()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash scenario", err)
	}

	state, ok := engine.Load(g, slot.State)
	if !ok {
		return outputReplayMismatch(formatter, opts.Slot)
	}

	cursor := engine.NewCursor(engine.WithMaxHops(opts.Config.MaxHops))
	commands, err := cursor.ReplayFromStart(g, state)
	if err != nil {
		return WrapExitError(ExitFailure, "replay failed", err)
	}

	screen := inspector.New()
	screen.KeepSteps(commands)

	consistent := true
	if len(slot.Inspector) > 0 {
		saved := inspector.New()
		if err := yaml.Unmarshal(slot.Inspector, saved); err != nil {
			return WrapExitError(ExitCommandError, "failed to decode saved screen", err)
		}
		consistent = saved.Equal(screen)
	}

	current, _ := engine.CurrentStep(g, state)
	result := ReplayResult{
		Slot:            slot.Name,
		Seq:             slot.Seq,
		ScenarioMatches: slot.ScenarioHash == hash,
		Current:         current,
		Decisions:       len(state.History),
		Commands:        nonNilSteps(commands),
		Screen:          stepsOf(screen.Extract()),
		Consistent:      consistent,
	}

	if opts.Format == "json" {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(formatter, result)
}

// stepsOf wraps bare contents as id-less steps for output.
func stepsOf(contents []ir.Steps) []ir.Step {
	out := make([]ir.Step, len(contents))
	for i, c := range contents {
		out[i] = ir.Step{Content: c}
	}
	return out
}

func nonNilSteps(steps []ir.Step) []ir.Step {
	if steps == nil {
		return []ir.Step{}
	}
	return steps
}

// outputReplayMismatch reports a save that no longer loads.
func outputReplayMismatch(formatter *OutputFormatter, slot string) error {
	msg := fmt.Sprintf("slot %q does not fit this scenario", slot)
	if formatter.Format == "json" {
		if err := formatter.Report(nil, &CLIError{Code: ErrCodeMismatch, Message: msg}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "%s %s\n", mark(false), msg)
	}
	return NewExitError(ExitFailure, msg)
}

const screenMismatch = "replayed screen differs from saved screen"

func outputReplayJSON(formatter *OutputFormatter, result ReplayResult) error {
	var failure *CLIError
	if !result.Consistent {
		failure = &CLIError{Code: ErrCodeMismatch, Message: screenMismatch}
	}
	if err := formatter.Report(result, failure); err != nil {
		return err
	}
	if failure != nil {
		return NewExitError(ExitFailure, screenMismatch)
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(formatter *OutputFormatter, result ReplayResult) error {
	w := formatter.Writer

	fmt.Fprintf(w, "Slot: %s (seq %d)\n", result.Slot, result.Seq)
	if !result.ScenarioMatches {
		fmt.Fprintln(w, "  Warning: scenario changed since this save")
	}
	fmt.Fprintf(w, "  Cursor: %s\n", stepLabel(result.Current))
	fmt.Fprintf(w, "  Decisions: %d\n", result.Decisions)
	fmt.Fprintf(w, "  Replayed: %d command(s)\n", len(result.Commands))

	if formatter.Verbose {
		for _, c := range result.Commands {
			fmt.Fprintf(w, "    %s\n", describeCommand(c.Content))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Screen:")
	if len(result.Screen) == 0 {
		fmt.Fprintln(w, "  (empty)")
	}
	for _, s := range result.Screen {
		fmt.Fprintf(w, "  %s\n", describeCommand(s.Content))
	}
	fmt.Fprintln(w)

	if result.Consistent {
		fmt.Fprintf(w, "%s Replay matches saved screen\n", mark(true))
		return nil
	}

	fmt.Fprintf(w, "%s Replayed screen differs from saved screen\n", mark(false))
	return NewExitError(ExitFailure, screenMismatch)
}

// stepLabel names a step by its author label, falling back to its id.
func stepLabel(s ir.Step) string {
	if s.Name != "" {
		return fmt.Sprintf("%s (%s)", s.Name, ir.Kind(s.Content))
	}
	return fmt.Sprintf("%s (%s)", s.ID, ir.Kind(s.Content))
}
