package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/novel/internal/store"
)

// SlotsOptions holds flags shared by the slots commands.
type SlotsOptions struct {
	*RootOptions
	Database string
}

// SlotEntry is one slot or one history entry in command output.
type SlotEntry struct {
	Name         string `json:"name"`
	Seq          int64  `json:"seq"`
	ScenarioHash string `json:"scenario_hash"`
	StateHash    string `json:"state_hash"`
}

// SlotsResult holds a slot listing.
type SlotsResult struct {
	Slots []SlotEntry `json:"slots"`
	Total int         `json:"total"`
}

// NewSlotsCommand creates the slots command and its subcommands.
func NewSlotsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SlotsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "List and manage save slots",
		Long: `List the save slots in a store, ordered by save sequence.

Subcommands show the states a slot has held or delete a slot with its
history. The store is the SQLite database given by --db, or Redis when
NOVEL_REDIS_URL is set.

Examples:
  novel slots --db ./saves.db
  novel slots history chapter1 --db ./saves.db
  novel slots delete chapter1 --db ./saves.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSlotsList(opts, cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", rootOpts.Config.Database, "path to SQLite save database")

	cmd.AddCommand(newSlotsHistoryCommand(opts))
	cmd.AddCommand(newSlotsDeleteCommand(opts))

	return cmd
}

func newSlotsHistoryCommand(opts *SlotsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "history <slot>",
		Short:         "Show every distinct state saved to a slot",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSlotsHistory(opts, args[0], cmd)
		},
	}
}

func newSlotsDeleteCommand(opts *SlotsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <slot>",
		Short:         "Delete a slot and its history",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSlotsDelete(opts, args[0], cmd)
		},
	}
}

func runSlotsList(opts *SlotsOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := openSlots(ctx, opts.RootOptions, opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open slot store", err)
	}
	defer st.Close()

	slots, err := st.ListSlots(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list slots", err)
	}

	result := SlotsResult{Slots: toEntries(slots), Total: len(slots)}
	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		return formatter.Report(result, nil)
	}

	w := formatter.Writer
	if len(slots) == 0 {
		fmt.Fprintln(w, "No save slots.")
		return nil
	}
	fmt.Fprintf(w, "Save slots: %d\n\n", result.Total)
	for _, e := range result.Slots {
		fmt.Fprintf(w, "  %-16s seq %-6d state %s\n", e.Name, e.Seq, shortHash(e.StateHash))
	}
	return nil
}

func runSlotsHistory(opts *SlotsOptions, name string, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := openSlots(ctx, opts.RootOptions, opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open slot store", err)
	}
	defer st.Close()

	history, err := st.SlotHistory(ctx, name)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read slot history", err)
	}
	if len(history) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("slot %q not found", name))
	}

	result := SlotsResult{Slots: toEntries(history), Total: len(history)}
	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		return formatter.Report(result, nil)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "History of %s: %d state(s)\n\n", name, result.Total)
	for i, e := range result.Slots {
		fmt.Fprintf(w, "  [%d] seq %-6d state %s\n", i, e.Seq, shortHash(e.StateHash))
	}
	return nil
}

func runSlotsDelete(opts *SlotsOptions, name string, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := openSlots(ctx, opts.RootOptions, opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open slot store", err)
	}
	defer st.Close()

	formatter := newFormatter(opts.RootOptions, cmd)

	if err := st.DeleteSlot(ctx, name); err != nil {
		if errors.Is(err, store.ErrSlotNotFound) {
			_ = formatter.Error(ErrCodeStore, fmt.Sprintf("slot %q not found", name), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("slot %q not found", name))
		}
		return WrapExitError(ExitCommandError, "failed to delete slot", err)
	}

	if opts.Format == "json" {
		return formatter.Success(map[string]string{"deleted": name})
	}
	fmt.Fprintf(formatter.Writer, "%s Deleted slot %s\n", mark(true), name)
	return nil
}

func toEntries(slots []store.Slot) []SlotEntry {
	entries := make([]SlotEntry, len(slots))
	for i, s := range slots {
		entries[i] = SlotEntry{
			Name:         s.Name,
			Seq:          s.Seq,
			ScenarioHash: s.ScenarioHash,
			StateHash:    s.StateHash,
		}
	}
	return entries
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
