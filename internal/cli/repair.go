package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scribeworks/notesdb/internal/engine"
	"github.com/scribeworks/notesdb/internal/record"
)

// RepairOptions holds flags for the repair-links command.
type RepairOptions struct {
	*RootOptions
	NoteID      int64
	Kind        string
	OnlyMissing bool
	DryRun      bool
}

// noteRepairReport is the payload for a single-note repair.
type noteRepairReport struct {
	NoteID  int64                          `json:"note_id"`
	Mode    string                         `json:"mode"`
	DryRun  bool                           `json:"dry_run"`
	Results map[string]engine.RepairResult `json:"results"`
}

// batchRepairReport is the payload for an all-notes repair.
type batchRepairReport struct {
	Mode   string `json:"mode"`
	DryRun bool   `json:"dry_run"`
	engine.BatchRepairResult
}

// NewRepairLinksCommand creates the repair-links command.
func NewRepairLinksCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RepairOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "repair-links",
		Short: "Rebuild prev/next pointers from page order",
		Long: `Rebuild the cached prev/next pointers of page images and transcribed
pages from their authoritative page order.

By default every note is processed and every stale pointer pair is rewritten.
--only-missing corrects only rows with at least one null pointer, leaving
fully-set pointer pairs alone. --dry-run computes the changes and rolls back.

Examples:
  notesdb repair-links --db notes.db
  notesdb repair-links --db notes.db --note 42 --kind transcribed
  notesdb repair-links --db notes.db --only-missing --dry-run`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepairLinks(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.NoteID, "note", 0, "repair a single note id (default: all notes)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "both", "child kind: images|transcribed|both")
	cmd.Flags().BoolVar(&opts.OnlyMissing, "only-missing", false, "only fill null pointers, never overwrite set ones")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "compute changes and roll back")

	return cmd
}

func runRepairLinks(opts *RepairOptions, cmd *cobra.Command) error {
	kinds, err := parseKinds(opts.Kind)
	if err != nil {
		return WrapExitError(ExitInternal, "invalid --kind", err)
	}

	mode := engine.Full
	if opts.OnlyMissing {
		mode = engine.OnlyMissing
	}

	eng, closeStore, err := opts.openEngine()
	if err != nil {
		return err
	}
	defer closeStore()

	out := opts.formatter(cmd)
	ctx := cmd.Context()

	if opts.NoteID == 0 {
		res, err := eng.RepairAllNotes(ctx, mode, opts.DryRun)
		if err != nil {
			return reportRepairError(out, err)
		}
		report := batchRepairReport{Mode: mode.String(), DryRun: opts.DryRun, BatchRepairResult: *res}
		text := fmt.Sprintf("note_file: updated=%d, unchanged=%d; transcribed_page: updated=%d, unchanged=%d (%d notes)",
			res.PageImages.Updated, res.PageImages.Unchanged,
			res.TranscribedPages.Updated, res.TranscribedPages.Unchanged, res.Notes)
		if opts.DryRun {
			text += " [dry run]"
		}
		return out.Success(report, text)
	}

	report := noteRepairReport{
		NoteID:  opts.NoteID,
		Mode:    mode.String(),
		DryRun:  opts.DryRun,
		Results: map[string]engine.RepairResult{},
	}
	text := fmt.Sprintf("note %d:", opts.NoteID)
	for _, kind := range kinds {
		res, err := eng.RepairNote(ctx, opts.NoteID, kind, mode, opts.DryRun)
		if err != nil {
			return reportRepairError(out, err)
		}
		report.Results[kind.String()] = *res
		text += fmt.Sprintf(" %s updated=%d unchanged=%d", kind, res.Updated, res.Unchanged)
	}
	if opts.DryRun {
		text += " [dry run]"
	}
	return out.Success(report, text)
}

func reportRepairError(out *OutputFormatter, err error) error {
	if engine.IsPrecondition(err) {
		out.Error("PRECONDITION", err.Error(), nil)
		return WrapExitError(ExitPrecondition, "repair rejected", err)
	}
	out.Error("INTERNAL", err.Error(), nil)
	return WrapExitError(ExitInternal, "repair failed", err)
}

func parseKinds(kind string) ([]record.ChildKind, error) {
	switch kind {
	case "images":
		return []record.ChildKind{record.PageImages}, nil
	case "transcribed":
		return []record.ChildKind{record.TranscribedPages}, nil
	case "both":
		return []record.ChildKind{record.PageImages, record.TranscribedPages}, nil
	default:
		return nil, fmt.Errorf("unknown kind %q: must be images, transcribed, or both", kind)
	}
}
