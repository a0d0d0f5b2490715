package engine

import (
	"context"
	"io"
	"log/slog"

	"github.com/scribeworks/notesdb/internal/record"
	"github.com/scribeworks/notesdb/internal/store"
)

// Engine runs order repair and block merge operations against one store.
//
// Execution is single-threaded and synchronous: each operation runs to
// completion inside one transaction and nothing suspends mid-transaction. The
// store's busy timeout is the only temporal control; the engine has no
// cancellation primitive beyond letting a dry run roll back.
type Engine struct {
	store *store.Store
	log   *slog.Logger
}

// New creates an engine over the given store. A nil logger disables logging.
func New(st *store.Store, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{store: st, log: log}
}

// RepairNote recomputes the prev/next pointers of one note's children of one
// kind. With dryRun set, the repair is computed and rolled back; the returned
// counts describe what would have changed.
//
// An unknown note id yields a zero result, not an error.
func (e *Engine) RepairNote(ctx context.Context, noteID int64, kind record.ChildKind, mode RepairMode, dryRun bool) (*RepairResult, error) {
	var res RepairResult
	err := e.store.WithTx(ctx, dryRun, func(tx *store.Tx) error {
		var err error
		res, err = repairOrder(ctx, tx, noteID, kind, mode)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.log.Debug("order repair finished",
		"note", noteID, "kind", kind.String(), "mode", mode.String(),
		"updated", res.Updated, "unchanged", res.Unchanged, "dry_run", dryRun)
	return &res, nil
}

// RepairAllNotes repairs both child collections of every note in one
// transaction. A null order key on any note aborts the whole batch with no
// writes applied.
func (e *Engine) RepairAllNotes(ctx context.Context, mode RepairMode, dryRun bool) (*BatchRepairResult, error) {
	var res BatchRepairResult
	err := e.store.WithTx(ctx, dryRun, func(tx *store.Tx) error {
		noteIDs, err := tx.NoteIDs(ctx)
		if err != nil {
			return err
		}
		for _, noteID := range noteIDs {
			images, err := repairOrder(ctx, tx, noteID, record.PageImages, mode)
			if err != nil {
				return err
			}
			pages, err := repairOrder(ctx, tx, noteID, record.TranscribedPages, mode)
			if err != nil {
				return err
			}
			res.PageImages.add(images)
			res.TranscribedPages.add(pages)
			res.Notes++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Debug("batch order repair finished",
		"notes", res.Notes, "mode", mode.String(), "dry_run", dryRun,
		"note_file_updated", res.PageImages.Updated,
		"transcribed_page_updated", res.TranscribedPages.Updated)
	return &res, nil
}

// MergeBlocks consolidates the secondary block into the primary. On a
// precondition violation the returned result is non-nil with Success=false
// and the error satisfies IsPrecondition; no writes occurred. With dryRun
// set, a successful merge is computed and rolled back.
func (e *Engine) MergeBlocks(ctx context.Context, primaryID, secondaryID int64, dryRun bool) (*MergeResult, error) {
	var res *MergeResult
	err := e.store.WithTx(ctx, dryRun, func(tx *store.Tx) error {
		var err error
		res, err = mergeBlocks(ctx, tx, primaryID, secondaryID)
		return err
	})
	if err != nil {
		// res survives rollback for precondition reporting.
		return res, err
	}

	e.log.Debug("merge finished",
		"primary", primaryID, "secondary", secondaryID,
		"conflicts", len(res.Conflicts), "dry_run", dryRun)
	return res, nil
}

// NormalizeAll repairs mojibake and spacing artifacts across all block
// content and transcribed page text. With dryRun set, the counts report what
// would change.
func (e *Engine) NormalizeAll(ctx context.Context, dryRun bool) (*NormalizeResult, error) {
	var res *NormalizeResult
	err := e.store.WithTx(ctx, dryRun, func(tx *store.Tx) error {
		var err error
		res, err = normalizeAll(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.log.Debug("normalization finished",
		"blocks_updated", res.BlocksUpdated, "pages_updated", res.PagesUpdated,
		"dry_run", dryRun)
	return res, nil
}
