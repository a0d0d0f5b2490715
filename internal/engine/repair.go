package engine

import (
	"context"
	"database/sql"

	"github.com/scribeworks/notesdb/internal/record"
	"github.com/scribeworks/notesdb/internal/store"
)

// RepairMode selects how order repair treats rows with existing pointers.
type RepairMode int

const (
	// Full rewrites every pointer pair that disagrees with the order key.
	Full RepairMode = iota

	// OnlyMissing skips rows whose prev and next pointers are both already
	// set, even when they disagree with the order key. Existing explicit
	// pointers are treated as an intentional override in this mode. A row
	// with at least one null pointer is still corrected.
	OnlyMissing
)

// String returns the CLI-facing mode name.
func (m RepairMode) String() string {
	if m == OnlyMissing {
		return "only-missing"
	}
	return "full"
}

// repairOrder recomputes the prev/next pointers of one note's children of one
// kind from (page_order ASC, id ASC). Rows already carrying the target pair
// are not written. A child with a null order key aborts the repair before any
// write; an unknown note yields an empty result.
func repairOrder(ctx context.Context, tx *store.Tx, noteID int64, kind record.ChildKind, mode RepairMode) (RepairResult, error) {
	var res RepairResult

	children, err := tx.OrderedChildren(ctx, noteID, kind)
	if err != nil {
		return res, err
	}

	// Validate before writing anything: a null order key means the ordering
	// is not authoritative and the whole repair for this note must not run.
	for _, c := range children {
		if !c.OrderKey.Valid {
			return res, newPreconditionError(ErrCodeNullOrderKey,
				"%s child %d of note %d has no order key", kind, c.ID, noteID)
		}
	}

	for i, c := range children {
		var prev, next sql.NullInt64
		if i > 0 {
			prev = sql.NullInt64{Int64: children[i-1].ID, Valid: true}
		}
		if i+1 < len(children) {
			next = sql.NullInt64{Int64: children[i+1].ID, Valid: true}
		}

		if mode == OnlyMissing && c.PrevID.Valid && c.NextID.Valid {
			res.Unchanged++
			continue
		}

		if nullInt64Equal(c.PrevID, prev) && nullInt64Equal(c.NextID, next) {
			res.Unchanged++
			continue
		}

		if err := tx.SetChildPointers(ctx, kind, noteID, c.ID, prev, next); err != nil {
			return res, err
		}
		res.Updated++
	}

	return res, nil
}

func nullInt64Equal(a, b sql.NullInt64) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Int64 == b.Int64
}
