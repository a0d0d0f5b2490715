package engine

import (
	"context"
	"database/sql"
	"strings"

	"github.com/scribeworks/notesdb/internal/record"
	"github.com/scribeworks/notesdb/internal/store"
)

// conflictFields are the block columns compared for conflict detection, in
// reporting order. A difference is recorded in the result but never blocks
// the merge; the reconciliation policy is fixed.
var conflictFields = []string{
	"file_id",
	"page_number",
	"block_order",
	"block_type",
	"bbox_json",
	"confidence",
	"tokens",
	"created_at",
}

// mergeBlocks consolidates the secondary block into the primary inside the
// caller's transaction. See MergePolicy for the reconciliation rules.
//
// Returns a failed *MergeResult together with a *PreconditionError when the
// merge is rejected (self-merge, missing block, cross-note); in that case
// nothing has been written. Any other error is an internal failure.
func mergeBlocks(ctx context.Context, tx *store.Tx, primaryID, secondaryID int64) (*MergeResult, error) {
	if primaryID == secondaryID {
		return failedMerge(primaryID, secondaryID, "primary and secondary are the same block"),
			newPreconditionError(ErrCodeSelfMerge, "cannot merge block %d with itself", primaryID)
	}

	p, err := tx.Block(ctx, primaryID)
	if err != nil {
		return nil, err
	}
	s, err := tx.Block(ctx, secondaryID)
	if err != nil {
		return nil, err
	}
	if p == nil || s == nil {
		return failedMerge(primaryID, secondaryID, "one or both blocks do not exist"),
			newPreconditionError(ErrCodeMissingBlock,
				"blocks %d and/or %d do not exist", primaryID, secondaryID)
	}

	if p.NoteID != s.NoteID {
		msg := "blocks belong to different notes"
		return failedMerge(primaryID, secondaryID, msg),
			newPreconditionError(ErrCodeCrossNote,
				"blocks belong to different notes (primary.note_id=%d secondary.note_id=%d)",
				p.NoteID, s.NoteID)
	}

	conflicts := detectConflicts(p, s)

	content := mergeContent(p.Content, s.Content)
	tokens := mergeTokens(p.Tokens, s.Tokens)
	createdAt, laterEditDate := mergeCreatedAt(p.CreatedAt, s.CreatedAt)

	details := &MergeDetails{
		POrder:             nullInt64Ptr(p.BlockOrder),
		SOrder:             nullInt64Ptr(s.BlockOrder),
		ConsecutiveForward: consecutiveForward(p.BlockOrder, s.BlockOrder),
		Policy:             mergePolicy,
	}

	// Union satellite relations onto the primary. Each copy is idempotent;
	// the counts cover only rows actually inserted.
	if details.TagsCopied, err = tx.CopyBlockTags(ctx, secondaryID, primaryID); err != nil {
		return nil, err
	}
	if details.PassagesCopied, err = tx.CopyBlockPassages(ctx, secondaryID, primaryID); err != nil {
		return nil, err
	}
	if details.EmbeddingsCopied, err = tx.CopyBlockEmbeddings(ctx, secondaryID, primaryID); err != nil {
		return nil, err
	}
	if details.EditDatesCopied, err = tx.CopyBlockEditDates(ctx, secondaryID, primaryID); err != nil {
		return nil, err
	}

	// Preserve the discarded later timestamp's date as an edit-date marker.
	if laterEditDate != "" {
		if err := tx.AddEditDateMarker(ctx, primaryID, laterEditDate); err != nil {
			return nil, err
		}
	}

	if details.LinksFromRepointed, err = repointOutgoing(ctx, tx, primaryID, secondaryID, details.ConsecutiveForward); err != nil {
		return nil, err
	}
	if details.LinksToRepointed, err = repointIncoming(ctx, tx, primaryID, secondaryID); err != nil {
		return nil, err
	}

	if err := tx.UpdateBlockMerged(ctx, primaryID, content, tokens, createdAt); err != nil {
		return nil, err
	}
	if err := tx.DeleteBlock(ctx, secondaryID); err != nil {
		return nil, err
	}

	return &MergeResult{
		Success:     true,
		Message:     "merged",
		PrimaryID:   primaryID,
		SecondaryID: secondaryID,
		Conflicts:   conflicts,
		Details:     details,
	}, nil
}

// detectConflicts compares the fixed descriptive fields of the two blocks and
// returns the names of those that differ, in conflictFields order.
func detectConflicts(p, s *record.Block) []string {
	differs := map[string]bool{
		"file_id":     !nullInt64Equal(p.FileID, s.FileID),
		"page_number": !nullInt64Equal(p.PageNumber, s.PageNumber),
		"block_order": !nullInt64Equal(p.BlockOrder, s.BlockOrder),
		"block_type":  !nullStringEqual(p.BlockType, s.BlockType),
		"bbox_json":   !nullStringEqual(p.BBoxJSON, s.BBoxJSON),
		"confidence":  !nullFloat64Equal(p.Confidence, s.Confidence),
		"tokens":      !nullInt64Equal(p.Tokens, s.Tokens),
		"created_at":  !nullStringEqual(p.CreatedAt, s.CreatedAt),
	}

	conflicts := []string{}
	for _, f := range conflictFields {
		if differs[f] {
			conflicts = append(conflicts, f)
		}
	}
	return conflicts
}

// mergeContent joins the two contents with a single newline, trimming the
// seam: trailing newlines off the primary, leading newlines off the
// secondary. A side that is empty after trimming contributes nothing.
func mergeContent(p, s sql.NullString) string {
	pc := strings.TrimRight(p.String, "\n")
	sc := strings.TrimLeft(s.String, "\n")
	switch {
	case pc != "" && sc != "":
		return pc + "\n" + sc
	case sc != "":
		return sc
	default:
		return pc
	}
}

// mergeTokens sums the counts when both sides have one, otherwise keeps
// whichever side is set.
func mergeTokens(p, s sql.NullInt64) sql.NullInt64 {
	switch {
	case p.Valid && s.Valid:
		return sql.NullInt64{Int64: p.Int64 + s.Int64, Valid: true}
	case p.Valid:
		return p
	default:
		return s
	}
}

// mergeCreatedAt keeps the earlier of the two timestamps and returns the
// later one's date portion so it can be preserved as an edit-date marker.
// Timestamps are stored in sortable textual form, so lexicographic comparison
// is sufficient. Equal timestamps yield no marker.
func mergeCreatedAt(p, s sql.NullString) (merged sql.NullString, laterDate string) {
	switch {
	case s.Valid && (!p.Valid || s.String < p.String):
		merged = s
		if p.Valid {
			laterDate = datePart(p.String)
		}
	case p.Valid:
		merged = p
		if s.Valid && s.String != p.String {
			laterDate = datePart(s.String)
		}
	default:
		merged = p // both null
	}
	return merged, laterDate
}

// datePart extracts the date portion of a stored timestamp such as
// "2024-01-05 10:30:00".
func datePart(ts string) string {
	if i := strings.IndexByte(ts, ' '); i >= 0 {
		return ts[:i]
	}
	return ts
}

// consecutiveForward is true when the secondary block immediately follows the
// primary in position.
func consecutiveForward(pOrder, sOrder sql.NullInt64) bool {
	return pOrder.Valid && sOrder.Valid && sOrder.Int64 == pOrder.Int64+1
}

// repointOutgoing copies the secondary's outgoing links to originate from the
// primary, then deletes the originals.
//
// Positional labels are filtered: a "prev" link is never adopted (the primary
// keeps its own incoming ordering), and a "next" link is adopted only when
// the secondary immediately follows the primary. Links that would become
// self-loops are excluded. The returned count is the number of links that
// passed the filter, whether or not the primary already carried an identical
// link.
func repointOutgoing(ctx context.Context, tx *store.Tx, primaryID, secondaryID int64, consecutive bool) (int64, error) {
	links, err := tx.OutgoingLinks(ctx, secondaryID)
	if err != nil {
		return 0, err
	}

	var copied int64
	for _, l := range links {
		if l.ToID == primaryID {
			continue // would self-loop
		}
		switch l.LabelKind() {
		case record.LabelPrev:
			continue
		case record.LabelNext:
			if !consecutive {
				continue
			}
		}

		l.FromID = primaryID
		if _, err := tx.InsertLink(ctx, l); err != nil {
			return 0, err
		}
		copied++
	}

	if err := tx.DeleteLinksFrom(ctx, secondaryID); err != nil {
		return 0, err
	}
	return copied, nil
}

// repointIncoming copies every link pointing into the secondary to point into
// the primary instead, excluding links originating from the primary itself,
// then deletes the originals.
func repointIncoming(ctx context.Context, tx *store.Tx, primaryID, secondaryID int64) (int64, error) {
	links, err := tx.IncomingLinks(ctx, secondaryID)
	if err != nil {
		return 0, err
	}

	var copied int64
	for _, l := range links {
		if l.FromID == primaryID {
			continue // would self-loop
		}
		l.ToID = primaryID
		if _, err := tx.InsertLink(ctx, l); err != nil {
			return 0, err
		}
		copied++
	}

	if err := tx.DeleteLinksTo(ctx, secondaryID); err != nil {
		return 0, err
	}
	return copied, nil
}

func nullStringEqual(a, b sql.NullString) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.String == b.String
}

func nullFloat64Equal(a, b sql.NullFloat64) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Float64 == b.Float64
}

func nullInt64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
