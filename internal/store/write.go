package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/scribeworks/notesdb/internal/record"
)

// SetChildPointers writes the derived prev/next pointer pair of one ordered
// child. For page images the child is addressed by (note_id, file_id); for
// transcribed pages by row id alone.
func (t *Tx) SetChildPointers(ctx context.Context, kind record.ChildKind, noteID, childID int64, prev, next sql.NullInt64) error {
	var err error
	switch kind {
	case record.PageImages:
		_, err = t.tx.ExecContext(ctx, `
			UPDATE note_file SET prev_file_id = ?, next_file_id = ?
			WHERE note_id = ? AND file_id = ?
		`, prev, next, noteID, childID)
	case record.TranscribedPages:
		_, err = t.tx.ExecContext(ctx, `
			UPDATE transcribed_page SET prev_id = ?, next_id = ?
			WHERE id = ?
		`, prev, next, childID)
	default:
		return fmt.Errorf("unknown child kind %d", kind)
	}
	if err != nil {
		return fmt.Errorf("set %s pointers for child %d: %w", kind, childID, err)
	}
	return nil
}

// CopyBlockTags copies every tag of src onto dst. Tags already present on dst
// are skipped via ON CONFLICT DO NOTHING; the returned count covers only the
// rows actually inserted.
func (t *Tx) CopyBlockTags(ctx context.Context, src, dst int64) (int64, error) {
	return t.copyRelation(ctx, `
		INSERT INTO block_tag (note_block_id, tag_id)
		SELECT ?, tag_id FROM block_tag WHERE note_block_id = ?
		ON CONFLICT DO NOTHING
	`, src, dst, "tags")
}

// CopyBlockPassages copies every passage citation (with its relation label)
// of src onto dst, skipping citations dst already has.
func (t *Tx) CopyBlockPassages(ctx context.Context, src, dst int64) (int64, error) {
	return t.copyRelation(ctx, `
		INSERT INTO block_passage (note_block_id, passage_id, relation)
		SELECT ?, passage_id, relation FROM block_passage WHERE note_block_id = ?
		ON CONFLICT DO NOTHING
	`, src, dst, "passages")
}

// CopyBlockEmbeddings copies src's embedding vectors onto dst for every model
// dst does not already have a vector for.
func (t *Tx) CopyBlockEmbeddings(ctx context.Context, src, dst int64) (int64, error) {
	return t.copyRelation(ctx, `
		INSERT INTO block_embedding (note_block_id, model_id, vector, created_at)
		SELECT ?, model_id, vector, created_at FROM block_embedding WHERE note_block_id = ?
		ON CONFLICT DO NOTHING
	`, src, dst, "embeddings")
}

// CopyBlockEditDates copies every edit-date marker of src onto dst.
func (t *Tx) CopyBlockEditDates(ctx context.Context, src, dst int64) (int64, error) {
	return t.copyRelation(ctx, `
		INSERT INTO block_edit_date (note_block_id, edit_date_id)
		SELECT ?, edit_date_id FROM block_edit_date WHERE note_block_id = ?
		ON CONFLICT DO NOTHING
	`, src, dst, "edit dates")
}

func (t *Tx) copyRelation(ctx context.Context, query string, src, dst int64, what string) (int64, error) {
	res, err := t.tx.ExecContext(ctx, query, dst, src)
	if err != nil {
		return 0, fmt.Errorf("copy %s from block %d to %d: %w", what, src, dst, err)
	}
	copied, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("copy %s rows affected: %w", what, err)
	}
	return copied, nil
}

// AddEditDateMarker attaches a date marker to a block, creating the edit_date
// row if needed. Both inserts are idempotent. The date is the date portion of
// a timestamp, e.g. "2024-01-05".
func (t *Tx) AddEditDateMarker(ctx context.Context, blockID int64, date string) error {
	if _, err := t.tx.ExecContext(ctx, `
		INSERT INTO edit_date (edit_date) VALUES (DATE(?))
		ON CONFLICT DO NOTHING
	`, date); err != nil {
		return fmt.Errorf("insert edit date %q: %w", date, err)
	}
	if _, err := t.tx.ExecContext(ctx, `
		INSERT INTO block_edit_date (note_block_id, edit_date_id)
		SELECT ?, id FROM edit_date WHERE edit_date = DATE(?)
		ON CONFLICT DO NOTHING
	`, blockID, date); err != nil {
		return fmt.Errorf("attach edit date %q to block %d: %w", date, blockID, err)
	}
	return nil
}

// InsertLink inserts a block link if no link with the same (from, to, label)
// already exists. Returns whether a row was inserted. created_at is written
// exactly as given, so a repointed link keeps its source row's value — a NULL
// stays NULL rather than picking up the column default.
func (t *Tx) InsertLink(ctx context.Context, link record.BlockLink) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO note_block_link (from_block_id, to_block_id, label, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, link.FromID, link.ToID, link.Label, link.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert link %d->%d: %w", link.FromID, link.ToID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert link rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteLinksFrom removes every link originating at the given block.
func (t *Tx) DeleteLinksFrom(ctx context.Context, fromID int64) error {
	if _, err := t.tx.ExecContext(ctx,
		`DELETE FROM note_block_link WHERE from_block_id = ?`, fromID); err != nil {
		return fmt.Errorf("delete links from block %d: %w", fromID, err)
	}
	return nil
}

// DeleteLinksTo removes every link pointing at the given block.
func (t *Tx) DeleteLinksTo(ctx context.Context, toID int64) error {
	if _, err := t.tx.ExecContext(ctx,
		`DELETE FROM note_block_link WHERE to_block_id = ?`, toID); err != nil {
		return fmt.Errorf("delete links to block %d: %w", toID, err)
	}
	return nil
}

// UpdateBlockMerged writes the reconciled content, tokens, and created_at of
// the surviving block after a merge.
func (t *Tx) UpdateBlockMerged(ctx context.Context, id int64, content string, tokens sql.NullInt64, createdAt sql.NullString) error {
	if _, err := t.tx.ExecContext(ctx, `
		UPDATE note_block SET content = ?, tokens = ?, created_at = ?
		WHERE id = ?
	`, content, tokens, createdAt, id); err != nil {
		return fmt.Errorf("update merged block %d: %w", id, err)
	}
	return nil
}

// DeleteBlock removes one note_block row. Satellite rows still referencing it
// are cleaned up by ON DELETE CASCADE.
func (t *Tx) DeleteBlock(ctx context.Context, id int64) error {
	if _, err := t.tx.ExecContext(ctx,
		`DELETE FROM note_block WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete block %d: %w", id, err)
	}
	return nil
}

// UpdateBlockContent rewrites one block's content. Used by normalization.
func (t *Tx) UpdateBlockContent(ctx context.Context, id int64, content string) error {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE note_block SET content = ? WHERE id = ?`, content, id); err != nil {
		return fmt.Errorf("update block %d content: %w", id, err)
	}
	return nil
}

// UpdatePageText rewrites one transcribed page's text. Used by normalization.
func (t *Tx) UpdatePageText(ctx context.Context, id int64, text string) error {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE transcribed_page SET text = ? WHERE id = ?`, text, id); err != nil {
		return fmt.Errorf("update page %d text: %w", id, err)
	}
	return nil
}
