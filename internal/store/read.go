package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/scribeworks/notesdb/internal/record"
)

// NoteIDs returns every note id in ascending order.
func (t *Tx) NoteIDs(ctx context.Context) ([]int64, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT id FROM note ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query note ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan note id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate note ids: %w", err)
	}
	return ids, nil
}

// OrderedChildren returns the ordered child rows of one note for one child
// kind, sorted by (page_order ASC, id ASC). The id tie-break keeps the result
// deterministic when page_order has duplicates.
//
// An unknown note id yields an empty slice, not an error.
func (t *Tx) OrderedChildren(ctx context.Context, noteID int64, kind record.ChildKind) ([]record.OrderedChild, error) {
	var query string
	switch kind {
	case record.PageImages:
		query = `
			SELECT file_id, page_order, prev_file_id, next_file_id
			FROM note_file
			WHERE note_id = ?
			ORDER BY page_order ASC, file_id ASC
		`
	case record.TranscribedPages:
		query = `
			SELECT id, page_order, prev_id, next_id
			FROM transcribed_page
			WHERE note_id = ?
			ORDER BY page_order ASC, id ASC
		`
	default:
		return nil, fmt.Errorf("unknown child kind %d", kind)
	}

	rows, err := t.tx.QueryContext(ctx, query, noteID)
	if err != nil {
		return nil, fmt.Errorf("query %s children: %w", kind, err)
	}
	defer rows.Close()

	var children []record.OrderedChild
	for rows.Next() {
		var c record.OrderedChild
		if err := rows.Scan(&c.ID, &c.OrderKey, &c.PrevID, &c.NextID); err != nil {
			return nil, fmt.Errorf("scan %s child: %w", kind, err)
		}
		children = append(children, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s children: %w", kind, err)
	}
	return children, nil
}

// Block returns one note_block row, or nil if no row has the given id.
// Absence is an expected outcome, not an error.
//
// created_at is read with CAST(... AS TEXT): the driver maps declared
// DATETIME columns to time.Time, which would reformat the stored text as
// RFC3339 on scan. Timestamps here are opaque sortable text and must round
// trip verbatim.
func (t *Tx) Block(ctx context.Context, id int64) (*record.Block, error) {
	var b record.Block
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, note_id, file_id, page_number, block_order, block_type,
		       content, bbox_json, confidence, tokens, CAST(created_at AS TEXT)
		FROM note_block
		WHERE id = ?
	`, id).Scan(
		&b.ID, &b.NoteID, &b.FileID, &b.PageNumber, &b.BlockOrder, &b.BlockType,
		&b.Content, &b.BBoxJSON, &b.Confidence, &b.Tokens, &b.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query block %d: %w", id, err)
	}
	return &b, nil
}

// OutgoingLinks returns all links originating at fromID, ordered for
// deterministic processing.
func (t *Tx) OutgoingLinks(ctx context.Context, fromID int64) ([]record.BlockLink, error) {
	return t.queryLinks(ctx, `
		SELECT from_block_id, to_block_id, label, CAST(created_at AS TEXT)
		FROM note_block_link
		WHERE from_block_id = ?
		ORDER BY to_block_id ASC, IFNULL(label, '') ASC
	`, fromID)
}

// IncomingLinks returns all links pointing at toID, ordered for deterministic
// processing.
func (t *Tx) IncomingLinks(ctx context.Context, toID int64) ([]record.BlockLink, error) {
	return t.queryLinks(ctx, `
		SELECT from_block_id, to_block_id, label, CAST(created_at AS TEXT)
		FROM note_block_link
		WHERE to_block_id = ?
		ORDER BY from_block_id ASC, IFNULL(label, '') ASC
	`, toID)
}

func (t *Tx) queryLinks(ctx context.Context, query string, arg int64) ([]record.BlockLink, error) {
	rows, err := t.tx.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	var links []record.BlockLink
	for rows.Next() {
		var l record.BlockLink
		if err := rows.Scan(&l.FromID, &l.ToID, &l.Label, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}
	return links, nil
}

// TagNamesForBlock returns the tag names attached to a block, sorted.
func (t *Tx) TagNamesForBlock(ctx context.Context, blockID int64) ([]string, error) {
	return t.queryStrings(ctx, `
		SELECT tag.name
		FROM block_tag
		JOIN tag ON tag.id = block_tag.tag_id
		WHERE block_tag.note_block_id = ?
		ORDER BY tag.name ASC
	`, blockID)
}

// EditDatesForBlock returns the edit-date markers attached to a block, sorted.
// The DATE column is cast to text for the same reason as Block's created_at.
func (t *Tx) EditDatesForBlock(ctx context.Context, blockID int64) ([]string, error) {
	return t.queryStrings(ctx, `
		SELECT CAST(edit_date.edit_date AS TEXT)
		FROM block_edit_date
		JOIN edit_date ON edit_date.id = block_edit_date.edit_date_id
		WHERE block_edit_date.note_block_id = ?
		ORDER BY edit_date.edit_date ASC
	`, blockID)
}

// PassageIDsForBlock returns the passage ids attached to a block, sorted.
func (t *Tx) PassageIDsForBlock(ctx context.Context, blockID int64) ([]int64, error) {
	return t.queryInts(ctx, `
		SELECT passage_id FROM block_passage
		WHERE note_block_id = ?
		ORDER BY passage_id ASC
	`, blockID)
}

// EmbeddingModelsForBlock returns the embedding model names present on a
// block, sorted.
func (t *Tx) EmbeddingModelsForBlock(ctx context.Context, blockID int64) ([]string, error) {
	return t.queryStrings(ctx, `
		SELECT embedding_model.name
		FROM block_embedding
		JOIN embedding_model ON embedding_model.id = block_embedding.model_id
		WHERE block_embedding.note_block_id = ?
		ORDER BY embedding_model.name ASC
	`, blockID)
}

// BlockContents returns every (id, content) pair with non-null content,
// ordered by id. Used by the normalization pass.
func (t *Tx) BlockContents(ctx context.Context) ([]record.TextRow, error) {
	return t.queryTextRows(ctx, `
		SELECT id, content FROM note_block
		WHERE content IS NOT NULL
		ORDER BY id ASC
	`)
}

// PageTexts returns every transcribed page (id, text) pair with non-null
// text, ordered by id. Used by the normalization pass.
func (t *Tx) PageTexts(ctx context.Context) ([]record.TextRow, error) {
	return t.queryTextRows(ctx, `
		SELECT id, text FROM transcribed_page
		WHERE text IS NOT NULL
		ORDER BY id ASC
	`)
}

func (t *Tx) queryStrings(ctx context.Context, query string, arg int64) ([]string, error) {
	rows, err := t.tx.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query strings: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan string: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate strings: %w", err)
	}
	return out, nil
}

func (t *Tx) queryInts(ctx context.Context, query string, arg int64) ([]int64, error) {
	rows, err := t.tx.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query ints: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var n int64
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan int: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ints: %w", err)
	}
	return out, nil
}

func (t *Tx) queryTextRows(ctx context.Context, query string) ([]record.TextRow, error) {
	rows, err := t.tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query text rows: %w", err)
	}
	defer rows.Close()

	var out []record.TextRow
	for rows.Next() {
		var r record.TextRow
		if err := rows.Scan(&r.ID, &r.Text); err != nil {
			return nil, fmt.Errorf("scan text row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate text rows: %w", err)
	}
	return out, nil
}
