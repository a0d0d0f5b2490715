// Package testutil provides store fixtures for tests.
//
// Fixture rows are inserted with raw SQL on purpose: tests stand in for the
// ingestion pipeline, which writes rows the engine only ever reads.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/scribeworks/notesdb/internal/store"
)

// OpenStore creates a fresh notes database in a temp directory.
func OpenStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(store.Options{
		Path: filepath.Join(t.TempDir(), "notes.db"),
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// Exec runs one statement against the store, failing the test on error.
func Exec(t *testing.T, st *store.Store, query string, args ...any) {
	t.Helper()
	if _, err := st.DB().Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

// InsertNote creates a note row with a fixed id.
func InsertNote(t *testing.T, st *store.Store, id int64) {
	t.Helper()
	Exec(t, st, `INSERT INTO note (id, content) VALUES (?, ?)`, id, fmt.Sprintf("note %d", id))
}

// InsertFile creates a file row with a fixed id.
func InsertFile(t *testing.T, st *store.Store, id int64, path string) {
	t.Helper()
	Exec(t, st, `INSERT INTO file (id, path) VALUES (?, ?)`, id, path)
}

// InsertPageImage attaches a file to a note as a scanned page. order, prev,
// and next may be nil.
func InsertPageImage(t *testing.T, st *store.Store, noteID, fileID int64, order, prev, next any) {
	t.Helper()
	Exec(t, st, `
		INSERT INTO note_file (note_id, file_id, page_order, prev_file_id, next_file_id)
		VALUES (?, ?, ?, ?, ?)
	`, noteID, fileID, order, prev, next)
}

// InsertTranscribedPage creates a transcribed page row. order, prev, and next
// may be nil.
func InsertTranscribedPage(t *testing.T, st *store.Store, id, noteID int64, order, prev, next any) {
	t.Helper()
	Exec(t, st, `
		INSERT INTO transcribed_page (id, note_id, page_order, text, prev_id, next_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, noteID, order, fmt.Sprintf("page %d", id), prev, next)
}

// BlockSpec describes a note_block fixture row. Nil pointer fields insert as
// NULL.
type BlockSpec struct {
	ID         int64
	NoteID     int64
	FileID     *int64
	PageNumber *int64
	BlockOrder *int64
	BlockType  *string
	Content    *string
	BBoxJSON   *string
	Confidence *float64
	Tokens     *int64
	CreatedAt  *string
}

// InsertBlock creates a note_block row from the given BlockSpec.
func InsertBlock(t *testing.T, st *store.Store, b BlockSpec) {
	t.Helper()
	Exec(t, st, `
		INSERT INTO note_block
		(id, note_id, file_id, page_number, block_order, block_type, content,
		 bbox_json, confidence, tokens, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.NoteID, b.FileID, b.PageNumber, b.BlockOrder, b.BlockType,
		b.Content, b.BBoxJSON, b.Confidence, b.Tokens, b.CreatedAt)
}

// SetPageText sets the OCR text of a transcribed page.
func SetPageText(t *testing.T, st *store.Store, id int64, text string) {
	t.Helper()
	Exec(t, st, `UPDATE transcribed_page SET text = ? WHERE id = ?`, text, id)
}

// AttachTag creates the tag if needed and attaches it to the block.
func AttachTag(t *testing.T, st *store.Store, blockID int64, name string) {
	t.Helper()
	Exec(t, st, `INSERT INTO tag (name) VALUES (?) ON CONFLICT DO NOTHING`, name)
	Exec(t, st, `
		INSERT INTO block_tag (note_block_id, tag_id)
		SELECT ?, id FROM tag WHERE name = ?
	`, blockID, name)
}

// AttachPassage creates the passage if needed and attaches it to the block
// with the given relation label.
func AttachPassage(t *testing.T, st *store.Store, blockID, passageID int64, relation string) {
	t.Helper()
	Exec(t, st, `
		INSERT INTO passage (id, start_verse_id, end_verse_id, citation)
		VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING
	`, passageID, passageID*10, passageID*10+1, fmt.Sprintf("passage %d", passageID))
	Exec(t, st, `
		INSERT INTO block_passage (note_block_id, passage_id, relation)
		VALUES (?, ?, ?)
	`, blockID, passageID, relation)
}

// AttachEmbedding creates the model if needed and attaches a vector for it to
// the block.
func AttachEmbedding(t *testing.T, st *store.Store, blockID int64, model string) {
	t.Helper()
	Exec(t, st, `INSERT INTO embedding_model (name) VALUES (?) ON CONFLICT DO NOTHING`, model)
	Exec(t, st, `
		INSERT INTO block_embedding (note_block_id, model_id, vector)
		SELECT ?, id, X'00' FROM embedding_model WHERE name = ?
	`, blockID, model)
}

// AttachEditDate attaches an edit-date marker to the block.
func AttachEditDate(t *testing.T, st *store.Store, blockID int64, date string) {
	t.Helper()
	Exec(t, st, `INSERT INTO edit_date (edit_date) VALUES (DATE(?)) ON CONFLICT DO NOTHING`, date)
	Exec(t, st, `
		INSERT INTO block_edit_date (note_block_id, edit_date_id)
		SELECT ?, id FROM edit_date WHERE edit_date = DATE(?)
	`, blockID, date)
}

// InsertLink creates a block link. label may be nil.
func InsertLink(t *testing.T, st *store.Store, from, to int64, label any) {
	t.Helper()
	Exec(t, st, `
		INSERT INTO note_block_link (from_block_id, to_block_id, label)
		VALUES (?, ?, ?)
	`, from, to, label)
}
