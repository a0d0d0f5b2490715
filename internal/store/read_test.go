package store

import (
	"context"
	"testing"

	"github.com/scribeworks/notesdb/internal/record"
)

func TestNoteIDs(t *testing.T) {
	s := openTestStore(t)
	seedNote(t, s, 3)
	seedNote(t, s, 1)
	seedNote(t, s, 2)

	inTx(t, s, func(tx *Tx) error {
		ids, err := tx.NoteIDs(context.Background())
		if err != nil {
			return err
		}
		want := []int64{1, 2, 3}
		if len(ids) != len(want) {
			t.Fatalf("NoteIDs() = %v, want %v", ids, want)
		}
		for i := range want {
			if ids[i] != want[i] {
				t.Errorf("NoteIDs()[%d] = %d, want %d", i, ids[i], want[i])
			}
		}
		return nil
	})
}

func TestOrderedChildren_SortsByOrderThenID(t *testing.T) {
	s := openTestStore(t)
	seedNote(t, s, 1)
	for _, id := range []int64{101, 102, 103, 104} {
		seedFile(t, s, id)
	}
	// Duplicate order key on 103/104: id must break the tie.
	seedPageImage(t, s, 1, 102, 1)
	seedPageImage(t, s, 1, 104, 2)
	seedPageImage(t, s, 1, 103, 2)
	seedPageImage(t, s, 1, 101, 3)

	inTx(t, s, func(tx *Tx) error {
		children, err := tx.OrderedChildren(context.Background(), 1, record.PageImages)
		if err != nil {
			return err
		}
		want := []int64{102, 103, 104, 101}
		if len(children) != len(want) {
			t.Fatalf("got %d children, want %d", len(children), len(want))
		}
		for i, c := range children {
			if c.ID != want[i] {
				t.Errorf("children[%d].ID = %d, want %d", i, c.ID, want[i])
			}
		}
		return nil
	})
}

func TestOrderedChildren_NullOrderSortsFirst(t *testing.T) {
	s := openTestStore(t)
	seedNote(t, s, 1)
	seedTranscribedPage(t, s, 201, 1, 1)
	seedTranscribedPage(t, s, 202, 1, nil)

	inTx(t, s, func(tx *Tx) error {
		children, err := tx.OrderedChildren(context.Background(), 1, record.TranscribedPages)
		if err != nil {
			return err
		}
		if len(children) != 2 {
			t.Fatalf("got %d children, want 2", len(children))
		}
		if children[0].ID != 202 || children[0].OrderKey.Valid {
			t.Errorf("expected null-order child 202 first, got %+v", children[0])
		}
		return nil
	})
}

func TestOrderedChildren_UnknownNote(t *testing.T) {
	s := openTestStore(t)

	inTx(t, s, func(tx *Tx) error {
		children, err := tx.OrderedChildren(context.Background(), 42, record.PageImages)
		if err != nil {
			return err
		}
		if len(children) != 0 {
			t.Errorf("expected no children for unknown note, got %d", len(children))
		}
		return nil
	})
}

func TestBlock_AbsentIsNilNotError(t *testing.T) {
	s := openTestStore(t)

	inTx(t, s, func(tx *Tx) error {
		b, err := tx.Block(context.Background(), 999)
		if err != nil {
			t.Fatalf("Block() failed: %v", err)
		}
		if b != nil {
			t.Errorf("expected nil for absent block, got %+v", b)
		}
		return nil
	})
}

func TestBlock_ScansNullableColumns(t *testing.T) {
	s := openTestStore(t)
	seedNote(t, s, 1)
	mustExec(t, s, `
		INSERT INTO note_block (id, note_id, block_order, content, tokens)
		VALUES (10, 1, 2, 'hello', NULL)
	`)

	inTx(t, s, func(tx *Tx) error {
		b, err := tx.Block(context.Background(), 10)
		if err != nil {
			return err
		}
		if b == nil {
			t.Fatal("expected block 10")
		}
		if b.NoteID != 1 {
			t.Errorf("NoteID = %d, want 1", b.NoteID)
		}
		if !b.BlockOrder.Valid || b.BlockOrder.Int64 != 2 {
			t.Errorf("BlockOrder = %+v, want 2", b.BlockOrder)
		}
		if !b.Content.Valid || b.Content.String != "hello" {
			t.Errorf("Content = %+v, want hello", b.Content)
		}
		if b.Tokens.Valid {
			t.Errorf("Tokens = %+v, want null", b.Tokens)
		}
		return nil
	})
}

// Stored timestamps are opaque sortable text; reading one must not pass it
// through the driver's DATETIME conversion and hand back an RFC3339 rewrite.
func TestBlock_CreatedAtRoundTripsVerbatim(t *testing.T) {
	s := openTestStore(t)
	seedNote(t, s, 1)
	mustExec(t, s, `
		INSERT INTO note_block (id, note_id, created_at)
		VALUES (10, 1, '2024-01-02 08:00:00')
	`)

	inTx(t, s, func(tx *Tx) error {
		b, err := tx.Block(context.Background(), 10)
		if err != nil {
			return err
		}
		if !b.CreatedAt.Valid || b.CreatedAt.String != "2024-01-02 08:00:00" {
			t.Errorf("CreatedAt = %+v, want verbatim '2024-01-02 08:00:00'", b.CreatedAt)
		}
		return nil
	})
}

func TestEditDatesForBlock_RoundTripsVerbatim(t *testing.T) {
	s := openTestStore(t)
	seedNote(t, s, 1)
	seedBlock(t, s, 10, 1)
	mustExec(t, s, `INSERT INTO edit_date (id, edit_date) VALUES (1, '2024-03-10')`)
	mustExec(t, s, `INSERT INTO block_edit_date (note_block_id, edit_date_id) VALUES (10, 1)`)

	inTx(t, s, func(tx *Tx) error {
		dates, err := tx.EditDatesForBlock(context.Background(), 10)
		if err != nil {
			return err
		}
		if len(dates) != 1 || dates[0] != "2024-03-10" {
			t.Errorf("EditDatesForBlock() = %v, want ['2024-03-10']", dates)
		}
		return nil
	})
}

func TestLinks_CreatedAtRoundTripsVerbatim(t *testing.T) {
	s := openTestStore(t)
	seedNote(t, s, 1)
	seedBlock(t, s, 10, 1)
	seedBlock(t, s, 11, 1)
	mustExec(t, s, `
		INSERT INTO note_block_link (from_block_id, to_block_id, label, created_at)
		VALUES (10, 11, 'next', '2024-01-05 10:30:00')
	`)

	inTx(t, s, func(tx *Tx) error {
		links, err := tx.OutgoingLinks(context.Background(), 10)
		if err != nil {
			return err
		}
		if len(links) != 1 {
			t.Fatalf("got %d links, want 1", len(links))
		}
		if !links[0].CreatedAt.Valid || links[0].CreatedAt.String != "2024-01-05 10:30:00" {
			t.Errorf("link CreatedAt = %+v, want verbatim '2024-01-05 10:30:00'", links[0].CreatedAt)
		}
		return nil
	})
}

func TestLinks_DeterministicOrder(t *testing.T) {
	s := openTestStore(t)
	seedNote(t, s, 1)
	for _, id := range []int64{10, 11, 12} {
		seedBlock(t, s, id, 1)
	}
	mustExec(t, s, `INSERT INTO note_block_link (from_block_id, to_block_id, label) VALUES (10, 12, 'next')`)
	mustExec(t, s, `INSERT INTO note_block_link (from_block_id, to_block_id, label) VALUES (10, 11, NULL)`)
	mustExec(t, s, `INSERT INTO note_block_link (from_block_id, to_block_id, label) VALUES (12, 11, 'cites')`)

	inTx(t, s, func(tx *Tx) error {
		ctx := context.Background()

		out, err := tx.OutgoingLinks(ctx, 10)
		if err != nil {
			return err
		}
		if len(out) != 2 || out[0].ToID != 11 || out[1].ToID != 12 {
			t.Errorf("OutgoingLinks(10) order wrong: %+v", out)
		}

		in, err := tx.IncomingLinks(ctx, 11)
		if err != nil {
			return err
		}
		if len(in) != 2 || in[0].FromID != 10 || in[1].FromID != 12 {
			t.Errorf("IncomingLinks(11) order wrong: %+v", in)
		}
		return nil
	})
}

func TestBlockContents_SkipsNullContent(t *testing.T) {
	s := openTestStore(t)
	seedNote(t, s, 1)
	mustExec(t, s, `INSERT INTO note_block (id, note_id, content) VALUES (10, 1, 'text')`)
	mustExec(t, s, `INSERT INTO note_block (id, note_id, content) VALUES (11, 1, NULL)`)

	inTx(t, s, func(tx *Tx) error {
		rows, err := tx.BlockContents(context.Background())
		if err != nil {
			return err
		}
		if len(rows) != 1 || rows[0].ID != 10 || rows[0].Text != "text" {
			t.Errorf("BlockContents() = %+v, want single row for block 10", rows)
		}
		return nil
	})
}

func TestPageTexts_SkipsNullText(t *testing.T) {
	s := openTestStore(t)
	seedNote(t, s, 1)
	seedTranscribedPage(t, s, 201, 1, 1)
	seedTranscribedPage(t, s, 202, 1, 2)
	mustExec(t, s, `UPDATE transcribed_page SET text = 'page one' WHERE id = 201`)

	inTx(t, s, func(tx *Tx) error {
		rows, err := tx.PageTexts(context.Background())
		if err != nil {
			return err
		}
		if len(rows) != 1 || rows[0].ID != 201 || rows[0].Text != "page one" {
			t.Errorf("PageTexts() = %+v, want single row for page 201", rows)
		}
		return nil
	})
}
