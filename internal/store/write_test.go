package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/scribeworks/notesdb/internal/record"
)

func TestSetChildPointers_PageImages(t *testing.T) {
	s := openTestStore(t)
	seedNote(t, s, 1)
	seedFile(t, s, 101)
	seedFile(t, s, 102)
	seedPageImage(t, s, 1, 101, 1)
	seedPageImage(t, s, 1, 102, 2)

	inTx(t, s, func(tx *Tx) error {
		return tx.SetChildPointers(context.Background(), record.PageImages, 1, 101,
			sql.NullInt64{}, sql.NullInt64{Int64: 102, Valid: true})
	})

	var prev, next sql.NullInt64
	err := s.db.QueryRow(
		`SELECT prev_file_id, next_file_id FROM note_file WHERE note_id = 1 AND file_id = 101`,
	).Scan(&prev, &next)
	if err != nil {
		t.Fatalf("query pointers failed: %v", err)
	}
	if prev.Valid {
		t.Errorf("prev_file_id = %+v, want NULL", prev)
	}
	if !next.Valid || next.Int64 != 102 {
		t.Errorf("next_file_id = %+v, want 102", next)
	}
}

func TestSetChildPointers_TranscribedPages(t *testing.T) {
	s := openTestStore(t)
	seedNote(t, s, 1)
	seedTranscribedPage(t, s, 201, 1, 1)
	seedTranscribedPage(t, s, 202, 1, 2)

	inTx(t, s, func(tx *Tx) error {
		return tx.SetChildPointers(context.Background(), record.TranscribedPages, 1, 202,
			sql.NullInt64{Int64: 201, Valid: true}, sql.NullInt64{})
	})

	var prev, next sql.NullInt64
	err := s.db.QueryRow(`SELECT prev_id, next_id FROM transcribed_page WHERE id = 202`).Scan(&prev, &next)
	if err != nil {
		t.Fatalf("query pointers failed: %v", err)
	}
	if !prev.Valid || prev.Int64 != 201 {
		t.Errorf("prev_id = %+v, want 201", prev)
	}
	if next.Valid {
		t.Errorf("next_id = %+v, want NULL", next)
	}
}

func TestCopyBlockTags_CountsOnlyInserted(t *testing.T) {
	s := openTestStore(t)
	seedNote(t, s, 1)
	seedBlock(t, s, 10, 1)
	seedBlock(t, s, 11, 1)
	mustExec(t, s, `INSERT INTO tag (id, name) VALUES (1, 'shared'), (2, 'extra')`)
	mustExec(t, s, `INSERT INTO block_tag (note_block_id, tag_id) VALUES (10, 1), (11, 1), (11, 2)`)

	inTx(t, s, func(tx *Tx) error {
		copied, err := tx.CopyBlockTags(context.Background(), 11, 10)
		if err != nil {
			return err
		}
		if copied != 1 {
			t.Errorf("CopyBlockTags() = %d, want 1 (only the tag dst lacked)", copied)
		}
		return nil
	})

	if n := countRows(t, s, `SELECT COUNT(*) FROM block_tag WHERE note_block_id = 10`); n != 2 {
		t.Errorf("block 10 has %d tags, want 2", n)
	}
}

func TestCopyBlockEmbeddings_SkipsExistingModels(t *testing.T) {
	s := openTestStore(t)
	seedNote(t, s, 1)
	seedBlock(t, s, 10, 1)
	seedBlock(t, s, 11, 1)
	mustExec(t, s, `INSERT INTO embedding_model (id, name) VALUES (1, 'minilm'), (2, 'e5')`)
	mustExec(t, s, `INSERT INTO block_embedding (note_block_id, model_id, vector) VALUES (10, 1, X'01')`)
	mustExec(t, s, `INSERT INTO block_embedding (note_block_id, model_id, vector) VALUES (11, 1, X'02')`)
	mustExec(t, s, `INSERT INTO block_embedding (note_block_id, model_id, vector) VALUES (11, 2, X'03')`)

	inTx(t, s, func(tx *Tx) error {
		copied, err := tx.CopyBlockEmbeddings(context.Background(), 11, 10)
		if err != nil {
			return err
		}
		if copied != 1 {
			t.Errorf("CopyBlockEmbeddings() = %d, want 1", copied)
		}
		return nil
	})

	// The existing minilm vector on block 10 must not be overwritten.
	var vec []byte
	err := s.db.QueryRow(
		`SELECT vector FROM block_embedding WHERE note_block_id = 10 AND model_id = 1`,
	).Scan(&vec)
	if err != nil {
		t.Fatalf("query vector failed: %v", err)
	}
	if len(vec) != 1 || vec[0] != 0x01 {
		t.Errorf("block 10 minilm vector = %x, want 01 (original preserved)", vec)
	}
}

func TestAddEditDateMarker_Idempotent(t *testing.T) {
	s := openTestStore(t)
	seedNote(t, s, 1)
	seedBlock(t, s, 10, 1)

	inTx(t, s, func(tx *Tx) error {
		ctx := context.Background()
		if err := tx.AddEditDateMarker(ctx, 10, "2024-01-06"); err != nil {
			return err
		}
		return tx.AddEditDateMarker(ctx, 10, "2024-01-06")
	})

	if n := countRows(t, s, `SELECT COUNT(*) FROM edit_date`); n != 1 {
		t.Errorf("edit_date rows = %d, want 1", n)
	}
	if n := countRows(t, s, `SELECT COUNT(*) FROM block_edit_date WHERE note_block_id = 10`); n != 1 {
		t.Errorf("block_edit_date rows = %d, want 1", n)
	}
}

func TestInsertLink_DedupesOnLabel(t *testing.T) {
	s := openTestStore(t)
	seedNote(t, s, 1)
	seedBlock(t, s, 10, 1)
	seedBlock(t, s, 11, 1)

	inTx(t, s, func(tx *Tx) error {
		ctx := context.Background()
		link := record.BlockLink{FromID: 10, ToID: 11, Label: sql.NullString{String: "next", Valid: true}}

		inserted, err := tx.InsertLink(ctx, link)
		if err != nil {
			return err
		}
		if !inserted {
			t.Error("first insert should report inserted")
		}

		inserted, err = tx.InsertLink(ctx, link)
		if err != nil {
			return err
		}
		if inserted {
			t.Error("duplicate insert should report not inserted")
		}

		// A different label is a distinct link.
		inserted, err = tx.InsertLink(ctx, record.BlockLink{FromID: 10, ToID: 11})
		if err != nil {
			return err
		}
		if !inserted {
			t.Error("unlabeled link should be distinct from labeled one")
		}
		return nil
	})

	if n := countRows(t, s, `SELECT COUNT(*) FROM note_block_link`); n != 2 {
		t.Errorf("link rows = %d, want 2", n)
	}
}

// A copied link keeps its source row's created_at exactly, including NULL;
// the column default is for genuinely new rows only.
func TestInsertLink_CopiesCreatedAtVerbatim(t *testing.T) {
	s := openTestStore(t)
	seedNote(t, s, 1)
	seedBlock(t, s, 10, 1)
	seedBlock(t, s, 11, 1)
	seedBlock(t, s, 12, 1)

	inTx(t, s, func(tx *Tx) error {
		ctx := context.Background()

		if _, err := tx.InsertLink(ctx, record.BlockLink{FromID: 10, ToID: 11}); err != nil {
			return err
		}
		_, err := tx.InsertLink(ctx, record.BlockLink{
			FromID:    12,
			ToID:      11,
			CreatedAt: sql.NullString{String: "2024-01-05 10:30:00", Valid: true},
		})
		return err
	})

	if n := countRows(t, s, `
		SELECT COUNT(*) FROM note_block_link
		WHERE from_block_id = 10 AND created_at IS NULL
	`); n != 1 {
		t.Errorf("null created_at rows from 10 = %d, want 1", n)
	}

	var stored string
	if err := s.db.QueryRow(`
		SELECT CAST(created_at AS TEXT) FROM note_block_link WHERE from_block_id = 12
	`).Scan(&stored); err != nil {
		t.Fatalf("query stored created_at failed: %v", err)
	}
	if stored != "2024-01-05 10:30:00" {
		t.Errorf("stored created_at = %q, want verbatim '2024-01-05 10:30:00'", stored)
	}
}

func TestDeleteBlock_CascadesSatellites(t *testing.T) {
	s := openTestStore(t)
	seedNote(t, s, 1)
	seedBlock(t, s, 10, 1)
	seedBlock(t, s, 11, 1)
	mustExec(t, s, `INSERT INTO tag (id, name) VALUES (1, 't')`)
	mustExec(t, s, `INSERT INTO block_tag (note_block_id, tag_id) VALUES (10, 1)`)
	mustExec(t, s, `INSERT INTO note_block_link (from_block_id, to_block_id) VALUES (10, 11)`)

	inTx(t, s, func(tx *Tx) error {
		return tx.DeleteBlock(context.Background(), 10)
	})

	if n := countRows(t, s, `SELECT COUNT(*) FROM note_block WHERE id = 10`); n != 0 {
		t.Error("block 10 still present")
	}
	if n := countRows(t, s, `SELECT COUNT(*) FROM block_tag WHERE note_block_id = 10`); n != 0 {
		t.Error("block_tag rows not cascaded")
	}
	if n := countRows(t, s, `SELECT COUNT(*) FROM note_block_link`); n != 0 {
		t.Error("link rows not cascaded")
	}
}

func TestDeleteLinks(t *testing.T) {
	s := openTestStore(t)
	seedNote(t, s, 1)
	for _, id := range []int64{10, 11, 12} {
		seedBlock(t, s, id, 1)
	}
	mustExec(t, s, `INSERT INTO note_block_link (from_block_id, to_block_id) VALUES (10, 11), (10, 12), (12, 10)`)

	inTx(t, s, func(tx *Tx) error {
		ctx := context.Background()
		if err := tx.DeleteLinksFrom(ctx, 10); err != nil {
			return err
		}
		return tx.DeleteLinksTo(ctx, 10)
	})

	if n := countRows(t, s, `SELECT COUNT(*) FROM note_block_link`); n != 0 {
		t.Errorf("link rows = %d, want 0", n)
	}
}
