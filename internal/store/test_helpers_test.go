package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustExec(t *testing.T, s *Store, query string, args ...any) {
	t.Helper()
	if _, err := s.db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q failed: %v", query, err)
	}
}

func seedNote(t *testing.T, s *Store, id int64) {
	t.Helper()
	mustExec(t, s, `INSERT INTO note (id) VALUES (?)`, id)
}

func seedFile(t *testing.T, s *Store, id int64) {
	t.Helper()
	mustExec(t, s, `INSERT INTO file (id, path) VALUES (?, 'scans/' || ?)`, id, id)
}

func seedPageImage(t *testing.T, s *Store, noteID, fileID int64, order any) {
	t.Helper()
	mustExec(t, s, `
		INSERT INTO note_file (note_id, file_id, page_order) VALUES (?, ?, ?)
	`, noteID, fileID, order)
}

func seedTranscribedPage(t *testing.T, s *Store, id, noteID int64, order any) {
	t.Helper()
	mustExec(t, s, `
		INSERT INTO transcribed_page (id, note_id, page_order) VALUES (?, ?, ?)
	`, id, noteID, order)
}

func seedBlock(t *testing.T, s *Store, id, noteID int64) {
	t.Helper()
	mustExec(t, s, `
		INSERT INTO note_block (id, note_id, content) VALUES (?, ?, 'block ' || ?)
	`, id, noteID, id)
}

// inTx runs fn inside a committed transaction, failing the test on error.
func inTx(t *testing.T, s *Store, fn func(*Tx) error) {
	t.Helper()
	if err := s.WithTx(context.Background(), false, fn); err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}
}

func countRows(t *testing.T, s *Store, query string, args ...any) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count query %q failed: %v", query, err)
	}
	return n
}
