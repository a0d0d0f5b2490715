package record

import "database/sql"

// ChildKind selects which ordered child collection of a note an operation
// targets. Page images and transcribed pages are ordered independently even
// when they belong to the same note.
type ChildKind int

const (
	// PageImages is the note_file collection (scanned page images).
	PageImages ChildKind = iota

	// TranscribedPages is the transcribed_page collection (OCR output).
	TranscribedPages
)

// String returns the table-ish name used in logs and CLI output.
func (k ChildKind) String() string {
	switch k {
	case PageImages:
		return "note_file"
	case TranscribedPages:
		return "transcribed_page"
	default:
		return "unknown"
	}
}

// OrderedChild is the projection the order repair engine operates on.
// For page images the ID is the file id; for transcribed pages it is the
// row id. OrderKey is nullable because upstream ingestion bugs can leave it
// unset; repair treats that as an input error.
type OrderedChild struct {
	ID       int64
	OrderKey sql.NullInt64
	PrevID   sql.NullInt64
	NextID   sql.NullInt64
}

// Block is one note_block row: a mergeable unit of extracted content.
type Block struct {
	ID         int64
	NoteID     int64
	FileID     sql.NullInt64
	PageNumber sql.NullInt64
	BlockOrder sql.NullInt64
	BlockType  sql.NullString
	Content    sql.NullString
	BBoxJSON   sql.NullString
	Confidence sql.NullFloat64
	Tokens     sql.NullInt64
	CreatedAt  sql.NullString
}

// BlockLink is one note_block_link row: a directed, optionally labeled
// association between two blocks. The labels "prev" and "next" carry
// positional meaning (see Label); anything else is an opaque association.
type BlockLink struct {
	FromID    int64
	ToID      int64
	Label     sql.NullString
	CreatedAt sql.NullString
}

// TextRow is a (row id, text) pair used by the normalization pass over
// note_block content and transcribed_page text.
type TextRow struct {
	ID   int64
	Text string
}
