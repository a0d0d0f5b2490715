package record

import "database/sql"

// LinkLabel classifies a block link label for repoint decisions.
//
// Labels are stored as free text so future edge kinds need no schema change,
// but the two positional labels form a closed set the merge engine must
// recognize.
type LinkLabel int

const (
	// LabelOther covers NULL and any label that is not positional.
	LabelOther LinkLabel = iota

	// LabelPrev marks a backward positional link.
	LabelPrev

	// LabelNext marks a forward positional link.
	LabelNext
)

// Positional label text as stored in note_block_link.label.
const (
	LabelTextPrev = "prev"
	LabelTextNext = "next"
)

// ParseLinkLabel maps a stored label to its classification.
func ParseLinkLabel(label sql.NullString) LinkLabel {
	if !label.Valid {
		return LabelOther
	}
	switch label.String {
	case LabelTextPrev:
		return LabelPrev
	case LabelTextNext:
		return LabelNext
	default:
		return LabelOther
	}
}

// LabelKind returns the classification of the link's stored label.
func (l BlockLink) LabelKind() LinkLabel {
	return ParseLinkLabel(l.Label)
}
