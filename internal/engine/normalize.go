package engine

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/scribeworks/notesdb/internal/store"
)

// mojibakeReplacer fixes the common UTF-8-read-as-Latin-1 artifacts the OCR
// pipeline leaves behind: each key is "â" or "Â" followed by the raw
// continuation bytes decoded as control characters. Longer sequences must be
// listed before the bare "â" fallback.
var mojibakeReplacer = strings.NewReplacer(
	"â", "—", // em dash
	"â", "–", // en dash
	"â", "‘",
	"â", "’",
	"â", "“",
	"â", "”",
	"â¦", "…", // ellipsis
	"Â ", " ", // non-breaking space artifact
	"Â", " ",
	"â", "",
)

var (
	dotRunRe     = regexp.MustCompile(`\.\.\.+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	spacePunctRe = regexp.MustCompile(`\s+([,.;:!?])`)
)

// NormalizeText repairs mojibake and spacing artifacts in extracted text:
// misdecoded punctuation is restored, runs of three or more dots become an
// ellipsis, whitespace collapses to single spaces, spaces before punctuation
// are dropped, and the result is NFC-normalized and trimmed.
//
// Normalizing an already-normalized string is a no-op.
func NormalizeText(s string) string {
	s = mojibakeReplacer.Replace(s)
	s = dotRunRe.ReplaceAllString(s, "…")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = spacePunctRe.ReplaceAllString(s, "$1")
	return norm.NFC.String(strings.TrimSpace(s))
}

// normalizeAll rewrites every note_block content and transcribed_page text
// that NormalizeText would change, inside the caller's transaction.
func normalizeAll(ctx context.Context, tx *store.Tx) (*NormalizeResult, error) {
	res := &NormalizeResult{}

	blocks, err := tx.BlockContents(ctx)
	if err != nil {
		return nil, err
	}
	for _, b := range blocks {
		if normalized := NormalizeText(b.Text); normalized != b.Text {
			if err := tx.UpdateBlockContent(ctx, b.ID, normalized); err != nil {
				return nil, err
			}
			res.BlocksUpdated++
		}
	}

	pages, err := tx.PageTexts(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		if normalized := NormalizeText(p.Text); normalized != p.Text {
			if err := tx.UpdatePageText(ctx, p.ID, normalized); err != nil {
				return nil, err
			}
			res.PagesUpdated++
		}
	}

	return res, nil
}
