package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribeworks/notesdb/internal/testutil"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "em dash mojibake",
			in:   "He said â wait",
			want: "He said — wait",
		},
		{
			name: "curly quote mojibake",
			in:   "itâs fine",
			want: "it’s fine",
		},
		{
			name: "ellipsis mojibake",
			in:   "and soâ¦",
			want: "and so…",
		},
		{
			name: "dot run",
			in:   "wait .... done",
			want: "wait … done",
		},
		{
			name: "whitespace collapse",
			in:   "a  b\t c\n\nd",
			want: "a b c d",
		},
		{
			name: "space before punctuation",
			in:   "wait , stop .",
			want: "wait, stop.",
		},
		{
			name: "non-breaking space artifact",
			in:   "aÂ b",
			want: "a b",
		},
		{
			name: "stray carrier characters dropped",
			in:   "brokeÂn teâxt",
			want: "broke n text",
		},
		{
			name: "trims ends",
			in:   "  text  ",
			want: "text",
		},
		{
			name: "clean text untouched",
			in:   "Already clean.",
			want: "Already clean.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeText(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, NormalizeText(got), "must be idempotent")
		})
	}
}

func TestNormalizeAll(t *testing.T) {
	eng, st := newTestEngine(t)
	testutil.InsertNote(t, st, 1)
	testutil.InsertBlock(t, st, testutil.BlockSpec{ID: 10, NoteID: 1, Content: ptr("bad â text")})
	testutil.InsertBlock(t, st, testutil.BlockSpec{ID: 11, NoteID: 1, Content: ptr("clean text")})
	testutil.InsertBlock(t, st, testutil.BlockSpec{ID: 12, NoteID: 1}) // null content
	testutil.InsertTranscribedPage(t, st, 201, 1, 1, nil, nil)
	testutil.SetPageText(t, st, 201, "page ... text")

	ctx := context.Background()
	res, err := eng.NormalizeAll(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.BlocksUpdated)
	assert.Equal(t, 1, res.PagesUpdated)

	assert.Equal(t, "bad — text", readBlock(t, st, 10).Content.String)
	assert.Equal(t, "clean text", readBlock(t, st, 11).Content.String)

	// Second pass finds nothing to do.
	res, err = eng.NormalizeAll(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 0, res.BlocksUpdated)
	assert.Equal(t, 0, res.PagesUpdated)
}

func TestNormalizeAll_DryRun(t *testing.T) {
	eng, st := newTestEngine(t)
	testutil.InsertNote(t, st, 1)
	testutil.InsertBlock(t, st, testutil.BlockSpec{ID: 10, NoteID: 1, Content: ptr("bad â text")})

	res, err := eng.NormalizeAll(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.BlocksUpdated)

	assert.Equal(t, "bad â text", readBlock(t, st, 10).Content.String)
}
