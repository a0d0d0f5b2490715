package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribeworks/notesdb/internal/engine"
	"github.com/scribeworks/notesdb/internal/record"
	"github.com/scribeworks/notesdb/internal/store"
	"github.com/scribeworks/notesdb/internal/testutil"
)

// OpResult captures one operation's outcome for the golden snapshot.
type OpResult struct {
	Op     string `json:"op"`
	Error  string `json:"error,omitempty"`
	Result any    `json:"result,omitempty"`
}

// Run executes a scenario against a fresh store: fixture, ops (with expected
// failures asserted), then checks. Returns the op results for snapshotting.
func Run(t *testing.T, sc *Scenario) []OpResult {
	t.Helper()

	st := testutil.OpenStore(t)
	applyFixture(t, st, &sc.Fixture)

	eng := engine.New(st, nil)
	ctx := context.Background()

	var results []OpResult
	for i, op := range sc.Ops {
		results = append(results, runOp(t, eng, ctx, i, op))
	}

	runChecks(t, st, sc.Checks)
	return results
}

// RunWithGolden executes a scenario and compares the JSON-encoded op results
// against testdata/{scenario.Name}.golden.
func RunWithGolden(t *testing.T, sc *Scenario) {
	t.Helper()

	results := Run(t, sc)

	data, err := json.MarshalIndent(results, "", "  ")
	require.NoError(t, err, "marshal op results")

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, sc.Name, append(data, '\n'))
}

func runOp(t *testing.T, eng *engine.Engine, ctx context.Context, i int, op Op) OpResult {
	t.Helper()

	switch {
	case op.Repair != nil:
		kind := parseKind(t, op.Repair.Kind)
		res, err := eng.RepairNote(ctx, op.Repair.Note, kind, parseMode(t, op.Repair.Mode), op.Repair.DryRun)
		checkOpError(t, i, op.Repair.ExpectError, err)
		return opResult("repair", res, err)

	case op.RepairAll != nil:
		res, err := eng.RepairAllNotes(ctx, parseMode(t, op.RepairAll.Mode), op.RepairAll.DryRun)
		checkOpError(t, i, op.RepairAll.ExpectError, err)
		return opResult("repair_all", res, err)

	case op.Merge != nil:
		res, err := eng.MergeBlocks(ctx, op.Merge.Primary, op.Merge.Secondary, op.Merge.DryRun)
		checkOpError(t, i, op.Merge.ExpectError, err)
		return opResult("merge", res, err)

	case op.Normalize != nil:
		res, err := eng.NormalizeAll(ctx, op.Normalize.DryRun)
		require.NoError(t, err, "op %d: normalize", i)
		return opResult("normalize", res, err)

	default:
		t.Fatalf("op %d: empty operation", i)
		return OpResult{}
	}
}

// opResult builds a snapshot entry, dropping a typed-nil result so omitempty
// elides it.
func opResult[T any](op string, res *T, err error) OpResult {
	r := OpResult{Op: op, Error: errText(err)}
	if res != nil {
		r.Result = res
	}
	return r
}

// checkOpError asserts that the op failed with the expected precondition
// code, or succeeded when none is expected.
func checkOpError(t *testing.T, i int, expect string, err error) {
	t.Helper()
	if expect == "" {
		require.NoError(t, err, "op %d", i)
		return
	}
	require.Error(t, err, "op %d: expected %s", i, expect)
	require.True(t, engine.IsPrecondition(err), "op %d: expected precondition, got %v", i, err)
	assert.Contains(t, err.Error(), expect, "op %d: wrong precondition code", i)
}

func applyFixture(t *testing.T, st *store.Store, f *Fixture) {
	t.Helper()

	for _, id := range f.Notes {
		testutil.InsertNote(t, st, id)
	}
	for _, fr := range f.Files {
		testutil.InsertFile(t, st, fr.ID, fr.Path)
	}
	for _, p := range f.PageImages {
		testutil.InsertPageImage(t, st, p.Note, p.File, deref(p.Order), deref(p.Prev), deref(p.Next))
	}
	for _, tp := range f.Transcribed {
		testutil.InsertTranscribedPage(t, st, tp.ID, tp.Note, deref(tp.Order), deref(tp.Prev), deref(tp.Next))
		if tp.Text != nil {
			testutil.SetPageText(t, st, tp.ID, *tp.Text)
		}
	}
	for _, b := range f.Blocks {
		testutil.InsertBlock(t, st, testutil.BlockSpec{
			ID:         b.ID,
			NoteID:     b.Note,
			BlockOrder: b.Order,
			BlockType:  b.Type,
			Content:    b.Content,
			Tokens:     b.Tokens,
			CreatedAt:  b.CreatedAt,
		})
	}
	for _, tg := range f.Tags {
		testutil.AttachTag(t, st, tg.Block, tg.Name)
	}
	for _, ps := range f.Passages {
		testutil.AttachPassage(t, st, ps.Block, ps.Passage, ps.Relation)
	}
	for _, em := range f.Embeddings {
		testutil.AttachEmbedding(t, st, em.Block, em.Model)
	}
	for _, ed := range f.EditDates {
		testutil.AttachEditDate(t, st, ed.Block, ed.Date)
	}
	for _, l := range f.Links {
		testutil.InsertLink(t, st, l.From, l.To, deref(l.Label))
	}
}

func runChecks(t *testing.T, st *store.Store, checks []Check) {
	t.Helper()
	ctx := context.Background()

	// Checks only read; the dry-run transaction never commits.
	err := st.WithTx(ctx, true, func(tx *store.Tx) error {
		for i, c := range checks {
			runCheck(t, tx, ctx, i, c)
		}
		return nil
	})
	require.NoError(t, err, "run checks")
}

func runCheck(t *testing.T, tx *store.Tx, ctx context.Context, i int, c Check) {
	t.Helper()

	switch {
	case c.BlockAbsent != nil:
		b, err := tx.Block(ctx, *c.BlockAbsent)
		require.NoError(t, err)
		assert.Nil(t, b, "check %d: block %d should be gone", i, *c.BlockAbsent)

	case c.Block != nil:
		b, err := tx.Block(ctx, c.Block.ID)
		require.NoError(t, err)
		require.NotNil(t, b, "check %d: block %d missing", i, c.Block.ID)
		if c.Block.Content != nil {
			assert.Equal(t, *c.Block.Content, b.Content.String, "check %d: content", i)
		}
		if c.Block.Tokens != nil {
			require.True(t, b.Tokens.Valid, "check %d: tokens null", i)
			assert.Equal(t, *c.Block.Tokens, b.Tokens.Int64, "check %d: tokens", i)
		}
		if c.Block.CreatedAt != nil {
			assert.Equal(t, *c.Block.CreatedAt, b.CreatedAt.String, "check %d: created_at", i)
		}

	case c.Tags != nil:
		got, err := tx.TagNamesForBlock(ctx, c.Tags.Block)
		require.NoError(t, err)
		assert.Equal(t, sorted(c.Tags.Equal), emptyNotNil(got), "check %d: tags", i)

	case c.EditDates != nil:
		got, err := tx.EditDatesForBlock(ctx, c.EditDates.Block)
		require.NoError(t, err)
		assert.Equal(t, sorted(c.EditDates.Equal), emptyNotNil(got), "check %d: edit dates", i)

	case c.Embeddings != nil:
		got, err := tx.EmbeddingModelsForBlock(ctx, c.Embeddings.Block)
		require.NoError(t, err)
		assert.Equal(t, sorted(c.Embeddings.Equal), emptyNotNil(got), "check %d: embeddings", i)

	case c.Passages != nil:
		got, err := tx.PassageIDsForBlock(ctx, c.Passages.Block)
		require.NoError(t, err)
		want := c.Passages.Equal
		if want == nil {
			want = []int64{}
		}
		if got == nil {
			got = []int64{}
		}
		assert.Equal(t, want, got, "check %d: passages", i)

	case c.LinksFrom != nil:
		links, err := tx.OutgoingLinks(ctx, c.LinksFrom.Block)
		require.NoError(t, err)
		assert.Equal(t, sorted(c.LinksFrom.Equal), linkStrings(links), "check %d: outgoing links", i)

	case c.LinksTo != nil:
		links, err := tx.IncomingLinks(ctx, c.LinksTo.Block)
		require.NoError(t, err)
		assert.Equal(t, sorted(c.LinksTo.Equal), linkStrings(links), "check %d: incoming links", i)

	case c.Chain != nil:
		assertChain(t, tx, ctx, i, c.Chain)

	default:
		t.Fatalf("check %d: empty check", i)
	}
}

// assertChain verifies that the stored prev/next pointers encode exactly the
// expected id sequence: first prev is null, last next is null, and each
// neighbor pair points at each other.
func assertChain(t *testing.T, tx *store.Tx, ctx context.Context, i int, chain *ChainCheck) {
	t.Helper()

	children, err := tx.OrderedChildren(ctx, chain.Note, parseKind(t, chain.Kind))
	require.NoError(t, err)
	require.Len(t, children, len(chain.IDs), "check %d: chain length", i)

	byID := make(map[int64]record.OrderedChild, len(children))
	for _, c := range children {
		byID[c.ID] = c
	}

	for pos, id := range chain.IDs {
		c, ok := byID[id]
		require.True(t, ok, "check %d: chain id %d not found", i, id)

		if pos == 0 {
			assert.False(t, c.PrevID.Valid, "check %d: head %d has prev", i, id)
		} else {
			require.True(t, c.PrevID.Valid, "check %d: %d missing prev", i, id)
			assert.Equal(t, chain.IDs[pos-1], c.PrevID.Int64, "check %d: prev of %d", i, id)
		}

		if pos == len(chain.IDs)-1 {
			assert.False(t, c.NextID.Valid, "check %d: tail %d has next", i, id)
		} else {
			require.True(t, c.NextID.Valid, "check %d: %d missing next", i, id)
			assert.Equal(t, chain.IDs[pos+1], c.NextID.Int64, "check %d: next of %d", i, id)
		}
	}
}

func parseKind(t *testing.T, kind string) record.ChildKind {
	t.Helper()
	switch kind {
	case "images":
		return record.PageImages
	case "transcribed":
		return record.TranscribedPages
	default:
		t.Fatalf("unknown child kind %q", kind)
		return 0
	}
}

func parseMode(t *testing.T, mode string) engine.RepairMode {
	t.Helper()
	switch mode {
	case "", "full":
		return engine.Full
	case "only-missing":
		return engine.OnlyMissing
	default:
		t.Fatalf("unknown repair mode %q", mode)
		return 0
	}
}

func linkStrings(links []record.BlockLink) []string {
	out := []string{}
	for _, l := range links {
		s := fmt.Sprintf("%d->%d", l.FromID, l.ToID)
		if l.Label.Valid {
			s += ":" + l.Label.String
		}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func sorted(in []string) []string {
	out := append([]string{}, in...)
	sort.Strings(out)
	return out
}

func emptyNotNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
