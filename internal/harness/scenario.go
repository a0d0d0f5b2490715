package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one integrity test: a fixture, a sequence of engine
// operations, and checks on the final state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Fixture is the initial store content.
	Fixture Fixture `yaml:"fixture"`

	// Ops are executed in order. Exactly one field of each Op is set.
	Ops []Op `yaml:"ops"`

	// Checks validate the final store state after all ops ran.
	Checks []Check `yaml:"checks,omitempty"`
}

// Fixture declares the rows inserted before the operations run. It stands in
// for the ingestion pipeline.
type Fixture struct {
	Notes       []int64          `yaml:"notes,omitempty"`
	Files       []FileRow        `yaml:"files,omitempty"`
	PageImages  []PageImageRow   `yaml:"page_images,omitempty"`
	Transcribed []TranscribedRow `yaml:"transcribed,omitempty"`
	Blocks      []BlockRow       `yaml:"blocks,omitempty"`
	Tags        []TagRow         `yaml:"tags,omitempty"`
	Passages    []PassageRow     `yaml:"passages,omitempty"`
	Embeddings  []EmbeddingRow   `yaml:"embeddings,omitempty"`
	EditDates   []EditDateRow    `yaml:"edit_dates,omitempty"`
	Links       []LinkRow        `yaml:"links,omitempty"`
}

type FileRow struct {
	ID   int64  `yaml:"id"`
	Path string `yaml:"path"`
}

// PageImageRow is a note_file fixture row. A nil Order inserts NULL; nil
// Prev/Next insert NULL pointers.
type PageImageRow struct {
	Note  int64  `yaml:"note"`
	File  int64  `yaml:"file"`
	Order *int64 `yaml:"order"`
	Prev  *int64 `yaml:"prev,omitempty"`
	Next  *int64 `yaml:"next,omitempty"`
}

type TranscribedRow struct {
	ID    int64   `yaml:"id"`
	Note  int64   `yaml:"note"`
	Order *int64  `yaml:"order"`
	Text  *string `yaml:"text,omitempty"`
	Prev  *int64  `yaml:"prev,omitempty"`
	Next  *int64  `yaml:"next,omitempty"`
}

type BlockRow struct {
	ID        int64   `yaml:"id"`
	Note      int64   `yaml:"note"`
	Order     *int64  `yaml:"order,omitempty"`
	Type      *string `yaml:"type,omitempty"`
	Content   *string `yaml:"content,omitempty"`
	Tokens    *int64  `yaml:"tokens,omitempty"`
	CreatedAt *string `yaml:"created_at,omitempty"`
}

type TagRow struct {
	Block int64  `yaml:"block"`
	Name  string `yaml:"name"`
}

type PassageRow struct {
	Block    int64  `yaml:"block"`
	Passage  int64  `yaml:"passage"`
	Relation string `yaml:"relation,omitempty"`
}

type EmbeddingRow struct {
	Block int64  `yaml:"block"`
	Model string `yaml:"model"`
}

type EditDateRow struct {
	Block int64  `yaml:"block"`
	Date  string `yaml:"date"`
}

type LinkRow struct {
	From  int64   `yaml:"from"`
	To    int64   `yaml:"to"`
	Label *string `yaml:"label,omitempty"`
}

// Op is one engine operation. Exactly one field must be set.
type Op struct {
	Repair    *RepairOp    `yaml:"repair,omitempty"`
	RepairAll *RepairAllOp `yaml:"repair_all,omitempty"`
	Merge     *MergeOp     `yaml:"merge,omitempty"`
	Normalize *NormalizeOp `yaml:"normalize,omitempty"`
}

type RepairOp struct {
	Note   int64  `yaml:"note"`
	Kind   string `yaml:"kind"`           // images | transcribed
	Mode   string `yaml:"mode,omitempty"` // full (default) | only-missing
	DryRun bool   `yaml:"dry_run,omitempty"`

	// ExpectError names the precondition code the op must fail with.
	// Empty means the op must succeed.
	ExpectError string `yaml:"expect_error,omitempty"`
}

type RepairAllOp struct {
	Mode   string `yaml:"mode,omitempty"`
	DryRun bool   `yaml:"dry_run,omitempty"`

	ExpectError string `yaml:"expect_error,omitempty"`
}

type MergeOp struct {
	Primary   int64 `yaml:"primary"`
	Secondary int64 `yaml:"secondary"`
	DryRun    bool  `yaml:"dry_run,omitempty"`

	ExpectError string `yaml:"expect_error,omitempty"`
}

type NormalizeOp struct {
	DryRun bool `yaml:"dry_run,omitempty"`
}

// Check is one assertion on the final state. Exactly one field must be set.
type Check struct {
	// BlockAbsent asserts no note_block row has this id.
	BlockAbsent *int64 `yaml:"block_absent,omitempty"`

	// Block asserts on a surviving block's reconciled fields.
	Block *BlockCheck `yaml:"block,omitempty"`

	// Tags asserts the exact sorted tag names of a block.
	Tags *RelationCheck `yaml:"tags,omitempty"`

	// EditDates asserts the exact sorted edit-date markers of a block.
	EditDates *RelationCheck `yaml:"edit_dates,omitempty"`

	// Embeddings asserts the exact sorted embedding model names of a block.
	Embeddings *RelationCheck `yaml:"embeddings,omitempty"`

	// Passages asserts the exact sorted passage ids of a block.
	Passages *PassagesCheck `yaml:"passages,omitempty"`

	// LinksFrom asserts the exact outgoing links of a block.
	LinksFrom *LinksCheck `yaml:"links_from,omitempty"`

	// LinksTo asserts the exact incoming links of a block.
	LinksTo *LinksCheck `yaml:"links_to,omitempty"`

	// Chain asserts the prev/next pointers of a note's children encode
	// exactly this id sequence.
	Chain *ChainCheck `yaml:"chain,omitempty"`
}

type BlockCheck struct {
	ID        int64   `yaml:"id"`
	Content   *string `yaml:"content,omitempty"`
	Tokens    *int64  `yaml:"tokens,omitempty"`
	CreatedAt *string `yaml:"created_at,omitempty"`
}

type RelationCheck struct {
	Block int64    `yaml:"block"`
	Equal []string `yaml:"equal"`
}

type PassagesCheck struct {
	Block int64   `yaml:"block"`
	Equal []int64 `yaml:"equal"`
}

// LinksCheck lists expected links as "from->to" or "from->to:label" strings,
// sorted by the runner before comparison.
type LinksCheck struct {
	Block int64    `yaml:"block"`
	Equal []string `yaml:"equal"`
}

type ChainCheck struct {
	Note int64   `yaml:"note"`
	Kind string  `yaml:"kind"` // images | transcribed
	IDs  []int64 `yaml:"ids"`
}

// LoadScenario reads and validates one scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("scenario %s: missing name", path)
	}
	if len(sc.Ops) == 0 {
		return nil, fmt.Errorf("scenario %s: no ops", path)
	}
	for i, op := range sc.Ops {
		if countSet(op.Repair != nil, op.RepairAll != nil, op.Merge != nil, op.Normalize != nil) != 1 {
			return nil, fmt.Errorf("scenario %s: op %d must set exactly one operation", path, i)
		}
	}
	return &sc, nil
}

func countSet(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}
