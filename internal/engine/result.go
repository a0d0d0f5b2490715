package engine

// RepairResult reports what one order repair pass changed.
type RepairResult struct {
	// Updated counts rows whose pointer pair was rewritten.
	Updated int `json:"updated"`

	// Unchanged counts rows that were already correct or skipped.
	Unchanged int `json:"unchanged"`
}

func (r *RepairResult) add(other RepairResult) {
	r.Updated += other.Updated
	r.Unchanged += other.Unchanged
}

// BatchRepairResult aggregates an order repair pass over every note.
// The two child collections are repaired independently per note.
type BatchRepairResult struct {
	Notes            int          `json:"notes"`
	PageImages       RepairResult `json:"note_file"`
	TranscribedPages RepairResult `json:"transcribed_page"`
}

// MergeResult reports the outcome of one block merge. It serializes to the
// flat record consumed by CLI and log tooling.
type MergeResult struct {
	Success     bool          `json:"success"`
	Message     string        `json:"message"`
	PrimaryID   int64         `json:"primary_id"`
	SecondaryID int64         `json:"secondary_id"`
	Conflicts   []string      `json:"conflicts"`
	Details     *MergeDetails `json:"details,omitempty"`
}

// MergeDetails records what the merge changed, for auditability.
type MergeDetails struct {
	POrder             *int64      `json:"p_order"`
	SOrder             *int64      `json:"s_order"`
	ConsecutiveForward bool        `json:"consecutive_forward"`
	TagsCopied         int64       `json:"tags_copied"`
	PassagesCopied     int64       `json:"passages_copied"`
	EmbeddingsCopied   int64       `json:"embeddings_copied"`
	EditDatesCopied    int64       `json:"edit_dates_copied"`
	LinksFromRepointed int64       `json:"links_from_repointed"`
	LinksToRepointed   int64       `json:"links_to_repointed"`
	Policy             MergePolicy `json:"policy"`
}

// MergePolicy restates the fixed reconciliation rules. It is returned on
// every successful merge so logs are self-describing.
type MergePolicy struct {
	Content      string `json:"content"`
	Tokens       string `json:"tokens"`
	CreatedAt    string `json:"created_at"`
	Links        string `json:"links"`
	TagsPassages string `json:"tags/passages"`
	Embeddings   string `json:"embeddings"`
}

// mergePolicy is the one policy the engine implements. Reconciliation is not
// negotiated per merge; this text documents what happened.
var mergePolicy = MergePolicy{
	Content:   "primary.content + '\n' + secondary.content",
	Tokens:    "sum when both present, else prefer non-null",
	CreatedAt: "earliest of the two; later date recorded into block_edit_date",
	Links: "consecutive: keep primary.prev, adopt secondary.next; " +
		"non-consecutive: keep primary.prev/next; always repoint incoming to primary",
	TagsPassages: "union (INSERT OR IGNORE)",
	Embeddings:   "copy models not already present on primary",
}

// failedMerge builds the result for a rejected merge. No writes occurred.
func failedMerge(primaryID, secondaryID int64, message string) *MergeResult {
	return &MergeResult{
		Success:     false,
		Message:     message,
		PrimaryID:   primaryID,
		SecondaryID: secondaryID,
		Conflicts:   []string{},
	}
}

// NormalizeResult reports what a text normalization pass changed.
type NormalizeResult struct {
	// BlocksUpdated counts note_block rows whose content changed.
	BlocksUpdated int `json:"blocks_updated"`

	// PagesUpdated counts transcribed_page rows whose text changed.
	PagesUpdated int `json:"pages_updated"`
}
