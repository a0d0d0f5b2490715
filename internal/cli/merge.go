package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scribeworks/notesdb/internal/engine"
)

// MergeOptions holds flags for the merge-blocks command.
type MergeOptions struct {
	*RootOptions
	PrimaryID   int64
	SecondaryID int64
	DryRun      bool
}

// NewMergeBlocksCommand creates the merge-blocks command.
func NewMergeBlocksCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MergeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "merge-blocks",
		Short: "Merge a secondary note block into a primary one",
		Long: `Merge a secondary note block into a primary one.

The primary block survives: contents are joined, token counts summed, the
earlier timestamp kept (the later one's date is preserved as an edit-date
marker), satellite relations unioned, and block links repointed. The
secondary block is deleted. The whole merge is one transaction.

Which records are duplicates is the caller's decision; this command only
executes the merge.

Example:
  notesdb merge-blocks --db notes.db --primary 120 --secondary 121`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMergeBlocks(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.PrimaryID, "primary", 0, "primary note block id to keep")
	cmd.Flags().Int64Var(&opts.SecondaryID, "secondary", 0, "secondary note block id to merge and delete")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "compute the merge and roll back")
	cmd.MarkFlagRequired("primary")
	cmd.MarkFlagRequired("secondary")

	return cmd
}

func runMergeBlocks(opts *MergeOptions, cmd *cobra.Command) error {
	eng, closeStore, err := opts.openEngine()
	if err != nil {
		return err
	}
	defer closeStore()

	out := opts.formatter(cmd)

	res, err := eng.MergeBlocks(cmd.Context(), opts.PrimaryID, opts.SecondaryID, opts.DryRun)
	if err != nil {
		if engine.IsPrecondition(err) {
			out.Error("PRECONDITION", err.Error(), res)
			return WrapExitError(ExitPrecondition, "merge rejected", err)
		}
		out.Error("INTERNAL", err.Error(), nil)
		return WrapExitError(ExitInternal, "merge failed", err)
	}

	return out.Success(res, mergeText(res, opts.DryRun))
}

func mergeText(res *engine.MergeResult, dryRun bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "merged block %d into %d", res.SecondaryID, res.PrimaryID)
	if len(res.Conflicts) > 0 {
		fmt.Fprintf(&b, " (conflicts: %s)", strings.Join(res.Conflicts, ", "))
	}
	if d := res.Details; d != nil {
		fmt.Fprintf(&b, "\n  tags=%d passages=%d embeddings=%d edit_dates=%d links_from=%d links_to=%d",
			d.TagsCopied, d.PassagesCopied, d.EmbeddingsCopied,
			d.EditDatesCopied, d.LinksFromRepointed, d.LinksToRepointed)
	}
	if dryRun {
		b.WriteString("\n  [dry run]")
	}
	return b.String()
}
