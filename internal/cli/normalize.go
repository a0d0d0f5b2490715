package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NormalizeOptions holds flags for the normalize command.
type NormalizeOptions struct {
	*RootOptions
	DryRun bool
}

// NewNormalizeCommand creates the normalize command.
func NewNormalizeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NormalizeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Fix mojibake and spacing artifacts in extracted text",
		Long: `Normalize note block content and transcribed page text in place:
repair misdecoded punctuation, collapse dot runs to ellipses, collapse
whitespace, and apply Unicode NFC.

--dry-run reports how many rows would change without writing; a zero count
doubles as a normalization check for CI.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "count changes and roll back")

	return cmd
}

func runNormalize(opts *NormalizeOptions, cmd *cobra.Command) error {
	eng, closeStore, err := opts.openEngine()
	if err != nil {
		return err
	}
	defer closeStore()

	out := opts.formatter(cmd)

	res, err := eng.NormalizeAll(cmd.Context(), opts.DryRun)
	if err != nil {
		out.Error("INTERNAL", err.Error(), nil)
		return WrapExitError(ExitInternal, "normalize failed", err)
	}

	text := fmt.Sprintf("blocks updated: %d, pages updated: %d", res.BlocksUpdated, res.PagesUpdated)
	if opts.DryRun {
		text += " [dry run]"
	}
	return out.Success(res, text)
}
