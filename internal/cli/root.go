package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/scribeworks/notesdb/internal/config"
	"github.com/scribeworks/notesdb/internal/engine"
	"github.com/scribeworks/notesdb/internal/logger"
	"github.com/scribeworks/notesdb/internal/store"
)

// RootOptions holds global flags and the state resolved from them.
type RootOptions struct {
	DBPath     string
	ConfigPath string
	Format     string // "json" | "text"
	Verbose    bool

	// Resolved in PersistentPreRunE.
	Config  config.Config
	Log     *slog.Logger
	TraceID string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the notesdb CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "notesdb",
		Short: "Order and merge integrity tooling for the notes database",
		Long: `notesdb maintains positional ordering and merge integrity for a
note-taking store: it rebuilds the cached prev/next pointers of a note's
page images and transcribed pages from their authoritative page order, and
consolidates duplicate note blocks while preserving every attached relation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "path to the notes database (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose (debug) logging")

	cmd.AddCommand(NewRepairLinksCommand(opts))
	cmd.AddCommand(NewMergeBlocksCommand(opts))
	cmd.AddCommand(NewNormalizeCommand(opts))

	return cmd
}

// resolve merges config file and flags, then builds the logger and trace id.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg := config.Default()
	if o.ConfigPath != "" {
		loaded, err := config.Load(o.ConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if o.DBPath != "" {
		cfg.DBPath = o.DBPath
	}
	if cfg.DBPath == "" {
		// The environment is consulted only here, as a flag default.
		cfg.DBPath = os.Getenv("NOTES_DB")
	}
	if o.Verbose {
		cfg.LogLevel = "debug"
	}
	if o.Format == "json" {
		cfg.LogFormat = "json"
	}
	o.Config = cfg

	// Logs go to stderr so JSON output on stdout stays parseable.
	o.Log = logger.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	o.TraceID = uuid.NewString()
	return nil
}

// openEngine opens the configured store and wraps it in an engine.
// The returned closer must be called when the command finishes.
func (o *RootOptions) openEngine() (*engine.Engine, func() error, error) {
	if o.Config.DBPath == "" {
		return nil, nil, WrapExitError(ExitInternal, "no database configured", nil)
	}
	st, err := store.Open(store.Options{
		Path:        o.Config.DBPath,
		BusyTimeout: o.Config.BusyTimeout,
	})
	if err != nil {
		return nil, nil, WrapExitError(ExitInternal, "open store", err)
	}
	return engine.New(st, o.Log.With("trace_id", o.TraceID)), st.Close, nil
}

// formatter builds the output formatter for a command.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:  o.Format,
		Writer:  cmd.OutOrStdout(),
		TraceID: o.TraceID,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
