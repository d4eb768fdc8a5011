package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Registry string // registry file path
	Catalog  string // SQLite catalog path
	Config   string // optional config file

	// Workers is resolved from config when --workers is not given.
	Workers int

	// TraceIDs stamps JSON responses. Defaults to UUIDv7Generator.
	TraceIDs TraceIDGenerator

	// Environ supplies environment variables for config. Defaults to os.Environ.
	Environ func() []string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the insightq CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insightq",
		Short: "insightq - dataset query validator",
		Long: `Validate dataset queries before they run.

A query names fields as <dataset>_<field> and must draw every key from a
single registered dataset. insightq checks WHERE, TRANSFORMATIONS and
OPTIONS against a dataset registry and reports the first problem found.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				textOut := &OutputFormatter{Format: "text", Writer: cmd.OutOrStdout()}
				return report(textOut, &commandError{
					Code:    ErrCodeInvalidArgs,
					Message: fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats),
				})
			}
			if err := opts.applyConfig(cmd); err != nil {
				return report(opts.formatter(cmd), err)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Registry, "registry", "", "dataset registry file (.yaml, .json or .cue)")
	cmd.PersistentFlags().StringVar(&opts.Catalog, "catalog", "", "SQLite dataset catalog")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewDatasetsCommand(opts))

	return cmd
}

// applyConfig fills unset flags from the config file and environment.
func (o *RootOptions) applyConfig(cmd *cobra.Command) error {
	environ := os.Environ
	if o.Environ != nil {
		environ = o.Environ
	}

	cfg, err := LoadConfig(o.Config, environ())
	if err != nil {
		return &commandError{Code: ErrCodeInvalidArgs, Message: "load config", Err: err}
	}

	flags := cmd.Flags()
	if !flags.Changed("registry") && cfg.Registry != "" {
		o.Registry = cfg.Registry
	}
	if !flags.Changed("catalog") && cfg.Catalog != "" {
		o.Catalog = cfg.Catalog
	}
	if o.Workers == 0 {
		o.Workers = cfg.Workers
	}
	return nil
}

// Logger returns the command logger. Debug when verbose, Warn otherwise.
func (o *RootOptions) Logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *RootOptions) traceIDs() TraceIDGenerator {
	if o.TraceIDs != nil {
		return o.TraceIDs
	}
	return UUIDv7Generator{}
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	f := &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // keep JSON on stdout clean
		Verbose:   o.Verbose,
	}
	if o.Format == "json" {
		f.TraceID = o.traceIDs().Generate()
	}
	return f
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
