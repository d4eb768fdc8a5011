package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/spf13/cobra"

	"github.com/roach88/insightq/internal/canon"
	"github.com/roach88/insightq/internal/query"
	"github.com/roach88/insightq/internal/validate"
)

// FileResult is the outcome of validating one query file.
type FileResult struct {
	File        string     `json:"file"`
	Valid       bool       `json:"valid"`
	DatasetID   string     `json:"dataset_id,omitempty"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	Error       *FileError `json:"error,omitempty"`
}

// FileError explains why a file was rejected.
type FileError struct {
	Code    string `json:"code"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// String formats the error as the validator does: [code] path: message.
func (e *FileError) String() string {
	if e.Path != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "validate <query-file>...",
		Short: "Validate query documents against the dataset registry",
		Long: `Validate one or more query documents (JSON or YAML).

Each file is checked independently; results are reported in argument order.
Exits 1 if any file is rejected and 2 if the registry cannot be loaded.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("workers") {
				if workers < 1 {
					return report(rootOpts.formatter(cmd), &commandError{
						Code:    ErrCodeInvalidArgs,
						Message: fmt.Sprintf("--workers must be at least 1, got %d", workers),
					})
				}
				rootOpts.Workers = workers
			}
			return runValidate(rootOpts, args, cmd)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", DefaultWorkers, "number of files validated concurrently")

	return cmd
}

func runValidate(opts *RootOptions, files []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.Logger(cmd.ErrOrStderr())

	workers := opts.Workers
	if workers < 1 {
		workers = DefaultWorkers
	}

	reg, err := opts.loadRegistry(cmd.Context())
	if err != nil {
		return report(formatter, err)
	}

	v := validate.New(reg, validate.WithLogger(logger))
	results, err := validateFiles(v, files, workers, logger)
	if err != nil {
		return report(formatter, err)
	}

	rejected := 0
	for _, r := range results {
		if !r.Valid {
			rejected++
		}
	}

	if formatter.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: results}
		if rejected > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    ErrCodeInvalidQuery,
				Message: fmt.Sprintf("%d of %d queries invalid", rejected, len(results)),
			}
		}
		if err := formatter.Respond(resp); err != nil {
			return err
		}
	} else {
		writeTextResults(formatter.Writer, results)
	}

	if rejected > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d queries invalid", rejected, len(results)))
	}
	return nil
}

// validateFiles runs validateFile for each path on a bounded pool.
// Results are returned in the order of files.
func validateFiles(v *validate.Validator, files []string, workers int, logger *slog.Logger) ([]FileResult, error) {
	results := make([]FileResult, len(files))

	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(p any) {
		logger.Error("validate worker panic", "panic", p)
	}))
	if err != nil {
		return nil, &commandError{Code: ErrCodeGeneric, Message: "start worker pool", Err: err}
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, file := range files {
		// Pre-fill so a panicking worker still leaves a rejection behind.
		results[i] = FileResult{
			File:  file,
			Error: &FileError{Code: ErrCodeGeneric, Message: "validation did not complete"},
		}

		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			results[i] = validateFile(v, file, logger)
		}); err != nil {
			wg.Done()
			return nil, &commandError{Code: ErrCodeGeneric, Message: "submit " + file, Err: err}
		}
	}
	wg.Wait()

	return results, nil
}

// validateFile reads, decodes and validates a single query file.
func validateFile(v *validate.Validator, path string, logger *slog.Logger) FileResult {
	result := FileResult{File: path}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Error = &FileError{Code: ErrCodeReadFailed, Message: err.Error()}
		return result
	}

	doc, err := query.Decode(data)
	if err != nil {
		result.Error = &FileError{Code: ErrCodeReadFailed, Message: err.Error()}
		return result
	}

	// The fingerprint is informational; a document without a canonical
	// form is still validated.
	if fp, err := canon.Fingerprint(doc); err == nil {
		result.Fingerprint = fp
	} else {
		logger.Debug("no fingerprint", "file", path, "error", err)
	}

	res, err := v.Validate(doc)
	if err != nil {
		var vErr *query.ValidationError
		if errors.As(err, &vErr) {
			result.Error = &FileError{Code: vErr.Code, Path: vErr.Path, Message: vErr.Message}
		} else {
			result.Error = &FileError{Code: ErrCodeGeneric, Message: err.Error()}
		}
		logger.Debug("query rejected", "file", path, "fingerprint", result.Fingerprint, "error", err)
		return result
	}

	result.Valid = true
	result.DatasetID = res.DatasetID
	return result
}

func writeTextResults(w io.Writer, results []FileResult) {
	for _, r := range results {
		if r.Valid {
			fmt.Fprintf(w, "✓ %s: valid (dataset: %s)\n", r.File, r.DatasetID)
			continue
		}
		fmt.Fprintf(w, "✗ %s: %s\n", r.File, r.Error)
	}
}
