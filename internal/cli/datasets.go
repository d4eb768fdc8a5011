package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/insightq/internal/catalog"
	"github.com/roach88/insightq/internal/schema"
)

// KindInfo describes the fields of one dataset kind.
type KindInfo struct {
	Kind    schema.Kind `json:"kind"`
	Numeric []string    `json:"numeric"`
	String  []string    `json:"string"`
}

// NewDatasetsCommand creates the datasets command group.
func NewDatasetsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "Manage the dataset catalog",
		Long: `Manage datasets in the SQLite catalog given by --catalog.

Registered datasets are what validate resolves query keys against when no
--registry file is given.`,
	}

	cmd.AddCommand(newDatasetsAddCommand(rootOpts))
	cmd.AddCommand(newDatasetsListCommand(rootOpts))
	cmd.AddCommand(newDatasetsRemoveCommand(rootOpts))
	cmd.AddCommand(newDatasetsKindsCommand(rootOpts))

	return cmd
}

func newDatasetsAddCommand(rootOpts *RootOptions) *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:           "add <id> <kind>",
		Short:         "Register a dataset",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			kind, err := schema.ParseKind(args[1])
			if err == nil {
				err = schema.ValidateID(args[0])
			}
			if err == nil && rows < 0 {
				err = fmt.Errorf("rows must be non-negative, got %d", rows)
			}
			if err != nil {
				return report(formatter, &commandError{Code: ErrCodeInvalidArgs, Message: "add dataset", Err: err})
			}

			cat, err := rootOpts.openCatalog()
			if err != nil {
				return report(formatter, err)
			}
			defer cat.Close()

			d := schema.Dataset{ID: args[0], Kind: kind, Rows: rows}
			if err := cat.Add(cmd.Context(), d); err != nil {
				return report(formatter, &commandError{Code: ErrCodeCatalog, Message: "catalog", Err: err})
			}

			formatter.VerboseLog("catalog %s: added %s", rootOpts.Catalog, d.ID)
			if formatter.Format == "json" {
				return formatter.Success(d)
			}
			return formatter.Success(fmt.Sprintf("added dataset %s (%s)", d.ID, d.Kind))
		},
	}

	cmd.Flags().IntVar(&rows, "rows", 0, "number of rows in the dataset")

	return cmd
}

func newDatasetsListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List registered datasets",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			cat, err := rootOpts.openCatalog()
			if err != nil {
				return report(formatter, err)
			}
			defer cat.Close()

			datasets, err := cat.List(cmd.Context())
			if err != nil {
				return report(formatter, &commandError{Code: ErrCodeRegistry, Message: "list datasets", Err: err})
			}

			if formatter.Format == "json" {
				return formatter.Success(datasets)
			}
			if len(datasets) == 0 {
				return formatter.Success("no datasets registered")
			}

			tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tKIND\tROWS")
			for _, d := range datasets {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", d.ID, d.Kind, d.Rows)
			}
			return tw.Flush()
		},
	}
}

func newDatasetsRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "remove <id>",
		Short:         "Remove a dataset",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			cat, err := rootOpts.openCatalog()
			if err != nil {
				return report(formatter, err)
			}
			defer cat.Close()

			if err := cat.Remove(cmd.Context(), args[0]); err != nil {
				code := ErrCodeCatalog
				if errors.Is(err, catalog.ErrNotFound) {
					code = ErrCodeNotFound
				}
				return report(formatter, &commandError{Code: code, Message: "catalog", Err: err})
			}

			if formatter.Format == "json" {
				return formatter.Success(map[string]string{"removed": args[0]})
			}
			return formatter.Success("removed dataset " + args[0])
		},
	}
}

func newDatasetsKindsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "kinds",
		Short:         "Show the fields of each dataset kind",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			kinds := make([]KindInfo, 0, len(schema.Kinds))
			for _, k := range schema.Kinds {
				fs, _ := k.Fields()
				kinds = append(kinds, KindInfo{Kind: k, Numeric: fs.Numeric(), String: fs.Strings()})
			}

			if formatter.Format == "json" {
				return formatter.Success(kinds)
			}
			for _, k := range kinds {
				fmt.Fprintf(formatter.Writer, "%s\n", k.Kind)
				fmt.Fprintf(formatter.Writer, "  numeric: %s\n", strings.Join(k.Numeric, ", "))
				fmt.Fprintf(formatter.Writer, "  string:  %s\n", strings.Join(k.String, ", "))
			}
			return nil
		},
	}
}
