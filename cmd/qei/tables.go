package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/reference"
)

type tablesOptions struct {
	out  string
	from string
}

func newTablesCmd() *cobra.Command {
	opts := &tablesOptions{}
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Export the reference tables for editing",
		Long:  "Writes year weights, benchmarks, team quality and season tables as JSON. Point REFERENCE_DIR at the output directory to score against the edited copies.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTables(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Directory to write the tables to (required)")
	cmd.Flags().StringVar(&opts.from, "from", os.Getenv("REFERENCE_DIR"), "Directory holding overrides to start from")

	if err := cmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark out flag as required: %v", err))
	}
	return cmd
}

func runTables(cmd *cobra.Command, opts *tablesOptions) error {
	tables, err := reference.NewStore(opts.from).Load()
	if err != nil {
		return fmt.Errorf("failed to load reference tables: %w", err)
	}
	if err := reference.NewStore(opts.out).Save(tables); err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote reference tables for %v to %s\n", tables.YearWeights.Performance.Years(), opts.out)
	return err
}
