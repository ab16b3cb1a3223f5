package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/config"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/database"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/ingest"
)

type importOptions struct {
	csv     string
	dataDir string
}

func newImportCmd() *cobra.Command {
	opts := &importOptions{}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a season CSV into the local store",
		Long:  "Validates a season CSV, merges trade rows and upserts the players into the SQLite store that the server reads when no other source is configured.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runImport(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.csv, "csv", "c", "", "Path to the season CSV file (required)")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "Directory for the SQLite store (default: DATA_DIR or ./data)")

	if err := cmd.MarkFlagRequired("csv"); err != nil {
		panic(fmt.Sprintf("failed to mark csv flag as required: %v", err))
	}
	return cmd
}

func runImport(cmd *cobra.Command, opts *importOptions) error {
	dataDir := opts.dataDir
	if dataDir == "" {
		dataDir = config.Defaults().DataDir
		if cfg, err := loadConfig(sourceFlags{}); err == nil {
			dataDir = cfg.DataDir
		}
	}

	players, err := ingest.LoadCSVFile(opts.csv)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", opts.csv, err)
	}

	db, err := database.NewDB(dataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := database.NewRepository(db)
	ctx := cmd.Context()
	if err := repo.UpsertPlayers(ctx, players); err != nil {
		return fmt.Errorf("failed to store players: %w", err)
	}

	total, err := repo.CountPlayers(ctx)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d players from %s (%d in store)\n", len(players), opts.csv, total)
	return err
}
