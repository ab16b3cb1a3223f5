package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/app"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/config"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/leaderboard"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/monitoring"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/scoring"
)

// sourceFlags pick where players come from. Without --csv the environment
// configuration decides.
type sourceFlags struct {
	csv     string
	dataDir string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.csv, "csv", "c", "", "Path to a season CSV file (default: configured source)")
	cmd.Flags().StringVar(&f.dataDir, "data-dir", "", "Directory for the local SQLite store (default: DATA_DIR or ./data)")
}

// rankFlags are the weight and context options shared by rank and score.
type rankFlags struct {
	year        int
	playoffs    bool
	normalize   bool
	weightsFile string
}

func (f *rankFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.year, "year", "y", 0, "Season to rank (0 blends all supported seasons)")
	cmd.Flags().BoolVar(&f.playoffs, "playoffs", false, "Fold postseason records into every category")
	cmd.Flags().BoolVar(&f.normalize, "normalize", false, "Rescale category z-scores to unit variance")
	cmd.Flags().StringVarP(&f.weightsFile, "weights", "w", "", "Path to a weights JSON file; omitted fields keep their defaults")
}

func (f *rankFlags) request() (leaderboard.RankingRequest, error) {
	req := leaderboard.RankingRequest{
		Context: scoring.Context{
			Year:              f.year,
			IncludePlayoffs:   f.playoffs,
			NormalizeVariance: f.normalize,
		},
	}
	if f.weightsFile == "" {
		return req, nil
	}

	raw, err := os.ReadFile(f.weightsFile)
	if err != nil {
		return req, fmt.Errorf("failed to read weights file %s: %w", f.weightsFile, err)
	}
	w := scoring.DefaultWeights()
	if err := json.Unmarshal(raw, &w); err != nil {
		return req, fmt.Errorf("failed to unmarshal weights JSON: %w", err)
	}
	req.Weights = &w
	return req, nil
}

// loadConfig reads the environment and applies the source flags on top.
func loadConfig(f sourceFlags) (*config.Config, error) {
	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		return nil, err
	}
	if f.csv != "" {
		cfg.CSVPath = f.csv
		cfg.DatabaseURL = ""
		cfg.SupabaseURL, cfg.SupabaseKey = "", ""
	}
	if f.dataDir != "" {
		cfg.DataDir = f.dataDir
	}
	return cfg, nil
}

func openApp(ctx context.Context, cmd *cobra.Command, f sourceFlags) (*app.App, error) {
	cfg, err := loadConfig(f)
	if err != nil {
		return nil, err
	}
	logger := monitoring.NewLoggerTo(cmd.ErrOrStderr(), monitoring.ParseLevel(cfg.LogLevel))
	return app.New(ctx, cfg, logger)
}
