// Package app wires configuration into the services the server and CLI run.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/adapters"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/config"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/database"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/errors"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/ingest"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/leaderboard"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/monitoring"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/reference"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/scoring"
)

// App holds the long-lived services built from a Config.
type App struct {
	Config  *config.Config
	Logger  *monitoring.Logger
	Metrics *monitoring.Metrics
	Tables  *reference.Tables
	Engine  *scoring.Engine
	DB      *database.DB
	Repo    *database.Repository
	Source  leaderboard.PlayerSource
	Service *leaderboard.Service

	closers []func()
}

// New loads reference tables, opens the local store and the configured
// player source, and builds the leaderboard service on top of them.
func New(ctx context.Context, cfg *config.Config, logger *monitoring.Logger) (*App, error) {
	if logger == nil {
		logger = monitoring.NewLogger(monitoring.ParseLevel(cfg.LogLevel))
	}
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: monitoring.NewMetrics(),
	}

	tables, err := reference.NewStore(cfg.ReferenceDir).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load reference tables: %w", err)
	}
	a.Tables = tables
	a.Engine = scoring.NewEngine(tables, scoring.WithLogger(logger.Logger))

	db, err := database.NewDB(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.Repo = database.NewRepository(db)
	a.closers = append(a.closers, func() { errors.SafeClose(db, "database") })

	source, closeSource, err := OpenSource(ctx, cfg, a.Repo)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Source = source
	a.closers = append(a.closers, closeSource)

	a.Service = leaderboard.NewService(source, a.Engine,
		leaderboard.WithSnapshotStore(a.Repo),
		leaderboard.WithCacheTTL(cfg.CacheTTL),
		leaderboard.WithMetrics(a.Metrics),
		leaderboard.WithLogger(logger),
	)
	a.closers = append(a.closers, a.Service.Close)

	logger.Info("Application initialized",
		"source", a.Service.SourceName(),
		"reference_version", tables.YearWeights.Version,
		"data_dir", cfg.DataDir)
	return a, nil
}

// Close releases everything New opened, newest first.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// OpenSource builds the player source cfg selects. The returned func closes
// any connection the source holds.
func OpenSource(ctx context.Context, cfg *config.Config, repo *database.Repository) (leaderboard.PlayerSource, func(), error) {
	noop := func() {}

	switch cfg.Source() {
	case "postgres":
		pg, err := database.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		return pg, pg.Close, nil
	case "supabase":
		sb := adapters.NewSupabaseAdapter(cfg.SupabaseURL, cfg.SupabaseKey)
		return sb, func() {
			if err := sb.Close(); err != nil {
				slog.Warn("Failed to close supabase adapter", "error", err)
			}
		}, nil
	case "csv":
		return ingest.NewCSVSource(cfg.CSVPath), noop, nil
	default:
		if repo == nil {
			return nil, noop, fmt.Errorf("sqlite source needs a repository")
		}
		return repo, noop, nil
	}
}
