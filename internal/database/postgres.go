package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/ingest"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/types"
)

// qbSeasonsQuery reads the hosted flat table: one row per
// player-season-team, the same shape as the CSV import.
const qbSeasonsQuery = `SELECT
	player_id, name, year, team, COALESCE(first_season, 0),
	games_started, wins, losses, COALESCE(ties, 0),
	attempts, completions, passing_yards, passing_tds, interceptions,
	COALESCE(sacks, 0), COALESCE(sack_yards, 0),
	COALESCE(rush_attempts, 0), COALESCE(rushing_yards, 0), COALESCE(rushing_tds, 0), COALESCE(fumbles, 0),
	COALESCE(game_winning_drives, 0), COALESCE(fourth_quarter_comebacks, 0),
	COALESCE(playoff_wins, 0), COALESCE(playoff_losses, 0), COALESCE(playoff_games_started, 0),
	COALESCE(playoff_game_winning_drives, 0), COALESCE(playoff_fourth_quarter_comebacks, 0)
FROM qb_seasons
ORDER BY player_id, year, team`

type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource loads players from a hosted Postgres (Supabase) database.
type PostgresSource struct {
	pool *pgxpool.Pool
	q    rowQuerier
}

// ConnectPostgres opens a pool against databaseURL and verifies it.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresSource{pool: pool, q: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresSource) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Name identifies the source in logs.
func (s *PostgresSource) Name() string {
	return "postgres"
}

// LoadPlayers reads qb_seasons and assembles validated players.
func (s *PostgresSource) LoadPlayers(ctx context.Context) ([]types.Player, error) {
	rows, err := s.q.Query(ctx, qbSeasonsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query qb_seasons: %w", err)
	}
	defer rows.Close()

	var out []ingest.Row
	for rows.Next() {
		var r ingest.Row
		err := rows.Scan(
			&r.PlayerID, &r.Name, &r.Year, &r.Team, &r.FirstSeason,
			&r.GamesStarted, &r.Wins, &r.Losses, &r.Ties,
			&r.Attempts, &r.Completions, &r.PassingYards, &r.PassingTDs, &r.Interceptions,
			&r.Sacks, &r.SackYards,
			&r.RushAttempts, &r.RushingYards, &r.RushingTDs, &r.Fumbles,
			&r.GameWinningDrives, &r.FourthQuarterComebacks,
			&r.PlayoffWins, &r.PlayoffLosses, &r.PlayoffGamesStarted,
			&r.PlayoffGameWinningDrives, &r.PlayoffFourthQuarterComebacks,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan qb_seasons row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate qb_seasons: %w", err)
	}

	if err := ingest.ValidateRows(out); err != nil {
		return nil, err
	}
	players := ingest.Merge(out)
	if err := ingest.Validate(players); err != nil {
		return nil, err
	}
	return players, nil
}
