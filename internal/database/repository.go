package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/types"
)

// Repository handles database operations.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Name identifies the repository as a player source.
func (r *Repository) Name() string {
	return "sqlite"
}

// UpsertPlayers replaces each player's stored seasons in one transaction.
func (r *Repository) UpsertPlayers(ctx context.Context, players []types.Player) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmts := make(map[string]*sql.Stmt, 5)
	for _, name := range []string{stmtUpsertPlayer, stmtDeleteSeasonTeams, stmtDeleteSeasons, stmtInsertSeason, stmtInsertSeasonTeam} {
		stmt, err := r.db.GetPreparedStatement(name)
		if err != nil {
			return err
		}
		stmts[name] = tx.StmtContext(ctx, stmt)
	}

	now := time.Now().UTC()
	for _, p := range players {
		if _, err := stmts[stmtUpsertPlayer].ExecContext(ctx, p.ID, p.Name, p.FirstSeason, now, now); err != nil {
			return fmt.Errorf("failed to upsert player %s: %w", p.ID, err)
		}
		if _, err := stmts[stmtDeleteSeasonTeams].ExecContext(ctx, p.ID); err != nil {
			return fmt.Errorf("failed to clear season teams for %s: %w", p.ID, err)
		}
		if _, err := stmts[stmtDeleteSeasons].ExecContext(ctx, p.ID); err != nil {
			return fmt.Errorf("failed to clear seasons for %s: %w", p.ID, err)
		}
		for _, s := range p.Seasons {
			po := s.Playoffs
			if po == nil {
				po = &types.PlayoffRecord{}
			}
			_, err := stmts[stmtInsertSeason].ExecContext(ctx,
				p.ID, s.Year, s.GamesStarted, s.Wins, s.Losses, s.Ties,
				s.Attempts, s.Completions, s.PassingYards, s.PassingTDs, s.Interceptions, s.Sacks, s.SackYards,
				s.RushAttempts, s.RushingYards, s.RushingTDs, s.Fumbles,
				s.GameWinningDrives, s.FourthQuarterComebacks, s.Playoffs != nil,
				po.Wins, po.Losses, po.GamesStarted, po.GameWinningDrives, po.FourthQuarterComebacks,
			)
			if err != nil {
				return fmt.Errorf("failed to insert season %s/%d: %w", p.ID, s.Year, err)
			}
			for i, t := range s.Teams {
				if _, err := stmts[stmtInsertSeasonTeam].ExecContext(ctx, p.ID, s.Year, i, t.Team, t.GamesStarted); err != nil {
					return fmt.Errorf("failed to insert team %s for %s/%d: %w", t.Team, p.ID, s.Year, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit players: %w", err)
	}
	return nil
}

// LoadPlayers returns every stored player with seasons in year order.
func (r *Repository) LoadPlayers(ctx context.Context) ([]types.Player, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, first_season FROM players ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	var players []types.Player
	index := make(map[string]int)
	for rows.Next() {
		var p types.Player
		if err := rows.Scan(&p.ID, &p.Name, &p.FirstSeason); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		index[p.ID] = len(players)
		players = append(players, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate players: %w", err)
	}

	seasonRows, err := r.db.QueryContext(ctx, `SELECT `+seasonColumns+` FROM seasons ORDER BY player_id, year`)
	if err != nil {
		return nil, fmt.Errorf("failed to query seasons: %w", err)
	}
	type seasonKey struct {
		id   string
		year int
	}
	seasonAt := make(map[seasonKey]int)
	for seasonRows.Next() {
		var (
			id         string
			s          types.SeasonRecord
			po         types.PlayoffRecord
			hasPlayoff bool
		)
		err := seasonRows.Scan(
			&id, &s.Year, &s.GamesStarted, &s.Wins, &s.Losses, &s.Ties,
			&s.Attempts, &s.Completions, &s.PassingYards, &s.PassingTDs, &s.Interceptions, &s.Sacks, &s.SackYards,
			&s.RushAttempts, &s.RushingYards, &s.RushingTDs, &s.Fumbles,
			&s.GameWinningDrives, &s.FourthQuarterComebacks, &hasPlayoff,
			&po.Wins, &po.Losses, &po.GamesStarted, &po.GameWinningDrives, &po.FourthQuarterComebacks,
		)
		if err != nil {
			seasonRows.Close()
			return nil, fmt.Errorf("failed to scan season: %w", err)
		}
		if hasPlayoff {
			s.Playoffs = &po
		}
		i, ok := index[id]
		if !ok {
			continue
		}
		seasonAt[seasonKey{id, s.Year}] = len(players[i].Seasons)
		players[i].Seasons = append(players[i].Seasons, s)
	}
	seasonRows.Close()
	if err := seasonRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate seasons: %w", err)
	}

	teamRows, err := r.db.QueryContext(ctx, `SELECT player_id, year, team, games_started FROM season_teams ORDER BY player_id, year, seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query season teams: %w", err)
	}
	defer teamRows.Close()
	for teamRows.Next() {
		var (
			id   string
			year int
			t    types.TeamStint
		)
		if err := teamRows.Scan(&id, &year, &t.Team, &t.GamesStarted); err != nil {
			return nil, fmt.Errorf("failed to scan season team: %w", err)
		}
		i, ok := index[id]
		if !ok {
			continue
		}
		j, ok := seasonAt[seasonKey{id, year}]
		if !ok {
			continue
		}
		players[i].Seasons[j].Teams = append(players[i].Seasons[j].Teams, t)
	}
	if err := teamRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate season teams: %w", err)
	}

	return players, nil
}

// CountPlayers returns the number of stored players.
func (r *Repository) CountPlayers(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM players`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count players: %w", err)
	}
	return n, nil
}

// SaveSnapshot persists a ranking snapshot.
func (r *Repository) SaveSnapshot(ctx context.Context, s *Snapshot) error {
	weights, err := json.Marshal(s.Weights)
	if err != nil {
		return fmt.Errorf("failed to marshal weights: %w", err)
	}
	scoringCtx, err := json.Marshal(s.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal context: %w", err)
	}
	rankings, err := json.Marshal(s.Rankings)
	if err != nil {
		return fmt.Errorf("failed to marshal rankings: %w", err)
	}

	stmt, err := r.db.GetPreparedStatement(stmtInsertSnapshot)
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(ctx, s.ID, s.Label, string(weights), string(scoringCtx), string(rankings),
		s.PlayerCount, s.TopPlayer, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// GetSnapshot loads one snapshot by ID.
func (r *Repository) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	stmt, err := r.db.GetPreparedStatement(stmtGetSnapshot)
	if err != nil {
		return nil, err
	}

	var (
		s                           Snapshot
		label, top                  sql.NullString
		weights, scoringCtx, ranked string
	)
	err = stmt.QueryRowContext(ctx, id).Scan(&s.ID, &label, &weights, &scoringCtx, &ranked, &s.PlayerCount, &top, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	s.Label, s.TopPlayer = label.String, top.String

	if err := json.Unmarshal([]byte(weights), &s.Weights); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot weights: %w", err)
	}
	if err := json.Unmarshal([]byte(scoringCtx), &s.Context); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot context: %w", err)
	}
	if err := json.Unmarshal([]byte(ranked), &s.Rankings); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot rankings: %w", err)
	}
	return &s, nil
}

// ListSnapshots returns the newest snapshots first.
func (r *Repository) ListSnapshots(ctx context.Context, limit int) ([]SnapshotSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, label, context, player_count, top_player, created_at
		FROM ranking_snapshots
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	out := []SnapshotSummary{}
	for rows.Next() {
		var (
			s          SnapshotSummary
			label, top sql.NullString
			scoringCtx string
		)
		if err := rows.Scan(&s.ID, &label, &scoringCtx, &s.PlayerCount, &top, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		s.Label, s.TopPlayer = label.String, top.String
		if err := json.Unmarshal([]byte(scoringCtx), &s.Context); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot context: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
