package database

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/scoring"
)

// Prepared statement names.
const (
	stmtUpsertPlayer      = "upsert_player"
	stmtDeleteSeasons     = "delete_seasons"
	stmtDeleteSeasonTeams = "delete_season_teams"
	stmtInsertSeason      = "insert_season"
	stmtInsertSeasonTeam  = "insert_season_team"
	stmtInsertSnapshot    = "insert_snapshot"
	stmtGetSnapshot       = "get_snapshot"
)

const seasonColumns = `player_id, year, games_started, wins, losses, ties,
	attempts, completions, passing_yards, passing_tds, interceptions, sacks, sack_yards,
	rush_attempts, rushing_yards, rushing_tds, fumbles,
	game_winning_drives, fourth_quarter_comebacks, has_playoffs,
	playoff_wins, playoff_losses, playoff_games_started,
	playoff_game_winning_drives, playoff_fourth_quarter_comebacks`

// ErrSnapshotNotFound is returned when no snapshot has the requested ID.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is a persisted ranking with the request that produced it.
type Snapshot struct {
	ID          string            `json:"id" db:"id"`
	Label       string            `json:"label,omitempty" db:"label"`
	Weights     scoring.Weights   `json:"weights" db:"weights"`
	Context     scoring.Context   `json:"context" db:"context"`
	Rankings    []scoring.Ranking `json:"rankings" db:"rankings"`
	PlayerCount int               `json:"player_count" db:"player_count"`
	TopPlayer   string            `json:"top_player,omitempty" db:"top_player"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
}

// SnapshotSummary is a snapshot without its ranking rows.
type SnapshotSummary struct {
	ID          string          `json:"id"`
	Label       string          `json:"label,omitempty"`
	Context     scoring.Context `json:"context"`
	PlayerCount int             `json:"player_count"`
	TopPlayer   string          `json:"top_player,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewSnapshot stamps a ranking with a fresh ID and creation time.
func NewSnapshot(label string, w scoring.Weights, ctx scoring.Context, rankings []scoring.Ranking) *Snapshot {
	s := &Snapshot{
		ID:          uuid.New().String(),
		Label:       label,
		Weights:     w,
		Context:     ctx,
		Rankings:    rankings,
		PlayerCount: len(rankings),
		CreatedAt:   time.Now().UTC(),
	}
	if len(rankings) > 0 && !rankings[0].Rejected {
		s.TopPlayer = rankings[0].Name
	}
	return s
}
