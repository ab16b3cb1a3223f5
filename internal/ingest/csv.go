// Package ingest reads quarterback season data from tabular files into the
// canonical player schema. Header spellings are normalised through an alias
// table, rows are validated and a season split across teams by a mid-season
// trade is merged into one record.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/go-playground/validator/v10"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/types"
)

var requiredColumns = []string{colYear, colTeam, colGamesStarted, colAttempts, colCompletions, colPassYards}

var validate = validator.New()

// ReadCSV parses one row per player-season-team. Unknown columns are
// ignored. Every invalid row is reported in a single InvalidArgument error.
func ReadCSV(r io.Reader) ([]types.Player, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, invalid("csv input is empty", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	b := rowBuilder{index: make(map[string]int, len(header))}
	for i, h := range header {
		if col, ok := resolveHeader(h); ok {
			if _, dup := b.index[col]; !dup {
				b.index[col] = i
			}
		}
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := b.index[col]; !ok {
			missing = append(missing, col)
		}
	}
	_, hasID := b.index[colPlayerID]
	_, hasName := b.index[colName]
	if !hasID && !hasName {
		missing = append(missing, colName)
	}
	if len(missing) > 0 {
		return nil, invalid("csv is missing required columns: "+strings.Join(missing, ", "), nil)
	}

	var rows []Row
	problems := errbuilder.ErrorMap{}
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}
		if blank(rec) {
			continue
		}
		row, err := b.build(line, rec)
		if err != nil {
			problems.Set(lineKey(line), err)
			continue
		}
		if err := validateRow(row); err != nil {
			problems.Set(lineKey(line), err)
			continue
		}
		rows = append(rows, row)
	}
	if len(problems) > 0 {
		return nil, invalid(fmt.Sprintf("%d invalid csv rows", len(problems)), problems)
	}

	players := Merge(rows)
	if err := Validate(players); err != nil {
		return nil, err
	}
	return players, nil
}

func validateRow(r Row) error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	msgs := make([]string, 0, len(ves))
	for _, fe := range ves {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// ValidateRows checks rows that did not come from a CSV file, keyed by
// player, year and team.
func ValidateRows(rows []Row) error {
	problems := errbuilder.ErrorMap{}
	for _, r := range rows {
		if err := validateRow(r); err != nil {
			problems.Set(fmt.Sprintf("%s/%d/%s", r.PlayerID, r.Year, r.Team), err)
		}
	}
	if len(problems) > 0 {
		return invalid(fmt.Sprintf("%d invalid rows", len(problems)), problems)
	}
	return nil
}

// Merge groups rows into players. Rows sharing a player and year are one
// season: counting stats are summed and each team becomes a stint, in row
// order. Players keep the order of their first row; seasons are sorted by
// year.
func Merge(rows []Row) []types.Player {
	var order []string
	players := make(map[string]*types.Player)
	seasonIdx := make(map[string]map[int]int)

	for _, r := range rows {
		p, ok := players[r.PlayerID]
		if !ok {
			p = &types.Player{ID: r.PlayerID, Name: r.Name}
			players[r.PlayerID] = p
			seasonIdx[r.PlayerID] = make(map[int]int)
			order = append(order, r.PlayerID)
		}
		if r.FirstSeason > 0 && (p.FirstSeason == 0 || r.FirstSeason < p.FirstSeason) {
			p.FirstSeason = r.FirstSeason
		}

		i, ok := seasonIdx[r.PlayerID][r.Year]
		if !ok {
			p.Seasons = append(p.Seasons, types.SeasonRecord{Year: r.Year})
			i = len(p.Seasons) - 1
			seasonIdx[r.PlayerID][r.Year] = i
		}
		addRow(&p.Seasons[i], r)
	}

	out := make([]types.Player, 0, len(order))
	for _, id := range order {
		p := players[id]
		p.SortSeasons()
		out = append(out, *p)
	}
	return out
}

func addRow(s *types.SeasonRecord, r Row) {
	s.GamesStarted += r.GamesStarted
	s.Wins += r.Wins
	s.Losses += r.Losses
	s.Ties += r.Ties
	s.Attempts += r.Attempts
	s.Completions += r.Completions
	s.PassingYards += r.PassingYards
	s.PassingTDs += r.PassingTDs
	s.Interceptions += r.Interceptions
	s.Sacks += r.Sacks
	s.SackYards += r.SackYards
	s.RushAttempts += r.RushAttempts
	s.RushingYards += r.RushingYards
	s.RushingTDs += r.RushingTDs
	s.Fumbles += r.Fumbles
	s.GameWinningDrives += r.GameWinningDrives
	s.FourthQuarterComebacks += r.FourthQuarterComebacks

	merged := false
	for i := range s.Teams {
		if s.Teams[i].Team == r.Team {
			s.Teams[i].GamesStarted += r.GamesStarted
			merged = true
			break
		}
	}
	if !merged {
		s.Teams = append(s.Teams, types.TeamStint{Team: r.Team, GamesStarted: r.GamesStarted})
	}

	if r.hasPlayoffs() {
		if s.Playoffs == nil {
			s.Playoffs = &types.PlayoffRecord{}
		}
		s.Playoffs.Wins += r.PlayoffWins
		s.Playoffs.Losses += r.PlayoffLosses
		s.Playoffs.GamesStarted += r.PlayoffGamesStarted
		s.Playoffs.GameWinningDrives += r.PlayoffGameWinningDrives
		s.Playoffs.FourthQuarterComebacks += r.PlayoffFourthQuarterComebacks
	}
}

// seasonCheck holds the invariants a merged season must satisfy.
type seasonCheck struct {
	GamesStarted int `validate:"gte=0,lte=17"`
	Decided      int `validate:"lte=17"`
	Attempts     int `validate:"gte=0"`
	Completions  int `validate:"gte=0,ltefield=Attempts"`
	PlayoffGames int `validate:"lte=4"`
}

// Validate checks merged seasons: starts and decisions within a regular
// season, completions within attempts and at most one playoff run.
func Validate(players []types.Player) error {
	problems := errbuilder.ErrorMap{}
	for _, p := range players {
		for _, s := range p.Seasons {
			c := seasonCheck{
				GamesStarted: s.GamesStarted,
				Decided:      s.DecidedGames(),
				Attempts:     s.Attempts,
				Completions:  s.Completions,
				PlayoffGames: s.Playoffs.Games(),
			}
			if err := validate.Struct(c); err != nil {
				var ves validator.ValidationErrors
				if errors.As(err, &ves) {
					msgs := make([]string, 0, len(ves))
					for _, fe := range ves {
						msgs = append(msgs, describe(fe))
					}
					err = errors.New(strings.Join(msgs, "; "))
				}
				problems.Set(fmt.Sprintf("%s/%d", p.ID, s.Year), err)
			}
		}
	}
	if len(problems) > 0 {
		return invalid(fmt.Sprintf("%d invalid seasons", len(problems)), problems)
	}
	return nil
}

func invalid(msg string, details errbuilder.ErrorMap) error {
	b := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(msg)
	if len(details) > 0 {
		b = b.WithDetails(errbuilder.NewErrDetails(details))
	}
	return b
}

func lineKey(line int) string {
	return fmt.Sprintf("line %d", line)
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
