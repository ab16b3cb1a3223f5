package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Row is one CSV line: a player's season with one team.
type Row struct {
	Line int `json:"-" validate:"-"`

	PlayerID    string `json:"player_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Year        int    `json:"year" validate:"gte=1920,lte=2100"`
	Team        string `json:"team" validate:"required"`
	FirstSeason int    `json:"first_season" validate:"omitempty,gte=1920,ltefield=Year"`

	GamesStarted int `json:"games_started" validate:"gte=0,lte=17"`
	Wins         int `json:"wins" validate:"gte=0,lte=17"`
	Losses       int `json:"losses" validate:"gte=0,lte=17"`
	Ties         int `json:"ties" validate:"gte=0,lte=17"`

	Attempts      int `json:"attempts" validate:"gte=0"`
	Completions   int `json:"completions" validate:"gte=0,ltefield=Attempts"`
	PassingYards  int `json:"passing_yards"`
	PassingTDs    int `json:"passing_tds" validate:"gte=0"`
	Interceptions int `json:"interceptions" validate:"gte=0"`
	Sacks         int `json:"sacks" validate:"gte=0"`
	SackYards     int `json:"sack_yards" validate:"gte=0"`

	RushAttempts int `json:"rush_attempts" validate:"gte=0"`
	RushingYards int `json:"rushing_yards"`
	RushingTDs   int `json:"rushing_tds" validate:"gte=0"`
	Fumbles      int `json:"fumbles" validate:"gte=0"`

	GameWinningDrives      int `json:"game_winning_drives" validate:"gte=0"`
	FourthQuarterComebacks int `json:"fourth_quarter_comebacks" validate:"gte=0"`

	PlayoffWins                   int `json:"playoff_wins" validate:"gte=0,lte=4"`
	PlayoffLosses                 int `json:"playoff_losses" validate:"gte=0,lte=1"`
	PlayoffGamesStarted           int `json:"playoff_games_started" validate:"gte=0,lte=4"`
	PlayoffGameWinningDrives      int `json:"playoff_game_winning_drives" validate:"gte=0"`
	PlayoffFourthQuarterComebacks int `json:"playoff_fourth_quarter_comebacks" validate:"gte=0"`
}

func (r Row) hasPlayoffs() bool {
	return r.PlayoffWins+r.PlayoffLosses+r.PlayoffGamesStarted > 0
}

// rowBuilder fills a Row from one CSV record using a resolved header.
type rowBuilder struct {
	index map[string]int
}

func (b rowBuilder) str(rec []string, col string) string {
	i, ok := b.index[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (b rowBuilder) integer(rec []string, col string) (int, error) {
	s := strings.ReplaceAll(b.str(rec, col), ",", "")
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("column %s: %q is not a whole number", col, s)
	}
	return int(f), nil
}

func (b rowBuilder) build(line int, rec []string) (Row, error) {
	r := Row{
		Line:     line,
		PlayerID: b.str(rec, colPlayerID),
		Name:     b.str(rec, colName),
		Team:     strings.ToUpper(b.str(rec, colTeam)),
	}
	if r.PlayerID == "" {
		r.PlayerID = slug(r.Name)
	}

	ints := []struct {
		col string
		dst *int
	}{
		{colYear, &r.Year},
		{colFirstSeason, &r.FirstSeason},
		{colGamesStarted, &r.GamesStarted},
		{colWins, &r.Wins},
		{colLosses, &r.Losses},
		{colTies, &r.Ties},
		{colAttempts, &r.Attempts},
		{colCompletions, &r.Completions},
		{colPassYards, &r.PassingYards},
		{colPassTDs, &r.PassingTDs},
		{colInts, &r.Interceptions},
		{colSacks, &r.Sacks},
		{colSackYards, &r.SackYards},
		{colRushAtt, &r.RushAttempts},
		{colRushYards, &r.RushingYards},
		{colRushTDs, &r.RushingTDs},
		{colFumbles, &r.Fumbles},
		{colGWD, &r.GameWinningDrives},
		{col4QC, &r.FourthQuarterComebacks},
		{colPOWins, &r.PlayoffWins},
		{colPOLosses, &r.PlayoffLosses},
		{colPOStarts, &r.PlayoffGamesStarted},
		{colPOGWD, &r.PlayoffGameWinningDrives},
		{colPO4QC, &r.PlayoffFourthQuarterComebacks},
	}
	for _, f := range ints {
		n, err := b.integer(rec, f.col)
		if err != nil {
			return Row{}, err
		}
		*f.dst = n
	}
	return r, nil
}

// slug derives a stable player ID from a display name.
func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func describe(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s failed %s (got %v)", fe.Field(), fe.Tag(), fe.Value())
}
