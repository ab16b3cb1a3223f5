package types

import "sort"

// RegularSeasonGames is the number of games in an NFL regular season.
const RegularSeasonGames = 17

// PlayoffRecord is one player-year of postseason results.
type PlayoffRecord struct {
	Wins                   int `json:"wins"`
	Losses                 int `json:"losses"`
	GamesStarted           int `json:"games_started"`
	GameWinningDrives      int `json:"game_winning_drives"`
	FourthQuarterComebacks int `json:"fourth_quarter_comebacks"`
}

// Games is the number of playoff games played.
func (p *PlayoffRecord) Games() int {
	if p == nil {
		return 0
	}
	return p.Wins + p.Losses
}

// TeamStint is the part of a season spent with one team.
type TeamStint struct {
	Team         string `json:"team"`
	GamesStarted int    `json:"games_started"`
}

// SeasonRecord is one player-year in the canonical schema. Source formats
// are translated into this shape at the ingestion boundary.
type SeasonRecord struct {
	Year         int `json:"year"`
	GamesStarted int `json:"games_started"`
	Wins         int `json:"wins"`
	Losses       int `json:"losses"`
	Ties         int `json:"ties"`

	Attempts      int `json:"attempts"`
	Completions   int `json:"completions"`
	PassingYards  int `json:"passing_yards"`
	PassingTDs    int `json:"passing_tds"`
	Interceptions int `json:"interceptions"`
	Sacks         int `json:"sacks"`
	SackYards     int `json:"sack_yards"`

	RushAttempts int `json:"rush_attempts"`
	RushingYards int `json:"rushing_yards"`
	RushingTDs   int `json:"rushing_tds"`
	Fumbles      int `json:"fumbles"`

	GameWinningDrives      int `json:"game_winning_drives"`
	FourthQuarterComebacks int `json:"fourth_quarter_comebacks"`

	Teams    []TeamStint    `json:"teams"`
	Playoffs *PlayoffRecord `json:"playoffs,omitempty"`
}

// PrimaryTeam is the team with the most starts that season.
func (s SeasonRecord) PrimaryTeam() string {
	best, bestGS := "", -1
	for _, t := range s.Teams {
		if t.GamesStarted > bestGS {
			best, bestGS = t.Team, t.GamesStarted
		}
	}
	return best
}

// TotalTurnovers is interceptions plus fumbles.
func (s SeasonRecord) TotalTurnovers() int {
	return s.Interceptions + s.Fumbles
}

// DecidedGames is wins + losses + ties.
func (s SeasonRecord) DecidedGames() int {
	return s.Wins + s.Losses + s.Ties
}

// HasPassingData reports whether the season holds enough data to score.
func (s SeasonRecord) HasPassingData() bool {
	return s.Attempts > 0 && s.GamesStarted > 0 && s.PassingYards != 0
}

// Player is a quarterback and his seasons, ordered by year.
type Player struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	FirstSeason int            `json:"first_season,omitempty"`
	Seasons     []SeasonRecord `json:"seasons"`
}

// Season returns the record for year, if any.
func (p Player) Season(year int) (SeasonRecord, bool) {
	for _, s := range p.Seasons {
		if s.Year == year {
			return s, true
		}
	}
	return SeasonRecord{}, false
}

// SeasonMap indexes the player's seasons by year.
func (p Player) SeasonMap() map[int]SeasonRecord {
	m := make(map[int]SeasonRecord, len(p.Seasons))
	for _, s := range p.Seasons {
		m[s.Year] = s
	}
	return m
}

// SortSeasons orders seasons by ascending year.
func (p *Player) SortSeasons() {
	sort.SliceStable(p.Seasons, func(i, j int) bool {
		return p.Seasons[i].Year < p.Seasons[j].Year
	})
}

// Experience is the player's season number in year: 1 for a rookie. Without
// FirstSeason it counts every season on record through year in which the
// player started or threw a pass.
func (p Player) Experience(year int) int {
	if p.FirstSeason > 0 {
		if year < p.FirstSeason {
			return 0
		}
		return year - p.FirstSeason + 1
	}
	n := 0
	for _, s := range p.Seasons {
		if s.Year <= year && (s.GamesStarted > 0 || s.Attempts > 0) {
			n++
		}
	}
	return n
}
