package scoring

import (
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/reference"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/types"
)

func testTables() *reference.Tables {
	return reference.MustLoadDefault()
}

// eliteSeason hits p95 or better on every efficiency and protection rate.
func eliteSeason(year int, team string) types.SeasonRecord {
	return types.SeasonRecord{
		Year:                   year,
		GamesStarted:           17,
		Wins:                   14,
		Losses:                 3,
		Attempts:               500,
		Completions:            355,
		PassingYards:           4300,
		PassingTDs:             33,
		Interceptions:          5,
		Sacks:                  15,
		SackYards:              100,
		RushAttempts:           40,
		RushingYards:           200,
		RushingTDs:             2,
		Fumbles:                2,
		GameWinningDrives:      3,
		FourthQuarterComebacks: 2,
		Teams:                  []types.TeamStint{{Team: team, GamesStarted: 17}},
	}
}

func averageSeason(year int, team string, gs int) types.SeasonRecord {
	return types.SeasonRecord{
		Year:          year,
		GamesStarted:  gs,
		Wins:          gs / 2,
		Losses:        gs - gs/2,
		Attempts:      33 * gs,
		Completions:   21 * gs,
		PassingYards:  230 * gs,
		PassingTDs:    gs * 3 / 2,
		Interceptions: gs * 3 / 4,
		Sacks:         2 * gs,
		SackYards:     13 * gs,
		RushAttempts:  3 * gs,
		RushingYards:  12 * gs,
		Fumbles:       gs / 3,
		Teams:         []types.TeamStint{{Team: team, GamesStarted: gs}},
	}
}

func player(id, name string, seasons ...types.SeasonRecord) types.Player {
	return types.Player{ID: id, Name: name, FirstSeason: 2015, Seasons: seasons}
}

func seasonMap(seasons ...types.SeasonRecord) map[int]types.SeasonRecord {
	return player("x", "x", seasons...).SeasonMap()
}
