package ingest

import (
	"strings"
	"unicode"
)

// Canonical column keys.
const (
	colPlayerID     = "player_id"
	colName         = "name"
	colYear         = "year"
	colTeam         = "team"
	colFirstSeason  = "first_season"
	colGamesStarted = "games_started"
	colWins         = "wins"
	colLosses       = "losses"
	colTies         = "ties"
	colAttempts     = "attempts"
	colCompletions  = "completions"
	colPassYards    = "passing_yards"
	colPassTDs      = "passing_tds"
	colInts         = "interceptions"
	colSacks        = "sacks"
	colSackYards    = "sack_yards"
	colRushAtt      = "rush_attempts"
	colRushYards    = "rushing_yards"
	colRushTDs      = "rushing_tds"
	colFumbles      = "fumbles"
	colGWD          = "game_winning_drives"
	col4QC          = "fourth_quarter_comebacks"
	colPOWins       = "playoff_wins"
	colPOLosses     = "playoff_losses"
	colPOStarts     = "playoff_games_started"
	colPOGWD        = "playoff_game_winning_drives"
	colPO4QC        = "playoff_fourth_quarter_comebacks"
)

// aliases maps normalised header spellings to canonical keys. Every
// canonical key is also accepted as written.
var aliases = map[string]string{
	"id": colPlayerID, "playerid": colPlayerID, "pfrid": colPlayerID,
	"player": colName, "playername": colName,
	"season": colYear,
	"tm": colTeam,
	"rookieyear": colFirstSeason, "rookieseason": colFirstSeason, "debut": colFirstSeason,
	"gs": colGamesStarted, "starts": colGamesStarted,
	"w": colWins,
	"l": colLosses,
	"t": colTies,
	"att": colAttempts, "passatt": colAttempts, "passattempts": colAttempts,
	"cmp": colCompletions, "comp": colCompletions, "passcmp": colCompletions,
	"yds": colPassYards, "passyds": colPassYards, "passyards": colPassYards, "passingyds": colPassYards,
	"td": colPassTDs, "passtd": colPassTDs, "passtds": colPassTDs, "passingtd": colPassTDs,
	"int": colInts, "ints": colInts,
	"sk": colSacks, "sacked": colSacks,
	"sackyds": colSackYards, "ydslost": colSackYards, "sackyards": colSackYards,
	"rushatt": colRushAtt, "rushingatt": colRushAtt, "rushingattempts": colRushAtt, "carries": colRushAtt,
	"rushyds": colRushYards, "rushingyds": colRushYards, "rushyards": colRushYards,
	"rushtd": colRushTDs, "rushtds": colRushTDs, "rushingtd": colRushTDs,
	"fmb": colFumbles, "fum": colFumbles,
	"gwd": colGWD,
	"4qc": col4QC, "comebacks": col4QC,
	"playoffw": colPOWins, "pow": colPOWins,
	"playoffl": colPOLosses, "pol": colPOLosses,
	"playoffgs": colPOStarts, "pogs": colPOStarts,
	"playoffgwd": colPOGWD, "pogwd": colPOGWD,
	"playoff4qc": colPO4QC, "po4qc": colPO4QC,
}

var canonical = []string{
	colPlayerID, colName, colYear, colTeam, colFirstSeason, colGamesStarted,
	colWins, colLosses, colTies, colAttempts, colCompletions, colPassYards,
	colPassTDs, colInts, colSacks, colSackYards, colRushAtt, colRushYards,
	colRushTDs, colFumbles, colGWD, col4QC, colPOWins, colPOLosses,
	colPOStarts, colPOGWD, colPO4QC,
}

func init() {
	for _, c := range canonical {
		aliases[normalizeHeader(c)] = c
	}
}

// normalizeHeader lowercases h and drops everything but letters and digits,
// so "Rushing Yds", "rushing_yds" and "RushingYds" compare equal.
func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// resolveHeader returns the canonical key for a header cell, if known.
func resolveHeader(h string) (string, bool) {
	c, ok := aliases[normalizeHeader(h)]
	return c, ok
}
