package scoring

import (
	"sort"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/reference"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/stats"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/types"
)

var (
	supportGateSingleYear = 9
	supportGateMultiYear  = 10
)

type componentStats struct {
	mean, sd float64
}

// seasonSupport is the league distribution of each team quality component
// for one season.
type seasonSupport struct {
	line, weapons, defense componentStats
}

// supportPopulation precomputes component means and SDs per season.
func supportPopulation(ref *reference.Tables) map[int]seasonSupport {
	out := make(map[int]seasonSupport, len(ref.TeamQuality.Seasons))
	for year, teams := range ref.TeamQuality.Seasons {
		names := make([]string, 0, len(teams))
		for name := range teams {
			names = append(names, name)
		}
		sort.Strings(names)

		line := make([]float64, 0, len(names))
		weapons := make([]float64, 0, len(names))
		defense := make([]float64, 0, len(names))
		for _, name := range names {
			q := teams[name]
			line = append(line, q.OffensiveLine)
			weapons = append(weapons, q.Weapons)
			defense = append(defense, q.Defense)
		}
		out[year] = seasonSupport{
			line:    componentStats{stats.Mean(line), stats.StandardDeviation(line)},
			weapons: componentStats{stats.Mean(weapons), stats.StandardDeviation(weapons)},
			defense: componentStats{stats.Mean(defense), stats.StandardDeviation(defense)},
		}
	}
	return out
}

// teamSupportZ is the sub-weighted composite z of one team-season. Higher
// means a stronger supporting cast.
func teamSupportZ(q reference.TeamQuality, pop seasonSupport, sub SupportSubWeights) float64 {
	wl, ww, wd := weight(sub.OffensiveLine), weight(sub.Weapons), weight(sub.Defense)
	sum := wl + ww + wd
	if sum <= 0 {
		return 0
	}
	zl := stats.ZScore(q.OffensiveLine, pop.line.mean, pop.line.sd, false)
	zw := stats.ZScore(q.Weapons, pop.weapons.mean, pop.weapons.sd, false)
	zd := stats.ZScore(q.Defense, pop.defense.mean, pop.defense.sd, false)
	return (wl*zl + ww*zw + wd*zd) / sum
}

// supportTeams lists the teams a season counts against: every stint with a
// start, or every stint when no start split is recorded.
func supportTeams(s types.SeasonRecord) []string {
	var teams []string
	for _, t := range s.Teams {
		if t.GamesStarted > 0 {
			teams = append(teams, t.Team)
		}
	}
	if len(teams) == 0 {
		for _, t := range s.Teams {
			teams = append(teams, t.Team)
		}
	}
	return teams
}

// SupportScore is the performance-weighted supporting cast z-score. It is
// returned with its natural sign; the composite inverts it so a weaker cast
// helps the quarterback. The second result is false when no season had a
// usable team row.
func (e *Engine) SupportScore(seasons map[int]types.SeasonRecord, sub SupportSubWeights, ctx Context) (float64, bool) {
	gate := supportGateMultiYear
	if ctx.SingleYear() {
		gate = supportGateSingleYear
	}

	var sum, wSum float64
	for _, yw := range ctx.plan(e.ref.YearWeights.Performance) {
		s, ok := seasons[yw.year]
		if !ok || s.GamesStarted < gate {
			continue
		}
		pop, ok := e.support[yw.year]
		if !ok {
			continue
		}
		var teamSum float64
		found := 0
		for _, team := range supportTeams(s) {
			q, ok := e.ref.Team(yw.year, team)
			if !ok {
				continue
			}
			teamSum += teamSupportZ(q, pop, sub)
			found++
		}
		if found == 0 {
			continue
		}
		sum += yw.weight * teamSum / float64(found)
		wSum += yw.weight
	}
	if wSum == 0 {
		return 0, false
	}
	return sum / wSum, true
}
