package scoring

import (
	"math"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/reference"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/types"
)

// clutchComponent caps a per-game rate: full points at fullRate.
type clutchComponent struct {
	cap      float64
	fullRate float64
}

func (c clutchComponent) score(rate float64) float64 {
	if rate <= 0 {
		return 0
	}
	return math.Min(c.cap, c.cap*rate/c.fullRate)
}

var (
	clutchGWD      = clutchComponent{cap: 40, fullRate: 0.25}
	clutchComeback = clutchComponent{cap: 25, fullRate: 0.20}
	clutchCombined = clutchComponent{cap: 15, fullRate: 0.40}

	playoffSuccessMax   = 20.0
	playoffSuccessGames = 4.0
)

// playoffClutchMultiplier weights late-game heroics by how deep the run went.
func playoffClutchMultiplier(games int) float64 {
	switch {
	case games <= 0:
		return 1
	case games == 1:
		return 1.06
	case games == 2:
		return 1.10
	case games == 3:
		return 1.16
	default:
		return 1.22
	}
}

// ClutchScore rates game-winning drives and fourth-quarter comebacks per
// start on a 0-100 scale, plus a playoff success bonus when playoffs count.
func ClutchScore(seasons map[int]types.SeasonRecord, ctx Context, ref *reference.Tables) float64 {
	table := ref.YearWeights.RegularSeason
	if ctx.IncludePlayoffs {
		table = ref.YearWeights.Playoff
	}

	var gwdRate, qcRate, combinedRate, wSum float64
	var poWins, poGames int
	for _, yw := range ctx.plan(table) {
		s, ok := seasons[yw.year]
		if !ok || s.GamesStarted <= 0 {
			continue
		}
		games := float64(s.GamesStarted)
		gwd := float64(s.GameWinningDrives)
		qc := float64(s.FourthQuarterComebacks)
		if ctx.IncludePlayoffs && s.Playoffs.Games() > 0 {
			po := s.Playoffs
			mult := playoffClutchMultiplier(po.Games())
			gwd += float64(po.GameWinningDrives) * mult
			qc += float64(po.FourthQuarterComebacks) * mult
			starts := po.GamesStarted
			if starts <= 0 {
				starts = po.Games()
			}
			games += float64(starts)
			poWins += po.Wins
			poGames += po.Games()
		}

		gwdRate += yw.weight * gwd / games
		qcRate += yw.weight * qc / games
		combinedRate += yw.weight * (gwd + qc) / games
		wSum += yw.weight
	}
	if wSum == 0 {
		return 0
	}

	score := clutchGWD.score(gwdRate/wSum) +
		clutchComeback.score(qcRate/wSum) +
		clutchCombined.score(combinedRate/wSum)
	if ctx.IncludePlayoffs && poGames > 0 {
		winRate := float64(poWins) / float64(poGames)
		score += playoffSuccessMax * winRate * math.Min(1, float64(poGames)/playoffSuccessGames)
	}
	return math.Min(100, score)
}
