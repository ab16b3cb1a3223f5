package scoring

import (
	"math"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/reference"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/types"
)

// Playoff round identifiers in bracket order.
const (
	roundWildCard = iota
	roundDivisional
	roundConference
	roundSuperBowl
)

var (
	// roundWeights scale each playoff game's contribution to win%.
	roundWeights = map[int]float64{
		roundWildCard:   0.35,
		roundDivisional: 0.45,
		roundConference: 0.55,
		roundSuperBowl:  0.65,
	}
	byeWinWeight = 0.30

	winPctExponent     = 0.8
	regularScoreMax    = 50.0
	availabilityMax    = 15.0
	achievementCap     = 45.0
	teamScoreCap       = 100.0
	superBowlWinPts    = 15.0
	superBowlLossPts   = 10.0
	conferenceWinPts   = 8.0
	conferenceLossPts  = 6.0
	playoffStartPts    = 1.5
	achievementShareKx = 2.0
)

// playoffRun reconstructs a postseason from a win/loss line. Playoff teams
// lose at most once, so a run is its wins followed by an optional loss.
type playoffRun struct {
	rounds []int
	wins   int
	games  int
	bye    bool
}

func newPlayoffRun(po *types.PlayoffRecord, bye bool) playoffRun {
	rounds := []int{roundWildCard, roundDivisional, roundConference, roundSuperBowl}
	if bye {
		rounds = rounds[1:]
	}
	games := po.Games()
	if games > len(rounds) {
		games = len(rounds)
	}
	wins := po.Wins
	if wins > games {
		wins = games
	}
	return playoffRun{rounds: rounds, wins: wins, games: games, bye: bye}
}

// credit returns round-weighted wins and games, counting a bye as a win.
func (r playoffRun) credit() (wins, games float64) {
	for i := 0; i < r.games; i++ {
		w := roundWeights[r.rounds[i]]
		games += w
		if i < r.wins {
			wins += w
		}
	}
	if r.bye {
		wins += byeWinWeight
		games += byeWinWeight
	}
	return wins, games
}

func (r playoffRun) reachedSuperBowl() bool { return r.games == len(r.rounds) }
func (r playoffRun) wonSuperBowl() bool     { return r.wins == len(r.rounds) }
func (r playoffRun) wonConference() bool    { return r.wins >= len(r.rounds)-1 }
func (r playoffRun) playedConference() bool { return r.games >= len(r.rounds)-1 }

// achievement scores one postseason: deep runs and playoff starts.
func (r playoffRun) achievement(starts int) float64 {
	pts := 0.0
	switch {
	case r.wonSuperBowl():
		pts += superBowlWinPts
	case r.reachedSuperBowl():
		pts += superBowlLossPts
	case r.wonConference():
		pts += conferenceWinPts
	case r.playedConference():
		pts += conferenceLossPts
	}
	return pts + playoffStartPts*float64(starts)
}

// TeamSuccessScore rates winning on a 0-100 scale: a concave win% term,
// an availability bonus and, with playoffs included, a postseason
// achievement term scaled by the playoff sub-weight.
func TeamSuccessScore(seasons map[int]types.SeasonRecord, sub TeamSubWeights, ctx Context, ref *reference.Tables) float64 {
	regShare, poShare := sub.shares()

	var winSum, availSum, wSum, achievement float64
	for _, yw := range ctx.plan(ref.YearWeights.RegularSeason) {
		s, ok := seasons[yw.year]
		if !ok || s.DecidedGames() == 0 {
			continue
		}
		decided := float64(s.DecidedGames())
		credited := float64(s.Wins) + 0.5*float64(s.Ties)
		yearPct := credited / decided

		starts := float64(s.GamesStarted)
		slots := float64(types.RegularSeasonGames)
		if ctx.IncludePlayoffs && s.Playoffs.Games() > 0 {
			run := newPlayoffRun(s.Playoffs, ref.Seasons.HadBye(yw.year, s.PrimaryTeam()))
			pw, pg := run.credit()
			postPct := (credited + pw) / (decided + pg)
			yearPct = regShare*yearPct + poShare*postPct

			starts += float64(s.Playoffs.GamesStarted)
			slots += float64(s.Playoffs.Games())
			achievement += run.achievement(s.Playoffs.GamesStarted)
		}

		winSum += yw.weight * yearPct
		availSum += yw.weight * math.Min(1, starts/slots)
		wSum += yw.weight
	}
	if wSum == 0 {
		return 0
	}

	score := math.Pow(winSum/wSum, winPctExponent)*regularScoreMax + availSum/wSum*availabilityMax
	if ctx.IncludePlayoffs {
		score += math.Min(achievementCap, achievement) * math.Min(1, achievementShareKx*poShare)
	}
	return math.Min(teamScoreCap, score)
}
