package scoring

import (
	"math"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/reference"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/types"
)

var (
	availabilityPoints   = 80.0
	fullSeasonStarts     = 16
	nearFullSeasonStarts = 14
	fullSeasonBonus      = 10.0
	nearFullSeasonBonus  = 5.0
	activeYearsForBonus  = 3
	multiYearBonus       = 5.0
	consistencyBonusCap  = 20.0
)

// DurabilityScore is linear on 0-100: stability-weighted availability worth
// up to 80 plus a consistency bonus worth up to 20. It is not a z-score.
func DurabilityScore(seasons map[int]types.SeasonRecord, ctx Context, ref *reference.Tables) float64 {
	var availSum, wSum, bonus float64
	active := 0
	for _, yw := range ctx.plan(ref.YearWeights.Stability) {
		s, ok := seasons[yw.year]
		if !ok {
			continue
		}
		availSum += yw.weight * math.Min(1, float64(s.GamesStarted)/types.RegularSeasonGames)
		wSum += yw.weight

		switch {
		case s.GamesStarted >= fullSeasonStarts:
			bonus += fullSeasonBonus
		case s.GamesStarted >= nearFullSeasonStarts:
			bonus += nearFullSeasonBonus
		}
		if s.GamesStarted > 0 {
			active++
		}
	}
	if wSum == 0 {
		return 0
	}
	if active >= activeYearsForBonus {
		bonus += multiYearBonus
	}
	return availabilityPoints*availSum/wSum + math.Min(consistencyBonusCap, bonus)
}
