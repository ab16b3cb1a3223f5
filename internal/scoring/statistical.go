package scoring

import (
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/reference"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/stats"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/types"
)

var (
	tierMultipliers = []float64{1.00, 0.90, 0.80, 0.65, 0.50, 0.35}
	tierFloor       = 0.20

	efficiencyPoints = []statPoints{
		{reference.StatANYA, 25},
		{reference.StatTDPct, 12},
		{reference.StatCmpPct, 8},
	}
	protectionPoints = []statPoints{
		{reference.StatSackPct, 10},
		{reference.StatIntPct, 8},
		{reference.StatFumblePct, 7},
	}

	defaultStatsShares = StatsSubWeights{Efficiency: 0.45, Protection: 0.25, Volume: 0.30}
)

type statPoints struct {
	stat   string
	points float64
}

// volumeStat is one counting stat interpolated between a floor and a cap.
// perSeason floors scale by games/17 along with the caps, so a short season
// keeps a non-empty range; per-game stats are not scaled.
type volumeStat struct {
	points     float64
	floor, cap float64
	perSeason  bool
}

var (
	volPassYards = volumeStat{points: 8, floor: 2500, cap: 4800, perSeason: true}
	volPassTDs   = volumeStat{points: 7, floor: 15, cap: 40, perSeason: true}
	volAttPerGm  = volumeStat{points: 5, floor: 28, cap: 40}
	volRushTDs   = volumeStat{points: 4, floor: 0, cap: 6, perSeason: true}
	volRushYards = volumeStat{points: 4, floor: 50, cap: 600, perSeason: true}
)

func (v volumeStat) score(value, scale float64) float64 {
	lo, hi := v.floor, v.cap
	if v.perSeason {
		lo, hi = lo*scale, hi*scale
	}
	if hi <= lo {
		return 0
	}
	return v.points * stats.Clamp((value-lo)/(hi-lo), 0, 1)
}

// turnoverSteps maps season INT+fumble totals to an additive adjustment.
var turnoverSteps = []struct {
	max int
	adj float64
}{
	{8, 2},
	{12, 1},
	{16, 0},
	{20, -1},
	{25, -2},
}

func turnoverAdjustment(turnovers int) float64 {
	for _, s := range turnoverSteps {
		if turnovers <= s.max {
			return s.adj
		}
	}
	return -3
}

// RateStats are the per-season efficiency and protection rates. Percentages
// are on a 0-100 scale.
type RateStats struct {
	ANYA      float64 `json:"any_a"`
	CmpPct    float64 `json:"cmp_pct"`
	TDPct     float64 `json:"td_pct"`
	IntPct    float64 `json:"int_pct"`
	SackPct   float64 `json:"sack_pct"`
	FumblePct float64 `json:"fumble_pct"`
}

// Rates derives RateStats from a season. Fumble% is over all plays.
func Rates(s types.SeasonRecord) RateStats {
	att := float64(s.Attempts)
	dropbacks := att + float64(s.Sacks)
	plays := dropbacks + float64(s.RushAttempts)

	var r RateStats
	if dropbacks > 0 {
		r.ANYA = (float64(s.PassingYards) + 20*float64(s.PassingTDs) -
			45*float64(s.Interceptions) - float64(s.SackYards)) / dropbacks
		r.SackPct = 100 * float64(s.Sacks) / dropbacks
	}
	if att > 0 {
		r.CmpPct = 100 * float64(s.Completions) / att
		r.TDPct = 100 * float64(s.PassingTDs) / att
		r.IntPct = 100 * float64(s.Interceptions) / att
	}
	if plays > 0 {
		r.FumblePct = 100 * float64(s.Fumbles) / plays
	}
	return r
}

func (r RateStats) value(stat string) float64 {
	switch stat {
	case reference.StatANYA:
		return r.ANYA
	case reference.StatCmpPct:
		return r.CmpPct
	case reference.StatTDPct:
		return r.TDPct
	case reference.StatIntPct:
		return r.IntPct
	case reference.StatSackPct:
		return r.SackPct
	case reference.StatFumblePct:
		return r.FumblePct
	}
	return 0
}

// TierMultiplier places value on the benchmark's step ladder. Lower-is-better
// stats compare with <=.
func TierMultiplier(value float64, b reference.Benchmark) float64 {
	for i, cut := range b.Ladder()[:len(tierMultipliers)] {
		if (b.HigherIsBetter && value >= cut) || (!b.HigherIsBetter && value <= cut) {
			return tierMultipliers[i]
		}
	}
	return tierFloor
}

// PerformanceBreakdown is one season's Statistical Performance by tier,
// before sub-weight scaling.
type PerformanceBreakdown struct {
	Efficiency float64 `json:"efficiency"`
	Protection float64 `json:"protection"`
	Volume     float64 `json:"volume"`
	Turnovers  float64 `json:"turnovers"`
}

// BreakdownFor scores one season against the benchmark tables.
func BreakdownFor(s types.SeasonRecord, ref *reference.Tables) PerformanceBreakdown {
	rates := Rates(s)
	tier := func(allocation []statPoints) float64 {
		total := 0.0
		for _, sp := range allocation {
			if b, ok := ref.Benchmark(sp.stat); ok {
				total += sp.points * TierMultiplier(rates.value(sp.stat), b)
			}
		}
		return total
	}

	games := float64(s.GamesStarted)
	if games < 1 {
		games = 1
	}
	scale := games / types.RegularSeasonGames
	volume := volPassYards.score(float64(s.PassingYards), scale) +
		volPassTDs.score(float64(s.PassingTDs), scale) +
		volAttPerGm.score(float64(s.Attempts)/games, scale) +
		volRushTDs.score(float64(s.RushingTDs), scale) +
		volRushYards.score(float64(s.RushingYards), scale)

	return PerformanceBreakdown{
		Efficiency: tier(efficiencyPoints),
		Protection: tier(protectionPoints),
		Volume:     volume,
		Turnovers:  turnoverAdjustment(s.TotalTurnovers()),
	}
}

// tierScales converts user sub-weights into per-tier multipliers relative
// to the default split, so the default weights leave points unchanged.
func (w StatsSubWeights) tierScales() (eff, prot, vol float64) {
	e, p, v := weight(w.Efficiency), weight(w.Protection), weight(w.Volume)
	sum := e + p + v
	if sum <= 0 {
		return 0, 0, 0
	}
	return (e / sum) / defaultStatsShares.Efficiency,
		(p / sum) / defaultStatsShares.Protection,
		(v / sum) / defaultStatsShares.Volume
}

// StatisticalPerformanceScore is the performance-weighted 0-100 rating of a
// player's passing and rushing production.
func StatisticalPerformanceScore(seasons map[int]types.SeasonRecord, sub StatsSubWeights, ctx Context, ref *reference.Tables) float64 {
	eff, prot, vol := sub.tierScales()

	var sum, wSum float64
	for _, yw := range ctx.plan(ref.YearWeights.Performance) {
		s, ok := seasons[yw.year]
		if !ok || s.Attempts <= 0 {
			continue
		}
		b := BreakdownFor(s, ref)
		season := b.Efficiency*eff + b.Protection*prot + b.Volume*vol + b.Turnovers
		sum += yw.weight * season
		wSum += yw.weight
	}
	if wSum == 0 {
		return 0
	}
	return stats.Clamp(sum/wSum, 0, 100)
}
