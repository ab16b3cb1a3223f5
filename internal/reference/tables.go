// Package reference loads the static calibration tables the scoring engine
// reads: recency year weights, percentile benchmarks, team quality scores
// and season metadata. The tables are versioned JSON shipped with the code.
package reference

import (
	"fmt"
	"math"
	"sort"
)

// Benchmark keys.
const (
	StatANYA       = "any_a"
	StatTDPct      = "td_pct"
	StatCmpPct     = "cmp_pct"
	StatIntPct     = "int_pct"
	StatSackPct    = "sack_pct"
	StatFumblePct  = "fumble_pct"
	teamsPerSeason = 32
)

// Team quality component ranges.
const (
	MaxOffensiveLine = 35.0
	MaxWeapons       = 40.0
	MaxDefense       = 25.0
)

// YearWeights maps a season year to its blending weight.
type YearWeights map[int]float64

// Weight returns the weight for year, 0 when absent.
func (w YearWeights) Weight(year int) float64 {
	return w[year]
}

// Sum of all weights.
func (w YearWeights) Sum() float64 {
	s := 0.0
	for _, v := range w {
		s += v
	}
	return s
}

// Years in ascending order.
func (w YearWeights) Years() []int {
	ys := make([]int, 0, len(w))
	for y := range w {
		ys = append(ys, y)
	}
	sort.Ints(ys)
	return ys
}

// YearWeightSet holds the four recency policies.
type YearWeightSet struct {
	Version       string      `json:"version"`
	Performance   YearWeights `json:"performance"`
	Playoff       YearWeights `json:"playoff"`
	RegularSeason YearWeights `json:"regular_season"`
	Stability     YearWeights `json:"stability"`
}

func (s YearWeightSet) named() map[string]YearWeights {
	return map[string]YearWeights{
		"performance":    s.Performance,
		"playoff":        s.Playoff,
		"regular_season": s.RegularSeason,
		"stability":      s.Stability,
	}
}

// Benchmark holds percentile cut points in goodness order: for a
// lower-is-better stat P95 is the smallest value.
type Benchmark struct {
	HigherIsBetter bool    `json:"higher_is_better"`
	P95            float64 `json:"p95"`
	P90            float64 `json:"p90"`
	P75            float64 `json:"p75"`
	P50            float64 `json:"p50"`
	P25            float64 `json:"p25"`
	P10            float64 `json:"p10"`
	P5             float64 `json:"p5"`
}

// Ladder returns the cut points from p95 down to p5.
func (b Benchmark) Ladder() []float64 {
	return []float64{b.P95, b.P90, b.P75, b.P50, b.P25, b.P10, b.P5}
}

// BenchmarkSet is the percentile benchmark file.
type BenchmarkSet struct {
	Version    string               `json:"version"`
	Population string               `json:"population"`
	Stats      map[string]Benchmark `json:"stats"`
}

// TeamQuality is one team-season of supporting cast scores.
type TeamQuality struct {
	OffensiveLine float64 `json:"offensive_line"`
	Weapons       float64 `json:"weapons"`
	Defense       float64 `json:"defense"`
}

// Total is the sum of the three components (0-100).
func (q TeamQuality) Total() float64 {
	return q.OffensiveLine + q.Weapons + q.Defense
}

// TeamQualitySet is the team quality file.
type TeamQualitySet struct {
	Version string                         `json:"version"`
	Seasons map[int]map[string]TeamQuality `json:"seasons"`
}

// SeasonConfig describes the supported seasons.
type SeasonConfig struct {
	Version              string           `json:"version"`
	Years                []int            `json:"years"`
	CurrentSeason        int              `json:"current_season"`
	CurrentSeasonPartial bool             `json:"current_season_partial"`
	FirstRoundByes       map[int][]string `json:"first_round_byes"`
}

// HadBye reports whether team held a first-round bye in year.
func (c SeasonConfig) HadBye(year int, team string) bool {
	for _, t := range c.FirstRoundByes[year] {
		if t == team {
			return true
		}
	}
	return false
}

// Tables is the full, immutable reference data set.
type Tables struct {
	YearWeights YearWeightSet
	Benchmarks  BenchmarkSet
	TeamQuality TeamQualitySet
	Seasons     SeasonConfig

	// TeamTotals is the precomputed sum table, derived on load.
	TeamTotals map[int]map[string]float64
}

// Benchmark looks up one stat's cut points.
func (t *Tables) Benchmark(stat string) (Benchmark, bool) {
	b, ok := t.Benchmarks.Stats[stat]
	return b, ok
}

// Team returns one team-season of quality scores.
func (t *Tables) Team(year int, team string) (TeamQuality, bool) {
	q, ok := t.TeamQuality.Seasons[year][team]
	return q, ok
}

// SeasonTeams returns every team quality row for year.
func (t *Tables) SeasonTeams(year int) map[string]TeamQuality {
	return t.TeamQuality.Seasons[year]
}

func (t *Tables) deriveTotals() {
	t.TeamTotals = make(map[int]map[string]float64, len(t.TeamQuality.Seasons))
	for year, teams := range t.TeamQuality.Seasons {
		totals := make(map[string]float64, len(teams))
		for name, q := range teams {
			totals[name] = q.Total()
		}
		t.TeamTotals[year] = totals
	}
}

// Validate checks the calibration invariants.
func (t *Tables) Validate() error {
	for name, w := range t.YearWeights.named() {
		if len(w) == 0 {
			return fmt.Errorf("year weight table %q is empty", name)
		}
		if math.Abs(w.Sum()-1.0) > 1e-9 {
			return fmt.Errorf("year weight table %q sums to %.6f, want 1.0", name, w.Sum())
		}
	}

	for _, key := range []string{StatANYA, StatTDPct, StatCmpPct, StatIntPct, StatSackPct, StatFumblePct} {
		b, ok := t.Benchmarks.Stats[key]
		if !ok {
			return fmt.Errorf("missing benchmark %q", key)
		}
		ladder := b.Ladder()
		for i := 1; i < len(ladder); i++ {
			if b.HigherIsBetter && ladder[i] > ladder[i-1] {
				return fmt.Errorf("benchmark %q is not descending at index %d", key, i)
			}
			if !b.HigherIsBetter && ladder[i] < ladder[i-1] {
				return fmt.Errorf("benchmark %q is not ascending at index %d", key, i)
			}
		}
	}

	for year, teams := range t.TeamQuality.Seasons {
		if len(teams) != teamsPerSeason {
			return fmt.Errorf("team quality %d has %d teams, want %d", year, len(teams), teamsPerSeason)
		}
		for name, q := range teams {
			if q.OffensiveLine < 0 || q.OffensiveLine > MaxOffensiveLine ||
				q.Weapons < 0 || q.Weapons > MaxWeapons ||
				q.Defense < 0 || q.Defense > MaxDefense {
				return fmt.Errorf("team quality %d/%s out of range", year, name)
			}
			if total := t.TeamTotals[year][name]; math.Abs(total-q.Total()) > 1e-9 {
				return fmt.Errorf("team total %d/%s is %.2f, components sum to %.2f", year, name, total, q.Total())
			}
		}
	}

	if len(t.Seasons.Years) == 0 {
		return fmt.Errorf("no supported seasons configured")
	}
	return nil
}
