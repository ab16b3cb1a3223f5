package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/reference"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/types"
)

func TestDurabilityScore(t *testing.T) {
	ref := testTables()

	tests := []struct {
		name    string
		seasons map[int]types.SeasonRecord
		ctx     Context
		want    float64
	}{
		{
			name:    "full single season",
			seasons: seasonMap(eliteSeason(2024, "KC")),
			ctx:     Context{Year: 2024},
			want:    90,
		},
		{
			name:    "near full season",
			seasons: seasonMap(averageSeason(2024, "KC", 15)),
			ctx:     Context{Year: 2024},
			want:    80*15.0/17 + 5,
		},
		{
			name:    "no season for year",
			seasons: seasonMap(eliteSeason(2023, "KC")),
			ctx:     Context{Year: 2024},
			want:    0,
		},
		{
			name: "three full seasons caps the bonus",
			seasons: seasonMap(
				eliteSeason(2022, "KC"),
				eliteSeason(2023, "KC"),
				eliteSeason(2024, "KC"),
			),
			want: 100,
		},
		{
			name: "missing year is skipped",
			seasons: seasonMap(
				eliteSeason(2023, "KC"),
				eliteSeason(2024, "KC"),
			),
			want: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DurabilityScore(tt.seasons, tt.ctx, ref), 1e-9)
		})
	}
}

func TestDurabilityScore_MonotonicInStarts(t *testing.T) {
	ref := testTables()
	ctx := Context{Year: 2024}

	prev := -1.0
	for gs := 0; gs <= 17; gs++ {
		got := DurabilityScore(seasonMap(averageSeason(2024, "KC", gs)), ctx, ref)
		assert.GreaterOrEqual(t, got, prev, "games started %d", gs)
		prev = got
	}
}

func TestTierMultiplier(t *testing.T) {
	ref := testTables()
	anya, _ := ref.Benchmark(reference.StatANYA)
	sack, _ := ref.Benchmark(reference.StatSackPct)

	tests := []struct {
		name  string
		value float64
		b     reference.Benchmark
		want  float64
	}{
		{"at p95", anya.P95, anya, 1.0},
		{"above p95", anya.P95 + 1, anya, 1.0},
		{"between p90 and p95", (anya.P90 + anya.P95) / 2, anya, 0.9},
		{"at p50", anya.P50, anya, 0.65},
		{"at p10", anya.P10, anya, 0.35},
		{"below p10", anya.P10 - 0.01, anya, 0.2},
		{"lower is better at p95", sack.P95, sack, 1.0},
		{"lower is better just worse than p95", sack.P95 + 0.01, sack, 0.9},
		{"lower is better worst", 50, sack, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TierMultiplier(tt.value, tt.b))
		})
	}
}

func TestBreakdownFor_EliteSeason(t *testing.T) {
	b := BreakdownFor(eliteSeason(2024, "KC"), testTables())

	assert.InDelta(t, 45.0, b.Efficiency, 1e-9)
	assert.InDelta(t, 25.0, b.Protection, 1e-9)
	assert.Equal(t, 2.0, b.Turnovers)
	assert.Greater(t, b.Volume, 0.0)
	assert.LessOrEqual(t, b.Volume, 30.0)
}

func volumeSeason(gs, passYds, passTDs, att, rushTDs, rushYds int) types.SeasonRecord {
	return types.SeasonRecord{
		Year:         2024,
		GamesStarted: gs,
		Attempts:     att,
		Completions:  att / 2,
		PassingYards: passYds,
		PassingTDs:   passTDs,
		RushingTDs:   rushTDs,
		RushingYards: rushYds,
	}
}

func TestBreakdownFor_Volume(t *testing.T) {
	ref := testTables()

	tests := []struct {
		name   string
		season types.SeasonRecord
		want   float64
	}{
		{
			name:   "every stat at or below its floor",
			season: volumeSeason(17, 2500, 15, 17*28, 0, 50),
			want:   0,
		},
		{
			name:   "every stat past its cap",
			season: volumeSeason(17, 5000, 45, 17*42, 7, 700),
			want:   8 + 7 + 5 + 4 + 4,
		},
		{
			name:   "exact caps",
			season: volumeSeason(17, 4800, 40, 17*40, 6, 600),
			want:   30,
		},
		{
			// yards 0.5*8, TDs 0.2*7, 34 att/game 0.5*5, rush TDs 0.5*4, rush yards 0.5*4
			name:   "full season midpoints",
			season: volumeSeason(17, 3650, 20, 17*34, 3, 325),
			want:   4 + 1.4 + 2.5 + 2 + 2,
		},
		{
			name:   "pass yards only",
			season: volumeSeason(17, 3650, 0, 0, 0, 0),
			want:   4,
		},
		{
			// range 2500..4800 scaled by 10/17; 2000 yards sit 900/2300 of the way
			name:   "partial season scales floor and cap",
			season: volumeSeason(10, 2000, 0, 250, 0, 0),
			want:   8 * 900.0 / 2300,
		},
		{
			name:   "same yards over a full season score nothing",
			season: volumeSeason(17, 2000, 0, 17*25, 0, 0),
			want:   0,
		},
		{
			name:   "attempts per game are not scaled by games",
			season: volumeSeason(10, 0, 0, 400, 0, 0),
			want:   5,
		},
		{
			// 100 rush yards over 5 games: floor 50*5/17, cap 600*5/17
			name:   "partial season rushing yards",
			season: volumeSeason(5, 0, 0, 0, 0, 100),
			want:   4 * (100 - 250.0/17) / (2750.0 / 17),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, BreakdownFor(tt.season, ref).Volume, 1e-9)
		})
	}
}

func TestRates(t *testing.T) {
	r := Rates(eliteSeason(2024, "KC"))

	assert.InDelta(t, (4300.0+20*33-45*5-100)/515, r.ANYA, 1e-9)
	assert.InDelta(t, 71.0, r.CmpPct, 1e-9)
	assert.InDelta(t, 6.6, r.TDPct, 1e-9)
	assert.InDelta(t, 1.0, r.IntPct, 1e-9)
	assert.InDelta(t, 100*15.0/515, r.SackPct, 1e-9)
	assert.InDelta(t, 100*2.0/555, r.FumblePct, 1e-9)

	assert.Equal(t, RateStats{}, Rates(types.SeasonRecord{}))
}

func TestTurnoverAdjustment(t *testing.T) {
	tests := []struct {
		turnovers int
		want      float64
	}{
		{0, 2}, {8, 2}, {9, 1}, {12, 1}, {13, 0}, {16, 0}, {17, -1}, {21, -2}, {25, -2}, {26, -3}, {40, -3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, turnoverAdjustment(tt.turnovers), "turnovers %d", tt.turnovers)
	}
}

func TestStatisticalPerformanceScore(t *testing.T) {
	ref := testTables()
	ctx := Context{Year: 2024}
	elite := seasonMap(eliteSeason(2024, "KC"))

	def := StatisticalPerformanceScore(elite, DefaultWeights().StatsSub, ctx, ref)
	b := BreakdownFor(eliteSeason(2024, "KC"), ref)
	assert.InDelta(t, b.Efficiency+b.Protection+b.Volume+b.Turnovers, def, 1e-9)

	// scaling the default split leaves the score unchanged
	scaled := StatisticalPerformanceScore(elite, StatsSubWeights{Efficiency: 9, Protection: 5, Volume: 6}, ctx, ref)
	assert.InDelta(t, def, scaled, 1e-9)

	// zeroed sub-weights leave only the turnover adjustment
	zero := StatisticalPerformanceScore(elite, StatsSubWeights{}, ctx, ref)
	assert.InDelta(t, b.Turnovers, zero, 1e-9)

	assert.Zero(t, StatisticalPerformanceScore(elite, DefaultWeights().StatsSub, Context{Year: 2023}, ref))
	assert.Greater(t, def, StatisticalPerformanceScore(seasonMap(averageSeason(2024, "KC", 17)), DefaultWeights().StatsSub, ctx, ref))
}

func TestTeamSuccessScore(t *testing.T) {
	ref := testTables()
	sub := DefaultWeights().TeamSub

	t.Run("regular season only", func(t *testing.T) {
		got := TeamSuccessScore(seasonMap(eliteSeason(2024, "KC")), sub, Context{Year: 2024}, ref)
		want := math.Pow(14.0/17, 0.8)*50 + 15
		assert.InDelta(t, want, got, 1e-9)
	})

	t.Run("ties count half", func(t *testing.T) {
		s := eliteSeason(2024, "KC")
		s.Wins, s.Losses, s.Ties = 8, 8, 1
		got := TeamSuccessScore(seasonMap(s), sub, Context{Year: 2024}, ref)
		assert.InDelta(t, math.Pow(8.5/17, 0.8)*50+15, got, 1e-9)
	})

	t.Run("playoffs ignored unless included", func(t *testing.T) {
		s := eliteSeason(2024, "KC")
		s.Playoffs = &types.PlayoffRecord{Wins: 3, GamesStarted: 3}
		without := TeamSuccessScore(seasonMap(s), sub, Context{Year: 2024}, ref)
		with := TeamSuccessScore(seasonMap(s), sub, Context{Year: 2024, IncludePlayoffs: true}, ref)
		assert.InDelta(t, math.Pow(14.0/17, 0.8)*50+15, without, 1e-9)
		assert.Greater(t, with, without)
		assert.LessOrEqual(t, with, 100.0)
	})

	t.Run("champion outscores wild card exit", func(t *testing.T) {
		champ := eliteSeason(2024, "KC")
		champ.Playoffs = &types.PlayoffRecord{Wins: 3, GamesStarted: 3}
		exit := eliteSeason(2024, "PIT")
		exit.Playoffs = &types.PlayoffRecord{Losses: 1, GamesStarted: 1}
		ctx := Context{Year: 2024, IncludePlayoffs: true}
		assert.Greater(t,
			TeamSuccessScore(seasonMap(champ), sub, ctx, ref),
			TeamSuccessScore(seasonMap(exit), sub, ctx, ref))
	})

	t.Run("zero playoff share drops achievement", func(t *testing.T) {
		s := eliteSeason(2024, "KC")
		s.Playoffs = &types.PlayoffRecord{Wins: 3, GamesStarted: 3}
		ctx := Context{Year: 2024, IncludePlayoffs: true}
		got := TeamSuccessScore(seasonMap(s), TeamSubWeights{RegularSeason: 1}, ctx, ref)
		avail := math.Min(1, 20.0/20)
		assert.InDelta(t, math.Pow(14.0/17, 0.8)*50+15*avail, got, 1e-9)
	})

	t.Run("no decided games", func(t *testing.T) {
		s := eliteSeason(2024, "KC")
		s.Wins, s.Losses = 0, 0
		assert.Zero(t, TeamSuccessScore(seasonMap(s), sub, Context{Year: 2024}, ref))
	})
}

func TestPlayoffRun(t *testing.T) {
	tests := []struct {
		name        string
		po          types.PlayoffRecord
		bye         bool
		wantWins    float64
		wantGames   float64
		achievement float64
	}{
		{"wild card loss", types.PlayoffRecord{Losses: 1, GamesStarted: 1}, false, 0, 0.35, 1.5},
		{"conference loss", types.PlayoffRecord{Wins: 2, Losses: 1, GamesStarted: 3}, false, 0.80, 1.35, 6 + 4.5},
		{"super bowl loss", types.PlayoffRecord{Wins: 3, Losses: 1, GamesStarted: 4}, false, 1.35, 2.0, 10 + 6},
		{"champion after bye", types.PlayoffRecord{Wins: 3, GamesStarted: 3}, true, 1.95, 1.95, 15 + 4.5},
		{"divisional loss after bye", types.PlayoffRecord{Losses: 1, GamesStarted: 1}, true, 0.30, 0.75, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			po := tt.po
			run := newPlayoffRun(&po, tt.bye)
			w, g := run.credit()
			assert.InDelta(t, tt.wantWins, w, 1e-9)
			assert.InDelta(t, tt.wantGames, g, 1e-9)
			assert.InDelta(t, tt.achievement, run.achievement(po.GamesStarted), 1e-9)
		})
	}
}

func TestClutchScore(t *testing.T) {
	ref := testTables()

	s := eliteSeason(2024, "KC")
	s.GameWinningDrives, s.FourthQuarterComebacks = 4, 3
	got := ClutchScore(seasonMap(s), Context{Year: 2024}, ref)
	want := 40*(4.0/17)/0.25 + 25*(3.0/17)/0.20 + 15
	assert.InDelta(t, want, got, 1e-9)

	s.GameWinningDrives, s.FourthQuarterComebacks = 10, 10
	assert.InDelta(t, 80.0, ClutchScore(seasonMap(s), Context{Year: 2024}, ref), 1e-9)

	s.Playoffs = &types.PlayoffRecord{Wins: 3, Losses: 1, GamesStarted: 4, GameWinningDrives: 1}
	withPlayoffs := ClutchScore(seasonMap(s), Context{Year: 2024, IncludePlayoffs: true}, ref)
	assert.InDelta(t, 80+20*0.75, withPlayoffs, 1e-9)

	assert.Zero(t, ClutchScore(seasonMap(s), Context{Year: 2022}, ref))
}

func TestPlayoffClutchMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, playoffClutchMultiplier(0))
	assert.Equal(t, 1.06, playoffClutchMultiplier(1))
	assert.Equal(t, 1.10, playoffClutchMultiplier(2))
	assert.Equal(t, 1.16, playoffClutchMultiplier(3))
	assert.Equal(t, 1.22, playoffClutchMultiplier(4))
	assert.Equal(t, 1.22, playoffClutchMultiplier(6))
}

func TestSupportScore(t *testing.T) {
	e := NewEngine(testTables())
	sub := DefaultWeights().SupportSub
	ctx := Context{Year: 2024}

	weak, ok := e.SupportScore(seasonMap(eliteSeason(2024, "GB")), sub, ctx)
	assert.True(t, ok)
	strong, ok := e.SupportScore(seasonMap(eliteSeason(2024, "DET")), sub, ctx)
	assert.True(t, ok)
	assert.Less(t, weak, 0.0)
	assert.Greater(t, strong, 0.0)

	t.Run("traded season averages teams", func(t *testing.T) {
		s := eliteSeason(2024, "GB")
		s.Teams = []types.TeamStint{{Team: "GB", GamesStarted: 9}, {Team: "DET", GamesStarted: 8}}
		got, ok := e.SupportScore(seasonMap(s), sub, ctx)
		assert.True(t, ok)
		assert.InDelta(t, (weak+strong)/2, got, 1e-9)
	})

	t.Run("gated below nine starts", func(t *testing.T) {
		_, ok := e.SupportScore(seasonMap(averageSeason(2024, "GB", 8)), sub, ctx)
		assert.False(t, ok)
		_, ok = e.SupportScore(seasonMap(averageSeason(2024, "GB", 9)), sub, ctx)
		assert.True(t, ok)
	})

	t.Run("multi-year gate is ten", func(t *testing.T) {
		_, ok := e.SupportScore(seasonMap(averageSeason(2024, "GB", 9)), sub, Context{})
		assert.False(t, ok)
	})

	t.Run("unknown team", func(t *testing.T) {
		_, ok := e.SupportScore(seasonMap(eliteSeason(2024, "XXX")), sub, ctx)
		assert.False(t, ok)
	})

	t.Run("zero sub-weights", func(t *testing.T) {
		got, ok := e.SupportScore(seasonMap(eliteSeason(2024, "DET")), SupportSubWeights{}, ctx)
		assert.True(t, ok)
		assert.Zero(t, got)
	})
}
