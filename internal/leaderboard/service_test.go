package leaderboard

import (
	"context"
	stderrors "errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/database"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/errors"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/monitoring"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/reference"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/scoring"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/types"
)

type fakeSource struct {
	players []types.Player
	err     error
	delay   time.Duration
	loads   atomic.Int32
}

func (f *fakeSource) LoadPlayers(ctx context.Context) ([]types.Player, error) {
	f.loads.Add(1)
	time.Sleep(f.delay)
	if f.err != nil {
		return nil, f.err
	}
	return f.players, nil
}

func (f *fakeSource) Name() string { return "fake" }

func season(year int, team string, gs, wins, att, cmp, yds, td, ints int) types.SeasonRecord {
	return types.SeasonRecord{
		Year:          year,
		GamesStarted:  gs,
		Wins:          wins,
		Losses:        gs - wins,
		Attempts:      att,
		Completions:   cmp,
		PassingYards:  yds,
		PassingTDs:    td,
		Interceptions: ints,
		Sacks:         2 * gs,
		SackYards:     13 * gs,
		Teams:         []types.TeamStint{{Team: team, GamesStarted: gs}},
	}
}

func testPlayers() []types.Player {
	return []types.Player{
		{ID: "avg", Name: "Average Starter", FirstSeason: 2016, Seasons: []types.SeasonRecord{
			season(2024, "DET", 17, 8, 560, 357, 3900, 24, 12),
		}},
		{ID: "backup", Name: "Clipboard Holder", FirstSeason: 2018, Seasons: []types.SeasonRecord{
			{Year: 2024, Teams: []types.TeamStint{{Team: "KC"}}},
		}},
		{ID: "elite", Name: "Elite Passer", FirstSeason: 2015, Seasons: []types.SeasonRecord{
			season(2024, "KC", 17, 14, 520, 370, 4500, 36, 6),
		}},
		{ID: "mid", Name: "Game Manager", FirstSeason: 2017, Seasons: []types.SeasonRecord{
			season(2024, "GB", 15, 9, 480, 300, 3300, 20, 9),
		}},
	}
}

func newTestService(t *testing.T, src PlayerSource, opts ...Option) *Service {
	t.Helper()
	engine := scoring.NewEngine(reference.MustLoadDefault())
	svc := NewService(src, engine, opts...)
	t.Cleanup(svc.Close)
	return svc
}

func year2024() RankingRequest {
	return RankingRequest{Context: scoring.Context{Year: 2024}}
}

func TestRank_CachesAndOrders(t *testing.T) {
	src := &fakeSource{players: testPlayers()}
	metrics := monitoring.NewMetrics()
	svc := newTestService(t, src, WithMetrics(metrics))
	ctx := context.Background()

	first, err := svc.Rank(ctx, year2024())
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, "fake", first.Source)
	assert.Equal(t, 4, first.PlayerCount)
	assert.Equal(t, 1, first.Rejected)

	require.Len(t, first.Rankings, 4)
	assert.Equal(t, "elite", first.Rankings[0].PlayerID)
	assert.Equal(t, 1, first.Rankings[0].Rank)
	last := first.Rankings[3]
	assert.Equal(t, "backup", last.PlayerID)
	assert.True(t, last.Rejected)
	assert.NotEmpty(t, last.Reason)
	assert.Zero(t, last.QEI)

	second, err := svc.Rank(ctx, year2024())
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Rankings, second.Rankings)

	assert.EqualValues(t, 1, src.loads.Load())
	assert.EqualValues(t, 1, metrics.RankingRuns)
	assert.EqualValues(t, 1, metrics.CacheHits)
}

func TestRank_DifferentWeightsRecompute(t *testing.T) {
	src := &fakeSource{players: testPlayers()}
	metrics := monitoring.NewMetrics()
	svc := newTestService(t, src, WithMetrics(metrics))
	ctx := context.Background()

	_, err := svc.Rank(ctx, year2024())
	require.NoError(t, err)

	w := scoring.DefaultWeights()
	w.Support = 0
	req := year2024()
	req.Weights = &w
	resp, err := svc.Rank(ctx, req)
	require.NoError(t, err)
	assert.False(t, resp.Cached)
	assert.Zero(t, resp.Weights.Support)

	assert.EqualValues(t, 1, src.loads.Load())
	assert.EqualValues(t, 2, metrics.RankingRuns)
}

func TestRank_ZeroWeightsGiveZeroQEI(t *testing.T) {
	svc := newTestService(t, &fakeSource{players: testPlayers()})

	req := year2024()
	req.Weights = &scoring.Weights{}
	resp, err := svc.Rank(context.Background(), req)
	require.NoError(t, err)
	for _, r := range resp.Rankings {
		assert.Zero(t, r.QEI, r.PlayerID)
	}
}

func TestRank_InvalidYear(t *testing.T) {
	src := &fakeSource{players: testPlayers()}
	svc := newTestService(t, src)

	_, err := svc.Rank(context.Background(), RankingRequest{Context: scoring.Context{Year: 1800}})
	require.Error(t, err)
	assert.Equal(t, errors.CategoryValidation, errors.ToAppError(err).Category)
	assert.Zero(t, src.loads.Load())
}

func TestRank_SourceFailureIsNotCached(t *testing.T) {
	src := &fakeSource{err: stderrors.New("connection refused")}
	svc := newTestService(t, src)
	ctx := context.Background()

	_, err := svc.Rank(ctx, year2024())
	require.Error(t, err)
	assert.ErrorIs(t, err, src.err)

	src.err = nil
	src.players = testPlayers()
	resp, err := svc.Rank(ctx, year2024())
	require.NoError(t, err)
	assert.Equal(t, 4, resp.PlayerCount)
	assert.EqualValues(t, 2, src.loads.Load())
}

func TestRank_CancelledContext(t *testing.T) {
	svc := newTestService(t, &fakeSource{players: testPlayers()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Rank(ctx, year2024())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInvalidateAll(t *testing.T) {
	src := &fakeSource{players: testPlayers()}
	svc := newTestService(t, src)
	ctx := context.Background()

	require.NoError(t, svc.WarmUp(ctx))
	assert.Equal(t, 1, svc.CacheStats()["total_items"])
	assert.Equal(t, true, svc.CacheStats()["players_loaded"])

	svc.InvalidateAll()
	assert.Equal(t, 0, svc.CacheStats()["total_items"])

	resp, err := svc.Rank(ctx, RankingRequest{})
	require.NoError(t, err)
	assert.False(t, resp.Cached)
	assert.EqualValues(t, 2, src.loads.Load())
}

func TestScorePlayer(t *testing.T) {
	svc := newTestService(t, &fakeSource{players: testPlayers()})
	ctx := context.Background()

	row, err := svc.ScorePlayer(ctx, "mid", year2024())
	require.NoError(t, err)
	assert.Equal(t, "Game Manager", row.Name)
	assert.Greater(t, row.Rank, 1)

	full, err := svc.Rank(ctx, year2024())
	require.NoError(t, err)
	assert.Equal(t, full.Rankings[row.Rank-1], *row)

	_, err = svc.ScorePlayer(ctx, "nobody", year2024())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
	assert.Equal(t, errors.CategoryNotFound, errors.ToAppError(err).Category)
}

func TestSnapshots(t *testing.T) {
	db, err := database.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := newTestService(t, &fakeSource{players: testPlayers()}, WithSnapshotStore(database.NewRepository(db)))
	ctx := context.Background()

	snap, err := svc.SaveSnapshot(ctx, "week 18", year2024())
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, "Elite Passer", snap.TopPlayer)
	assert.Equal(t, 4, snap.PlayerCount)

	got, err := svc.GetSnapshot(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, "week 18", got.Label)
	require.Len(t, got.Rankings, 4)
	assert.InDelta(t, snap.Rankings[0].QEI, got.Rankings[0].QEI, 1e-9)

	list, err := svc.ListSnapshots(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, snap.ID, list[0].ID)

	_, err = svc.GetSnapshot(ctx, "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, database.ErrSnapshotNotFound)
	assert.Equal(t, errors.CategoryNotFound, errors.ToAppError(err).Category)
}

func TestSnapshots_NoStore(t *testing.T) {
	svc := newTestService(t, &fakeSource{players: testPlayers()})
	ctx := context.Background()

	_, err := svc.SaveSnapshot(ctx, "", year2024())
	assert.Equal(t, errors.CategoryConfiguration, errors.ToAppError(err).Category)

	list, err := svc.ListSnapshots(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCacheKey(t *testing.T) {
	defaults := scoring.DefaultWeights()

	implicit, err := RankingRequest{Context: scoring.Context{Year: 2024}}.CacheKey()
	require.NoError(t, err)
	explicit, err := RankingRequest{Weights: &defaults, Context: scoring.Context{Year: 2024, Verbose: true}}.CacheKey()
	require.NoError(t, err)
	assert.Equal(t, implicit, explicit)

	negative := scoring.Weights{Team: -5, Stats: math.NaN()}
	zero := scoring.Weights{}
	a, err := RankingRequest{Weights: &negative}.CacheKey()
	require.NoError(t, err)
	b, err := RankingRequest{Weights: &zero}.CacheKey()
	require.NoError(t, err)
	assert.Equal(t, a, b)

	playoffs, err := RankingRequest{Context: scoring.Context{Year: 2024, IncludePlayoffs: true}}.CacheKey()
	require.NoError(t, err)
	assert.NotEqual(t, implicit, playoffs)
}

func TestCacheTTLExpiry(t *testing.T) {
	src := &fakeSource{players: testPlayers()}
	svc := newTestService(t, src, WithCacheTTL(20*time.Millisecond))
	ctx := context.Background()

	_, err := svc.Rank(ctx, year2024())
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	resp, err := svc.Rank(ctx, year2024())
	require.NoError(t, err)
	assert.False(t, resp.Cached)
	assert.EqualValues(t, 1, src.loads.Load())
}

func TestRank_ConcurrentMissesShareOneRun(t *testing.T) {
	src := &fakeSource{players: testPlayers(), delay: 50 * time.Millisecond}
	metrics := monitoring.NewMetrics()
	svc := newTestService(t, src, WithMetrics(metrics))

	const callers = 8
	results := make([]*RankingResponse, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Rank(context.Background(), year2024())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "elite", results[i].Rankings[0].PlayerID)
	}
	assert.EqualValues(t, 1, metrics.RankingRuns)
	assert.EqualValues(t, 1, src.loads.Load())
}

func TestRank_VerboseBypassesCache(t *testing.T) {
	var records atomic.Int32
	engine := scoring.NewEngine(reference.MustLoadDefault(), scoring.WithTracer(func(scoring.TraceRecord) {
		records.Add(1)
	}))
	metrics := monitoring.NewMetrics()
	svc := NewService(&fakeSource{players: testPlayers()}, engine, WithMetrics(metrics))
	t.Cleanup(svc.Close)
	ctx := context.Background()

	_, err := svc.Rank(ctx, year2024())
	require.NoError(t, err)
	assert.Zero(t, records.Load())

	verbose := year2024()
	verbose.Context.Verbose = true
	resp, err := svc.Rank(ctx, verbose)
	require.NoError(t, err)
	assert.False(t, resp.Cached)
	assert.Positive(t, records.Load())
	assert.EqualValues(t, 2, metrics.RankingRuns)

	plain, err := svc.Rank(ctx, year2024())
	require.NoError(t, err)
	assert.True(t, plain.Cached)
}
