// Package leaderboard serves QEI rankings: it loads players from a source,
// runs the scoring engine, caches results and persists snapshots.
package leaderboard

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/cache"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/database"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/errors"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/monitoring"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/scoring"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/types"
)

// ErrPlayerNotFound is matched by errors.Is when ScorePlayer gets an unknown ID.
var ErrPlayerNotFound = stderrors.New("player not found")

// PlayerSource supplies the player population.
type PlayerSource interface {
	LoadPlayers(ctx context.Context) ([]types.Player, error)
}

// SnapshotStore persists ranking snapshots.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, s *database.Snapshot) error
	GetSnapshot(ctx context.Context, id string) (*database.Snapshot, error)
	ListSnapshots(ctx context.Context, limit int) ([]database.SnapshotSummary, error)
}

// Service ranks the players of one source.
type Service struct {
	source  PlayerSource
	engine  *scoring.Engine
	store   SnapshotStore
	cache   *cache.Cache
	metrics *monitoring.Metrics
	logger  *monitoring.Logger

	flight singleflight.Group

	mu      sync.Mutex
	players []types.Player
	loaded  bool
}

// Option configures a Service.
type Option func(*Service)

// WithSnapshotStore enables snapshot persistence.
func WithSnapshotStore(store SnapshotStore) Option {
	return func(s *Service) { s.store = store }
}

// WithCacheTTL sets how long rankings stay cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if s.cache != nil {
			s.cache.Close()
		}
		s.cache = cache.NewCache(ttl)
	}
}

// WithMetrics records cache hits, ranking runs and source loads.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger replaces the default logger.
func WithLogger(l *monitoring.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service. Rankings are cached for ten minutes unless
// WithCacheTTL says otherwise.
func NewService(source PlayerSource, engine *scoring.Engine, opts ...Option) *Service {
	s := &Service{
		source: source,
		engine: engine,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cache.NewCache(10 * time.Minute)
	}
	if s.metrics == nil {
		s.metrics = monitoring.NewMetrics()
	}
	if s.logger == nil {
		s.logger = &monitoring.Logger{Logger: slog.Default()}
	}
	return s
}

// SourceName names the player source for logs and responses.
func (s *Service) SourceName() string {
	if n, ok := s.source.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s.source)
}

// Players returns the source's players, loading them on first use.
func (s *Service) Players(ctx context.Context) ([]types.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return s.players, nil
	}

	start := time.Now()
	players, err := s.source.LoadPlayers(ctx)
	s.logger.SourceLogger(s.SourceName(), len(players), time.Since(start), err)
	s.metrics.RecordSourceLoad(s.SourceName(), err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load players from %s: %w", s.SourceName(), err)
	}

	s.players = players
	s.loaded = true
	return players, nil
}

// Rank returns the ranking for req, serving repeated requests from cache.
func (s *Service) Rank(ctx context.Context, req RankingRequest) (*RankingResponse, error) {
	req = req.Normalized()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	key, err := req.CacheKey()
	if err != nil {
		return nil, errors.NewInternalError("failed to hash ranking request", err)
	}

	start := time.Now()
	if req.Context.Verbose {
		// Trace records come from the engine, so verbose requests always run it.
		resp, err := s.compute(ctx, key, req)
		if err != nil {
			return nil, err
		}
		s.logger.RankingLogger(resp.Source, resp.PlayerCount, resp.Rejected, req.Context.Year, req.Context.IncludePlayoffs, time.Since(start), false)
		return resp, nil
	}

	if data, ok := s.cache.Get(key); ok {
		var resp RankingResponse
		if err := json.Unmarshal(data, &resp); err == nil {
			s.metrics.IncrementCacheHit()
			resp.Cached = true
			s.logger.RankingLogger(resp.Source, resp.PlayerCount, resp.Rejected, req.Context.Year, req.Context.IncludePlayoffs, time.Since(start), true)
			return &resp, nil
		}
		s.cache.Delete(key)
	}
	s.metrics.IncrementCacheMiss()

	// Identical requests that miss the cache together share one engine run.
	v, err, shared := s.flight.Do(key, func() (interface{}, error) {
		return s.compute(ctx, key, req)
	})
	if err != nil {
		return nil, err
	}

	resp := *v.(*RankingResponse)
	s.logger.RankingLogger(resp.Source, resp.PlayerCount, resp.Rejected, req.Context.Year, req.Context.IncludePlayoffs, time.Since(start), false)
	if shared {
		s.logger.Debug("Ranking computation shared", "key", key)
	}
	return &resp, nil
}

func (s *Service) compute(ctx context.Context, key string, req RankingRequest) (*RankingResponse, error) {
	players, err := s.Players(ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rankings := s.engine.Rank(players, *req.Weights, req.Context)
	s.metrics.IncrementRankingRun()

	resp := &RankingResponse{
		Weights:     *req.Weights,
		Context:     req.Context,
		Rankings:    rankings,
		PlayerCount: len(rankings),
		Rejected:    countRejected(rankings),
		Source:      s.SourceName(),
		GeneratedAt: time.Now().UTC(),
	}

	if data, err := json.Marshal(resp); err == nil {
		s.cache.Set(key, data)
	} else {
		s.logger.Warn("Failed to cache ranking", "error", err)
	}
	return resp, nil
}

func countRejected(rankings []scoring.Ranking) int {
	n := 0
	for _, r := range rankings {
		if r.Rejected {
			n++
		}
	}
	return n
}

// ScorePlayer returns one player's row from the full ranking for req, since
// every score is relative to the population.
func (s *Service) ScorePlayer(ctx context.Context, playerID string, req RankingRequest) (*scoring.Ranking, error) {
	resp, err := s.Rank(ctx, req)
	if err != nil {
		return nil, err
	}
	for i := range resp.Rankings {
		if resp.Rankings[i].PlayerID == playerID {
			row := resp.Rankings[i]
			return &row, nil
		}
	}
	return nil, errors.NewNotFoundError("player", playerID).WithCause(ErrPlayerNotFound)
}

// SaveSnapshot ranks req and persists the result under a new ID.
func (s *Service) SaveSnapshot(ctx context.Context, label string, req RankingRequest) (*database.Snapshot, error) {
	if s.store == nil {
		return nil, errors.NewConfigurationError("snapshot store is not configured", nil)
	}

	resp, err := s.Rank(ctx, req)
	if err != nil {
		return nil, err
	}

	snap := database.NewSnapshot(label, resp.Weights, resp.Context, resp.Rankings)
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		return nil, errors.NewInternalError("failed to save snapshot", err)
	}

	s.logger.Info("Snapshot saved", "id", snap.ID, "label", label, "players", snap.PlayerCount)
	return snap, nil
}

// GetSnapshot loads a stored snapshot.
func (s *Service) GetSnapshot(ctx context.Context, id string) (*database.Snapshot, error) {
	if s.store == nil {
		return nil, errors.NewConfigurationError("snapshot store is not configured", nil)
	}

	snap, err := s.store.GetSnapshot(ctx, id)
	if stderrors.Is(err, database.ErrSnapshotNotFound) {
		return nil, errors.NewNotFoundError("snapshot", id).WithCause(err)
	}
	if err != nil {
		return nil, errors.NewInternalError("failed to load snapshot", err)
	}
	return snap, nil
}

// ListSnapshots returns the newest snapshots first.
func (s *Service) ListSnapshots(ctx context.Context, limit int) ([]database.SnapshotSummary, error) {
	if s.store == nil {
		return []database.SnapshotSummary{}, nil
	}

	list, err := s.store.ListSnapshots(ctx, limit)
	if err != nil {
		return nil, errors.NewInternalError("failed to list snapshots", err)
	}
	return list, nil
}

// InvalidateAll drops cached rankings and forces the next request to reload
// players from the source.
func (s *Service) InvalidateAll() {
	s.mu.Lock()
	s.players = nil
	s.loaded = false
	s.mu.Unlock()

	s.cache.Clear()
	s.logger.Info("Leaderboard caches invalidated", "source", s.SourceName())
}

// CacheStats returns ranking cache statistics.
func (s *Service) CacheStats() map[string]interface{} {
	stats := s.cache.Stats()
	s.mu.Lock()
	stats["players_loaded"] = s.loaded
	stats["player_count"] = len(s.players)
	s.mu.Unlock()
	return stats
}

// Close stops background cache maintenance.
func (s *Service) Close() {
	s.cache.Close()
}

// WarmUp loads players and computes the default ranking so the first request is served from cache.
func (s *Service) WarmUp(ctx context.Context) error {
	_, err := s.Rank(ctx, RankingRequest{})
	return err
}
