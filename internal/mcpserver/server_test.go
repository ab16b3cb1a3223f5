package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/errors"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/leaderboard"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/scoring"
)

type fakeRanker struct {
	rows    []scoring.Ranking
	lastReq leaderboard.RankingRequest
	err     error
}

func (f *fakeRanker) Rank(ctx context.Context, req leaderboard.RankingRequest) (*leaderboard.RankingResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &leaderboard.RankingResponse{
		Weights:     scoring.DefaultWeights(),
		Context:     req.Context,
		Rankings:    f.rows,
		PlayerCount: len(f.rows),
		Source:      "fake",
	}, nil
}

func (f *fakeRanker) ScorePlayer(ctx context.Context, id string, req leaderboard.RankingRequest) (*scoring.Ranking, error) {
	f.lastReq = req
	for i := range f.rows {
		if f.rows[i].PlayerID == id {
			return &f.rows[i], nil
		}
	}
	return nil, errors.NewNotFoundError("player", id)
}

func rows(n int) []scoring.Ranking {
	out := make([]scoring.Ranking, n)
	for i := range out {
		out[i] = scoring.Ranking{
			Rank:     i + 1,
			PlayerID: "qb" + string(rune('a'+i)),
			Name:     "QB " + string(rune('A'+i)),
			QEI:      90 - float64(i),
		}
	}
	return out
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestRankQuarterbacks(t *testing.T) {
	tests := []struct {
		name     string
		args     RankArgs
		wantRows int
	}{
		{"default limit", RankArgs{Year: 2024}, defaultLimit},
		{"explicit limit", RankArgs{Year: 2024, Limit: 3}, 3},
		{"limit above population", RankArgs{Limit: 50}, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranker := &fakeRanker{rows: rows(12)}
			s := New(ranker, "test")

			res, _, err := s.rankQuarterbacks(context.Background(), nil, tt.args)
			require.NoError(t, err)
			assert.False(t, res.IsError)

			var out RankResult
			require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
			assert.Len(t, out.Rankings, tt.wantRows)
			assert.Equal(t, 12, out.PlayerCount)
			assert.Equal(t, "fake", out.Source)
			assert.Equal(t, "qba", out.Rankings[0].PlayerID)
			assert.Equal(t, tt.args.Year, ranker.lastReq.Context.Year)
		})
	}
}

func TestRankQuarterbacks_PassesFlagsAndWeights(t *testing.T) {
	ranker := &fakeRanker{rows: rows(2)}
	s := New(ranker, "test")

	w := scoring.Weights{Team: 100}
	_, _, err := s.rankQuarterbacks(context.Background(), nil, RankArgs{
		Year:              2023,
		IncludePlayoffs:   true,
		NormalizeVariance: true,
		Weights:           &w,
	})
	require.NoError(t, err)

	assert.Equal(t, scoring.Context{Year: 2023, IncludePlayoffs: true, NormalizeVariance: true}, ranker.lastReq.Context)
	require.NotNil(t, ranker.lastReq.Weights)
	assert.Equal(t, 100.0, ranker.lastReq.Weights.Team)
}

func TestRankQuarterbacks_Error(t *testing.T) {
	s := New(&fakeRanker{err: errors.NewValidationError("invalid ranking request", nil)}, "test")

	res, _, err := s.rankQuarterbacks(context.Background(), nil, RankArgs{Year: 1800})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "invalid ranking request")
}

func TestScoreQuarterback(t *testing.T) {
	s := New(&fakeRanker{rows: rows(4)}, "test")
	ctx := context.Background()

	res, _, err := s.scoreQuarterback(ctx, nil, ScoreArgs{PlayerID: " qbc "})
	require.NoError(t, err)
	require.False(t, res.IsError)
	var row scoring.Ranking
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &row))
	assert.Equal(t, 3, row.Rank)
	assert.Equal(t, "QB C", row.Name)

	res, _, err = s.scoreQuarterback(ctx, nil, ScoreArgs{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "player_id is required")

	res, _, err = s.scoreQuarterback(ctx, nil, ScoreArgs{PlayerID: "ghost"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "ghost")
}

func TestTools(t *testing.T) {
	s := New(&fakeRanker{}, "test")
	names := []string{}
	for _, tool := range s.Tools() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"rank_quarterbacks", "score_quarterback"}, names)
}

func TestHandlerAuth(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		header map[string]string
		want   int
	}{
		{"open", "", nil, http.StatusOK},
		{"missing key", "secret", nil, http.StatusUnauthorized},
		{"wrong key", "secret", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"api key header", "secret", map[string]string{"X-API-Key": "secret"}, http.StatusOK},
		{"bearer", "secret", map[string]string{"Authorization": "Bearer secret"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(&fakeRanker{}, "test", WithAPIKey(tt.apiKey)).Handler("")

			req := httptest.NewRequest(http.MethodGet, "/tools", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.True(t, strings.Contains(w.Body.String(), "rank_quarterbacks"))
			}
		})
	}
}

func TestHandlerHealth(t *testing.T) {
	h := New(&fakeRanker{}, "test").Handler("/mcp")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
