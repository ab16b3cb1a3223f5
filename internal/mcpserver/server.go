// Package mcpserver exposes QEI rankings as MCP tools for agent clients.
package mcpserver

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/leaderboard"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/scoring"
)

// Ranker is the part of the leaderboard service the tools call.
type Ranker interface {
	Rank(ctx context.Context, req leaderboard.RankingRequest) (*leaderboard.RankingResponse, error)
	ScorePlayer(ctx context.Context, playerID string, req leaderboard.RankingRequest) (*scoring.Ranking, error)
}

// RankArgs is the input schema for rank_quarterbacks.
type RankArgs struct {
	Year              int              `json:"year" jsonschema:"Season to rank (0 = blend of all supported seasons)"`
	IncludePlayoffs   bool             `json:"include_playoffs" jsonschema:"Fold postseason records into every category"`
	NormalizeVariance bool             `json:"normalize_variance" jsonschema:"Rescale category z-scores to unit variance"`
	Limit             int              `json:"limit" jsonschema:"Maximum rows returned (default 10, 0 or less = default)"`
	Weights           *scoring.Weights `json:"weights,omitempty" jsonschema:"Category weights in percent (omit for defaults)"`
}

// ScoreArgs is the input schema for score_quarterback.
type ScoreArgs struct {
	PlayerID          string           `json:"player_id" jsonschema:"Player id (required)"`
	Year              int              `json:"year" jsonschema:"Season to rank (0 = blend of all supported seasons)"`
	IncludePlayoffs   bool             `json:"include_playoffs" jsonschema:"Fold postseason records into every category"`
	NormalizeVariance bool             `json:"normalize_variance" jsonschema:"Rescale category z-scores to unit variance"`
	Weights           *scoring.Weights `json:"weights,omitempty" jsonschema:"Category weights in percent (omit for defaults)"`
}

// RankResult is the output of rank_quarterbacks.
type RankResult struct {
	Source      string            `json:"source"`
	PlayerCount int               `json:"player_count"`
	Rejected    int               `json:"rejected"`
	Weights     scoring.Weights   `json:"weights"`
	Context     scoring.Context   `json:"context"`
	Rankings    []scoring.Ranking `json:"rankings"`
}

// ToolInfo describes a registered tool.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

const defaultLimit = 10

// Server wraps an MCP server with the QEI tools registered.
type Server struct {
	ranker   Ranker
	server   *mcp.Server
	registry []ToolInfo
	apiKey   string
}

// Option configures a Server.
type Option func(*Server)

// WithAPIKey requires the key on every HTTP request, either in X-API-Key or as
// a bearer token.
func WithAPIKey(key string) Option {
	return func(s *Server) { s.apiKey = strings.TrimSpace(key) }
}

// New registers the tools against ranker.
func New(ranker Ranker, version string, opts ...Option) *Server {
	s := &Server{
		ranker: ranker,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "qei-mcp",
			Version: version,
		}, nil),
		registry: make([]ToolInfo, 0, 2),
	}
	for _, opt := range opts {
		opt(s)
	}

	addTool(s, &mcp.Tool{
		Name:        "rank_quarterbacks",
		Description: "Rank quarterbacks by QB Excellence Index for a season and weight configuration",
	}, s.rankQuarterbacks)

	addTool(s, &mcp.Tool{
		Name:        "score_quarterback",
		Description: "Category scores, penalty and QEI for one quarterback within the ranked population",
	}, s.scoreQuarterback)

	return s
}

func addTool[T any](s *Server, tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, T) (*mcp.CallToolResult, any, error)) {
	s.registry = append(s.registry, ToolInfo{Name: tool.Name, Description: tool.Description})
	mcp.AddTool(s.server, tool, handler)
}

// Tools lists the registered tool names and descriptions.
func (s *Server) Tools() []ToolInfo {
	return append([]ToolInfo(nil), s.registry...)
}

func (s *Server) rankQuarterbacks(ctx context.Context, _ *mcp.CallToolRequest, args RankArgs) (*mcp.CallToolResult, any, error) {
	resp, err := s.ranker.Rank(ctx, leaderboard.RankingRequest{
		Weights: args.Weights,
		Context: scoring.Context{
			Year:              args.Year,
			IncludePlayoffs:   args.IncludePlayoffs,
			NormalizeVariance: args.NormalizeVariance,
		},
	})
	if err != nil {
		return toolError(err), nil, nil
	}

	limit := args.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	rows := resp.Rankings
	if len(rows) > limit {
		rows = rows[:limit]
	}

	return toolJSON(json.MarshalIndent(RankResult{
		Source:      resp.Source,
		PlayerCount: resp.PlayerCount,
		Rejected:    resp.Rejected,
		Weights:     resp.Weights,
		Context:     resp.Context,
		Rankings:    rows,
	}, "", "  "))
}

func (s *Server) scoreQuarterback(ctx context.Context, _ *mcp.CallToolRequest, args ScoreArgs) (*mcp.CallToolResult, any, error) {
	id := strings.TrimSpace(args.PlayerID)
	if id == "" {
		return toolError(fmt.Errorf("player_id is required")), nil, nil
	}
	row, err := s.ranker.ScorePlayer(ctx, id, leaderboard.RankingRequest{
		Weights: args.Weights,
		Context: scoring.Context{
			Year:              args.Year,
			IncludePlayoffs:   args.IncludePlayoffs,
			NormalizeVariance: args.NormalizeVariance,
		},
	})
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(json.MarshalIndent(row, "", "  "))
}

// Handler serves the MCP endpoint at path alongside /health and /tools.
func (s *Server) Handler(path string) http.Handler {
	if path == "" {
		path = "/mcp"
	}
	mcpHandler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return s.server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.withAuth(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	mux.HandleFunc("/tools", s.withAuth(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		b, _ := json.MarshalIndent(map[string]any{"tools": s.registry}, "", "  ")
		w.Write(b)
	}))
	mux.HandleFunc(path, s.withAuth(mcpHandler.ServeHTTP))
	return mux
}

func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			next(w, r)
			return
		}
		key := strings.TrimSpace(r.Header.Get("X-API-Key"))
		if key == "" {
			if authz := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				key = strings.TrimSpace(authz[7:])
			}
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		next(w, r)
	}
}

func toolJSON(res []byte, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(res)},
		},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
