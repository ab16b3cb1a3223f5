package leaderboard

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/errors"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/scoring"
)

// RankingRequest is a weight configuration plus ranking flags. Nil weights
// mean the default sliders.
type RankingRequest struct {
	Weights *scoring.Weights `json:"weights,omitempty"`
	Context scoring.Context  `json:"context"`
}

// RankingResponse is a computed ranking with the request that produced it.
type RankingResponse struct {
	Weights     scoring.Weights   `json:"weights"`
	Context     scoring.Context   `json:"context"`
	Rankings    []scoring.Ranking `json:"rankings"`
	PlayerCount int               `json:"player_count"`
	Rejected    int               `json:"rejected"`
	Source      string            `json:"source"`
	GeneratedAt time.Time         `json:"generated_at"`
	Cached      bool              `json:"cached"`
}

type contextRules struct {
	Year int `validate:"omitempty,gte=1920,lte=2100"`
}

var validate = validator.New()

// Normalized fills default weights and sanitizes them.
func (r RankingRequest) Normalized() RankingRequest {
	w := scoring.DefaultWeights()
	if r.Weights != nil {
		w = *r.Weights
	}
	w = w.Sanitized()
	r.Weights = &w
	return r
}

// Validate checks the ranking flags. Weights are never rejected: negative or
// non-finite values are zeroed by Normalized.
func (r RankingRequest) Validate() error {
	err := validate.Struct(contextRules{Year: r.Context.Year})
	if err == nil {
		return nil
	}
	return errors.NewValidationError("invalid ranking request", map[string]string{
		"context.year": "year must be 0 or between 1920 and 2100, got " + strconv.Itoa(r.Context.Year),
	})
}

// CacheKey hashes the canonical JSON of a normalized request. Verbose only
// affects tracing and is left out; Service.Rank never serves verbose requests
// from the cache.
func (r RankingRequest) CacheKey() (string, error) {
	r = r.Normalized()
	r.Context.Verbose = false

	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return "rank:" + hex.EncodeToString(sum[:]), nil
}
