package main

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/ZanzyTHEbar/qb-excellence-index/docs"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/database"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/errors"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/leaderboard"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/middleware"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/monitoring"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/ratelimit"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/reference"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/scoring"
	"github.com/ZanzyTHEbar/qb-excellence-index/internal/security"
)

const (
	version             = "1.0.0"
	defaultSnapshotList = 20
	maxSnapshotList     = 200
)

// server carries the dependencies the HTTP handlers share.
type server struct {
	service     *leaderboard.Service
	db          *database.DB
	tables      *reference.Tables
	metrics     *monitoring.Metrics
	logger      *monitoring.Logger
	limiter     *ratelimit.RateLimiter
	security    *security.SecurityMiddleware
	compression *middleware.CompressionMiddleware
	corsOrigins []string
	startedAt   time.Time
}

// snapshotRequest is the body of POST /snapshots.
type snapshotRequest struct {
	Label   string           `json:"label"`
	Weights *scoring.Weights `json:"weights,omitempty"`
	Context scoring.Context  `json:"context"`
}

// playerSummary is one row of GET /players.
type playerSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	FirstSeason int    `json:"first_season"`
	Seasons     []int  `json:"seasons"`
}

func (s *server) router() *gin.Engine {
	docs.SwaggerInfo.Version = version

	if s.security == nil {
		s.security = security.NewSecurityMiddleware(security.DefaultSecurityConfig())
	}
	if s.compression == nil {
		s.compression = middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig())
	}

	r := gin.New()

	// Monitoring sits outside compression so it records the final status.
	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.logger))
	r.Use(s.compression.Handler())
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())
	r.Use(s.security.SecurityHeaders)
	r.Use(cors.New(corsConfig(s.corsOrigins)))
	r.Use(s.security.RequestTimeout)
	r.Use(s.security.ValidateContentType)
	r.Use(s.security.LimitBody)
	if s.limiter != nil {
		r.Use(s.limiter.IPRateLimitMiddleware())
	}

	r.GET("/health", s.health)
	r.GET("/players", s.listPlayers)
	r.GET("/players/:id/score", s.scorePlayer)

	rankings := []gin.HandlerFunc{s.rank}
	if s.limiter != nil {
		rankings = append([]gin.HandlerFunc{s.limiter.EndpointRateLimitMiddleware("rankings", s.rankingLimit())}, rankings...)
	}
	r.POST("/rankings", rankings...)

	r.POST("/snapshots", s.saveSnapshot)
	r.GET("/snapshots", s.listSnapshots)
	r.GET("/snapshots/:id", s.getSnapshot)

	r.GET("/reference/year-weights", s.yearWeights)

	r.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.metrics.GetStats())
	})
	r.GET("/cache/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.service.CacheStats())
	})
	r.POST("/cache/invalidate", s.invalidate)
	r.GET("/compression/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.compression.GetStats())
	})
	if s.limiter != nil {
		r.GET("/ratelimit/stats", func(c *gin.Context) {
			c.JSON(http.StatusOK, s.limiter.GetStats())
		})
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func (s *server) rankingLimit() int {
	if s.limiter == nil {
		return 0
	}
	return s.limiter.Config().RankingsPerMinute
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// health godoc
// @Summary Service health
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (s *server) health(c *gin.Context) {
	body := gin.H{
		"status":         "ok",
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"version":        version,
		"source":         s.service.SourceName(),
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
	}

	if s.db != nil {
		dbInfo := gin.H{"pool": s.db.GetPoolStats()}
		if v, dirty, err := s.db.SchemaVersion(); err != nil {
			dbInfo["error"] = err.Error()
			body["status"] = "degraded"
		} else {
			dbInfo["schema_version"] = v
			dbInfo["dirty"] = dirty
		}
		body["database"] = dbInfo
	}
	if s.limiter != nil {
		body["redis"] = s.limiter.RedisStatus(c.Request.Context())
	}

	c.JSON(http.StatusOK, body)
}

// listPlayers godoc
// @Summary List loaded quarterbacks
// @Tags players
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} errors.ErrorResponse
// @Router /players [get]
func (s *server) listPlayers(c *gin.Context) {
	players, err := s.service.Players(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	out := make([]playerSummary, 0, len(players))
	for _, p := range players {
		seasons := make([]int, 0, len(p.Seasons))
		for _, rec := range p.Seasons {
			seasons = append(seasons, rec.Year)
		}
		out = append(out, playerSummary{ID: p.ID, Name: p.Name, FirstSeason: p.FirstSeason, Seasons: seasons})
	}

	c.JSON(http.StatusOK, gin.H{
		"players": out,
		"count":   len(out),
		"source":  s.service.SourceName(),
	})
}

// rank godoc
// @Summary Rank quarterbacks by QEI
// @Tags rankings
// @Accept json
// @Produce json
// @Param request body leaderboard.RankingRequest false "Weights and ranking flags"
// @Success 200 {object} leaderboard.RankingResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Router /rankings [post]
func (s *server) rank(c *gin.Context) {
	var req leaderboard.RankingRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	resp, err := s.service.Rank(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// scorePlayer godoc
// @Summary Score one quarterback against the population
// @Tags players
// @Produce json
// @Param id path string true "Player ID"
// @Param year query int false "Season (0 blends all supported seasons)"
// @Param playoffs query bool false "Include playoffs"
// @Param normalize query bool false "Normalize category variance"
// @Success 200 {object} scoring.Ranking
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /players/{id}/score [get]
func (s *server) scorePlayer(c *gin.Context) {
	ctx, err := contextFromQuery(c)
	if err != nil {
		c.Error(err)
		return
	}

	row, err := s.service.ScorePlayer(c.Request.Context(), c.Param("id"), leaderboard.RankingRequest{Context: ctx})
	if err != nil {
		c.Error(err)
		return
	}
	if row.Rejected {
		c.Error(errors.NewMissingDataError(row.PlayerID, stderrors.New(row.Reason)))
		return
	}
	c.JSON(http.StatusOK, row)
}

// saveSnapshot godoc
// @Summary Rank and persist a snapshot
// @Tags snapshots
// @Accept json
// @Produce json
// @Param request body snapshotRequest false "Snapshot label and ranking request"
// @Success 201 {object} database.Snapshot
// @Failure 400 {object} errors.ErrorResponse
// @Router /snapshots [post]
func (s *server) saveSnapshot(c *gin.Context) {
	var req snapshotRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	label, err := s.security.ValidateLabel(req.Label)
	if err != nil {
		c.Error(err)
		return
	}

	snap, err := s.service.SaveSnapshot(c.Request.Context(), label, leaderboard.RankingRequest{
		Weights: req.Weights,
		Context: req.Context,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

// listSnapshots godoc
// @Summary List saved ranking snapshots
// @Tags snapshots
// @Produce json
// @Param limit query int false "Maximum results"
// @Success 200 {array} database.SnapshotSummary
// @Router /snapshots [get]
func (s *server) listSnapshots(c *gin.Context) {
	limit := defaultSnapshotList
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.Error(errors.NewValidationError("invalid limit", map[string]string{
				"limit": "must be a positive integer",
			}))
			return
		}
		limit = min(n, maxSnapshotList)
	}

	list, err := s.service.ListSnapshots(c.Request.Context(), limit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// getSnapshot godoc
// @Summary Fetch a snapshot
// @Tags snapshots
// @Produce json
// @Param id path string true "Snapshot ID"
// @Success 200 {object} database.Snapshot
// @Failure 404 {object} errors.ErrorResponse
// @Router /snapshots/{id} [get]
func (s *server) getSnapshot(c *gin.Context) {
	snap, err := s.service.GetSnapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// yearWeights godoc
// @Summary Recency weights per season
// @Tags reference
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /reference/year-weights [get]
func (s *server) yearWeights(c *gin.Context) {
	c.JSON(http.StatusOK, s.tables.YearWeights)
}

// invalidate godoc
// @Summary Drop cached rankings and reload players
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /cache/invalidate [post]
func (s *server) invalidate(c *gin.Context) {
	s.service.InvalidateAll()
	c.JSON(http.StatusOK, gin.H{
		"message":   "caches invalidated",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// bindOptionalJSON decodes the body when there is one. An empty body leaves
// dst at its zero value, which means default weights.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		return errors.NewValidationError("invalid request body", map[string]string{
			"body": err.Error(),
		})
	}
	return nil
}

func contextFromQuery(c *gin.Context) (scoring.Context, error) {
	var ctx scoring.Context
	details := map[string]string{}

	if v := c.Query("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			details["year"] = "must be an integer"
		}
		ctx.Year = year
	}
	flag := func(name string, dst *bool) {
		if v := c.Query(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				details[name] = "must be true or false"
			}
			*dst = b
		}
	}
	flag("playoffs", &ctx.IncludePlayoffs)
	flag("normalize", &ctx.NormalizeVariance)

	if len(details) > 0 {
		return ctx, errors.NewValidationError("invalid query parameters", details)
	}
	return ctx, nil
}
