package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLoggerHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, slog.LevelInfo)

	logger.RankingLogger("csv", 32, 2, 2024, true, 15*time.Millisecond, false)
	logger.SourceLogger("supabase", 0, time.Second, errors.New("unavailable"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var ranking map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &ranking))
	assert.Equal(t, "Ranking Completed", ranking["msg"])
	assert.EqualValues(t, 32, ranking["players"])
	assert.EqualValues(t, 2024, ranking["year"])
	assert.Contains(t, ranking, "timestamp")

	var source map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &source))
	assert.Equal(t, "WARN", source["level"])
	assert.Equal(t, "unavailable", source["error"])
}

func TestMetricsPercentiles(t *testing.T) {
	m := NewMetrics()
	assert.Zero(t, m.GetPercentileResponseTime(50))

	for i := 100; i >= 1; i-- {
		m.RecordResponseTime(time.Duration(i) * time.Millisecond)
	}
	assert.InDelta(t, float64(50*time.Millisecond), float64(m.GetPercentileResponseTime(50)), float64(time.Millisecond))
	assert.InDelta(t, float64(99*time.Millisecond), float64(m.GetPercentileResponseTime(99)), float64(time.Millisecond))
	assert.Equal(t, 100*time.Millisecond, m.GetPercentileResponseTime(100))
}

func TestMetricsSampleWindow(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < maxResponseSamples+10; i++ {
		m.RecordResponseTime(time.Millisecond)
	}
	assert.Len(t, m.responseTimes, maxResponseSamples)
}

func TestMetricsStats(t *testing.T) {
	m := NewMetrics()
	m.IncrementRequest()
	m.IncrementRequest()
	m.IncrementError()
	m.IncrementCacheHit()
	m.IncrementCacheMiss()
	m.IncrementCacheMiss()
	m.IncrementRankingRun()
	m.RecordSourceLoad("csv", true)
	m.RecordSourceLoad("csv", false)

	stats := m.GetStats()
	assert.EqualValues(t, 2, stats["total_requests"])
	assert.InDelta(t, 50.0, stats["error_rate_percent"], 1e-9)
	assert.InDelta(t, 100.0/3, stats["cache_hit_rate_percent"], 1e-9)
	assert.EqualValues(t, 1, stats["ranking_runs"])

	sources := stats["sources"].(map[string]interface{})
	assert.Equal(t, map[string]int64{"loads": 2, "failures": 1}, sources["csv"])
}

func TestMonitoringMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	metrics := NewMetrics()
	router := gin.New()
	router.Use(MonitoringMiddleware(metrics, NewLoggerTo(&buf, slog.LevelInfo)))
	router.GET("/players/:id/score", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/health", "/players/ghost/score"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.EqualValues(t, 2, metrics.RequestCount)
	assert.EqualValues(t, 1, metrics.ErrorCount)
	assert.Equal(t, map[int]int64{200: 1, 404: 1}, metrics.GetStatusCodeDistribution())
	assert.Contains(t, buf.String(), `"path":"/players/:id/score"`)
}
