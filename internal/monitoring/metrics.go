package monitoring

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/stat"
)

const maxResponseSamples = 1000

// Metrics holds in-process service counters exposed on /metrics.
type Metrics struct {
	RequestCount int64
	ErrorCount   int64
	RankingRuns  int64
	CacheHits    int64
	CacheMisses  int64
	StartTime    time.Time

	responseTimes []time.Duration
	responseMu    sync.RWMutex

	statusCounts map[int]int64
	statusMu     sync.RWMutex

	sourceLoads    map[string]int64
	sourceFailures map[string]int64
	sourceMu       sync.RWMutex

	RateLimitBlocks    int64
	RateLimitFallbacks int64
	RateLimitRedisErrs int64
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:      time.Now(),
		responseTimes:  make([]time.Duration, 0, maxResponseSamples),
		statusCounts:   make(map[int]int64),
		sourceLoads:    make(map[string]int64),
		sourceFailures: make(map[string]int64),
	}
}

// IncrementRequest increments the request count
func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

// IncrementError increments the error count
func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

// IncrementRankingRun counts an engine run that was not served from cache.
func (m *Metrics) IncrementRankingRun() {
	atomic.AddInt64(&m.RankingRuns, 1)
}

// IncrementCacheHit increments cache hit count
func (m *Metrics) IncrementCacheHit() {
	atomic.AddInt64(&m.CacheHits, 1)
}

// IncrementCacheMiss increments cache miss count
func (m *Metrics) IncrementCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
}

// IncrementRateLimitBlock counts a rejected request.
func (m *Metrics) IncrementRateLimitBlock() {
	atomic.AddInt64(&m.RateLimitBlocks, 1)
}

// IncrementRateLimitFallback counts a decision made by the in-memory limiter.
func (m *Metrics) IncrementRateLimitFallback() {
	atomic.AddInt64(&m.RateLimitFallbacks, 1)
}

// IncrementRateLimitRedisError counts a failed Redis limiter call.
func (m *Metrics) IncrementRateLimitRedisError() {
	atomic.AddInt64(&m.RateLimitRedisErrs, 1)
}

// RecordResponseTime keeps the most recent response times for percentiles.
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	m.responseMu.Lock()
	defer m.responseMu.Unlock()

	if len(m.responseTimes) == maxResponseSamples {
		copy(m.responseTimes, m.responseTimes[1:])
		m.responseTimes = m.responseTimes[:maxResponseSamples-1]
	}
	m.responseTimes = append(m.responseTimes, duration)
}

// RecordRequestByStatus records request count by HTTP status code
func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	m.statusCounts[statusCode]++
}

// RecordSourceLoad records a player load from a named source.
func (m *Metrics) RecordSourceLoad(source string, success bool) {
	m.sourceMu.Lock()
	defer m.sourceMu.Unlock()

	m.sourceLoads[source]++
	if !success {
		m.sourceFailures[source]++
	}
}

// GetPercentileResponseTime returns the empirical p-th percentile (0-100).
func (m *Metrics) GetPercentileResponseTime(percentile float64) time.Duration {
	m.responseMu.RLock()
	samples := make([]float64, len(m.responseTimes))
	for i, d := range m.responseTimes {
		samples[i] = float64(d)
	}
	m.responseMu.RUnlock()

	if len(samples) == 0 {
		return 0
	}
	sort.Float64s(samples)
	return time.Duration(stat.Quantile(percentile/100, stat.Empirical, samples, nil))
}

// GetStatusCodeDistribution returns a copy of the per-status counts.
func (m *Metrics) GetStatusCodeDistribution() map[int]int64 {
	m.statusMu.RLock()
	defer m.statusMu.RUnlock()

	out := make(map[int]int64, len(m.statusCounts))
	for k, v := range m.statusCounts {
		out[k] = v
	}
	return out
}

// GetSourceStats returns load and failure counts per player source.
func (m *Metrics) GetSourceStats() map[string]interface{} {
	m.sourceMu.RLock()
	defer m.sourceMu.RUnlock()

	out := make(map[string]interface{}, len(m.sourceLoads))
	for name, loads := range m.sourceLoads {
		out[name] = map[string]int64{
			"loads":    loads,
			"failures": m.sourceFailures[name],
		}
	}
	return out
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// GetStats returns current metrics statistics
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.RequestCount)
	errCount := atomic.LoadInt64(&m.ErrorCount)
	hits := atomic.LoadInt64(&m.CacheHits)
	misses := atomic.LoadInt64(&m.CacheMisses)

	errorRate := 0.0
	if requests > 0 {
		errorRate = float64(errCount) / float64(requests) * 100
	}
	hitRate := 0.0
	if hits+misses > 0 {
		hitRate = float64(hits) / float64(hits+misses) * 100
	}

	return map[string]interface{}{
		"uptime_seconds":           time.Since(m.StartTime).Seconds(),
		"start_time":               m.StartTime.UTC().Format(time.RFC3339),
		"total_requests":           requests,
		"error_count":              errCount,
		"error_rate_percent":       errorRate,
		"ranking_runs":             atomic.LoadInt64(&m.RankingRuns),
		"cache_hits":               hits,
		"cache_misses":             misses,
		"cache_hit_rate_percent":   hitRate,
		"p50_response_time_ms":     ms(m.GetPercentileResponseTime(50)),
		"p95_response_time_ms":     ms(m.GetPercentileResponseTime(95)),
		"p99_response_time_ms":     ms(m.GetPercentileResponseTime(99)),
		"status_code_distribution": m.GetStatusCodeDistribution(),
		"sources":                  m.GetSourceStats(),
		"rate_limit": map[string]int64{
			"blocks":       atomic.LoadInt64(&m.RateLimitBlocks),
			"fallbacks":    atomic.LoadInt64(&m.RateLimitFallbacks),
			"redis_errors": atomic.LoadInt64(&m.RateLimitRedisErrs),
		},
	}
}
