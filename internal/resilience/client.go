package resilience

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/errors"
)

// maxBodyBytes bounds how much of a remote response is read into memory.
const maxBodyBytes = 32 << 20

// ClientConfig configures an HTTPClient.
type ClientConfig struct {
	Name           string
	Timeout        time.Duration
	MaxIdleConns   int
	IdleTimeout    time.Duration
	Retry          RetryConfig
	CircuitBreaker CircuitBreakerConfig
}

// DefaultClientConfig returns the settings used for hosted player sources.
func DefaultClientConfig(name string) ClientConfig {
	return ClientConfig{
		Name:         name,
		Timeout:      15 * time.Second,
		MaxIdleConns: 4,
		IdleTimeout:  90 * time.Second,
		Retry:        DefaultRetryConfig(),
		CircuitBreaker: CircuitBreakerConfig{
			FailureThreshold: 5,
			RecoveryTimeout:  30 * time.Second,
			SuccessThreshold: 2,
		},
	}
}

// HTTPClient issues GET requests with retry and a circuit breaker around each attempt.
type HTTPClient struct {
	name    string
	client  *http.Client
	breaker *CircuitBreaker
	retry   RetryConfig

	requests atomic.Int64
	failures atomic.Int64
}

// NewHTTPClient builds a client with its own pooled transport.
func NewHTTPClient(config ClientConfig) *HTTPClient {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConns,
		IdleConnTimeout:       config.IdleTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: config.Timeout,
	}

	return &HTTPClient{
		name:    config.Name,
		client:  &http.Client{Transport: transport, Timeout: config.Timeout},
		breaker: NewCircuitBreaker(config.Name, config.CircuitBreaker),
		retry:   config.Retry,
	}
}

// Get fetches url and returns the body of a 2xx response. 408, 429 and 5xx
// responses are retried; other statuses fail immediately.
func (c *HTTPClient) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	var body []byte

	err := Retry(ctx, c.retry, func(ctx context.Context) error {
		return c.breaker.Call(func() error {
			b, err := c.do(ctx, url, headers)
			if err != nil {
				return err
			}
			body = b
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return body, nil
}

func (c *HTTPClient) do(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	c.requests.Add(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewConfigurationError("invalid source URL", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.failures.Add(1)
		slog.Warn("Request failed", "source", c.name, "error", err, "duration_ms", time.Since(start).Milliseconds())
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.NewExternalAPIError(c.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.failures.Add(1)
		return nil, errors.NewExternalAPIError(c.name, fmt.Errorf("read body: %w", err))
	}

	slog.Debug("Request completed", "source", c.name, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	c.failures.Add(1)
	cause := fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 256))
	switch {
	case isRetryableHTTPStatus(resp.StatusCode):
		return nil, errors.NewExternalAPIError(c.name, cause)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errors.NewConfigurationError(c.name+" rejected the API key", cause)
	default:
		return nil, errors.NewValidationError(fmt.Sprintf("%s request rejected", c.name), map[string]string{"status": cause.Error()})
	}
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

// GetStats returns request counters and breaker state.
func (c *HTTPClient) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"source":                c.name,
		"requests":              c.requests.Load(),
		"failures":              c.failures.Load(),
		"circuit_breaker_state": c.breaker.State().String(),
	}
}

// Close releases idle connections.
func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
