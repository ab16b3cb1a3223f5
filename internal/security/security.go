// Package security holds the HTTP hardening middleware and input checks for
// user supplied text.
package security

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/errors"
)

// SecurityConfig holds security configuration
type SecurityConfig struct {
	MaxLabelLength int           `json:"max_label_length"`
	MaxBodyBytes   int64         `json:"max_body_bytes"`
	RequestTimeout time.Duration `json:"request_timeout"`
	EnableHSTS     bool          `json:"enable_hsts"`
}

// DefaultSecurityConfig returns secure defaults
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		MaxLabelLength: 120,
		MaxBodyBytes:   1 << 20,
		RequestTimeout: 30 * time.Second,
	}
}

// SecurityMiddleware provides the API's hardening middleware
type SecurityMiddleware struct {
	config SecurityConfig
}

// NewSecurityMiddleware creates a new security middleware instance
func NewSecurityMiddleware(config SecurityConfig) *SecurityMiddleware {
	def := DefaultSecurityConfig()
	if config.MaxLabelLength <= 0 {
		config.MaxLabelLength = def.MaxLabelLength
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = def.MaxBodyBytes
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = def.RequestTimeout
	}
	return &SecurityMiddleware{config: config}
}

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// SanitizeLabel strips markup and collapses whitespace in a snapshot label.
func (sm *SecurityMiddleware) SanitizeLabel(label string) string {
	label = htmlTagPattern.ReplaceAllString(label, "")
	label = whitespacePattern.ReplaceAllString(label, " ")
	return strings.TrimSpace(label)
}

// ValidateLabel sanitizes label and rejects what cannot be stored safely.
func (sm *SecurityMiddleware) ValidateLabel(label string) (string, error) {
	if !utf8.ValidString(label) {
		return "", labelError("label contains invalid UTF-8 encoding")
	}
	if strings.ContainsFunc(label, func(r rune) bool {
		return unicode.IsControl(r) && !unicode.IsSpace(r)
	}) {
		return "", labelError("label contains invalid characters")
	}

	label = sm.SanitizeLabel(label)
	if n := utf8.RuneCountInString(label); n > sm.config.MaxLabelLength {
		return "", labelError(fmt.Sprintf("label exceeds maximum length of %d characters", sm.config.MaxLabelLength))
	}
	return label, nil
}

func labelError(msg string) error {
	return errors.NewValidationError("invalid snapshot label", map[string]string{"label": msg})
}

// SecurityHeaders adds security headers to responses. The Swagger UI pages
// get no Content-Security-Policy since they run inline scripts.
func (sm *SecurityMiddleware) SecurityHeaders(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Frame-Options", "DENY")
	c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
	c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

	if !strings.HasPrefix(c.Request.URL.Path, "/swagger/") {
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
	}

	if sm.config.EnableHSTS || c.Request.TLS != nil {
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}

	c.Next()
}

// ValidateContentType rejects request bodies that are not JSON.
func (sm *SecurityMiddleware) ValidateContentType(c *gin.Context) {
	contentType := c.GetHeader("Content-Type")
	if contentType == "" || c.Request.ContentLength == 0 {
		c.Next()
		return
	}

	if !strings.Contains(strings.ToLower(contentType), "application/json") {
		appErr := errors.NewValidationError("unsupported content type", map[string]string{
			"content_type": "request bodies must be application/json",
		})
		appErr.HTTPStatus = http.StatusUnsupportedMediaType
		c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.Response())
		return
	}

	c.Next()
}

// LimitBody caps how much of a request body handlers may read.
func (sm *SecurityMiddleware) LimitBody(c *gin.Context) {
	if c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, sm.config.MaxBodyBytes)
	}
	c.Next()
}

// RequestTimeout enforces request timeout
func (sm *SecurityMiddleware) RequestTimeout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), sm.config.RequestTimeout)
	defer cancel()

	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Timeout", strconv.Itoa(int(sm.config.RequestTimeout.Seconds())))

	c.Next()
}
