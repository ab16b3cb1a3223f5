package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(cm *CompressionMiddleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(cm.Handler())
	r.GET("/large", func(c *gin.Context) {
		rows := make([]gin.H, 100)
		for i := range rows {
			rows[i] = gin.H{"rank": i + 1, "name": "Quarterback", "qei": 50.0}
		}
		c.JSON(http.StatusOK, gin.H{"rankings": rows})
	})
	r.GET("/small", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/created", func(c *gin.Context) {
		c.String(http.StatusCreated, strings.Repeat("x", 4096))
	})
	r.GET("/binary", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/octet-stream", make([]byte, 4096))
	})
	r.GET("/empty", func(c *gin.Context) {
		c.AbortWithStatus(http.StatusNoContent)
	})
	return r
}

func get(r http.Handler, path string, gz bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if gz {
		req.Header.Set("Accept-Encoding", "gzip, deflate")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func gunzip(t *testing.T, body io.Reader) string {
	t.Helper()
	zr, err := gzip.NewReader(body)
	require.NoError(t, err)
	out, err := io.ReadAll(zr)
	require.NoError(t, err)
	return string(out)
}

func TestCompression(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		acceptGzip bool
		wantStatus int
		wantGzip   bool
	}{
		{"large json compressed", "/large", true, http.StatusOK, true},
		{"client without gzip", "/large", false, http.StatusOK, false},
		{"below min size", "/small", true, http.StatusOK, false},
		{"status preserved", "/created", true, http.StatusCreated, true},
		{"unlisted content type", "/binary", true, http.StatusOK, false},
		{"no body", "/empty", true, http.StatusNoContent, false},
		{"unknown route", "/missing", true, http.StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(NewCompressionMiddleware(DefaultCompressionConfig()))
			w := get(r, tt.path, tt.acceptGzip)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantGzip {
				assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
				assert.Contains(t, w.Header().Values("Vary"), "Accept-Encoding")
				assert.NotEmpty(t, gunzip(t, w.Body))
			} else {
				assert.Empty(t, w.Header().Get("Content-Encoding"))
			}
		})
	}
}

func TestCompression_RoundTrip(t *testing.T) {
	r := newRouter(NewCompressionMiddleware(DefaultCompressionConfig()))

	plain := get(r, "/large", false).Body.String()
	compressed := get(r, "/large", true)

	assert.Less(t, compressed.Body.Len(), len(plain))
	assert.JSONEq(t, plain, gunzip(t, compressed.Body))
}

func TestCompressionStats(t *testing.T) {
	cm := NewCompressionMiddleware(CompressionConfig{MinSize: 10, CompressionLevel: 99, ContentTypes: []string{"application/json"}})
	r := newRouter(cm)

	get(r, "/large", true)
	get(r, "/small", true)
	get(r, "/large", false)

	stats := cm.GetStats()
	assert.EqualValues(t, 2, stats["total_requests"])
	assert.EqualValues(t, 2, stats["compressed_requests"])
	assert.Less(t, stats["compression_ratio"].(float64), 1.0)
}
