package logger

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observeGlobal(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func newRouter(cfg MiddlewareConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(cfg))
	r.GET("/products/:id", func(c *gin.Context) {
		if c.Param("id") == "boom" {
			_ = c.Error(errors.New("database down"))
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestGinMiddlewareEchoesRequestID(t *testing.T) {
	logs := observeGlobal(t, zapcore.InfoLevel)
	r := newRouter(MiddlewareConfig{})

	req := httptest.NewRequest(http.MethodGet, "/products/1", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(HeaderRequestID))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0].ContextMap()
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, "/products/:id", entry["route"])
	assert.NotEmpty(t, entry["correlation_id"])
}

func TestGinMiddlewareGeneratesRequestID(t *testing.T) {
	observeGlobal(t, zapcore.InfoLevel)
	w := httptest.NewRecorder()
	newRouter(MiddlewareConfig{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/1", nil))
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

func TestGinMiddlewareClassifiesErrors(t *testing.T) {
	logs := observeGlobal(t, zapcore.InfoLevel)
	r := newRouter(MiddlewareConfig{
		Debug: true,
		ErrorClassifier: func(error) (string, string) {
			return "internal_error", "db"
		},
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products/boom", nil))

	require.Equal(t, 1, logs.Len())
	got := logs.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, got.Level)
	assert.Equal(t, "internal_error", got.ContextMap()["error_type"])
	assert.Equal(t, "database down", got.ContextMap()["error"])
}

func TestGinMiddlewareProbesLogAtDebug(t *testing.T) {
	logs := observeGlobal(t, zapcore.InfoLevel)
	newRouter(MiddlewareConfig{}).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, 0, logs.Len())
}
