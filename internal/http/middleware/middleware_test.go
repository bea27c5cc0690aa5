package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"ridebroker/internal/http/middleware"
)

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/boom", func(c *gin.Context) { panic("boom") })
	return r
}

func get(r http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	r := newEngine(middleware.Recovery(zap.New(core)))

	w := get(r, "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())

	assert.Equal(t, http.StatusOK, get(r, "/ok").Code)
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := newEngine(middleware.Logging(zap.New(core)))

	get(r, "/ok")
	get(r, "/missing")

	entries := logs.FilterMessage("request").All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
		assert.Equal(t, "/ok", entries[0].ContextMap()["path"])
		assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	}
}

func TestRateLimit(t *testing.T) {
	r := newEngine(middleware.RateLimit(0.001, 2, zap.NewNop()))

	assert.Equal(t, http.StatusOK, get(r, "/ok").Code)
	assert.Equal(t, http.StatusOK, get(r, "/ok").Code)
	w := get(r, "/ok")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, w.Body.String())
}

func TestRateLimit_Disabled(t *testing.T) {
	r := newEngine(middleware.RateLimit(0, 0, zap.NewNop()))
	for i := 0; i < 50; i++ {
		assert.Equal(t, http.StatusOK, get(r, "/ok").Code)
	}
}

func TestCORS(t *testing.T) {
	r := newEngine(middleware.CORS([]string{"http://planner.local"}))

	w := get(r, "/ok", "Origin", "http://planner.local")
	assert.Equal(t, "http://planner.local", w.Header().Get("Access-Control-Allow-Origin"))

	w = get(r, "/ok", "Origin", "http://evil.local")
	assert.Equal(t, http.StatusForbidden, w.Code)
}
