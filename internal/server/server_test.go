package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melalfey/schoolos-admin-portal/internal/config"
	"github.com/melalfey/schoolos-admin-portal/internal/middleware"
)

type routeFunc func(*gin.Engine)

func (f routeFunc) Register(engine *gin.Engine) { f(engine) }

func newTestServer(t *testing.T, hooks ...func(*gin.Engine)) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.AppConfig{Environment: "test", AllowCORSOrigins: []string{"http://portal.local"}}
	routes := routeFunc(func(engine *gin.Engine) {
		engine.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
		engine.GET("/panic", func(c *gin.Context) { panic("boom") })
	})
	return NewHTTPServer(":0", cfg, zerolog.Nop(), routes, hooks...).Handler()
}

func TestRequestIDIsAssignedOrKept(t *testing.T) {
	h := newTestServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(middleware.RequestIDHeader))
}

func TestPanicBecomesJSONError(t *testing.T) {
	h := newTestServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "internal server error", body.Message)
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/ok", nil)
	req.Header.Set("Origin", "http://portal.local")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://portal.local", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("Origin", "http://elsewhere.local")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHooksRunBeforeRoutes(t *testing.T) {
	var hooked bool
	h := newTestServer(t, func(engine *gin.Engine) {
		hooked = true
		engine.GET("/hooked", func(c *gin.Context) { c.Status(http.StatusAccepted) })
	})
	require.True(t, hooked)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hooked", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
}
