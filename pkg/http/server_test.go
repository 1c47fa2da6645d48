package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"SignalForge/pkg/http/middleware"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingHandler struct{}

func (pingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestNewServer_MountsSystemAndHandlerRoutes(t *testing.T) {
	s := NewServer(nil, []Handler{pingHandler{}, nil}, WithMetricsPath(""))

	rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, "pong", rec.Body.String())

	rec = do(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewServer_Readiness(t *testing.T) {
	healthy := NewServer(nil, nil, WithHealthCheck("store", func() error { return nil }))
	assert.Equal(t, http.StatusOK, do(healthy, httptest.NewRequest(http.MethodGet, "/readyz", nil)).Code)

	failing := NewServer(nil, nil, WithHealthCheck("store", func() error { return errors.New("backlog full") }))
	rec := do(failing, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]interface{}{"store": "backlog full"}, body.Data)
}

func TestNewServer_CORSFromConfig(t *testing.T) {
	s := NewServer(nil, []Handler{pingHandler{}}, WithCORS(middleware.CORSConfig{
		AllowOrigins: []string{"https://app.example.com"},
		AllowMethods: []string{http.MethodGet},
	}))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderOrigin, "https://app.example.com")
	rec := do(s, req)
	assert.Equal(t, "https://app.example.com", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderOrigin, "https://evil.example.com")
	rec = do(s, req)
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "pong", rec.Body.String())
}

func TestNewServer_WithoutCORS(t *testing.T) {
	s := NewServer(nil, []Handler{pingHandler{}}, WithoutCORS())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderOrigin, "https://app.example.com")
	assert.Empty(t, do(s, req).Header().Get(echo.HeaderAccessControlAllowOrigin))
}
