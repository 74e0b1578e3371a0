package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"social-catering/backend/config"
	"social-catering/backend/internal/api/handler"
	"social-catering/backend/internal/service"
	"social-catering/backend/pkg/jwt"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Port: 8080, MaxBodyBytes: 1 << 20},
		Auth:    config.AuthConfig{JWTSecret: "router-test-secret-2026", AccessTokenTTL: 15 * time.Minute},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

// 仅验证路由与中间件；请求不会到达 Handler
func setupTestRouter(t *testing.T) (*jwt.Manager, http.Handler) {
	t.Helper()
	cfg := testConfig()
	mgr := jwt.NewManager(&cfg.Auth)
	reg := prometheus.NewRegistry()
	h := handler.NewHandler(&service.Service{})
	return mgr, Setup(cfg, h, mgr, nil, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), zap.NewNop())
}

func TestSetup_RegistersEngineRoutes(t *testing.T) {
	cfg := testConfig()
	r := Setup(cfg, handler.NewHandler(&service.Service{}), jwt.NewManager(&cfg.Auth), nil, nil, zap.NewNop())

	registered := make(map[string]bool)
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"POST /api/v1/shifts/:id/assignments",
		"POST /api/v1/shifts/:id/assignments/validate",
		"POST /api/v1/assignments/:id/confirm",
		"POST /api/v1/assignments/:id/clock-in",
		"POST /api/v1/assignments/:id/clock-out",
		"PUT /api/v1/assignments/:id/hours",
		"POST /api/v1/assignments/:id/approve",
		"POST /api/v1/assignments/:id/unapprove",
		"POST /api/v1/assignments/:id/no-show",
		"POST /api/v1/assignments/:id/remove",
		"DELETE /api/v1/assignments/:id",
		"GET /api/v1/events/:id",
		"POST /api/v1/events/:id/publish",
		"POST /api/v1/events/:id/shifts/generate",
		"PUT /api/v1/events/:id/schedule",
		"POST /api/v1/events/:id/recalculate",
		"GET /api/v1/events/:id/activity-logs",
		"GET /api/v1/events/:id/timesheet",
		"GET /api/v1/events/:id/calendar.ics",
		"PUT /api/v1/skill-requirements/:id/pay-rate",
		"GET /health",
	} {
		assert.True(t, registered[want], "缺少路由 %s", want)
	}
	assert.False(t, registered["GET /metrics"], "未提供指标 Handler 时不注册")
}

func TestSetup_HealthAndMetrics(t *testing.T) {
	_, r := setupTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetup_RequiresAuthentication(t *testing.T) {
	_, r := setupTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/events/e-1", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSetup_SupervisorRoutes(t *testing.T) {
	mgr, r := setupTestRouter(t)
	token, err := mgr.GenerateAccessToken("actor-1", jwt.RoleStaff)
	require.NoError(t, err)

	for _, target := range []struct{ method, path string }{
		{"POST", "/api/v1/assignments/a-1/approve"},
		{"POST", "/api/v1/assignments/a-1/unapprove"},
		{"PUT", "/api/v1/assignments/a-1/hours"},
		{"POST", "/api/v1/assignments/a-1/no-show"},
		{"POST", "/api/v1/assignments/a-1/remove"},
		{"DELETE", "/api/v1/assignments/a-1"},
		{"POST", "/api/v1/events/e-1/publish"},
		{"POST", "/api/v1/events/e-1/shifts/generate"},
		{"PUT", "/api/v1/events/e-1/schedule"},
		{"POST", "/api/v1/events/e-1/recalculate"},
		{"PUT", "/api/v1/skill-requirements/r-1/pay-rate"},
		{"GET", "/api/v1/events/e-1/timesheet"},
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(target.method, target.path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code, target.path)
	}
}
