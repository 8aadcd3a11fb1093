package router_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gestionale-crm/crm-api/internal/auth"
	"github.com/gestionale-crm/crm-api/internal/config"
	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/http/handler"
	"github.com/gestionale-crm/crm-api/internal/http/middleware"
	"github.com/gestionale-crm/crm-api/internal/http/router"
	"github.com/gestionale-crm/crm-api/internal/mailer"
	"github.com/gestionale-crm/crm-api/internal/monitoring"
	"github.com/gestionale-crm/crm-api/internal/repository"
	"github.com/gestionale-crm/crm-api/internal/service"
	"github.com/gestionale-crm/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(mode string, role domain.UserRole) *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "Gestionale CRM", Environment: "development"},
		Auth: config.AuthConfig{
			Mode:            mode,
			JWTSecret:       "router-test-secret",
			BypassUserID:    "6f1c2a3b-4d5e-4f60-8a7b-9c0d1e2f3a4b",
			BypassEmail:     "dev@example.com",
			BypassFirstName: "Dev",
			BypassRole:      string(role),
		},
		Monitoring: config.MonitoringConfig{MetricsEnabled: true},
		Security:   config.SecurityConfig{ContentTypeNosniff: true, FrameOptions: "DENY"},
		RateLimit: config.RateLimitConfig{
			Enabled:               true,
			RequestsPerMinute:     1000,
			RequestsPerMinuteAuth: 1000,
		},
		Server: config.ServerConfig{RequestTimeout: 30},
	}
}

func setupRouter(t *testing.T, cfg *config.Config) http.Handler {
	db := testutil.SetupTestDB(t)
	log := zap.NewNop()
	clock := service.FixedClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), time.UTC)

	clientRepo := repository.NewClientRepository(db)
	dealRepo := repository.NewDealRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	collaboratorRepo := repository.NewCollaboratorRepository(db)
	userRepo := repository.NewUserRepository(db)

	users := service.NewUserService(userRepo, clock, log)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), clientRepo, userRepo,
		&mailer.RecordingMailer{}, clock, &cfg.Notifications, log)
	assignments := service.NewAssignmentService(repository.NewAssignmentRepository(db), projectRepo, collaboratorRepo, log)

	rt := router.NewRouter(cfg, log,
		auth.NewMiddleware(&cfg.Auth, users, log),
		middleware.NewRateLimiter(&cfg.RateLimit, log),
		monitoring.NewMetrics(),
		router.Handlers{
			Health:       handler.NewHealthHandler(db, nil, "test", log),
			Auth:         handler.NewAuthHandler(users, log),
			Client:       handler.NewClientHandler(service.NewClientService(clientRepo, log), notifications, log),
			Deal:         handler.NewDealHandler(service.NewDealService(dealRepo, clientRepo, log), log),
			Activity:     handler.NewActivityHandler(service.NewActivityService(activityRepo, log), log),
			Notification: handler.NewNotificationHandler(notifications, log),
			Project:      handler.NewProjectHandler(service.NewProjectService(projectRepo, clientRepo, log), assignments, log),
			Collaborator: handler.NewCollaboratorHandler(service.NewCollaboratorService(collaboratorRepo, log), log),
			Assignment:   handler.NewAssignmentHandler(assignments, log),
			Dashboard:    handler.NewDashboardHandler(service.NewDashboardService(clientRepo, dealRepo, activityRepo, notifications, clock, log), log),
			Report:       handler.NewReportHandler(service.NewReportService(clientRepo, dealRepo, activityRepo, nil, clock, 0, "Test", log), log),
		},
	)
	return rt.Setup()
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	h := setupRouter(t, testConfig(config.AuthModeJWT, ""))

	rec := serve(h, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	rec = serve(h, http.MethodGet, "/health/ready")
	require.Equal(t, http.StatusOK, rec.Code)
	var status domain.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Checks["database"])
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	h := setupRouter(t, testConfig(config.AuthModeJWT, ""))

	serve(h, http.MethodGet, "/health")
	rec := serve(h, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `crm_http_requests_total{method="GET",route="/health",status="200"}`)
}

func TestRouter_RequiresToken(t *testing.T) {
	h := setupRouter(t, testConfig(config.AuthModeJWT, ""))

	rec := serve(h, http.MethodGet, "/api/v1/clients")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_BypassSession(t *testing.T) {
	h := setupRouter(t, testConfig(config.AuthModeBypass, domain.UserRoleOwner))

	rec := serve(h, http.MethodGet, "/api/v1/auth/me")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var me domain.UserDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "dev@example.com", me.Email)

	rec = serve(h, http.MethodGet, "/api/v1/clients")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, http.MethodGet, "/api/v1/users")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RoleRestrictedRoutes(t *testing.T) {
	h := setupRouter(t, testConfig(config.AuthModeBypass, domain.UserRoleSales))

	rec := serve(h, http.MethodGet, "/api/v1/users")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(h, http.MethodPost, "/api/v1/notifications/generate")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(h, http.MethodGet, "/api/v1/notifications/count")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_SwaggerDisabled(t *testing.T) {
	h := setupRouter(t, testConfig(config.AuthModeJWT, ""))

	rec := serve(h, http.MethodGet, "/swagger/index.html")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
