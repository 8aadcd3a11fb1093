package router

import (
	"net/http"

	"github.com/gestionale-crm/crm-api/internal/auth"
	"github.com/gestionale-crm/crm-api/internal/config"
	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/http/handler"
	"github.com/gestionale-crm/crm-api/internal/http/middleware"
	"github.com/gestionale-crm/crm-api/internal/monitoring"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	_ "github.com/gestionale-crm/crm-api/docs" // swagger docs
)

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	Client       *handler.ClientHandler
	Deal         *handler.DealHandler
	Activity     *handler.ActivityHandler
	Notification *handler.NotificationHandler
	Project      *handler.ProjectHandler
	Collaborator *handler.CollaboratorHandler
	Assignment   *handler.AssignmentHandler
	Dashboard    *handler.DashboardHandler
	Report       *handler.ReportHandler
}

type Router struct {
	cfg            *config.Config
	logger         *zap.Logger
	authMiddleware *auth.Middleware
	rateLimiter    *middleware.RateLimiter
	metrics        *monitoring.Metrics
	h              Handlers
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	metrics *monitoring.Metrics,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:            cfg,
		logger:         logger,
		authMiddleware: authMiddleware,
		rateLimiter:    rateLimiter,
		metrics:        metrics,
		h:              handlers,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Metrics(rt.metrics))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)
	if timeout := rt.cfg.Server.RequestTimeoutDuration(); timeout > 0 {
		r.Use(chimiddleware.Timeout(timeout))
	}

	r.Get("/health", rt.h.Health.Live)
	r.Get("/health/ready", rt.h.Health.Ready)

	if rt.cfg.Monitoring.MetricsEnabled && rt.metrics != nil {
		r.Handle("/metrics", rt.metrics.Handler())
	}

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authMiddleware.Authenticate)
		r.Use(middleware.CaptureUser)
		r.Use(rt.rateLimiter.LimitByUser)

		// Auth & users
		r.Get("/auth/me", rt.h.Auth.Me)
		r.Route("/users", func(r chi.Router) {
			r.Use(rt.authMiddleware.RequireRole(domain.UserRoleOwner, domain.UserRoleManager))
			r.Get("/", rt.h.Auth.ListUsers)
			r.Put("/{id}/approve", rt.h.Auth.ApproveUser)
		})

		// Clients
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", rt.h.Client.List)
			r.Post("/", rt.h.Client.Create)
			r.Get("/{id}", rt.h.Client.GetByID)
			r.Put("/{id}", rt.h.Client.Update)
			r.Delete("/{id}", rt.h.Client.Delete)
			r.Get("/{id}/notifications", rt.h.Client.Notifications)
		})

		// Deals
		r.Route("/deals", func(r chi.Router) {
			r.Get("/", rt.h.Deal.List)
			r.Post("/", rt.h.Deal.Create)
			r.Get("/{id}", rt.h.Deal.GetByID)
			r.Put("/{id}", rt.h.Deal.Update)
			r.Delete("/{id}", rt.h.Deal.Delete)
		})

		// Activities
		r.Route("/activities", func(r chi.Router) {
			r.Get("/", rt.h.Activity.List)
			r.Post("/", rt.h.Activity.Create)
			r.Get("/{id}", rt.h.Activity.GetByID)
			r.Put("/{id}", rt.h.Activity.Update)
			r.Delete("/{id}", rt.h.Activity.Delete)
		})

		// Notifications
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", rt.h.Notification.List)
			r.Get("/pending", rt.h.Notification.Pending)
			r.Get("/count", rt.h.Notification.Count)
			r.Put("/read", rt.h.Notification.MarkManyAsRead)
			r.With(rt.authMiddleware.RequireRole(domain.UserRoleOwner, domain.UserRoleManager)).
				Post("/generate", rt.h.Notification.Generate)
			r.Put("/{id}/read", rt.h.Notification.MarkAsRead)
			r.Delete("/{id}", rt.h.Notification.Delete)
		})

		// Projects
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", rt.h.Project.List)
			r.Post("/", rt.h.Project.Create)
			r.Get("/active", rt.h.Project.Active)
			r.Get("/{id}", rt.h.Project.GetByID)
			r.Put("/{id}", rt.h.Project.Update)
			r.Delete("/{id}", rt.h.Project.Delete)
			r.Get("/{id}/collaborators", rt.h.Project.ListCollaborators)
			r.Post("/{id}/collaborators", rt.h.Project.AssignCollaborator)
		})

		// Collaborators
		r.Route("/collaborators", func(r chi.Router) {
			r.Get("/", rt.h.Collaborator.List)
			r.Post("/", rt.h.Collaborator.Create)
			r.Get("/{id}", rt.h.Collaborator.GetByID)
			r.Put("/{id}", rt.h.Collaborator.Update)
			r.Delete("/{id}", rt.h.Collaborator.Delete)
			r.Put("/{id}/tokens", rt.h.Collaborator.UpdateTokens)
		})

		// Assignments
		r.Route("/assignments", func(r chi.Router) {
			r.Put("/{id}", rt.h.Assignment.Update)
			r.Delete("/{id}", rt.h.Assignment.Remove)
			r.Post("/{id}/use-tokens", rt.h.Assignment.UseTokens)
		})

		// Dashboard & reports
		r.Get("/dashboard/stats", rt.h.Dashboard.GetStats)
		r.Route("/reports", func(r chi.Router) {
			r.Get("/revenue", rt.h.Report.Revenue)
			r.Get("/export/{dataset}", rt.h.Report.Export)
			r.Post("/archive", rt.h.Report.Archive)
			r.Get("/archive/*", rt.h.Report.DownloadArchive)
		})
	})

	return r
}
