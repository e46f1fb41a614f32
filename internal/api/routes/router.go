package routes

import (
	"net/http"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/api/handlers"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/api/loaders"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/api/middleware"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/repositories"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/infrastructure/observability"
)

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Health    *handlers.HealthHandler
	User      *handlers.UserHandler
	Volunteer *handlers.VolunteerHandler
	Request   *handlers.RequestHandler
	Session   *handlers.SessionHandler
	Report    *handlers.ReportHandler
}

// Router holds all route handlers
type Router struct {
	mux            *http.ServeMux
	handlers       Handlers
	userRepo       repositories.UserRepository
	metrics        *observability.Metrics
	allowedOrigins []string
}

// NewRouter creates a new router. userRepo backs the per-request volunteer
// loader; metrics may be nil.
func NewRouter(h Handlers, userRepo repositories.UserRepository, metrics *observability.Metrics, allowedOrigins []string) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		handlers:       h,
		userRepo:       userRepo,
		metrics:        metrics,
		allowedOrigins: allowedOrigins,
	}
}

// handle registers fn with per-route tracing so spans and metrics carry the
// matched pattern
func (r *Router) handle(pattern string, fn http.HandlerFunc) {
	r.mux.Handle(pattern, middleware.ObservabilityMiddleware(r.metrics)(fn))
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	h := r.handlers

	r.handle("GET /{$}", h.Health.Banner)
	r.handle("GET /health", h.Health.Health)

	// Users
	r.handle("POST /api/users", h.User.CreateUser)
	r.handle("GET /api/users", h.User.ListUsers)
	r.handle("GET /api/users/{id}", h.User.GetUser)
	r.handle("PUT /api/users/{id}", h.User.UpdateUser)

	// Volunteers
	r.handle("GET /api/volunteers/available", h.Volunteer.ListAvailable)
	r.handle("GET /api/volunteers/{id}/stats", h.Volunteer.GetStats)

	// Requests
	r.handle("POST /api/requests", h.Request.CreateRequest)
	r.handle("GET /api/requests", h.Request.ListRequests)
	r.handle("GET /api/requests/pending", h.Request.ListPendingRequests)
	r.handle("GET /api/requests/pending/all", h.Request.ListPendingRequests)
	r.handle("GET /api/requests/{id}", h.Request.GetRequest)
	r.handle("PUT /api/requests/{id}", h.Request.UpdateRequest)
	r.handle("POST /api/requests/{id}/accept", h.Request.AcceptRequest)
	r.handle("POST /api/requests/{id}/complete", h.Request.CompleteRequest)
	r.handle("POST /api/requests/{id}/cancel", h.Request.CancelRequest)

	// Sessions
	r.handle("POST /api/sessions", h.Session.OpenSession)
	r.handle("GET /api/sessions", h.Session.ListSessions)
	r.handle("GET /api/sessions/active", h.Session.ListActiveSessions)
	r.handle("GET /api/sessions/{id}", h.Session.GetSession)
	r.handle("PUT /api/sessions/{id}/end", h.Session.CloseSession)

	// Reports
	r.handle("POST /api/reports", h.Report.CreateReport)
	r.handle("GET /api/reports", h.Report.ListReports)
	r.handle("GET /api/reports/{id}", h.Report.GetReport)
	r.handle("PUT /api/reports/{id}", h.Report.UpdateReport)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = loaders.Middleware(r.userRepo)(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
