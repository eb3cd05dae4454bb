// Package api assembles the HTTP surface: routing, middleware, handlers.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/minyuzhao/rtutor/internal/api/middleware"
	"github.com/minyuzhao/rtutor/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler        http.HandlerFunc
	HomeworkHandler      http.HandlerFunc
	ExplainHandler       http.HandlerFunc
	ChatHandler          http.HandlerFunc
	QAHandler            http.HandlerFunc
	QualityHandler       http.HandlerFunc
	TestCasesHandler     http.HandlerFunc
	OptimizeHandler      http.HandlerFunc
	HistoryHandler       http.HandlerFunc
	RequestDetailHandler http.HandlerFunc
	MetricsHandler       http.HandlerFunc
	CreateKeyHandler     http.HandlerFunc
	ListKeysHandler      http.HandlerFunc
	RevokeKeyHandler     http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.ClientIP)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	// Public tutoring routes, rate limited per client IP
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimit.Limit)

		r.Post("/api/v1/homework", orNotImplemented(deps.HomeworkHandler))
		r.Post("/api/v1/explain", orNotImplemented(deps.ExplainHandler))
		r.Post("/api/v1/chat", orNotImplemented(deps.ChatHandler))
		r.Post("/api/v1/qa", orNotImplemented(deps.QAHandler))
		r.Post("/api/v1/quality", orNotImplemented(deps.QualityHandler))
		r.Post("/api/v1/testcases", orNotImplemented(deps.TestCasesHandler))
		r.Post("/api/v1/optimize", orNotImplemented(deps.OptimizeHandler))

		r.Get("/api/v1/history", orNotImplemented(deps.HistoryHandler))
		r.Get("/api/v1/history/{requestID}", orNotImplemented(deps.RequestDetailHandler))
		r.Get("/api/v1/metrics", orNotImplemented(deps.MetricsHandler))
	})

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.Auth.RequireScope("admin"))

		r.Post("/api/v1/admin/keys", orNotImplemented(deps.CreateKeyHandler))
		r.Get("/api/v1/admin/keys", orNotImplemented(deps.ListKeysHandler))
		r.Delete("/api/v1/admin/keys/{keyID}", orNotImplemented(deps.RevokeKeyHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
