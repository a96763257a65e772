package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomcamp/tomcamp-core/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/token", s.handleToken)

		// Public reads.
		r.Get("/journals", s.handleListJournals)
		r.Get("/journals/{id}", s.handleGetJournal)
		r.Get("/pages", s.handleListPages)
		r.Get("/pages/{id}", s.handleGetPage)

		// Device-authenticated.
		r.With(s.apiKeyMiddleware).Post("/devices/data", s.handleAppendDeviceData)

		// WebSocket (auth via ticket, validated in handler).
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/ws-ticket", s.handleWSTicket)

			r.Get("/users/me", s.handleGetCurrentUser)
			r.Get("/users", s.handleListUsers)
			r.Get("/users/{id}", s.handleGetUser)
			r.Put("/users/{id}", s.handleUpdateUser)

			r.Get("/devices", s.handleListDevices)
			r.Get("/devices/{id}", s.handleGetDevice)
			r.Get("/devices/{id}/data", s.handleGetDeviceData)

			r.Group(func(r chi.Router) {
				r.Use(s.requireRole(auth.RoleEditor))
				r.Post("/journals", s.handleCreateJournal)
				r.Put("/journals/{id}", s.handleUpdateJournal)
				r.Post("/journals/{id}/entries", s.handleAddJournalEntry)
				r.Post("/pages", s.handleCreatePage)
				r.Put("/pages/{id}", s.handleUpdatePage)
				r.Delete("/pages/{id}", s.handleDeletePage)
			})

			r.Group(func(r chi.Router) {
				r.Use(s.requireRole(auth.RoleAdmin))
				r.Post("/users", s.handleCreateUser)
				r.Delete("/users/{id}", s.handleDeleteUser)
				r.Delete("/journals/{id}", s.handleDeleteJournal)
				r.Post("/devices", s.handleCreateDevice)
				r.Get("/devices/{id}/key", s.handleGetDeviceKey)
				r.Delete("/devices/{id}", s.handleDeleteDevice)
				r.Get("/metrics", s.handleMetrics)
				r.Get("/audit", s.handleListAudit)
			})
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if s.db != nil {
		if err := s.db.HealthCheck(r.Context()); err != nil {
			s.logger.Warn("database health check failed", "error", err)
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, map[string]any{
		"status":  status,
		"version": s.version,
	})
}
