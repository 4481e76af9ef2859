// Package http provides HTTP routing and middleware configuration
// for the selfcare service.
package http

import (
	"net/http"

	"github.com/movitel/selfcare/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs the HTTP handler serving the selfcare API.
//
// Routes:
//
//	POST /api/login              → handler.Login
//	POST /api/recovery/document  → handler.CheckDocument
//	POST /api/recovery/token     → handler.ValidateToken
//	POST /api/recovery/password  → handler.ChangePassword
//
// Middleware chain (applied in order):
//  1. AllowContentType("application/json") — rejects non-JSON requests
//  2. WithRequestLogging(logger)           — logs incoming requests
func NewRouter(handler *RecoveryHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", handler.Login)

		r.Route("/recovery", func(r chi.Router) {
			r.Post("/document", handler.CheckDocument)
			r.Post("/token", handler.ValidateToken)
			r.Post("/password", handler.ChangePassword)
		})
	})

	return r
}
