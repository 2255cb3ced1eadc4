package app

import (
	"net/http"

	"github.com/gorilla/mux"

	"feed-gateway/internal/auth"
	"feed-gateway/internal/handlers"
	"feed-gateway/internal/middleware"
)

// SetupRoutes configures all HTTP routes for the application
func SetupRoutes(router *mux.Router, h *handlers.Handlers, gate *auth.Gate) {
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.CORSMiddleware)

	// Cookie submission and health (no auth required)
	router.HandleFunc("/set-cookies", h.SetCookies).Methods(http.MethodPost)
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	// Personalized endpoints require a resolvable Login header
	router.HandleFunc("/feed", gate.RequireUser(h.Feed)).Methods(http.MethodGet)
	router.HandleFunc("/watch", gate.RequireUser(h.Watch)).Methods(http.MethodGet)
	router.HandleFunc("/me", gate.RequireUser(h.Me)).Methods(http.MethodGet)
}
