package routers

import (
	"net/http"

	"peerprep/captcha/internal/handlers"

	"github.com/go-chi/chi/v5"
)

func HealthRoutes(router *chi.Mux, healthHandler *handlers.HealthHandler, metricsHandler http.Handler) {
	router.Get("/healthz", healthHandler.HealthzHandler)
	router.Get("/readyz", healthHandler.ReadyzHandler)
	router.Get("/api/v1/captcha/healthz", healthHandler.HealthzHandler)
	router.Handle("/metrics", metricsHandler)
}
