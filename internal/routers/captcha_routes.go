package routers

import (
	"peerprep/captcha/internal/handlers"
	"peerprep/captcha/internal/middleware"
	"peerprep/captcha/internal/models"

	"github.com/go-chi/chi/v5"
)

func CaptchaRoutes(router *chi.Mux, captchaHandler *handlers.CaptchaHandler) {
	router.Route("/api/v1/captcha", func(r chi.Router) {
		r.With(middleware.ValidateRequest[*models.IssueRequest]()).Post("/challenges", captchaHandler.IssueChallengeHandler)
		r.Get("/challenges/{id}/image", captchaHandler.ChallengeImageHandler)
		r.With(middleware.ValidateRequest[*models.VerifyRequest]()).Post("/challenges/{id}/verify", captchaHandler.VerifyChallengeHandler)
		r.With(middleware.ValidateRequest[*models.TokenVerifyRequest]()).Post("/tokens/verify", captchaHandler.VerifyTokenHandler)
		r.Get("/stats", captchaHandler.StatsHandler)
	})
}
