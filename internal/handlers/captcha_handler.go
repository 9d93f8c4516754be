package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"peerprep/captcha/internal/captcha"
	"peerprep/captcha/internal/config"
	"peerprep/captcha/internal/metrics"
	"peerprep/captcha/internal/middleware"
	"peerprep/captcha/internal/models"
	"peerprep/captcha/internal/render"
	"peerprep/captcha/internal/store"
	"peerprep/captcha/internal/token"
	"peerprep/captcha/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultStatsWindow = 24 * time.Hour

type ChallengeStore interface {
	Save(ctx context.Context, id string, challenge captcha.Challenge, ttl time.Duration) error
	Get(ctx context.Context, id string) (*captcha.Challenge, error)
	Take(ctx context.Context, id string) (*captcha.Challenge, error)
	Redeem(ctx context.Context, tokenID string, ttl time.Duration) (bool, error)
}

type TokenIssuer interface {
	Issue(challengeID string, kind captcha.Kind) (string, time.Time, error)
	Parse(tokenStr string) (*token.Claims, error)
	TTL() time.Duration
}

type AttemptRecorder interface {
	Record(ctx context.Context, attempt *models.Attempt) error
	Stats(ctx context.Context, since time.Time) (*models.StatsResponse, error)
}

type CaptchaHandler struct {
	store    ChallengeStore
	issuer   TokenIssuer
	recorder AttemptRecorder
	config   *config.Config
	logger   *zap.Logger

	newSeed func() (int64, error)
	newID   func() string
	now     func() time.Time
}

func NewCaptchaHandler(s ChallengeStore, issuer TokenIssuer, cfg *config.Config, logger *zap.Logger) *CaptchaHandler {
	return &CaptchaHandler{
		store:   s,
		issuer:  issuer,
		config:  cfg,
		logger:  logger,
		newSeed: captcha.NewSeed,
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// SetRecorder enables attempt logging and the stats endpoint.
func (handler *CaptchaHandler) SetRecorder(recorder AttemptRecorder) {
	handler.recorder = recorder
}

// POST /challenges
func (handler *CaptchaHandler) IssueChallengeHandler(writer http.ResponseWriter, request *http.Request) {
	req := middleware.GetValidatedRequest[*models.IssueRequest](request)
	cfg := handler.config

	seed, err := handler.newSeed()
	if err != nil {
		handler.logger.Error("Failed to seed challenge", zap.Error(err))
		utils.JSON(writer, http.StatusInternalServerError, models.ErrorResponse{
			Code:    "internal_error",
			Message: "Failed to generate challenge",
		})
		return
	}

	challenge, err := captcha.New(captcha.Request{
		Kind:       req.CaptchaKind(),
		Size:       req.CaptchaSize(cfg.DefaultSize, cfg.MaxSize),
		Difficulty: req.CaptchaDifficulty(cfg.DefaultDifficulty),
		Seed:       seed,
		Profiles:   cfg.Profiles,
	})
	if err != nil {
		handler.logger.Error("Failed to generate challenge", zap.Int64("seed", seed), zap.Error(err))
		utils.JSON(writer, http.StatusInternalServerError, models.ErrorResponse{
			Code:    "generation_failed",
			Message: "Failed to generate challenge",
		})
		return
	}

	image, err := render.DataURI(challenge.Text, render.Options{Height: cfg.ImageHeight}, seed)
	if err != nil {
		handler.logger.Error("Failed to render challenge", zap.Error(err))
		utils.JSON(writer, http.StatusInternalServerError, models.ErrorResponse{
			Code:    "render_failed",
			Message: "Failed to render challenge",
		})
		return
	}

	id := handler.newID()
	if err := handler.store.Save(request.Context(), id, challenge, cfg.ChallengeTTL); err != nil {
		handler.logger.Error("Failed to store challenge", zap.String("challenge_id", id), zap.Error(err))
		utils.JSON(writer, http.StatusServiceUnavailable, models.ErrorResponse{
			Code:    "store_unavailable",
			Message: "Challenge store is unavailable",
		})
		return
	}

	metrics.ObserveIssued(string(challenge.Kind), challenge.Difficulty.String())
	handler.logger.Debug("Challenge issued",
		zap.String("challenge_id", id),
		zap.String("kind", string(challenge.Kind)),
		zap.Int("size", challenge.Size),
		zap.String("difficulty", challenge.Difficulty.String()))

	utils.JSON(writer, http.StatusCreated, models.ChallengeResponse{
		ID:         id,
		Kind:       string(challenge.Kind),
		Size:       challenge.Size,
		Difficulty: challenge.Difficulty.String(),
		Image:      image,
		ExpiresAt:  handler.now().Add(cfg.ChallengeTTL).UTC(),
	})
}

// GET /challenges/{id}/image
// Each call draws a new distortion of the same text.
func (handler *CaptchaHandler) ChallengeImageHandler(writer http.ResponseWriter, request *http.Request) {
	id := chi.URLParam(request, "id")

	challenge, err := handler.store.Get(request.Context(), id)
	if err != nil {
		handler.writeStoreError(writer, id, err)
		return
	}

	seed, err := handler.newSeed()
	if err != nil {
		handler.logger.Error("Failed to seed render", zap.Error(err))
		utils.JSON(writer, http.StatusInternalServerError, models.ErrorResponse{Code: "internal_error", Message: "Failed to render challenge"})
		return
	}

	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, challenge.Text, render.Options{Height: handler.config.ImageHeight}, seed); err != nil {
		handler.logger.Error("Failed to render challenge", zap.String("challenge_id", id), zap.Error(err))
		utils.JSON(writer, http.StatusInternalServerError, models.ErrorResponse{Code: "render_failed", Message: "Failed to render challenge"})
		return
	}
	utils.PNG(writer, http.StatusOK, buf.Bytes())
}

// POST /challenges/{id}/verify
// The challenge is consumed whatever the outcome.
func (handler *CaptchaHandler) VerifyChallengeHandler(writer http.ResponseWriter, request *http.Request) {
	id := chi.URLParam(request, "id")
	req := middleware.GetValidatedRequest[*models.VerifyRequest](request)
	ctx := request.Context()

	challenge, err := handler.store.Take(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		handler.record(ctx, &models.Attempt{ChallengeID: id, Reason: models.ReasonExpired})
		metrics.ObserveVerification("unknown", models.ReasonExpired)
	}
	if err != nil {
		handler.writeStoreError(writer, id, err)
		return
	}

	reason := models.ReasonWrongAnswer
	if _, err := captcha.Answer(challenge.Kind, challenge.Text); err != nil {
		// stored text no longer derives an answer; nothing the client can do
		handler.logger.Error("Stored challenge is unanswerable", zap.String("challenge_id", id), zap.Error(err))
		reason = models.ReasonCorrupt
	} else if captcha.Check(challenge.Kind, challenge.Text, req.Answer) {
		reason = models.ReasonPassed
	}

	success := reason == models.ReasonPassed
	handler.record(ctx, &models.Attempt{
		ChallengeID: id,
		Kind:        string(challenge.Kind),
		Difficulty:  challenge.Difficulty.String(),
		Size:        challenge.Size,
		Success:     success,
		Reason:      reason,
	})
	metrics.ObserveVerification(string(challenge.Kind), reason)

	if !success {
		utils.JSON(writer, http.StatusOK, models.VerifyResponse{Success: false})
		return
	}

	passToken, expiresAt, err := handler.issuer.Issue(id, challenge.Kind)
	if err != nil {
		handler.logger.Error("Failed to issue pass token", zap.String("challenge_id", id), zap.Error(err))
		utils.JSON(writer, http.StatusInternalServerError, models.ErrorResponse{
			Code:    "token_failed",
			Message: "Failed to issue pass token",
		})
		return
	}
	expiresAt = expiresAt.UTC()
	utils.JSON(writer, http.StatusOK, models.VerifyResponse{
		Success:   true,
		PassToken: passToken,
		ExpiresAt: &expiresAt,
	})
}

// POST /tokens/verify
// Called by other services; a pass token is accepted once.
func (handler *CaptchaHandler) VerifyTokenHandler(writer http.ResponseWriter, request *http.Request) {
	req := middleware.GetValidatedRequest[*models.TokenVerifyRequest](request)

	claims, err := handler.issuer.Parse(req.Token)
	if err != nil {
		metrics.ObserveTokenCheck(false)
		utils.JSON(writer, http.StatusOK, models.TokenVerifyResponse{Valid: false})
		return
	}

	first, err := handler.store.Redeem(request.Context(), claims.ID, handler.issuer.TTL())
	if err != nil {
		handler.logger.Error("Failed to redeem pass token", zap.String("token_id", claims.ID), zap.Error(err))
		utils.JSON(writer, http.StatusServiceUnavailable, models.ErrorResponse{
			Code:    "store_unavailable",
			Message: "Challenge store is unavailable",
		})
		return
	}
	metrics.ObserveTokenCheck(first)
	if !first {
		utils.JSON(writer, http.StatusOK, models.TokenVerifyResponse{Valid: false})
		return
	}

	utils.JSON(writer, http.StatusOK, models.TokenVerifyResponse{
		Valid:       true,
		ChallengeID: claims.ChallengeID,
		Kind:        claims.Kind,
	})
}

// GET /stats?since=<duration>
func (handler *CaptchaHandler) StatsHandler(writer http.ResponseWriter, request *http.Request) {
	if handler.recorder == nil {
		utils.JSON(writer, http.StatusServiceUnavailable, models.ErrorResponse{
			Code:    "stats_unavailable",
			Message: "Attempt recording is disabled",
		})
		return
	}

	window := defaultStatsWindow
	if raw := request.URL.Query().Get("since"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			utils.JSON(writer, http.StatusBadRequest, models.ErrorResponse{
				Code:    "invalid_since",
				Message: "since must be a positive duration such as 1h or 30m",
			})
			return
		}
		window = d
	}

	stats, err := handler.recorder.Stats(request.Context(), handler.now().Add(-window))
	if err != nil {
		handler.logger.Error("Failed to load attempt stats", zap.Error(err))
		utils.JSON(writer, http.StatusInternalServerError, models.ErrorResponse{
			Code:    "internal_error",
			Message: "Failed to load stats",
		})
		return
	}
	utils.JSON(writer, http.StatusOK, stats)
}

func (handler *CaptchaHandler) writeStoreError(writer http.ResponseWriter, id string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		utils.JSON(writer, http.StatusNotFound, models.ErrorResponse{
			Code:    "challenge_not_found",
			Message: "Challenge not found or expired",
		})
		return
	}
	handler.logger.Error("Challenge store error", zap.String("challenge_id", id), zap.Error(err))
	utils.JSON(writer, http.StatusServiceUnavailable, models.ErrorResponse{
		Code:    "store_unavailable",
		Message: "Challenge store is unavailable",
	})
}

// record logs the attempt if recording is enabled. Failures never fail the request.
func (handler *CaptchaHandler) record(ctx context.Context, attempt *models.Attempt) {
	if handler.recorder == nil {
		return
	}
	if err := handler.recorder.Record(ctx, attempt); err != nil {
		handler.logger.Warn("Failed to record attempt", zap.String("challenge_id", attempt.ChallengeID), zap.Error(err))
	}
}
