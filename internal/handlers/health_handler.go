package handlers

import (
	"context"
	"net/http"
	"time"

	"peerprep/captcha/internal/config"
	"peerprep/captcha/internal/utils"
)

const readinessTimeout = 2 * time.Second

type ReadinessCheck struct {
	Status  string `json:"status"` // "ok" | "failed" | "disabled"
	Message string `json:"message,omitempty"`
}

type ReadinessResponse struct {
	Status  string                    `json:"status"`  // "ready" | "not_ready"
	Service string                    `json:"service"` // Service name
	Checks  map[string]ReadinessCheck `json:"checks"`  // Individual check results
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	redis    Pinger
	database Pinger
	config   *config.Config
}

// database may be nil when attempt recording is disabled
func NewHealthHandler(redis Pinger, database Pinger, cfg *config.Config) *HealthHandler {
	return &HealthHandler{
		redis:    redis,
		database: database,
		config:   cfg,
	}
}

func (handler *HealthHandler) HealthzHandler(writer http.ResponseWriter, request *http.Request) {
	utils.JSON(writer, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "captcha",
		"version": "1.0.0",
	})
}

func (handler *HealthHandler) ReadyzHandler(writer http.ResponseWriter, request *http.Request) {
	ctx, cancel := context.WithTimeout(request.Context(), readinessTimeout)
	defer cancel()

	checks := make(map[string]ReadinessCheck)
	allChecksPass := true

	// challenges cannot be issued without redis
	if handler.redis == nil {
		checks["redis"] = ReadinessCheck{Status: "failed", Message: "Redis client not initialized"}
		allChecksPass = false
	} else if err := handler.redis.Ping(ctx); err != nil {
		checks["redis"] = ReadinessCheck{Status: "failed", Message: err.Error()}
		allChecksPass = false
	} else {
		checks["redis"] = ReadinessCheck{Status: "ok"}
	}

	// the database only backs attempt stats, so a missing one is not fatal
	if handler.database == nil {
		checks["database"] = ReadinessCheck{Status: "disabled", Message: "Attempt recording is disabled"}
	} else if err := handler.database.Ping(ctx); err != nil {
		checks["database"] = ReadinessCheck{Status: "failed", Message: err.Error()}
		allChecksPass = false
	} else {
		checks["database"] = ReadinessCheck{Status: "ok"}
	}

	if handler.config == nil {
		checks["configuration"] = ReadinessCheck{Status: "failed", Message: "Configuration not loaded"}
		allChecksPass = false
	} else {
		checks["configuration"] = ReadinessCheck{Status: "ok"}
	}

	response := ReadinessResponse{
		Service: "captcha",
		Checks:  checks,
	}

	if allChecksPass {
		response.Status = "ready"
		utils.JSON(writer, http.StatusOK, response)
	} else {
		response.Status = "not_ready"
		utils.JSON(writer, http.StatusServiceUnavailable, response)
	}
}
