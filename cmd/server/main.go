package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"peerprep/captcha/internal/attempts"
	"peerprep/captcha/internal/config"
	"peerprep/captcha/internal/handlers"
	"peerprep/captcha/internal/jobs"
	"peerprep/captcha/internal/metrics"
	"peerprep/captcha/internal/models"
	"peerprep/captcha/internal/routers"
	"peerprep/captcha/internal/store"
	"peerprep/captcha/internal/token"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func registerRoutes(router *chi.Mux, captchaHandler *handlers.CaptchaHandler, healthHandler *handlers.HealthHandler) {
	routers.HealthRoutes(router, healthHandler, metrics.Handler())
	routers.CaptchaRoutes(router, captchaHandler)
}

// initDatabase opens the attempt log database and migrates its schema
func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		dialector = postgres.Open(cfg.Postgres.DSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.Attempt{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Configuration loaded",
		zap.String("redis_addr", cfg.RedisAddr),
		zap.String("db_driver", cfg.DBDriver),
		zap.Duration("challenge_ttl", cfg.ChallengeTTL),
		zap.Int("max_size", cfg.MaxSize),
		zap.String("default_difficulty", cfg.DefaultDifficulty.String()))

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		// readiness reports it until redis comes up
		logger.Warn("Redis not reachable at startup", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	cancelPing()

	challengeStore := store.NewRedisStore(rdb)
	issuer := token.NewIssuer(cfg.TokenSecret, cfg.TokenTTL)
	captchaHandler := handlers.NewCaptchaHandler(challengeStore, issuer, cfg, logger)

	// attempt log is optional
	var recorder *attempts.Recorder
	var pruneJob *jobs.PruneJob
	db, err := initDatabase(cfg)
	if err != nil {
		logger.Error("Failed to initialize database, attempt recording will be disabled", zap.Error(err))
	} else {
		recorder = attempts.NewRecorder(db)
		captchaHandler.SetRecorder(recorder)

		pruneJob = jobs.NewPruneJob(recorder, cfg.PruneSchedule, cfg.AttemptRetention, logger)
		if err := pruneJob.Start(); err != nil {
			logger.Error("Failed to start prune job", zap.Error(err))
			pruneJob = nil
		}
		logger.Info("Attempt recording initialized successfully")
	}

	var healthHandler *handlers.HealthHandler
	if recorder != nil {
		healthHandler = handlers.NewHealthHandler(challengeStore, recorder, cfg)
	} else {
		healthHandler = handlers.NewHealthHandler(challengeStore, nil, cfg)
	}

	router := chi.NewRouter()

	// cors middleware
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	router.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer, middleware.Timeout(15*time.Second))
	router.Use(metrics.Middleware("captcha"))

	registerRoutes(router, captchaHandler, healthHandler)

	serverAddr := ":" + cfg.Port

	// http server with timeouts
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// starting server in a goroutine
	go func() {
		logger.Info("Captcha service starting", zap.String("addr", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// wait for interrupt signal to gracefully shutdown the server
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	logger.Info("Captcha service shutting down...")

	if pruneJob != nil {
		pruneJob.Stop()
	}

	// graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("Captcha service exited")
}
