package routers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"peerprep/captcha/internal/config"
	"peerprep/captcha/internal/handlers"
	"peerprep/captcha/internal/metrics"
	"peerprep/captcha/internal/store"
	"peerprep/captcha/internal/token"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func TestHealthRoutes(t *testing.T) {
	router := chi.NewRouter()
	handler := handlers.NewHealthHandler(nil, nil, &config.Config{})

	HealthRoutes(router, handler, metrics.Handler())

	for _, path := range []string{"/healthz", "/api/v1/captcha/healthz", "/metrics"} {
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s route not registered correctly, got status %d", path, rec.Code)
		}
	}
}

func TestCaptchaRoutesRegistersEndpoints(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	router := chi.NewRouter()
	captchaHandler := handlers.NewCaptchaHandler(store.NewRedisStore(rdb), token.NewIssuer("secret", time.Minute), &config.Config{}, zap.NewNop())

	CaptchaRoutes(router, captchaHandler)

	paths := map[string]bool{}
	if err := chi.Walk(router, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		paths[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("failed walking routes: %v", err)
	}

	expected := []string{
		"POST /api/v1/captcha/challenges",
		"GET /api/v1/captcha/challenges/{id}/image",
		"POST /api/v1/captcha/challenges/{id}/verify",
		"POST /api/v1/captcha/tokens/verify",
		"GET /api/v1/captcha/stats",
	}

	for _, route := range expected {
		if !paths[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}
