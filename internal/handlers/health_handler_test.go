package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"peerprep/captcha/internal/attempts"
	"peerprep/captcha/internal/handlers"
	"peerprep/captcha/internal/store"
	"peerprep/captcha/internal/testhelpers"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readyz(t *testing.T, h *handlers.HealthHandler) (int, handlers.ReadinessResponse) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ReadyzHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	return rr.Code, decode[handlers.ReadinessResponse](t, rr)
}

func TestReadyz_AllChecksPass(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	recorder := attempts.NewRecorder(testhelpers.SetupTestDB(t))

	code, resp := readyz(t, handlers.NewHealthHandler(store.NewRedisStore(rdb), recorder, testConfig()))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", resp.Status)
	assert.Equal(t, "captcha", resp.Service)
	for _, name := range []string{"redis", "database", "configuration"} {
		assert.Equal(t, "ok", resp.Checks[name].Status, name)
	}
}

func TestReadyz_DatabaseDisabled(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	code, resp := readyz(t, handlers.NewHealthHandler(store.NewRedisStore(rdb), nil, testConfig()))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "disabled", resp.Checks["database"].Status)
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return context.DeadlineExceeded }

func TestReadyz_RedisDown(t *testing.T) {
	code, resp := readyz(t, handlers.NewHealthHandler(downPinger{}, nil, testConfig()))

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not_ready", resp.Status)
	require.Contains(t, resp.Checks, "redis")
	assert.Equal(t, "failed", resp.Checks["redis"].Status)
}

func TestReadyz_MissingDependencies(t *testing.T) {
	code, resp := readyz(t, handlers.NewHealthHandler(nil, downPinger{}, nil))

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "failed", resp.Checks["redis"].Status)
	assert.Equal(t, "failed", resp.Checks["database"].Status)
	assert.Equal(t, "failed", resp.Checks["configuration"].Status)
}

func TestHealthz(t *testing.T) {
	rr := httptest.NewRecorder()
	handlers.NewHealthHandler(nil, nil, nil).HealthzHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rr)["status"])
}
