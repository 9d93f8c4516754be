package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"peerprep/captcha/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, body string, next http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	handler := ValidateRequest[*models.VerifyRequest]()(next)
	req := httptest.NewRequest(http.MethodPost, "/verify", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestValidateRequestPassesValidatedBody(t *testing.T) {
	var got *models.VerifyRequest
	rec := serve(t, `{"answer":"14"}`, func(w http.ResponseWriter, r *http.Request) {
		got = GetValidatedRequest[*models.VerifyRequest](r)
		w.WriteHeader(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "14", got.Answer)
}

func TestValidateRequestRejectsInvalidJSON(t *testing.T) {
	rec := serve(t, `{"answer":`, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", decodeError(t, rec).Code)
}

func TestValidateRequestReturnsModelError(t *testing.T) {
	rec := serve(t, ``, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing_answer", decodeError(t, rec).Code)
}

func TestValidateRequestRejectsLargeBody(t *testing.T) {
	body := `{"answer":"` + strings.Repeat("9", maxBodyBytes) + `"}`
	rec := serve(t, body, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "body_too_large", decodeError(t, rec).Code)
}
