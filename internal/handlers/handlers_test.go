package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wordbuilder/internal/assessment"
	"wordbuilder/internal/config"
	"wordbuilder/internal/database"
	"wordbuilder/internal/models"
	"wordbuilder/internal/security"
	"wordbuilder/internal/service"
)

func newTestRouter(t *testing.T) (http.Handler, *security.TokenService) {
	t.Helper()
	logger := zap.NewNop()

	passwordHash, err := security.HashPassword("correct-horse")
	require.NoError(t, err)
	cfg := &config.Config{
		DatabaseType:      "sqlite",
		DatabasePath:      filepath.Join(t.TempDir(), "test.db"),
		AdminUsername:     "admin",
		AdminPasswordHash: passwordHash,
		JWTSecret:         "test-secret",
		TokenLifetime:     time.Hour,
	}

	db, err := database.Initialize(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations("../../migrations", zap.NewNop()))

	progressService := service.NewProgressService(db, assessment.NewEngine(assessment.DefaultThresholds()), logger)
	emailService, err := service.NewEmailService(t.Context(), "", "", "", logger)
	require.NoError(t, err)

	tokens := security.NewTokenService(cfg.JWTSecret, cfg.TokenLifetime)
	mw := NewMiddleware(tokens, logger)
	progressHandler := NewProgressHandler(progressService, logger)
	adminHandler := NewAdminHandler(cfg, tokens, progressService, emailService, logger)

	return NewRouter(progressHandler, adminHandler, mw), tokens
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetProgressRejectsBadSessionID(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/progress/x", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetProgressUnknownSessionReturnsStub(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/progress/unknown-session-000001", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, "unknown sessions are a normal case, never a 404")

	var result models.ProgressReadResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.CurrentLevel)
	assert.Empty(t, result.Levels)
}

func TestPostProgressRoundTrip(t *testing.T) {
	router, _ := newTestRouter(t)

	update := models.ProgressUpdate{
		SessionID:       "handler-test-session-01",
		DisplayName:     "Sam",
		Level:           1,
		WordsCompleted:  2,
		TotalAttempts:   4,
		CorrectAttempts: 3,
		TimeSpent:       60,
	}
	rec := doJSON(t, router, http.MethodPost, "/progress", update, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/progress/handler-test-session-01", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result models.ProgressReadResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "Sam", result.DisplayName)
	require.Len(t, result.Levels, 1)
	assert.Equal(t, 4, result.Levels[0].TotalAttempts)
	assert.InDelta(t, 75.0, result.Levels[0].Accuracy, 1e-9)
}

func TestPostProgressRejectsInvalidDelta(t *testing.T) {
	router, _ := newTestRouter(t)

	update := models.ProgressUpdate{
		SessionID:       "handler-test-session-02",
		Level:           0,
		TotalAttempts:   1,
		CorrectAttempts: 1,
	}
	rec := doJSON(t, router, http.MethodPost, "/progress", update, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	router, tokens := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/admin/sessions", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "missing token is rejected")

	rec = doJSON(t, router, http.MethodGet, "/admin/sessions", nil, map[string]string{
		"Authorization": "Bearer not-a-real-token",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "garbage token is rejected")

	token, err := tokens.Issue("admin")
	require.NoError(t, err)
	rec = doJSON(t, router, http.MethodGet, "/admin/sessions", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminLoginAndDelete(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/admin/login", map[string]string{
		"username": "admin",
		"password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/admin/login", map[string]string{
		"username": "admin",
		"password": "correct-horse",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)
	auth := map[string]string{"Authorization": "Bearer " + login.Token}

	update := models.ProgressUpdate{
		SessionID:     "handler-test-session-03",
		Level:         1,
		TotalAttempts: 1,
	}
	rec = doJSON(t, router, http.MethodPost, "/progress", update, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/admin/sessions/handler-test-session-03", nil, auth)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/admin/sessions/handler-test-session-03", nil, auth)
	assert.Equal(t, http.StatusNotFound, rec.Code, "second delete finds nothing")
}
