package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"wordbuilder/internal/config"
	"wordbuilder/internal/models"
	"wordbuilder/internal/repository"
	"wordbuilder/internal/security"
	"wordbuilder/internal/service"
)

type AdminHandler struct {
	cfg             *config.Config
	tokens          *security.TokenService
	progressService *service.ProgressService
	emailService    *service.EmailService
	log             *zap.Logger
}

func NewAdminHandler(cfg *config.Config, tokens *security.TokenService, progressService *service.ProgressService, emailService *service.EmailService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		cfg:             cfg,
		tokens:          tokens,
		progressService: progressService,
		emailService:    emailService,
		log:             log,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login checks admin credentials and issues a bearer token.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.Username != h.cfg.AdminUsername || !security.CheckPassword(h.cfg.AdminPasswordHash, req.Password) {
		respondWithError(w, h.log, http.StatusUnauthorized, "invalid credentials", security.ErrInvalidCredentials)
		return
	}

	token, err := h.tokens.Issue(req.Username)
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, "failed to issue token", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// ListSessions returns summary rows for every known session.
func (h *AdminHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.progressService.ListSessions()
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, "failed to list sessions", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// DeleteSession removes a session and all of its progress and attempts.
func (h *AdminHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := models.ValidateSessionID(sessionID); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "invalid session id", err)
		return
	}

	if err := h.progressService.DeleteSession(sessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondWithError(w, h.log, http.StatusNotFound, "session not found", nil)
			return
		}
		respondWithError(w, h.log, http.StatusInternalServerError, "failed to delete session", err)
		return
	}

	h.log.Info("Session deleted by admin",
		zap.String("session_id", sessionID),
		zap.String("admin", AdminFromContext(r.Context())))
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type reportRequest struct {
	Email string `json:"email"`
}

// SendReport emails a progress report for one session to the given address.
func (h *AdminHandler) SendReport(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := models.ValidateSessionID(sessionID); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "invalid session id", err)
		return
	}

	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Email == "" {
		respondWithError(w, h.log, http.StatusBadRequest, "email is required", nil)
		return
	}

	if !h.emailService.IsEnabled() {
		respondWithError(w, h.log, http.StatusServiceUnavailable, "email delivery is not configured", nil)
		return
	}

	progress, err := h.progressService.GetProgress(sessionID)
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, "failed to load progress", err)
		return
	}

	if err := h.emailService.SendProgressReport(r.Context(), req.Email, progress); err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, "failed to send report", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
